package ics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feedBody = "BEGIN:VCALENDAR\r\nBEGIN:VEVENT\r\nSUMMARY:Quiz [MATH 2]\r\nDTSTART:20240301\r\nEND:VEVENT\r\nEND:VCALENDAR\r\n"

func TestFetchOneUsesConditionalRequests(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write([]byte(feedBody))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir(), 5*time.Second)
	src := Source{Name: "canvas", URL: srv.URL + "/feeds/calendars/user_secret.ics"}

	first, err := f.FetchOne(context.Background(), src)
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, feedBody, string(first.Body))

	second, err := f.FetchOne(context.Background(), src)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, feedBody, string(second.Body))
	assert.EqualValues(t, 2, hits.Load())
}

func TestFetchOneFallsBackToCacheOnServerError(t *testing.T) {
	fail := atomic.Bool{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(feedBody))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir(), 5*time.Second)
	src := Source{URL: srv.URL + "/feed.ics"}

	_, err := f.FetchOne(context.Background(), src)
	require.NoError(t, err)

	fail.Store(true)
	res, err := f.FetchOne(context.Background(), src)
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.Equal(t, feedBody, string(res.Body))
}

func TestFetchOneErrorWithoutCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir(), 5*time.Second)
	_, err := f.FetchOne(context.Background(), Source{URL: srv.URL + "/missing.ics"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.NotContains(t, err.Error(), "missing.ics")

	_, err = f.FetchOne(context.Background(), Source{})
	assert.Error(t, err)
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://canvas.example.edu/...(redacted)",
		redactURL("https://canvas.example.edu/feeds/calendars/user_abc.ics"))
	assert.Equal(t, "https://canvas.example.edu/...(redacted)",
		redactURL("https://canvas.example.edu?token=abc"))
	assert.Equal(t, "feed://...(redacted)", redactURL("not a url"))
}
