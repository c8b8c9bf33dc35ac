package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glassplanner/internal/model"
)

type call struct {
	system  string
	history []Message
}

type fakeGenerator struct {
	mu    sync.Mutex
	calls []call
	reply string
	err   error
}

func (f *fakeGenerator) Generate(_ context.Context, system string, history []Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{system: system, history: history})
	return f.reply, f.err
}

func essay() model.Assignment {
	return model.Assignment{
		ID:        "essay-1",
		Summary:   "Essay Draft",
		Course:    "ENG 201",
		StartDate: time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC),
	}
}

func TestSystemInstruction(t *testing.T) {
	got := SystemInstruction(essay())
	assert.Contains(t, got, "Class: ENG 201")
	assert.Contains(t, got, `Assignment Title: "Essay Draft"`)
	assert.Contains(t, got, "Due Date: Fri Mar 15 2024")
	assert.Contains(t, got, `"No specific description provided"`)

	a := essay()
	a.Description = "Five paragraphs"
	assert.Contains(t, SystemInstruction(a), `Description/Details: "Five paragraphs"`)
}

func TestSummarize(t *testing.T) {
	gen := &fakeGenerator{reply: "- Outline\n- Draft"}
	svc := NewService(gen, time.Minute)

	got, err := svc.Summarize(context.Background(), essay())
	require.NoError(t, err)
	assert.Equal(t, "- Outline\n- Draft", got)

	require.Len(t, gen.calls, 1)
	assert.Empty(t, gen.calls[0].system)
	require.Len(t, gen.calls[0].history, 1)
	assert.True(t, strings.Contains(gen.calls[0].history[0].Text, `titled "Essay Draft"`))
}

func TestSummarizeFallbacks(t *testing.T) {
	svc := NewService(&fakeGenerator{reply: "  "}, time.Minute)
	got, err := svc.Summarize(context.Background(), essay())
	require.NoError(t, err)
	assert.Equal(t, fallbackSummary, got)

	svc = NewService(&fakeGenerator{err: errors.New("quota")}, time.Minute)
	_, err = svc.Summarize(context.Background(), essay())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota")

	_, err = NewService(nil, time.Minute).Summarize(context.Background(), essay())
	assert.Error(t, err)
}

func TestChatConversation(t *testing.T) {
	gen := &fakeGenerator{reply: "Start with a thesis."}
	svc := NewService(gen, time.Minute)

	sess := svc.StartChat(essay())
	require.NotEmpty(t, sess.ID)
	msgs := sess.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, RoleModel, msgs[0].Role)
	assert.Contains(t, msgs[0].Text, `"Essay Draft"`)

	reply, err := svc.Send(context.Background(), sess.ID, "  Where do I begin?  ")
	require.NoError(t, err)
	assert.Equal(t, "Start with a thesis.", reply)

	require.Len(t, gen.calls, 1)
	assert.Equal(t, SystemInstruction(essay()), gen.calls[0].system)
	require.Len(t, gen.calls[0].history, 2)
	assert.Equal(t, Message{Role: RoleUser, Text: "Where do I begin?"}, gen.calls[0].history[1])

	assert.Len(t, sess.Messages(), 3)
}

func TestChatTruncatesOnRuneBoundary(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	svc := NewService(gen, time.Minute)
	sess := svc.StartChat(essay())

	msg := "a" + strings.Repeat("é", maxMessageLen)
	_, err := svc.Send(context.Background(), sess.ID, msg)
	require.NoError(t, err)

	require.Len(t, gen.calls, 1)
	sent := gen.calls[0].history[len(gen.calls[0].history)-1].Text
	assert.True(t, utf8.ValidString(sent))
	assert.LessOrEqual(t, len(sent), maxMessageLen)
	assert.Equal(t, maxMessageLen-1, len(sent))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "héllo", truncateRunes("héllo", 10))
	assert.Equal(t, "h", truncateRunes("héllo", 2))
	assert.Equal(t, "hé", truncateRunes("héllo", 3))
	assert.Equal(t, "", truncateRunes("日本", 2))
}

func TestChatErrors(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("unavailable")}
	svc := NewService(gen, time.Minute)
	sess := svc.StartChat(essay())

	_, err := svc.Send(context.Background(), sess.ID, "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = svc.Send(context.Background(), "missing", "hello")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = svc.Send(context.Background(), sess.ID, "hello")
	require.Error(t, err)
	assert.Len(t, sess.Messages(), 1, "failed turn must be rolled back")

	svc.EndChat(sess.ID)
	_, err = svc.Session(sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
