package ics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDate(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"20240315T090000Z", time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)},
		{"20240315T090000", time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)},
		{"20240301", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"20241231T235959Z", time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)},
		{" 20240229 ", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		got, ok := DecodeDate(tc.in)
		require.True(t, ok, "input %q", tc.in)
		assert.True(t, tc.want.Equal(got), "input %q: got %s", tc.in, got)
		assert.Equal(t, time.UTC, got.Location())
	}
}

func TestDecodeDateRejectsMalformed(t *testing.T) {
	for _, in := range []string{
		"",
		"Z",
		"2024031",
		"2024-03-15",
		"20240315T0900",
		"20240315 090000",
		"2024O315",
		"20241301",
		"20230229",
		"20240315T250000Z",
		"20240315T09000aZ",
	} {
		_, ok := DecodeDate(in)
		assert.False(t, ok, "input %q", in)
	}
}
