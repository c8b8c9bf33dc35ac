package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glassplanner/internal/model"
)

const sampleFeed = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:event-lab\r\n" +
	"DTSTART:20240320T170000Z\r\n" +
	"SUMMARY:Lab Report [CHEM 110]\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:event-essay\r\n" +
	"DTSTART;VALUE=DATE:20240315\r\n" +
	"SUMMARY:Essay Draft [ENG 201]\r\n" +
	"DESCRIPTION:Five paragraphs\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:event-old\r\n" +
	"DTSTART:20240301T090000Z\r\n" +
	"SUMMARY:Quiz 1 [ENG 201]\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	parseFormat = "table"
	parseUpcoming = false
	parseCourses = nil
	parseTimezone = "Local"
	now = func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = time.Now })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFeed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feed.ics")
	require.NoError(t, os.WriteFile(path, []byte(sampleFeed), 0o600))
	return path
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "glassplanner v"+version+"\n", out)
}

func TestParseTable(t *testing.T) {
	out, err := execute(t, "parse", writeFeed(t))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "COURSE"))
	assert.Contains(t, lines[1], "Quiz 1")
	assert.Contains(t, lines[2], "Essay Draft")
	assert.Contains(t, lines[3], "CHEM 110")
	assert.Contains(t, lines[3], "2024-03-20 17:00")
}

func TestParseJSONUpcomingByCourse(t *testing.T) {
	out, err := execute(t, "parse", writeFeed(t),
		"--format", "json", "--upcoming", "--timezone", "UTC", "--course", "ENG 201")
	require.NoError(t, err)

	var list []model.Assignment
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "event-essay", list[0].ID)
	assert.Equal(t, "Essay Draft", list[0].Summary)
	assert.Equal(t, "ENG 201", list[0].Course)
	assert.Equal(t, "Five paragraphs", list[0].Description)
}

func TestParseICS(t *testing.T) {
	out, err := execute(t, "parse", writeFeed(t), "--format", "ics", "--course", "CHEM 110")
	require.NoError(t, err)
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "Lab Report [CHEM 110]")
	assert.NotContains(t, out, "Essay Draft")
}

func TestParseRejectsNonCalendar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("just some notes"), 0o600))

	_, err := execute(t, "parse", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notes.txt")
}

func TestParseUnknownFormat(t *testing.T) {
	_, err := execute(t, "parse", writeFeed(t), "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xml")
}
