package ics

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glassplanner/internal/model"
)

func TestExportRoundTrip(t *testing.T) {
	in := []model.Assignment{
		{
			ID:          "a-1",
			Summary:     "Essay Draft",
			Description: "Outline, thesis; and sources",
			StartDate:   time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC),
			Course:      "ENG 201",
		},
		{
			ID:        "a-2",
			Summary:   "Quiz 1",
			StartDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			Course:    model.DefaultCourse,
		},
	}

	doc := Export(in, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	require.True(t, strings.Contains(doc, "BEGIN:VCALENDAR"))

	out, err := Parse(doc)
	require.NoError(t, err)
	require.Len(t, out, 2)

	// Parse sorts by start date, so the quiz comes first.
	assert.Equal(t, "a-2", out[0].ID)
	assert.Equal(t, "Quiz 1", out[0].Summary)
	assert.Equal(t, model.DefaultCourse, out[0].Course)
	assert.True(t, in[1].StartDate.Equal(out[0].StartDate))

	assert.Equal(t, "a-1", out[1].ID)
	assert.Equal(t, "Essay Draft", out[1].Summary)
	assert.Equal(t, "ENG 201", out[1].Course)
	assert.Equal(t, in[0].Description, out[1].Description)
	assert.True(t, in[0].StartDate.Equal(out[1].StartDate))
}

func TestExportEmpty(t *testing.T) {
	out, err := Parse(Export(nil, time.Now()))
	require.NoError(t, err)
	assert.Empty(t, out)
}
