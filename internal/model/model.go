package model

import "time"

// DefaultCourse is the course label used when a summary carries no trailing
// "[course]" tag.
const DefaultCourse = "General"

// Assignment is a single calendar entry normalized for the dashboard.
//
// Records are built once per parse and never mutated afterwards; callers that
// need a different view (filtering, grouping) copy them.
type Assignment struct {
	// ID comes from the event UID when present, otherwise a generated token.
	ID string `json:"id"`

	// Summary is the title with any trailing "[course]" tag removed.
	Summary string `json:"summary"`

	// Description is unescaped text with markup spans removed; may be empty.
	Description string `json:"description"`

	// StartDate is always a resolved instant in UTC.
	StartDate time.Time `json:"start_date"`

	// Course is never empty; DefaultCourse when no tag was found.
	Course string `json:"course"`

	// OriginalRaw is the unprocessed event block, kept for diagnostics.
	OriginalRaw string `json:"original_raw,omitempty"`
}

// CourseGroup is the per-course view used by the sidebar and grouped listing.
type CourseGroup struct {
	CourseName  string       `json:"course_name"`
	Assignments []Assignment `json:"assignments"`
	IsVisible   bool         `json:"is_visible"`
}
