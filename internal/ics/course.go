package ics

import (
	"strings"

	"glassplanner/internal/model"
)

// InferCourse extracts a trailing "[course]" tag from a summary.
//
// Only a bracket group that ends the string qualifies, and its content may not
// contain "]". The tag and the whitespace before it are removed from the
// returned summary. Without a tag, or with a blank one, the summary is
// returned unchanged with model.DefaultCourse.
func InferCourse(summary string) (course, cleanSummary string) {
	if !strings.HasSuffix(summary, "]") {
		return model.DefaultCourse, summary
	}
	body := summary[:len(summary)-1]
	open := strings.LastIndexByte(body, '[')
	if open < 0 {
		return model.DefaultCourse, summary
	}
	inner := body[open+1:]
	if strings.Contains(inner, "]") || strings.TrimSpace(inner) == "" {
		return model.DefaultCourse, summary
	}
	return inner, strings.TrimSpace(summary[:open])
}
