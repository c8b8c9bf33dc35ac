// Package dashboard holds the presentation state of an uploaded calendar:
// the course list, which courses are switched on, and which assignments are
// still upcoming.
package dashboard

import (
	"sort"
	"time"

	"glassplanner/internal/model"
)

// Courses returns the distinct course labels of list, sorted.
func Courses(list []model.Assignment) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0)
	for _, a := range list {
		if _, ok := seen[a.Course]; ok {
			continue
		}
		seen[a.Course] = struct{}{}
		out = append(out, a.Course)
	}
	sort.Strings(out)
	return out
}

// Filter selects the assignments shown on the board.
type Filter struct {
	// Active is the set of enabled courses. A nil set enables every course.
	Active map[string]bool

	// Now and Location define "today": anything starting before local
	// midnight of Now is past due and hidden. A zero Now disables the check.
	Now      time.Time
	Location *time.Location
}

// Visible returns the assignments of list that pass f, preserving order.
func (f Filter) Visible(list []model.Assignment) []model.Assignment {
	var cutoff time.Time
	if !f.Now.IsZero() {
		cutoff = StartOfDay(f.Now, f.Location)
	}

	out := make([]model.Assignment, 0, len(list))
	for _, a := range list {
		if !cutoff.IsZero() && a.StartDate.Before(cutoff) {
			continue
		}
		if f.Active != nil && !f.Active[a.Course] {
			continue
		}
		out = append(out, a)
	}
	return out
}

// StartOfDay returns local midnight of t in loc (time.Local when nil).
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// Group buckets list by course, in course order. Assignment order inside a
// group follows list, so a chronologically sorted input stays sorted.
func Group(list []model.Assignment, active map[string]bool) []model.CourseGroup {
	byCourse := make(map[string][]model.Assignment)
	for _, a := range list {
		byCourse[a.Course] = append(byCourse[a.Course], a)
	}

	courses := Courses(list)
	groups := make([]model.CourseGroup, 0, len(courses))
	for _, c := range courses {
		groups = append(groups, model.CourseGroup{
			CourseName:  c,
			Assignments: byCourse[c],
			IsVisible:   active == nil || active[c],
		})
	}
	return groups
}
