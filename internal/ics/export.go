package ics

import (
	"time"

	ical "github.com/arran4/golang-ical"

	"glassplanner/internal/model"
)

const exportProductID = "-//GlassPlanner//Assignment Export//EN"

// Export writes assignments as an iCalendar document. Text escaping and line
// folding are left to golang-ical.
//
// The course is re-attached to the summary as a trailing "[course]" tag unless
// it is model.DefaultCourse, so parsing the export yields the same summary,
// course, description and start date.
func Export(assignments []model.Assignment, stamp time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(exportProductID)

	for _, a := range assignments {
		ev := cal.AddEvent(a.ID)
		ev.SetDtStampTime(stamp.UTC())
		ev.SetSummary(exportSummary(a))
		ev.SetStartAt(a.StartDate.UTC())
		if a.Description != "" {
			ev.SetDescription(a.Description)
		}
	}
	return cal.Serialize()
}

func exportSummary(a model.Assignment) string {
	if a.Course == "" || a.Course == model.DefaultCourse {
		return a.Summary
	}
	return a.Summary + " [" + a.Course + "]"
}
