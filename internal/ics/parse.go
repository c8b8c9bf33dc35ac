package ics

import (
	"errors"
	"sort"
	"strings"

	appLog "glassplanner/internal/log"
	"glassplanner/internal/model"
)

// ErrNotCalendar is returned when a document has no BEGIN:VCALENDAR marker.
// It is the only failure Parse reports; malformed events are dropped.
var ErrNotCalendar = errors.New("ics: input is not a calendar export")

// Parser turns calendar exports into sorted assignment lists. It keeps no
// state between calls other than its ID source and is safe for concurrent use.
type Parser struct {
	ids IDGenerator
}

// NewParser creates a Parser. A nil ids uses random UUIDs.
func NewParser(ids IDGenerator) *Parser {
	if ids == nil {
		ids = NewIDGenerator(nil)
	}
	return &Parser{ids: ids}
}

var defaultParser = NewParser(nil)

// Parse parses doc with random fallback identifiers.
func Parse(doc string) ([]model.Assignment, error) {
	return defaultParser.Parse(doc)
}

// IsCalendar reports whether doc carries the BEGIN:VCALENDAR marker.
func IsCalendar(doc string) bool {
	return strings.Contains(doc, markerCalendar)
}

// Parse converts a calendar export into assignments sorted by start date.
//
// An empty document yields an empty list. Any other document without
// BEGIN:VCALENDAR, whitespace-only ones included, yields ErrNotCalendar.
// Event blocks lacking END:VEVENT, a SUMMARY or a decodable DTSTART are
// skipped. Properties of components nested in an event (VALARM) are ignored,
// so an alarm DESCRIPTION never shadows the event's own.
func (p *Parser) Parse(doc string) ([]model.Assignment, error) {
	if doc == "" {
		return []model.Assignment{}, nil
	}
	if !IsCalendar(doc) {
		return nil, ErrNotCalendar
	}

	blocks := splitEventBlocks(Unfold(doc))
	out := make([]model.Assignment, 0, len(blocks))
	for _, block := range blocks {
		a, ok := p.buildAssignment(block)
		if !ok {
			continue
		}
		out = append(out, a)
	}

	SortByStart(out)

	appLog.Debug("ics parse completed", "block_count", len(blocks), "assignment_count", len(out))
	return out, nil
}

func (p *Parser) buildAssignment(block string) (model.Assignment, bool) {
	fields := ScanBlock(block)

	rawSummary, ok := fields.Get(PropSummary)
	if !ok {
		return model.Assignment{}, false
	}
	rawStart, ok := fields.Get(PropDTStart)
	if !ok {
		return model.Assignment{}, false
	}
	start, ok := DecodeDate(dateToken(rawStart))
	if !ok {
		return model.Assignment{}, false
	}

	course, summary := InferCourse(UnescapeText(strings.TrimSpace(rawSummary)))
	if summary == "" {
		return model.Assignment{}, false
	}

	var description string
	if rawDesc, ok := fields.Get(PropDescription); ok {
		description = StripMarkup(UnescapeText(rawDesc))
	}

	id, _ := fields.Get(PropUID)
	id = strings.TrimSpace(id)
	if id == "" {
		id = p.ids.NewID()
	}

	return model.Assignment{
		ID:          id,
		Summary:     summary,
		Description: description,
		StartDate:   start,
		Course:      course,
		OriginalRaw: block,
	}, true
}

// dateToken returns the text after the last colon of a DTSTART value so that
// stray colons left in unusual parameter lists do not reach the decoder.
func dateToken(v string) string {
	if i := strings.LastIndexByte(v, ':'); i >= 0 {
		v = v[i+1:]
	}
	return strings.TrimSpace(v)
}

// SortByStart orders assignments chronologically, keeping ties in input order.
func SortByStart(list []model.Assignment) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].StartDate.Before(list[j].StartDate)
	})
}
