package ics

import "strings"

const (
	markerCalendar   = "BEGIN:VCALENDAR"
	markerEventBegin = "BEGIN:VEVENT"
	markerEventEnd   = "END:VEVENT"
)

// Property names read from an event block.
const (
	PropUID         = "UID"
	PropSummary     = "SUMMARY"
	PropDTStart     = "DTSTART"
	PropDescription = "DESCRIPTION"
)

// Field is one content line of an event block: NAME;PARAMS:VALUE.
type Field struct {
	Name   string
	Params string // raw text between the name and the value separator, without the leading ';'
	Value  string
}

// Fields maps property names to their first occurrence within a block.
// Names are case-sensitive.
type Fields map[string]Field

// Get returns the raw value of the first property with the given name.
func (f Fields) Get(name string) (string, bool) {
	fld, ok := f[name]
	if !ok {
		return "", false
	}
	return fld.Value, true
}

// splitEventBlocks cuts an unfolded document at every BEGIN:VEVENT and
// returns the candidates that contain END:VEVENT, truncated right after it.
// Anything before the first event or after the last END:VEVENT is dropped.
func splitEventBlocks(doc string) []string {
	parts := strings.Split(doc, markerEventBegin)
	blocks := make([]string, 0, len(parts))
	for _, p := range parts[1:] {
		end := strings.Index(p, markerEventEnd)
		if end < 0 {
			continue
		}
		blocks = append(blocks, markerEventBegin+p[:end+len(markerEventEnd)])
	}
	return blocks
}

// ScanBlock reads the content lines of one event block into a Fields map.
//
// Each line must start with the property name. Lines of nested components
// (BEGIN:VALARM ... END:VALARM) are skipped so an alarm's DESCRIPTION never
// shadows the event's own. Lines without a value separator are ignored.
func ScanBlock(block string) Fields {
	fields := make(Fields)
	depth := 0

	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "BEGIN:"):
			if line != markerEventBegin {
				depth++
			}
			continue
		case strings.HasPrefix(line, "END:"):
			if line != markerEventEnd && depth > 0 {
				depth--
			}
			continue
		}
		if depth > 0 {
			continue
		}

		fld, ok := parseContentLine(line)
		if !ok {
			continue
		}
		if _, seen := fields[fld.Name]; !seen {
			fields[fld.Name] = fld
		}
	}
	return fields
}

// parseContentLine splits NAME[;PARAMS]:VALUE. Colons inside double-quoted
// parameter values do not end the parameter list.
func parseContentLine(line string) (Field, bool) {
	nameEnd := strings.IndexAny(line, ";:")
	if nameEnd <= 0 {
		return Field{}, false
	}
	fld := Field{Name: line[:nameEnd]}
	if line[nameEnd] == ':' {
		fld.Value = line[nameEnd+1:]
		return fld, true
	}

	inQuote := false
	for i := nameEnd + 1; i < len(line); i++ {
		switch line[i] {
		case '"':
			inQuote = !inQuote
		case ':':
			if inQuote {
				continue
			}
			fld.Params = line[nameEnd+1 : i]
			fld.Value = line[i+1:]
			return fld, true
		}
	}
	return Field{}, false
}
