package ics

import "strings"

// Unfold reverses RFC 5545 line folding: a line break followed by a single
// space is removed together with that space. Both CRLF and bare LF breaks are
// handled.
func Unfold(text string) string {
	if !strings.Contains(text, "\n ") {
		return text
	}
	text = strings.ReplaceAll(text, "\r\n ", "")
	return strings.ReplaceAll(text, "\n ", "")
}

// UnescapeText resolves the four text escapes (\n, \,, \; and \\) in a single
// left-to-right pass. A backslash produced by "\\" never starts a new escape,
// and any other backslash sequence is kept as-is.
func UnescapeText(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		switch next := s[i+1]; next {
		case 'n':
			b.WriteByte('\n')
			i++
		case ',', ';', '\\':
			b.WriteByte(next)
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// EscapeText is the inverse of UnescapeText.
func EscapeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case ',':
			b.WriteString(`\,`)
		case ';':
			b.WriteString(`\;`)
		case '\r':
			// CR only appears as part of CRLF; the LF carries the break.
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// StripMarkup replaces every "<...>" span with a single space and trims the
// result. An unterminated "<" is kept literally.
func StripMarkup(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for {
		open := strings.IndexByte(s, '<')
		if open < 0 {
			break
		}
		end := strings.IndexByte(s[open:], '>')
		if end < 0 {
			break
		}
		b.WriteString(s[:open])
		b.WriteByte(' ')
		s = s[open+end+1:]
	}
	b.WriteString(s)
	return strings.TrimSpace(b.String())
}
