package database

import (
	"strconv"
	"strings"
)

// sqlSegment is a run of statement text. Quoted segments are string
// literals, quoted identifiers, comments and dollar-quoted bodies; nothing
// inside them is a placeholder.
type sqlSegment struct {
	text   string
	quoted bool
}

// splitSQL cuts a statement into code and quoted segments. An unterminated
// quote or comment runs to the end of the statement.
func splitSQL(query string) []sqlSegment {
	var (
		segments []sqlSegment
		start    int
	)
	flush := func(end int, quoted bool) {
		if end > start {
			segments = append(segments, sqlSegment{text: query[start:end], quoted: quoted})
		}
		start = end
	}

	for i := 0; i < len(query); {
		end := quotedEnd(query, i)
		if end < 0 {
			i++
			continue
		}
		flush(i, false)
		flush(end, true)
		i = end
	}
	flush(len(query), false)

	return segments
}

// quotedEnd returns the index just past the quoted section starting at i,
// or -1 when none starts there.
func quotedEnd(query string, i int) int {
	switch ch := query[i]; {
	case ch == '\'' || ch == '"' || ch == '`':
		for j := i + 1; j < len(query); j++ {
			if query[j] != ch {
				continue
			}
			// Doubled quote inside the literal.
			if j+1 < len(query) && query[j+1] == ch {
				j++
				continue
			}
			return j + 1
		}
		return len(query)

	case ch == '-' && strings.HasPrefix(query[i:], "--"):
		if n := strings.IndexByte(query[i:], '\n'); n >= 0 {
			return i + n + 1
		}
		return len(query)

	case ch == '/' && strings.HasPrefix(query[i:], "/*"):
		if n := strings.Index(query[i+2:], "*/"); n >= 0 {
			return i + 2 + n + 2
		}
		return len(query)

	case ch == '$':
		tag := parseDollarQuoteTag(query[i:])
		if tag == "" {
			return -1
		}
		if n := strings.Index(query[i+len(tag):], tag); n >= 0 {
			return i + len(tag) + n + len(tag)
		}
		return len(query)
	}

	return -1
}

// parseDollarQuoteTag returns the "$tag$" opening s, or "" when s does not
// open a dollar-quoted string. "$1" is a positional parameter, not a tag.
func parseDollarQuoteTag(s string) string {
	if len(s) < 2 || s[0] != '$' || isDigit(s[1]) {
		return ""
	}
	for i := 1; i < len(s); i++ {
		ch := s[i]
		if ch == '$' {
			return s[:i+1]
		}
		if !isNameChar(ch) {
			return ""
		}
	}
	return ""
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isNameChar(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		isDigit(ch) ||
		ch == '_'
}

// escapeColons prepares a statement for sqlx named compilation, which
// reads every ":word" as a placeholder and "::" as a literal colon.
//
// Colons inside quoted segments are doubled so they survive. A "::" cast in
// code is doubled too, and separated from a preceding name so ":n::int"
// is not read as one placeholder.
func escapeColons(query string) string {
	if !strings.Contains(query, ":") {
		return query
	}

	var out strings.Builder
	out.Grow(len(query) + 16)

	for _, seg := range splitSQL(query) {
		if seg.quoted {
			out.WriteString(strings.ReplaceAll(seg.text, ":", "::"))
			continue
		}

		text := seg.text
		for i := 0; i < len(text); i++ {
			if text[i] == ':' && i+1 < len(text) && text[i+1] == ':' {
				if i > 0 && (isNameChar(text[i-1]) || text[i-1] == '.') {
					out.WriteByte(' ')
				}
				out.WriteString("::::")
				i++
				continue
			}
			out.WriteByte(text[i])
		}
	}

	return out.String()
}

// rebindQuestionToDollar numbers the "?" bindvars outside quoted segments
// as $1, $2, ...
func rebindQuestionToDollar(query string) string {
	if !strings.Contains(query, "?") {
		return query
	}

	var (
		out   strings.Builder
		param int
	)
	out.Grow(len(query) + 16)

	for _, seg := range splitSQL(query) {
		if seg.quoted {
			out.WriteString(seg.text)
			continue
		}
		for i := 0; i < len(seg.text); i++ {
			if seg.text[i] == '?' {
				param++
				out.WriteByte('$')
				out.WriteString(strconv.Itoa(param))
				continue
			}
			out.WriteByte(seg.text[i])
		}
	}

	return out.String()
}
