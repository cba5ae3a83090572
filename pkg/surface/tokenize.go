package surface

import (
	"fmt"
	"strings"

	"github.com/mtxt-tools/mtxtmidi/pkg/escape"
)

// tokenize splits one MTXT line into whitespace-separated fields, treating a
// double-quoted run (with its own backslash escapes, per pkg/escape) as a
// single token and a '#' that begins a field outside quotes (at the start of
// the line or after whitespace) as the start of a to-end-of-line comment. A
// '#' inside a field, as in the note name "F#3", is part of that field.
func tokenize(line string) ([]string, error) {
	var tokens []string
	var cur strings.Builder
	inQuotes := false

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case inQuotes:
			cur.WriteRune(c)
			if c == '\\' && i+1 < len(runes) {
				i++
				cur.WriteRune(runes[i])
				continue
			}
			if c == '"' {
				inQuotes = false
			}
		case c == '"':
			flush()
			cur.WriteRune(c)
			inQuotes = true
		case c == '#' && cur.Len() == 0:
			return tokens, nil
		case c == ' ' || c == '\t':
			flush()
		default:
			cur.WriteRune(c)
		}
	}
	if inQuotes {
		return nil, fmt.Errorf("unterminated quoted string in line: %q", line)
	}
	flush()
	return tokens, nil
}

// unquote strips a token's surrounding quotes and reverses its escaping.
func unquote(tok string) (string, error) {
	if len(tok) < 2 || tok[0] != '"' || tok[len(tok)-1] != '"' {
		return "", fmt.Errorf("expected a quoted string, got %q", tok)
	}
	return escape.Unescape(tok[1 : len(tok)-1])
}

// splitKV splits a "key=value" field. ok is false if there is no '='.
func splitKV(s string) (key, value string, ok bool) {
	i := strings.IndexByte(s, '=')
	if i < 0 {
		return "", "", false
	}
	return s[:i], s[i+1:], true
}
