// Package parse splits raw command lines into argument vectors.
package parse

import (
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"
)

// Line tokenizes raw. A trailing "&" token is dropped and requests background
// execution. Single-quoted regions form a single argument; backslashes and
// double quotes are ordinary characters. A blank line yields no arguments.
func Line(raw string) (argv []string, background bool, err error) {
	argv, err = shellquote.Split(escapeUnquoted(strings.TrimRight(raw, "\r\n")))
	if err != nil {
		return nil, false, fmt.Errorf("error parsing command: %w", err)
	}
	if n := len(argv); n > 0 && argv[n-1] == "&" {
		return argv[:n-1], true, nil
	}
	return argv, false, nil
}

// escapeUnquoted backslash-escapes every '\' and '"' outside single quotes so
// that shellquote passes them through literally.
func escapeUnquoted(s string) string {
	if !strings.ContainsAny(s, `\"`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	quoted := false
	for _, r := range s {
		switch {
		case r == '\'':
			quoted = !quoted
		case !quoted && (r == '\\' || r == '"'):
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
