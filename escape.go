package gokeyset

import (
	"fmt"
	"strings"
)

const (
	_fieldSeparator = '~'
	_escapeChar     = '\\'
)

var _fieldEscaper = strings.NewReplacer(
	`\`, `\\`,
	`~`, `\~`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
)

// joinFields escapes every field and joins them with the field separator.
func joinFields(fields []string) string {
	var sb strings.Builder
	for i, field := range fields {
		if i > 0 {
			sb.WriteByte(_fieldSeparator)
		}
		sb.WriteString(_fieldEscaper.Replace(field))
	}

	return sb.String()
}

// splitFields is the inverse of joinFields. It rejects a trailing escape
// character and unknown escape sequences. The input is scanned byte by byte,
// so field bytes that are not valid UTF-8 are kept.
func splitFields(joined string) ([]string, error) {
	var (
		fields  []string
		current strings.Builder
		escaped bool
	)

	for i := 0; i < len(joined); i++ {
		c := joined[i]
		if escaped {
			switch c {
			case 'n':
				current.WriteByte('\n')
			case 'r':
				current.WriteByte('\r')
			case _escapeChar, _fieldSeparator, '"':
				current.WriteByte(c)
			default:
				return nil, fmt.Errorf("%w: unknown escape sequence %q", ErrBadBookmark, joined[i-1:i+1])
			}
			escaped = false

			continue
		}

		switch c {
		case _escapeChar:
			escaped = true
		case _fieldSeparator:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}

	if escaped {
		return nil, fmt.Errorf("%w: truncated escape sequence", ErrBadBookmark)
	}

	return append(fields, current.String()), nil
}
