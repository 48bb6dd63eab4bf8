// Package escaping implements vorbiscomment-style backslash escaping of
// NUL, newline, carriage-return, and backslash for tag I/O.
package escaping

import (
	"fmt"
	"strings"

	"github.com/opustools/zoog"
)

const escapeChar = '\\'

// Escape returns value with \0, \n, \r, and \\ backslash-escaped.
func Escape(value string) string {
	if !strings.ContainsAny(value, "\x00\n\r\\") {
		return value
	}
	var sb strings.Builder
	sb.Grow(len(value))
	for _, c := range value {
		switch c {
		case 0:
			sb.WriteString(`\0`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case escapeChar:
			sb.WriteString(`\\`)
		default:
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

// Unescape reverses Escape. A trailing backslash or an unrecognized escape
// sequence is a *zoog.Error of Kind Control wrapping ErrEscapeDecode.
func Unescape(value string) (string, error) {
	if !strings.ContainsRune(value, escapeChar) {
		return value, nil
	}
	var sb strings.Builder
	sb.Grow(len(value))
	isEscape := false
	for _, c := range value {
		if isEscape {
			switch c {
			case '0':
				sb.WriteByte(0)
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case escapeChar:
				sb.WriteRune(escapeChar)
			default:
				return "", &zoog.Error{
					Kind: zoog.Control,
					Op:   "Unescape",
					Err:  fmt.Errorf("%w: invalid character following backslash: %q", zoog.ErrEscapeDecode, c),
				}
			}
			isEscape = false
		} else if c == escapeChar {
			isEscape = true
		} else {
			sb.WriteRune(c)
		}
	}
	if isEscape {
		return "", &zoog.Error{
			Kind: zoog.Control,
			Op:   "Unescape",
			Err:  fmt.Errorf("%w: trailing backslash", zoog.ErrEscapeDecode),
		}
	}
	return sb.String(), nil
}
