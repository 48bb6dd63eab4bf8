// Package comment implements the ordered key/value comment list shared by
// the Opus and Vorbis comment headers.
package comment

import (
	"fmt"
	"io"
	"strings"

	"github.com/opustools/zoog"
	"github.com/opustools/zoog/internal/escaping"
)

// Entry is one (key, value) pair in a comment list. Order of entries in a
// DiscreteCommentList is significant and must round-trip.
type Entry struct {
	Key   string
	Value string
}

// DiscreteCommentList is an ordered sequence of key/value string pairs with
// case-insensitive key operations. Duplicate keys are permitted.
type DiscreteCommentList struct {
	entries []Entry
}

// NewDiscreteCommentList returns an empty list with capacity preallocated.
func NewDiscreteCommentList(capacity int) *DiscreteCommentList {
	return &DiscreteCommentList{entries: make([]Entry, 0, capacity)}
}

// Len returns the number of entries.
func (l *DiscreteCommentList) Len() int { return len(l.entries) }

// IsEmpty reports whether the list has no entries.
func (l *DiscreteCommentList) IsEmpty() bool { return len(l.entries) == 0 }

// Clear removes every entry.
func (l *DiscreteCommentList) Clear() { l.entries = l.entries[:0] }

// Entries returns the entries in insertion order. The returned slice must
// not be mutated by the caller.
func (l *DiscreteCommentList) Entries() []Entry { return l.entries }

func keysEqual(a, b string) bool { return strings.EqualFold(a, b) }

// ValidateFieldName validates a comment key against the ASCII ranges
// spec.md §3 specifies: printable ASCII excluding '=', i.e. ' '..'<' and
// '>'..'}'.
func ValidateFieldName(key string) error {
	for i := 0; i < len(key); i++ {
		c := key[i]
		if (c >= ' ' && c <= '<') || (c > '=' && c <= '}') {
			continue
		}
		return &zoog.Error{Kind: zoog.Format, Op: "ValidateFieldName", Err: zoog.ErrInvalidCommentFieldName}
	}
	return nil
}

// GetFirst returns the first value whose key matches key case-insensitively.
func (l *DiscreteCommentList) GetFirst(key string) (string, bool) {
	for _, e := range l.entries {
		if keysEqual(e.Key, key) {
			return e.Value, true
		}
	}
	return "", false
}

// Push validates key and appends (key, value).
func (l *DiscreteCommentList) Push(key, value string) error {
	if err := ValidateFieldName(key); err != nil {
		return err
	}
	l.entries = append(l.entries, Entry{Key: key, Value: value})
	return nil
}

// RemoveAll drops every entry whose key matches key case-insensitively.
func (l *DiscreteCommentList) RemoveAll(key string) {
	l.Retain(func(k, _ string) bool { return !keysEqual(k, key) })
}

// Replace updates the first entry matching key (case-insensitively) to
// value and removes every later matching entry; if no entry matches, it
// appends (key, value). Order of surviving entries is preserved.
func (l *DiscreteCommentList) Replace(key, value string) error {
	if err := ValidateFieldName(key); err != nil {
		return err
	}
	found := false
	out := l.entries[:0:0]
	for _, e := range l.entries {
		if keysEqual(e.Key, key) {
			if !found {
				out = append(out, Entry{Key: e.Key, Value: value})
				found = true
			}
			continue
		}
		out = append(out, e)
	}
	if !found {
		out = append(out, Entry{Key: key, Value: value})
	}
	l.entries = out
	return nil
}

// Retain keeps entries for which pred(key, value) is true, preserving order.
func (l *DiscreteCommentList) Retain(pred func(key, value string) bool) {
	out := l.entries[:0:0]
	for _, e := range l.entries {
		if pred(e.Key, e.Value) {
			out = append(out, e)
		}
	}
	l.entries = out
}

// Extend appends every entry of other, in order, without validating keys
// again (they were already validated when pushed onto other).
func (l *DiscreteCommentList) Extend(other *DiscreteCommentList) {
	l.entries = append(l.entries, other.entries...)
}

// WriteAsText writes "key=value\n" lines in insertion order, backslash
// escaping the value when escape is true.
func (l *DiscreteCommentList) WriteAsText(w io.Writer, escape bool) error {
	for _, e := range l.entries {
		value := e.Value
		if escape {
			value = escaping.Escape(value)
		}
		if _, err := fmt.Fprintf(w, "%s=%s\n", e.Key, value); err != nil {
			return err
		}
	}
	return nil
}

// ParseComment splits a "key=value" comment into its key and value,
// returning ErrMissingCommentSeparator if there is no '=', or a field-name
// validation error if the key portion is invalid.
func ParseComment(s string) (key, value string, err error) {
	idx := strings.IndexByte(s, FieldNameSeparator)
	if idx < 0 {
		return "", "", &zoog.Error{Kind: zoog.Format, Op: "ParseComment", Err: zoog.ErrMissingCommentSeparator}
	}
	key, value = s[:idx], s[idx+1:]
	if err := ValidateFieldName(key); err != nil {
		return "", "", err
	}
	return key, value, nil
}

// FieldNameSeparator is the byte separating a comment's key from its value.
const FieldNameSeparator = '='
