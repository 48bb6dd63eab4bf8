// Package commentrewrite implements the rewrite callback used by the
// comment-editor CLI: leave the comment list untouched, replace it
// wholesale, or retain a filtered subset and append new entries.
package commentrewrite

import (
	"github.com/opustools/zoog/internal/comment"
	"github.com/opustools/zoog/internal/rewriter"
)

// Action is the comment-editor's configured mutation, exactly one of
// NoChange, Replace, or Modify.
type Action struct {
	kind replaceKind

	replaceWith *comment.DiscreteCommentList

	retain func(key, value string) bool
	append *comment.DiscreteCommentList
}

type replaceKind int

const (
	kindNoChange replaceKind = iota
	kindReplace
	kindModify
)

// NoChange returns an Action that leaves the comment list untouched; used
// when the caller only wants to inspect or list the comments.
func NoChange() Action {
	return Action{kind: kindNoChange}
}

// Replace returns an Action that clears the comment header and extends it
// with list, in order.
func Replace(list *comment.DiscreteCommentList) Action {
	return Action{kind: kindReplace, replaceWith: list}
}

// Modify returns an Action that calls retain on the existing comments,
// keeping those for which it returns true, then appends append in order.
func Modify(retain func(key, value string) bool, appendList *comment.DiscreteCommentList) Action {
	return Action{kind: kindModify, retain: retain, append: appendList}
}

// Rewrite returns a rewriter.RewriteFunc implementing a.
func (a Action) Rewrite() rewriter.RewriteFunc {
	return func(h *rewriter.Headers) error {
		switch a.kind {
		case kindNoChange:
			return nil
		case kindReplace:
			list := h.Comments()
			list.Clear()
			list.Extend(a.replaceWith)
			return nil
		case kindModify:
			list := h.Comments()
			if a.retain != nil {
				list.Retain(a.retain)
			}
			if a.append != nil {
				list.Extend(a.append)
			}
			return nil
		default:
			return nil
		}
	}
}

// ValueMatch describes which values of a deleted key should be dropped.
type ValueMatch struct {
	all    bool
	values map[string]struct{}
}

// MatchAll returns a ValueMatch that matches every value.
func MatchAll() ValueMatch { return ValueMatch{all: true} }

// MatchValues returns a ValueMatch that matches only the given values.
func MatchValues(values ...string) ValueMatch {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return ValueMatch{values: set}
}

// Union merges two matchers for the same key: All absorbs any
// ContainedIn set.
func (m ValueMatch) Union(other ValueMatch) ValueMatch {
	if m.all || other.all {
		return MatchAll()
	}
	merged := make(map[string]struct{}, len(m.values)+len(other.values))
	for v := range m.values {
		merged[v] = struct{}{}
	}
	for v := range other.values {
		merged[v] = struct{}{}
	}
	return ValueMatch{values: merged}
}

// Matches reports whether value satisfies m.
func (m ValueMatch) Matches(value string) bool {
	if m.all {
		return true
	}
	_, ok := m.values[value]
	return ok
}

// DeleteMatcher is a case-insensitive key -> ValueMatch map built from
// repeated --delete arguments; union-merges matchers sharing a key.
type DeleteMatcher struct {
	byKey map[string]ValueMatch
}

// NewDeleteMatcher returns an empty matcher.
func NewDeleteMatcher() *DeleteMatcher {
	return &DeleteMatcher{byKey: make(map[string]ValueMatch)}
}

// Add merges match into the matcher under key (case-insensitively).
func (m *DeleteMatcher) Add(key string, match ValueMatch) {
	lower := lowerASCII(key)
	if existing, ok := m.byKey[lower]; ok {
		m.byKey[lower] = existing.Union(match)
	} else {
		m.byKey[lower] = match
	}
}

// Retain returns a predicate suitable for DiscreteCommentList.Retain (or
// Modify) that drops an entry iff its key is present in the matcher and
// its value satisfies the merged matcher.
func (m *DeleteMatcher) Retain() func(key, value string) bool {
	return func(key, value string) bool {
		match, ok := m.byKey[lowerASCII(key)]
		if !ok {
			return true
		}
		return !match.Matches(value)
	}
}

func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
