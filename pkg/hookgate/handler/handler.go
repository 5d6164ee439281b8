// Package handler defines the decision-unit contract the dispatch engine
// operates on. A handler is a named unit with a match predicate and a
// decision function; it never sees another handler's result and interacts
// with the chain through nothing but these two operations.
package handler

import (
	"context"
	"strings"
	"unicode"

	"github.com/randalmurphal/hookgate/pkg/hookgate/hook"
)

// Handler is a single decision unit for one event kind.
//
// Matches must be a pure predicate: it must not panic on well-formed
// payloads and must return false for payloads lacking the fields it
// inspects (handlers defined to match unconditionally for their kind are
// the one exception). Handle is invoked only after Matches returned true;
// it may have side effects but must keep its own operations bounded and
// convert internal failures into an allow with diagnostic context rather
// than panicking, except where failing closed is its explicit purpose.
type Handler interface {
	// Name is the stable handler name; ConfigKey(Name()) addresses the
	// handler in configuration.
	Name() string

	// Priority orders the handler within its chain; lower runs first.
	Priority() int

	// SetPriority applies a configuration override. It is the only
	// post-construction mutation a handler admits.
	SetPriority(p int)

	// Terminal reports whether a binding (deny/ask) decision from this
	// handler stops the chain.
	Terminal() bool

	// Tags label the handler for configuration-time inclusion/exclusion.
	Tags() []string

	Matches(p hook.Payload) bool
	Handle(ctx context.Context, p hook.Payload) hook.Result
}

// Base carries the identity surface of a handler, for embedding by
// concrete implementations. Zero value: priority 0, non-terminal, no tags.
type Base struct {
	name     string
	priority int
	terminal bool
	tags     []string
}

// NewBase creates the identity portion of a handler.
func NewBase(name string, priority int, terminal bool, tags ...string) Base {
	return Base{name: name, priority: priority, terminal: terminal, tags: tags}
}

func (b *Base) Name() string      { return b.name }
func (b *Base) Priority() int     { return b.priority }
func (b *Base) SetPriority(p int) { b.priority = p }
func (b *Base) Terminal() bool    { return b.terminal }
func (b *Base) Tags() []string    { return b.tags }

// HasTag reports whether the handler carries the given tag.
func (b *Base) HasTag(tag string) bool {
	for _, t := range b.tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ConfigKey derives the canonical configuration key for a handler name:
// CamelCase becomes lower_snake_case, runs of non-alphanumerics collapse to
// a single underscore. "BashGuard" -> "bash_guard".
func ConfigKey(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 4)

	prevLower := false
	prevUnderscore := true // suppress a leading underscore
	for _, r := range name {
		switch {
		case unicode.IsUpper(r):
			if prevLower && !prevUnderscore {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			prevLower = false
			prevUnderscore = false
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			prevLower = unicode.IsLower(r)
			prevUnderscore = false
		default:
			if !prevUnderscore {
				b.WriteByte('_')
			}
			prevLower = false
			prevUnderscore = true
		}
	}

	return strings.TrimRight(b.String(), "_")
}

// TagsIntersect reports whether any of the handler's tags appears in the
// given set. An empty set never intersects.
func TagsIntersect(tags []string, set []string) bool {
	for _, t := range tags {
		for _, s := range set {
			if t == s {
				return true
			}
		}
	}
	return false
}
