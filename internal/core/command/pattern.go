package command

import (
	"context"
	"net/netip"
	"strings"
	"time"
)

// WildcardSigil marks a pattern token that captures any input word.
const WildcardSigil = '$'

// Invocation carries the per-call inputs handed to a Handler.
// Captures is borrowed for the duration of Execute and must not be retained.
type Invocation struct {
	Context   context.Context
	Captures  []string
	Timestamp time.Time
	Source    netip.Addr
}

// Capture returns the wildcard value at the zero-based index, or false when
// the pattern captured fewer values.
func (inv Invocation) Capture(i int) (string, bool) {
	if i < 0 || i >= len(inv.Captures) {
		return "", false
	}
	return inv.Captures[i], true
}

// Handler executes a matched command and returns its success flag and output.
type Handler interface {
	Execute(inv Invocation) (bool, string)
}

// HandlerFunc adapts an ordinary function to the Handler interface.
type HandlerFunc func(inv Invocation) (bool, string)

// Execute calls f(inv).
func (f HandlerFunc) Execute(inv Invocation) (bool, string) {
	return f(inv)
}

// Pattern is an immutable registered command: a fixed token sequence, a
// description and the handler to run on a match.
type Pattern struct {
	tokens      []string
	description string
	handler     Handler
}

// NewPattern builds a pattern from tokens. The token slice is copied.
// An empty token list, an empty token or a nil handler is a programming
// error and panics.
func NewPattern(tokens []string, description string, handler Handler) *Pattern {
	if len(tokens) == 0 {
		panic("command: pattern needs at least one token")
	}
	if handler == nil {
		panic("command: pattern " + strings.Join(tokens, " ") + " has no handler")
	}
	for _, tok := range tokens {
		if tok == "" {
			panic("command: empty token in pattern " + strings.Join(tokens, " "))
		}
	}
	return &Pattern{
		tokens:      append([]string(nil), tokens...),
		description: description,
		handler:     handler,
	}
}

// Tokens returns a copy of the pattern tokens.
func (p *Pattern) Tokens() []string {
	return append([]string(nil), p.tokens...)
}

// Description returns the help text of the pattern.
func (p *Pattern) Description() string {
	return p.description
}

// Wildcards returns how many positions of the pattern are wildcards.
func (p *Pattern) Wildcards() int {
	n := 0
	for _, tok := range p.tokens {
		if isWildcard(tok) {
			n++
		}
	}
	return n
}

// TryMatch compares input words with the pattern.
// It matches only when both have the same length and every literal token is
// byte-equal to the word at its position. On a match it returns the words at
// wildcard positions, left to right.
func (p *Pattern) TryMatch(words []string) ([]string, bool) {
	if len(words) != len(p.tokens) {
		return nil, false
	}

	var captures []string
	for i, tok := range p.tokens {
		if isWildcard(tok) {
			captures = append(captures, words[i])
			continue
		}
		if words[i] != tok {
			return nil, false
		}
	}
	return captures, true
}

// Describe renders the pattern as "tok1 tok2 ... : description".
func (p *Pattern) Describe() string {
	return strings.Join(p.tokens, " ") + " : " + p.description
}

func (p *Pattern) execute(inv Invocation) (bool, string) {
	return p.handler.Execute(inv)
}

func isWildcard(tok string) bool {
	return tok[0] == WildcardSigil
}
