// Package command contains the pure command-line matching logic for sigos.
// This is part of the Functional Core - no I/O, only pure functions.
package command

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxLineLength is the line bound used when none is configured.
const DefaultMaxLineLength = 1024

// ErrLineTooLong is returned by LineLimit.Clamp under PolicyReject.
var ErrLineTooLong = errors.New("line too long")

// ErrLineTruncated is returned by LineLimit.Clamp under PolicyTruncate
// together with the shortened line. It is a notice, not a failure.
var ErrLineTruncated = errors.New("line truncated")

// Tokenizer splits a line into words separated by runs of whitespace.
// Words are sub-slices of the input line; nothing is copied.
// A Tokenizer is consumed by Next and cannot be restarted.
type Tokenizer struct {
	line string
	pos  int
}

// NewTokenizer returns a tokenizer positioned at the start of line.
func NewTokenizer(line string) *Tokenizer {
	return &Tokenizer{line: line}
}

// Next returns the next word, or false once the line is exhausted.
func (t *Tokenizer) Next() (string, bool) {
	// Skip leading whitespace
	for t.pos < len(t.line) {
		r, size := utf8.DecodeRuneInString(t.line[t.pos:])
		if !unicode.IsSpace(r) {
			break
		}
		t.pos += size
	}
	if t.pos >= len(t.line) {
		return "", false
	}

	start := t.pos
	for t.pos < len(t.line) {
		r, size := utf8.DecodeRuneInString(t.line[t.pos:])
		if unicode.IsSpace(r) {
			break
		}
		t.pos += size
	}
	return t.line[start:t.pos], true
}

// Tokens drains a tokenizer over line and returns all words in order.
func Tokens(line string) []string {
	var words []string
	t := NewTokenizer(line)
	for {
		w, ok := t.Next()
		if !ok {
			return words
		}
		words = append(words, w)
	}
}

// LinePolicy decides what happens to a line longer than LineLimit.Max.
type LinePolicy string

const (
	// PolicyTruncate keeps the first Max bytes of the line.
	PolicyTruncate LinePolicy = "truncate"
	// PolicyReject refuses the whole line.
	PolicyReject LinePolicy = "reject"
)

// ParseLinePolicy converts a configuration value into a LinePolicy.
func ParseLinePolicy(s string) (LinePolicy, error) {
	switch LinePolicy(s) {
	case PolicyTruncate, PolicyReject:
		return LinePolicy(s), nil
	case "":
		return PolicyTruncate, nil
	default:
		return "", fmt.Errorf("unknown line policy %q (want %q or %q)", s, PolicyTruncate, PolicyReject)
	}
}

// LineLimit bounds the length of an incoming command line.
type LineLimit struct {
	Max    int
	Policy LinePolicy
}

// DefaultLineLimit returns the 1024 byte truncating limit.
func DefaultLineLimit() LineLimit {
	return LineLimit{Max: DefaultMaxLineLength, Policy: PolicyTruncate}
}

// Clamp applies the limit to line.
// Under PolicyTruncate an over-long line is cut back to a rune boundary at or
// below Max and returned with ErrLineTruncated. Under PolicyReject it returns
// an empty string and ErrLineTooLong. A Max of zero or less disables the limit.
func (l LineLimit) Clamp(line string) (string, error) {
	if l.Max <= 0 || len(line) <= l.Max {
		return line, nil
	}
	if l.Policy == PolicyReject {
		return "", fmt.Errorf("%w: %d bytes exceeds %d", ErrLineTooLong, len(line), l.Max)
	}

	cut := l.Max
	for cut > 0 && !utf8.RuneStart(line[cut]) {
		cut--
	}
	return line[:cut], fmt.Errorf("%w: %d bytes kept of %d", ErrLineTruncated, cut, len(line))
}
