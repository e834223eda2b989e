package lumen

import (
	"errors"
	"strconv"
)

// Level is the lamp brightness, 1 (dim) to 9 (bright).
type Level int

const (
	MinLevel     Level = 1
	MaxLevel     Level = 9
	DefaultLevel Level = 5
)

// ErrInvalidLevel is returned for anything other than a single digit 1-9.
var ErrInvalidLevel = errors.New("level must be a single digit 1-9")

// ParseLevel parses a brightness token.
func ParseLevel(token string) (Level, error) {
	if len(token) != 1 || token[0] < '0'+byte(MinLevel) || token[0] > '0'+byte(MaxLevel) {
		return 0, ErrInvalidLevel
	}
	return Level(token[0] - '0'), nil
}

// Valid reports whether l is within range.
func (l Level) Valid() bool {
	return l >= MinLevel && l <= MaxLevel
}

func (l Level) String() string {
	return strconv.Itoa(int(l))
}
