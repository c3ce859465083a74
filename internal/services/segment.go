package services

import (
	"fmt"
	"strings"

	"github.com/doeshing/dirsh/internal/domain"
)

// Gate decides whether a segment runs, based on the exit status of the
// last segment that actually executed.
type Gate int

const (
	// GateAlways marks the first segment of a chain.
	GateAlways Gate = iota
	// GateOnSuccess is the && operator.
	GateOnSuccess
	// GateOnFailure is the || operator.
	GateOnFailure
)

// Segment is one command in a &&/||-joined chain.
type Segment struct {
	Text string
	Gate Gate
}

// SplitSegments splits a raw input line on the merge operators && and
// ||. Operators inside single or double quotes are literal text, so an
// alias body like `grep "a && b"` stays one segment. An empty segment
// (leading, trailing, or doubled operator) rejects the whole line.
func SplitSegments(line string) ([]Segment, error) {
	var segments []Segment
	var current strings.Builder
	gate := GateAlways
	var quote byte

	flush := func(next Gate) error {
		text := strings.TrimSpace(current.String())
		if text == "" {
			return fmt.Errorf("empty command around merge operator: %w", domain.ErrParse)
		}
		segments = append(segments, Segment{Text: text, Gate: gate})
		gate = next
		current.Reset()
		return nil
	}

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
			current.WriteByte(c)
		case c == '\'' || c == '"':
			quote = c
			current.WriteByte(c)
		case c == '&' && i+1 < len(line) && line[i+1] == '&':
			if err := flush(GateOnSuccess); err != nil {
				return nil, err
			}
			i++
		case c == '|' && i+1 < len(line) && line[i+1] == '|':
			if err := flush(GateOnFailure); err != nil {
				return nil, err
			}
			i++
		default:
			current.WriteByte(c)
		}
	}
	if err := flush(GateAlways); err != nil {
		return nil, err
	}
	return segments, nil
}
