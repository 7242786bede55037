// Package identity derives the human-readable alumni identity key.
//
// A key is the school code, the first two letters of the state, the last two
// digits of the graduation year, a zero-padded three digit sequence and the
// level code, e.g. SPG + OY + 73 + 042 + HI = "SPGOY73042HI".
package identity

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
)

const (
	SchoolCodeWidth = 3
	MaxSequence     = 999
)

var ErrInvalidInput = errors.New("invalid identity input")

var (
	schoolCodeRe = regexp.MustCompile(`^[A-Z0-9]{3}$`)
	stateRe      = regexp.MustCompile(`^[A-Z]{2}`)
	yearRe       = regexp.MustCompile(`^[0-9]{4}$`)
	levelRe      = regexp.MustCompile(`^[A-Z]{2}$`)
)

// Sequencer draws the random part of a key. Draw must return a value in [0, MaxSequence].
type Sequencer interface {
	Draw() int
}

type randomSequencer struct{}

func (randomSequencer) Draw() int {
	return rand.IntN(MaxSequence + 1)
}

// SequencerFunc adapts a plain function to Sequencer.
type SequencerFunc func() int

func (f SequencerFunc) Draw() int { return f() }

type Generator struct {
	seq Sequencer
}

// NewGenerator returns a generator backed by seq, or by math/rand when seq is nil.
func NewGenerator(seq Sequencer) *Generator {
	if seq == nil {
		seq = randomSequencer{}
	}
	return &Generator{seq: seq}
}

func (g *Generator) Generate(schoolCode, state, graduationYear, level string) (string, error) {
	code, st, yy, lvl, err := normalize(schoolCode, state, graduationYear, level)
	if err != nil {
		return "", err
	}

	n := g.seq.Draw()
	if n < 0 || n > MaxSequence {
		return "", fmt.Errorf("%w: sequence %d out of range", ErrInvalidInput, n)
	}
	return fmt.Sprintf("%s%s%s%03d%s", code, st, yy, n, lvl), nil
}

// Pattern returns the regexp every key generated for these inputs matches.
func Pattern(schoolCode, state, graduationYear, level string) (*regexp.Regexp, error) {
	code, st, yy, lvl, err := normalize(schoolCode, state, graduationYear, level)
	if err != nil {
		return nil, err
	}
	return regexp.MustCompile("^" + regexp.QuoteMeta(code+st+yy) + `\d{3}` + regexp.QuoteMeta(lvl) + "$"), nil
}

func normalize(schoolCode, state, graduationYear, level string) (string, string, string, string, error) {
	code := strings.ToUpper(strings.TrimSpace(schoolCode))
	if !schoolCodeRe.MatchString(code) {
		return "", "", "", "", fmt.Errorf("%w: school code %q must be %d letters or digits", ErrInvalidInput, schoolCode, SchoolCodeWidth)
	}
	st := strings.ToUpper(strings.TrimSpace(state))
	if !stateRe.MatchString(st) {
		return "", "", "", "", fmt.Errorf("%w: state %q", ErrInvalidInput, state)
	}
	year := strings.TrimSpace(graduationYear)
	if !yearRe.MatchString(year) {
		return "", "", "", "", fmt.Errorf("%w: graduation year %q", ErrInvalidInput, graduationYear)
	}
	lvl := strings.ToUpper(strings.TrimSpace(level))
	if !levelRe.MatchString(lvl) {
		return "", "", "", "", fmt.Errorf("%w: level %q", ErrInvalidInput, level)
	}
	return code, st[:2], year[2:], lvl, nil
}
