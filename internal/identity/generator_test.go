package identity

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_Generate(t *testing.T) {
	t.Run("Format", func(t *testing.T) {
		g := NewGenerator(SequencerFunc(func() int { return 42 }))
		key, err := g.Generate("SPG", "OYO", "1973", "HI")
		require.NoError(t, err)
		assert.Equal(t, "SPGOY73042HI", key)
	})

	t.Run("Normalizes case and whitespace", func(t *testing.T) {
		g := NewGenerator(SequencerFunc(func() int { return 7 }))
		key, err := g.Generate(" spg ", "lagos", "2001", "un")
		require.NoError(t, err)
		assert.Equal(t, "SPGLA01007UN", key)
	})

	t.Run("Sequence bounds", func(t *testing.T) {
		for _, n := range []int{0, MaxSequence} {
			g := NewGenerator(SequencerFunc(func() int { return n }))
			key, err := g.Generate("ABC", "KW", "1999", "PR")
			require.NoError(t, err)
			assert.Len(t, key, 12)
		}
		g := NewGenerator(SequencerFunc(func() int { return MaxSequence + 1 }))
		_, err := g.Generate("ABC", "KW", "1999", "PR")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("Invalid input", func(t *testing.T) {
		g := NewGenerator(nil)
		cases := [][4]string{
			{"SP", "OYO", "1973", "HI"},
			{"SPGX", "OYO", "1973", "HI"},
			{"SPG", "O", "1973", "HI"},
			{"SPG", "OYO", "73", "HI"},
			{"SPG", "OYO", "1973", "H"},
		}
		for _, c := range cases {
			_, err := g.Generate(c[0], c[1], c[2], c[3])
			assert.ErrorIs(t, err, ErrInvalidInput, "input %v", c)
		}
	})
}

func TestGenerator_RandomDrawsMatchPattern(t *testing.T) {
	g := NewGenerator(nil)
	shape := regexp.MustCompile(`^SPGOY73\d{3}HI$`)
	pattern, err := Pattern("SPG", "OYO", "1973", "HI")
	require.NoError(t, err)

	for i := 0; i < 500; i++ {
		key, err := g.Generate("SPG", "OYO", "1973", "HI")
		require.NoError(t, err)
		assert.Regexp(t, shape, key)
		assert.True(t, pattern.MatchString(key))
	}
}
