package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexToLetter(t *testing.T) {
	tests := []struct {
		want string
		n    int
	}{
		{"A", 1},
		{"B", 2},
		{"Z", 26},
		{"AA", 27},
		{"AZ", 52},
		{"BA", 53},
		{"ZZ", 702},
		{"AAA", 703},
		{"XFD", 16384},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got, err := IndexToLetter(tt.n)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIndexToLetter_InvalidIndex(t *testing.T) {
	for _, n := range []int{0, -1, -27} {
		_, err := IndexToLetter(n)
		assert.ErrorIs(t, err, ErrInvalidRange)
	}
}

func TestLetterToIndex_RoundTrip(t *testing.T) {
	for n := 1; n <= 20000; n++ {
		letter, err := IndexToLetter(n)
		require.NoError(t, err)

		back, err := LetterToIndex(letter)
		require.NoError(t, err)
		if back != n {
			t.Fatalf("round trip of %d through %q returned %d", n, letter, back)
		}
	}
}

func TestLetterToIndex_Invalid(t *testing.T) {
	for _, s := range []string{"", "A1", "Ä", "-"} {
		_, err := LetterToIndex(s)
		assert.ErrorIs(t, err, ErrInvalidRange, "input %q", s)
	}

	n, err := LetterToIndex("az")
	require.NoError(t, err)
	assert.Equal(t, 52, n)
}

func TestA1Range(t *testing.T) {
	rng, err := A1Range(10, 8)
	require.NoError(t, err)
	assert.Equal(t, "A1:H10", rng)

	rng, err = A1Range(3, 27)
	require.NoError(t, err)
	assert.Equal(t, "A1:AA3", rng)

	_, err = A1Range(0, 3)
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = A1Range(3, 0)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestQualifyRange(t *testing.T) {
	assert.Equal(t, "'Sheet1'!A1:B2", qualifyRange("Sheet1", "A1:B2"))
	assert.Equal(t, "'Bob''s'!A1:B2", qualifyRange("Bob's", "A1:B2"))
	assert.Equal(t, "A1:B2", qualifyRange("", "A1:B2"))
}
