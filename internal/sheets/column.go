package sheets

import (
	"fmt"
	"strings"
)

// IndexToLetter converts a 1-based column index to its A1 letter (1 → A, 26 → Z, 27 → AA).
// The alphabet has no zero digit, so every step works on n-1.
func IndexToLetter(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("%w: column index %d", ErrInvalidRange, n)
	}

	var buf []byte
	for n > 0 {
		n--
		buf = append(buf, byte('A'+n%26))
		n /= 26
	}

	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf), nil
}

// LetterToIndex converts an A1 column letter back to its 1-based index.
func LetterToIndex(letter string) (int, error) {
	letter = strings.ToUpper(strings.TrimSpace(letter))
	if letter == "" {
		return 0, fmt.Errorf("%w: empty column label", ErrInvalidRange)
	}

	n := 0
	for i := 0; i < len(letter); i++ {
		c := letter[i]
		if c < 'A' || c > 'Z' {
			return 0, fmt.Errorf("%w: column label %q", ErrInvalidRange, letter)
		}
		n = n*26 + int(c-'A'+1)
	}
	return n, nil
}

// A1Range returns the range covering rows×cols cells from A1, e.g. "A1:H10".
func A1Range(rows, cols int) (string, error) {
	if rows <= 0 {
		return "", fmt.Errorf("%w: row count %d", ErrInvalidRange, rows)
	}
	last, err := IndexToLetter(cols)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("A1:%s%d", last, rows), nil
}

// qualifyRange prefixes a range with a quoted sheet title.
func qualifyRange(sheetTitle, rng string) string {
	if sheetTitle == "" {
		return rng
	}
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(sheetTitle, "'", "''"), rng)
}
