package parse

import (
	"bufio"
	"io"
	"unicode/utf8"
)

// lineBreak returns the width of the line break starting at data[i], or 0.
// Breaks are \n, \r, \r\n, \v, \f, \x1c-\x1e, U+0085, U+2028 and U+2029.
// need is true when data ends inside a possible break and more input could
// change the answer.
func lineBreak(data []byte, i int, atEOF bool) (width int, need bool) {
	switch c := data[i]; c {
	case '\n', '\v', '\f', 0x1c, 0x1d, 0x1e:
		return 1, false
	case '\r':
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return 2, false
			}
			return 1, false
		}
		return 1, !atEOF
	case 0xc2, 0xe2:
		if !utf8.FullRune(data[i:]) && !atEOF {
			return 0, true
		}
		r, size := utf8.DecodeRune(data[i:])
		if r == '\u0085' || r == '\u2028' || r == '\u2029' {
			return size, false
		}
	}
	return 0, false
}

// newLineSplitter returns a bufio.SplitFunc that yields lines without their
// break. A line that outgrows maxLen bytes before its break is replaced by
// an empty token so it still counts as one line but can never match. The scanner buffer must hold at
// least maxLen+utf8.UTFMax bytes.
func newLineSplitter(maxLen int) bufio.SplitFunc {
	skipping := false
	return func(data []byte, atEOF bool) (int, []byte, error) {
		if atEOF && len(data) == 0 {
			if skipping {
				skipping = false
				return 0, []byte{}, nil
			}
			return 0, nil, nil
		}

		for i := 0; i < len(data); i++ {
			width, need := lineBreak(data, i, atEOF)
			if need {
				if len(data) > maxLen {
					// buffer is full: the line is too long either way
					skipping = true
					return i, nil, nil
				}
				return 0, nil, nil
			}
			if width == 0 {
				continue
			}
			if skipping {
				skipping = false
				return i + width, []byte{}, nil
			}
			return i + width, data[:i], nil
		}

		if atEOF {
			if skipping {
				skipping = false
				return len(data), []byte{}, nil
			}
			return len(data), data, nil
		}
		if len(data) > maxLen {
			skipping = true
			return len(data), nil, nil
		}
		return 0, nil, nil
	}
}

func newLineScanner(r io.Reader, maxLen int) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, min(64*1024, maxLen+utf8.UTFMax)), maxLen+utf8.UTFMax)
	scanner.Split(newLineSplitter(maxLen))
	return scanner
}
