package tabular

// streaming.go wraps file readers so delimited parsing sees clean
// UTF-8: a leading byte-order mark is dropped and invalid byte
// sequences are replaced before they reach the csv reader.

import (
	"bufio"
	"io"
	"unicode/utf8"
)

// skipBOM discards a leading UTF-8 byte-order mark, if present.
func skipBOM(br *bufio.Reader) {
	head, err := br.Peek(3)
	if err == nil && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		br.Discard(3)
	}
}

// sanitizingReader replaces invalid UTF-8 with '?' on the fly, holding
// back bytes that may open a multi-byte sequence split across reads.
// The replacement byte is single-width, so sanitizing never grows the
// data and rewrites the buffer in place.
type sanitizingReader struct {
	r       io.Reader
	pending []byte
}

// NewSanitizingReader wraps r so that every read yields valid UTF-8.
func NewSanitizingReader(r io.Reader) io.Reader {
	return &sanitizingReader{r: r, pending: make([]byte, 0, utf8.UTFMax)}
}

func (s *sanitizingReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	off := copy(p, s.pending)
	s.pending = s.pending[:0]
	n, err := s.r.Read(p[off:])
	n += off
	if n == 0 {
		return 0, err
	}
	return s.scrub(p[:n], err == io.EOF), err
}

// scrub rewrites data in place and returns how many bytes to surface.
// Unless atEOF, an incomplete trailing sequence moves to pending for
// the next read.
func (s *sanitizingReader) scrub(data []byte, atEOF bool) int {
	if isASCII(data) {
		return len(data)
	}
	write := 0
	for read := 0; read < len(data); {
		r, size := utf8.DecodeRune(data[read:])
		if r == utf8.RuneError && size <= 1 {
			if !atEOF && sequenceLen(data[read]) > len(data)-read {
				s.pending = append(s.pending, data[read:]...)
				return write
			}
			data[write] = '?'
			write++
			read++
			continue
		}
		copy(data[write:], data[read:read+size])
		write += size
		read += size
	}
	return write
}

// sequenceLen returns the byte length the UTF-8 lead byte b announces,
// or 0 for a bare continuation byte.
func sequenceLen(b byte) int {
	switch {
	case b < 0x80:
		return 1
	case b < 0xC0:
		return 0
	case b < 0xE0:
		return 2
	case b < 0xF0:
		return 3
	}
	return 4
}

func isASCII(data []byte) bool {
	for _, b := range data {
		if b >= 0x80 {
			return false
		}
	}
	return true
}
