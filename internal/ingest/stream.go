package ingest

// stream.go holds the reader chain CSV uploads pass through before parsing:
//
//   - a leading UTF-8 byte order mark is dropped (Excel adds one on export)
//   - bytes that are not valid UTF-8 become '?'
//   - bytes are counted and the read fails once a size limit is crossed
//
// Use WrapForStreaming to apply all three in order.

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// BOMSkippingReader drops a UTF-8 byte order mark at the start of the stream.
type BOMSkippingReader struct {
	br      *bufio.Reader
	checked bool
}

// NewBOMSkippingReader wraps r.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{br: bufio.NewReader(r)}
}

// Read implements io.Reader.
func (r *BOMSkippingReader) Read(p []byte) (int, error) {
	if !r.checked {
		r.checked = true
		head, err := r.br.Peek(len(utf8BOM))
		if err != nil && err != io.EOF {
			return 0, err
		}
		if bytes.Equal(head, utf8BOM) {
			if _, err := r.br.Discard(len(utf8BOM)); err != nil {
				return 0, err
			}
		}
	}
	return r.br.Read(p)
}

// UTF8Sanitizer replaces every byte that does not start a valid UTF-8
// sequence with '?'. The replacement is one byte wide so output never
// grows past input. Sequences split across reads are decoded whole.
type UTF8Sanitizer struct {
	br *bufio.Reader

	// tail holds the bytes of an encoded rune that did not fit in p.
	tail []byte

	// err is held back while earlier bytes are still being returned.
	err error
}

// NewUTF8Sanitizer wraps r.
func NewUTF8Sanitizer(r io.Reader) *UTF8Sanitizer {
	return &UTF8Sanitizer{br: bufio.NewReader(r)}
}

// Read implements io.Reader.
func (s *UTF8Sanitizer) Read(p []byte) (int, error) {
	if s.err != nil && len(s.tail) == 0 {
		return 0, s.err
	}

	n := 0
	for n < len(p) {
		if len(s.tail) > 0 {
			c := copy(p[n:], s.tail)
			s.tail = s.tail[c:]
			n += c
			continue
		}

		if s.err != nil {
			break
		}

		r, size, err := s.br.ReadRune()
		if err != nil {
			if n > 0 {
				s.err = err
				return n, nil
			}
			s.err = err
			return 0, err
		}

		if r == utf8.RuneError && size == 1 {
			p[n] = '?'
			n++
			continue
		}

		if r < utf8.RuneSelf {
			p[n] = byte(r)
			n++
			continue
		}

		var enc [utf8.UTFMax]byte
		k := utf8.EncodeRune(enc[:], r)
		c := copy(p[n:], enc[:k])
		n += c
		if c < k {
			s.tail = append(s.tail[:0], enc[c:k]...)
		}

		// Hand back what we have once the buffered input runs dry rather
		// than blocking on the source for a full p.
		if s.br.Buffered() == 0 {
			break
		}
	}
	return n, nil
}

// CountingReader tracks bytes read and fails with ErrFileTooLarge once more
// than Limit bytes have been read. A zero Limit disables the check.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
	Limit     int64
}

// NewCountingReader wraps r.
func NewCountingReader(r io.Reader, limit int64) *CountingReader {
	return &CountingReader{reader: r, Limit: limit}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	if r.Limit > 0 && r.BytesRead > r.Limit {
		return n, fmt.Errorf("%w: more than %d bytes", ErrFileTooLarge, r.Limit)
	}
	return n, err
}

// WrapForStreaming chains the readers: the byte limit applies to the raw
// upload, the BOM is removed next, then the remainder is sanitized.
func WrapForStreaming(r io.Reader, limit int64) io.Reader {
	counted := NewCountingReader(r, limit)
	return NewUTF8Sanitizer(NewBOMSkippingReader(counted))
}
