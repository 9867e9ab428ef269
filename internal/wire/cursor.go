package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"unicode/utf8"
)

var (
	ErrOutOfRange      = errors.New("wire: read past end of buffer")
	ErrInvalidEncoding = errors.New("wire: invalid utf-8 sequence")
)

// Cursor is a forward-only, bounds-checked reader over an immutable byte
// buffer. All multi-byte reads are little-endian. A Cursor never re-reads;
// every successful call advances the position.
type Cursor struct {
	buf []byte
	pos int
}

func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Remaining reports how many bytes are left to read.
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.pos
}

func (c *Cursor) take(n int) ([]byte, error) {
	if len(c.buf)-c.pos < n {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d",
			ErrOutOfRange, n, c.pos, len(c.buf)-c.pos)
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func (c *Cursor) U8() (uint8, error) {
	b, err := c.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *Cursor) U32() (uint32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *Cursor) U64() (uint64, error) {
	b, err := c.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (c *Cursor) F64() (float64, error) {
	bits, err := c.U64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}

// Utf8Char reads exactly one UTF-8 encoded code point. The leading byte
// determines how many continuation bytes follow (0 for ASCII, 1-3 for
// multi-byte sequences).
func (c *Cursor) Utf8Char() (rune, error) {
	lead, err := c.U8()
	if err != nil {
		return 0, err
	}
	var cont int
	switch {
	case lead < 0x80:
		return rune(lead), nil
	case lead&0xE0 == 0xC0:
		cont = 1
	case lead&0xF0 == 0xE0:
		cont = 2
	case lead&0xF8 == 0xF0:
		cont = 3
	default:
		return 0, fmt.Errorf("%w: leading byte 0x%02x", ErrInvalidEncoding, lead)
	}
	rest, err := c.take(cont)
	if err != nil {
		return 0, err
	}
	seq := make([]byte, 0, 4)
	seq = append(seq, lead)
	seq = append(seq, rest...)
	r, size := utf8.DecodeRune(seq)
	if r == utf8.RuneError && size <= 1 {
		return 0, fmt.Errorf("%w: bytes % x", ErrInvalidEncoding, seq)
	}
	return r, nil
}
