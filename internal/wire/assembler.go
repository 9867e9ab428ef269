package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// MaxFrameLen is the sanity cap on one frame's payload size. A length
// prefix above it means the byte boundary for every following message is
// unknowable, so the whole stream is considered corrupted.
const MaxFrameLen = 1_000_000

var ErrFrameTooLarge = errors.New("wire: frame length exceeds limit")

const prefixLen = 4

// Assembler converts arbitrarily-sized byte chunks into complete
// length-prefixed frames. Partial frames stay buffered until enough bytes
// arrive. The buffer keeps a read offset and compacts in place rather than
// re-slicing on every frame.
type Assembler struct {
	buf []byte
	off int
}

func NewAssembler() *Assembler {
	return &Assembler{}
}

// Push appends one chunk of raw network bytes.
func (a *Assembler) Push(chunk []byte) {
	if a.off > 0 && a.off >= len(a.buf)-a.off {
		n := copy(a.buf, a.buf[a.off:])
		a.buf = a.buf[:n]
		a.off = 0
	}
	a.buf = append(a.buf, chunk...)
}

// Next extracts the next complete frame payload. It returns (nil, false,
// nil) when more bytes are needed; in that case nothing is consumed. The
// returned payload is a copy and stays valid across further Push calls.
// Callers should drain Next after every Push, since one chunk may complete
// several frames.
func (a *Assembler) Next() ([]byte, bool, error) {
	avail := len(a.buf) - a.off
	if avail < prefixLen {
		return nil, false, nil
	}
	l := binary.LittleEndian.Uint32(a.buf[a.off:])
	if l > MaxFrameLen {
		return nil, false, fmt.Errorf("%w: declared %d bytes", ErrFrameTooLarge, l)
	}
	if avail < prefixLen+int(l) {
		return nil, false, nil
	}
	payload := make([]byte, l)
	copy(payload, a.buf[a.off+prefixLen:])
	a.off += prefixLen + int(l)
	if a.off == len(a.buf) {
		a.buf = a.buf[:0]
		a.off = 0
	}
	return payload, true, nil
}

// Leftover reports how many undecoded bytes remain buffered. Non-zero at
// end of input means the stream ended mid-frame.
func (a *Assembler) Leftover() int {
	return len(a.buf) - a.off
}
