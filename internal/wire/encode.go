package wire

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"unicode/utf8"
)

func appendF64(dst []byte, v float64) []byte {
	return binary.LittleEndian.AppendUint64(dst, math.Float64bits(v))
}

// AppendChromosomeHeader encodes the one-time header payload: u64 file
// count, then one chromosome list per file.
func AppendChromosomeHeader(dst []byte, files [][]ChromosomeInfo) []byte {
	dst = binary.LittleEndian.AppendUint64(dst, uint64(len(files)))
	for _, list := range files {
		dst = binary.LittleEndian.AppendUint64(dst, uint64(len(list)))
		for _, ci := range list {
			dst = append(dst, ci.RefContigID)
			dst = appendF64(dst, ci.RefLen)
		}
	}
	return dst
}

// AppendMatchedRecord encodes one alignment record in wire field order.
func AppendMatchedRecord(dst []byte, rec MatchedRecord) []byte {
	dst = binary.LittleEndian.AppendUint64(dst, rec.FileIndex)
	dst = append(dst, rec.RefContigID)
	dst = appendF64(dst, rec.QryStartPos)
	dst = appendF64(dst, rec.QryEndPos)
	dst = appendF64(dst, rec.RefStartPos)
	dst = appendF64(dst, rec.RefEndPos)
	dst = utf8.AppendRune(dst, rec.Orientation)
	dst = appendF64(dst, rec.Confidence)
	dst = appendF64(dst, rec.RefLen)
	return dst
}

// AppendBackendMatch encodes one match frame payload.
func AppendBackendMatch(dst []byte, m BackendMatch) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, m.QryContigID)
	dst = binary.LittleEndian.AppendUint64(dst, uint64(len(m.FileIndices)))
	for _, idx := range m.FileIndices {
		dst = binary.LittleEndian.AppendUint64(dst, idx)
	}
	dst = binary.LittleEndian.AppendUint64(dst, uint64(len(m.Records)))
	for _, rec := range m.Records {
		dst = AppendMatchedRecord(dst, rec)
	}
	return dst
}

// WriteFrame writes payload to w as a u32 little-endian length prefix
// followed by the payload bytes.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameLen {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(payload))
	}
	var prefix [4]byte
	binary.LittleEndian.PutUint32(prefix[:], uint32(len(payload)))
	if _, err := w.Write(prefix[:]); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	return nil
}
