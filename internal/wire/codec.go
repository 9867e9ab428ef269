package wire

import (
	"errors"
	"fmt"
)

// MaxListLen bounds file_indices and records inside one match frame. A
// declared length above this is treated as a corrupted length field, not a
// huge allocation request.
const MaxListLen = 100

var ErrProtocolViolation = errors.New("wire: protocol violation")

// DecodeChromosomeInfoList reads a u64 count followed by that many
// {u8 contig id, f64 length} pairs. The count is bounded implicitly by the
// enclosing frame size, not by MaxListLen.
func DecodeChromosomeInfoList(c *Cursor) ([]ChromosomeInfo, error) {
	n, err := c.U64()
	if err != nil {
		return nil, fmt.Errorf("chromosome count: %w", err)
	}
	// Preallocate from what the buffer can actually hold, so a corrupt
	// count fails on the first read instead of allocating.
	capHint := uint64(c.Remaining() / 9)
	if n < capHint {
		capHint = n
	}
	out := make([]ChromosomeInfo, 0, capHint)
	for i := uint64(0); i < n; i++ {
		var ci ChromosomeInfo
		if ci.RefContigID, err = c.U8(); err != nil {
			return nil, fmt.Errorf("chromosome %d id: %w", i, err)
		}
		if ci.RefLen, err = c.F64(); err != nil {
			return nil, fmt.Errorf("chromosome %d length: %w", i, err)
		}
		out = append(out, ci)
	}
	return out, nil
}

// DecodeChromosomeHeader reads the one-time header frame payload: a u64
// file count followed by one chromosome list per file.
func DecodeChromosomeHeader(c *Cursor) ([][]ChromosomeInfo, error) {
	numFiles, err := c.U64()
	if err != nil {
		return nil, fmt.Errorf("file count: %w", err)
	}
	capHint := uint64(c.Remaining() / 8)
	if numFiles < capHint {
		capHint = numFiles
	}
	out := make([][]ChromosomeInfo, 0, capHint)
	for i := uint64(0); i < numFiles; i++ {
		list, err := DecodeChromosomeInfoList(c)
		if err != nil {
			return nil, fmt.Errorf("file %d: %w", i, err)
		}
		out = append(out, list)
	}
	return out, nil
}

// DecodeMatchedRecord reads one alignment record. Field order is the wire
// contract and must not change.
func DecodeMatchedRecord(c *Cursor) (MatchedRecord, error) {
	var rec MatchedRecord
	var err error
	if rec.FileIndex, err = c.U64(); err != nil {
		return MatchedRecord{}, fmt.Errorf("file_index: %w", err)
	}
	if rec.RefContigID, err = c.U8(); err != nil {
		return MatchedRecord{}, fmt.Errorf("ref_contig_id: %w", err)
	}
	if rec.QryStartPos, err = c.F64(); err != nil {
		return MatchedRecord{}, fmt.Errorf("qry_start_pos: %w", err)
	}
	if rec.QryEndPos, err = c.F64(); err != nil {
		return MatchedRecord{}, fmt.Errorf("qry_end_pos: %w", err)
	}
	if rec.RefStartPos, err = c.F64(); err != nil {
		return MatchedRecord{}, fmt.Errorf("ref_start_pos: %w", err)
	}
	if rec.RefEndPos, err = c.F64(); err != nil {
		return MatchedRecord{}, fmt.Errorf("ref_end_pos: %w", err)
	}
	if rec.Orientation, err = c.Utf8Char(); err != nil {
		return MatchedRecord{}, fmt.Errorf("orientation: %w", err)
	}
	if rec.Confidence, err = c.F64(); err != nil {
		return MatchedRecord{}, fmt.Errorf("confidence: %w", err)
	}
	if rec.RefLen, err = c.F64(); err != nil {
		return MatchedRecord{}, fmt.Errorf("ref_len: %w", err)
	}
	return rec, nil
}

// DecodeBackendMatch reads one match frame payload. Both list lengths are
// validated against MaxListLen before any narrowing to int.
func DecodeBackendMatch(c *Cursor) (BackendMatch, error) {
	var m BackendMatch
	var err error
	if m.QryContigID, err = c.U32(); err != nil {
		return BackendMatch{}, fmt.Errorf("qry_contig_id: %w", err)
	}

	filesLen, err := c.U64()
	if err != nil {
		return BackendMatch{}, fmt.Errorf("file_indices length: %w", err)
	}
	if filesLen > MaxListLen {
		return BackendMatch{}, fmt.Errorf("%w: file_indices length %d exceeds %d",
			ErrProtocolViolation, filesLen, MaxListLen)
	}
	m.FileIndices = make([]uint64, 0, filesLen)
	for i := 0; i < int(filesLen); i++ {
		idx, err := c.U64()
		if err != nil {
			return BackendMatch{}, fmt.Errorf("file_indices[%d]: %w", i, err)
		}
		m.FileIndices = append(m.FileIndices, idx)
	}

	recordsLen, err := c.U64()
	if err != nil {
		return BackendMatch{}, fmt.Errorf("records length: %w", err)
	}
	if recordsLen > MaxListLen {
		return BackendMatch{}, fmt.Errorf("%w: records length %d exceeds %d",
			ErrProtocolViolation, recordsLen, MaxListLen)
	}
	m.Records = make([]MatchedRecord, 0, recordsLen)
	for i := 0; i < int(recordsLen); i++ {
		rec, err := DecodeMatchedRecord(c)
		if err != nil {
			return BackendMatch{}, fmt.Errorf("records[%d]: %w", i, err)
		}
		m.Records = append(m.Records, rec)
	}
	return m, nil
}
