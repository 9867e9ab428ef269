package wire

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestDecodeBackendMatchConcreteScenario(t *testing.T) {
	in := BackendMatch{
		QryContigID: 2001,
		FileIndices: []uint64{0},
		Records: []MatchedRecord{{
			FileIndex:   0,
			RefContigID: 1,
			QryStartPos: 1000.0,
			QryEndPos:   5000.0,
			RefStartPos: 0.0,
			RefEndPos:   250000.0,
			Orientation: '+',
			Confidence:  9.8,
			RefLen:      250000.0,
		}},
	}
	out, err := DecodeBackendMatch(NewCursor(AppendBackendMatch(nil, in)))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.QryContigID != 2001 {
		t.Fatalf("qry_contig_id: got %d want 2001", out.QryContigID)
	}
	if len(out.FileIndices) != 1 || out.FileIndices[0] != 0 {
		t.Fatalf("file_indices: got %v", out.FileIndices)
	}
	if len(out.Records) != 1 {
		t.Fatalf("records: got %d want 1", len(out.Records))
	}
	rec := out.Records[0]
	want := in.Records[0]
	if rec.FileIndex != want.FileIndex || rec.RefContigID != want.RefContigID {
		t.Fatalf("record ids mismatch: %+v", rec)
	}
	if rec.Orientation != '+' {
		t.Fatalf("orientation: got %q want '+'", rec.Orientation)
	}
	for name, pair := range map[string][2]float64{
		"qry_start_pos": {rec.QryStartPos, want.QryStartPos},
		"qry_end_pos":   {rec.QryEndPos, want.QryEndPos},
		"ref_start_pos": {rec.RefStartPos, want.RefStartPos},
		"ref_end_pos":   {rec.RefEndPos, want.RefEndPos},
		"confidence":    {rec.Confidence, want.Confidence},
		"ref_len":       {rec.RefLen, want.RefLen},
	} {
		if !almostEqual(pair[0], pair[1]) {
			t.Fatalf("%s: got %v want %v", name, pair[0], pair[1])
		}
	}
}

func TestDecodeMatchedRecordRoundTrip(t *testing.T) {
	in := MatchedRecord{
		FileIndex:   2,
		RefContigID: 23,
		QryStartPos: 103833.0,
		QryEndPos:   2059.6,
		RefStartPos: 4561.0,
		RefEndPos:   111073.0,
		Orientation: '-',
		Confidence:  15.11,
		RefLen:      248387328.0,
	}
	out, err := DecodeMatchedRecord(NewCursor(AppendMatchedRecord(nil, in)))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.FileIndex != in.FileIndex || out.RefContigID != in.RefContigID || out.Orientation != in.Orientation {
		t.Fatalf("round trip mismatch: got %+v want %+v", out, in)
	}
	if !almostEqual(out.Confidence, in.Confidence) || !almostEqual(out.RefLen, in.RefLen) {
		t.Fatalf("float mismatch: got %+v want %+v", out, in)
	}
}

func TestDecodeBackendMatchFileIndicesCap(t *testing.T) {
	buf := binary.LittleEndian.AppendUint32(nil, 7)
	buf = binary.LittleEndian.AppendUint64(buf, MaxListLen+1)
	_, err := DecodeBackendMatch(NewCursor(buf))
	if !errors.Is(err, ErrProtocolViolation) {
		t.Fatalf("expected ErrProtocolViolation, got %v", err)
	}
}

func TestDecodeBackendMatchRecordsCap(t *testing.T) {
	buf := binary.LittleEndian.AppendUint32(nil, 7)
	buf = binary.LittleEndian.AppendUint64(buf, 0)
	buf = binary.LittleEndian.AppendUint64(buf, MaxListLen+1)
	_, err := DecodeBackendMatch(NewCursor(buf))
	if !errors.Is(err, ErrProtocolViolation) {
		t.Fatalf("expected ErrProtocolViolation, got %v", err)
	}
}

func TestChromosomeHeaderRoundTrip(t *testing.T) {
	in := [][]ChromosomeInfo{
		{{RefContigID: 1, RefLen: 248387328}, {RefContigID: 2, RefLen: 242696752}},
		{{RefContigID: 1, RefLen: 248956422}},
	}
	out, err := DecodeChromosomeHeader(NewCursor(AppendChromosomeHeader(nil, in)))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 2 || len(out[0]) != 2 || len(out[1]) != 1 {
		t.Fatalf("shape mismatch: %v", out)
	}
	if out[0][1].RefContigID != 2 || !almostEqual(out[0][1].RefLen, 242696752) {
		t.Fatalf("entry mismatch: %+v", out[0][1])
	}
}

func TestDecodeChromosomeListCorruptCountFailsFast(t *testing.T) {
	// Count claims far more entries than the buffer can hold.
	buf := binary.LittleEndian.AppendUint64(nil, 1<<50)
	_, err := DecodeChromosomeInfoList(NewCursor(buf))
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}
