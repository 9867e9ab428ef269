package stream

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"xmapstream/internal/testutil/testlog"
	"xmapstream/internal/wire"
)

var testHeader = [][]wire.ChromosomeInfo{
	{{RefContigID: 1, RefLen: 248387328}, {RefContigID: 2, RefLen: 242696752}},
	{{RefContigID: 1, RefLen: 248956422}},
}

func testMatch(qry uint32) wire.BackendMatch {
	return wire.BackendMatch{
		QryContigID: qry,
		FileIndices: []uint64{0, 1},
		Records: []wire.MatchedRecord{{
			FileIndex:   0,
			RefContigID: 1,
			QryStartPos: 1000,
			QryEndPos:   5000,
			RefStartPos: 0,
			RefEndPos:   250000,
			Orientation: '+',
			Confidence:  9.8,
			RefLen:      250000,
		}},
	}
}

func encodeStream(t *testing.T, header [][]wire.ChromosomeInfo, matches ...wire.BackendMatch) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := wire.WriteFrame(&buf, wire.AppendChromosomeHeader(nil, header)); err != nil {
		t.Fatalf("write header frame: %v", err)
	}
	for _, m := range matches {
		if err := wire.WriteFrame(&buf, wire.AppendBackendMatch(nil, m)); err != nil {
			t.Fatalf("write match frame: %v", err)
		}
	}
	return buf.Bytes()
}

// chunkedReader serves its contents in fixed-size chunks, mimicking a
// network transport that splits the stream at arbitrary byte boundaries.
type chunkedReader struct {
	data []byte
	size int
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	n := r.size
	if n > len(r.data) {
		n = len(r.data)
	}
	if n > len(p) {
		n = len(p)
	}
	copy(p, r.data[:n])
	r.data = r.data[n:]
	return n, nil
}

func (r *chunkedReader) Close() error { return nil }

func drainStream(t *testing.T, s *Stream) ([]wire.BackendMatch, error) {
	t.Helper()
	var out []wire.BackendMatch
	for {
		m, err := s.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, m)
	}
}

func TestStreamChunkBoundaryInvariance(t *testing.T) {
	testlog.Start(t)
	raw := encodeStream(t, testHeader, testMatch(100), testMatch(200), testMatch(4881976))

	for _, size := range []int{1, 2, 3, 5, 7, 16, 64, len(raw)} {
		log := testlog.New(t)
		s := New(&chunkedReader{data: append([]byte(nil), raw...), size: size}, Options{Logger: &log})
		matches, err := drainStream(t, s)
		if err != nil {
			t.Fatalf("chunk size %d: %v", size, err)
		}
		if len(matches) != 3 {
			t.Fatalf("chunk size %d: got %d matches want 3", size, len(matches))
		}
		if matches[0].QryContigID != 100 || matches[1].QryContigID != 200 || matches[2].QryContigID != 4881976 {
			t.Fatalf("chunk size %d: wrong order: %d %d %d",
				size, matches[0].QryContigID, matches[1].QryContigID, matches[2].QryContigID)
		}
		header := s.Header()
		if len(header) != 2 || len(header[0]) != 2 || len(header[1]) != 1 {
			t.Fatalf("chunk size %d: header shape: %v", size, header)
		}
		s.Close()
	}
}

func TestStreamSkipsCorruptMatchFrame(t *testing.T) {
	var buf bytes.Buffer
	if err := wire.WriteFrame(&buf, wire.AppendChromosomeHeader(nil, testHeader)); err != nil {
		t.Fatalf("write header: %v", err)
	}
	// Declared file_indices length violates the cap; frame must be
	// skipped, not kill the stream.
	corrupt := binary.LittleEndian.AppendUint32(nil, 7)
	corrupt = binary.LittleEndian.AppendUint64(corrupt, wire.MaxListLen+1)
	if err := wire.WriteFrame(&buf, corrupt); err != nil {
		t.Fatalf("write corrupt: %v", err)
	}
	if err := wire.WriteFrame(&buf, wire.AppendBackendMatch(nil, testMatch(42))); err != nil {
		t.Fatalf("write match: %v", err)
	}

	log := testlog.New(t)
	s := New(io.NopCloser(&buf), Options{Logger: &log})
	defer s.Close()
	matches, err := drainStream(t, s)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(matches) != 1 || matches[0].QryContigID != 42 {
		t.Fatalf("expected only the valid match, got %+v", matches)
	}
}

func TestStreamFrameLengthIsFatalAndSticky(t *testing.T) {
	var buf bytes.Buffer
	if err := wire.WriteFrame(&buf, wire.AppendChromosomeHeader(nil, testHeader)); err != nil {
		t.Fatalf("write header: %v", err)
	}
	buf.Write(binary.LittleEndian.AppendUint32(nil, wire.MaxFrameLen+1))

	s := New(io.NopCloser(&buf), Options{})
	defer s.Close()
	_, err := s.Next(context.Background())
	if !errors.Is(err, wire.ErrFrameTooLarge) {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}
	_, again := s.Next(context.Background())
	if !errors.Is(again, wire.ErrFrameTooLarge) {
		t.Fatalf("fatal error not sticky: %v", again)
	}
}

func TestStreamLeftoverBytesTolerated(t *testing.T) {
	raw := encodeStream(t, testHeader, testMatch(7))
	// Truncated trailing frame: prefix promises more bytes than arrive.
	raw = append(raw, binary.LittleEndian.AppendUint32(nil, 500)...)
	raw = append(raw, 0x01, 0x02, 0x03)

	log := testlog.New(t)
	s := New(io.NopCloser(bytes.NewReader(raw)), Options{Logger: &log})
	defer s.Close()
	matches, err := drainStream(t, s)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(matches) != 1 || matches[0].QryContigID != 7 {
		t.Fatalf("expected the one complete match, got %+v", matches)
	}
}

func TestStreamHeaderDecodeErrorIsFatal(t *testing.T) {
	var buf bytes.Buffer
	// Header frame whose file count promises more data than the payload
	// holds.
	if err := wire.WriteFrame(&buf, binary.LittleEndian.AppendUint64(nil, 99)); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	s := New(io.NopCloser(&buf), Options{})
	defer s.Close()
	_, err := s.Next(context.Background())
	if !errors.Is(err, wire.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestStreamEmptyBodyCompletes(t *testing.T) {
	s := New(io.NopCloser(bytes.NewReader(nil)), Options{})
	defer s.Close()
	_, err := s.Next(context.Background())
	if !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
	if s.Header() != nil {
		t.Fatalf("expected nil header, got %v", s.Header())
	}
}

type countingCloser struct {
	io.Reader
	closes atomic.Int32
	inner  io.Closer
}

func (c *countingCloser) Close() error {
	c.closes.Add(1)
	return c.inner.Close()
}

func TestStreamCancellationReleasesReaderOnce(t *testing.T) {
	pr, pw := io.Pipe()
	body := &countingCloser{Reader: pr, inner: pr}

	go func() {
		var buf bytes.Buffer
		wire.WriteFrame(&buf, wire.AppendChromosomeHeader(nil, testHeader))
		wire.WriteFrame(&buf, wire.AppendBackendMatch(nil, testMatch(1)))
		pw.Write(buf.Bytes())
		// Never write again: the next Next call blocks on the pipe.
	}()

	ctx, cancel := context.WithCancel(context.Background())
	s := New(body, Options{})

	first, err := s.Next(ctx)
	if err != nil {
		t.Fatalf("first match: %v", err)
	}
	if first.QryContigID != 1 {
		t.Fatalf("first match id: got %d want 1", first.QryContigID)
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err = s.Next(ctx)
	if !errors.Is(err, ErrCanceled) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected wrapped context.Canceled, got %v", err)
	}

	// The yielded match survives cancellation untouched.
	if first.QryContigID != 1 || len(first.Records) != 1 {
		t.Fatalf("yielded match disturbed: %+v", first)
	}

	s.Close()
	s.Close()
	if got := body.closes.Load(); got != 1 {
		t.Fatalf("body closed %d times, want exactly 1", got)
	}
}
