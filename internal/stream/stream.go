// Package stream decodes a live match stream incrementally: raw network
// chunks in, typed BackendMatch values out, one Next call at a time.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"xmapstream/internal/observability"
	"xmapstream/internal/wire"
)

// DefaultChunkBytes is the read size used when Options leaves it zero.
const DefaultChunkBytes = 32 * 1024

// ErrCanceled wraps the context error when a stream is torn down before
// the transport finishes.
var ErrCanceled = errors.New("stream: canceled")

type Options struct {
	// Logger receives skipped-frame and leftover diagnostics. Nil means
	// no output.
	Logger *zerolog.Logger

	// ChunkBytes is the scratch read size per network pull.
	ChunkBytes int
}

type state int

const (
	stateAwaitingHeader state = iota
	stateStreaming
	stateDone
)

// Stream pulls chunks from body, reassembles length-prefixed frames and
// yields decoded matches. The first frame is always the chromosome header;
// every later frame is one BackendMatch. A corrupt match frame is logged
// and skipped; a corrupt frame length kills the stream, since byte
// boundaries can no longer be trusted.
//
// Stream is not safe for concurrent use; it is built for one consumer
// pulling matches in a loop. Backpressure is inherent: the body is only
// read when the consumer asks for the next match.
type Stream struct {
	body  io.ReadCloser
	asm   *wire.Assembler
	log   zerolog.Logger
	chunk []byte

	state   state
	header  [][]wire.ChromosomeInfo
	eof     bool
	fatal   error
	started time.Time
	yielded int

	closeOnce sync.Once
	closeErr  error
}

func New(body io.ReadCloser, opts Options) *Stream {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.With().Str("stream_id", uuid.NewString()).Logger()
	}
	chunkBytes := opts.ChunkBytes
	if chunkBytes <= 0 {
		chunkBytes = DefaultChunkBytes
	}
	return &Stream{
		body:    body,
		asm:     wire.NewAssembler(),
		log:     log,
		chunk:   make([]byte, chunkBytes),
		started: time.Now(),
	}
}

// Header returns the decoded chromosome header, nil until the first frame
// has been decoded. The returned slices must not be mutated.
func (s *Stream) Header() [][]wire.ChromosomeInfo {
	return s.header
}

// Yielded reports how many matches have been returned so far.
func (s *Stream) Yielded() int {
	return s.yielded
}

// Next returns the next decoded match. It returns io.EOF once the
// transport is drained and every complete frame has been handled. Fatal
// errors are sticky: once Next fails with anything but io.EOF, every later
// call fails the same way. Matches already returned stay valid regardless.
func (s *Stream) Next(ctx context.Context) (wire.BackendMatch, error) {
	if s.fatal != nil {
		return wire.BackendMatch{}, s.fatal
	}
	if s.state == stateDone {
		return wire.BackendMatch{}, io.EOF
	}

	for {
		payload, ok, err := s.asm.Next()
		if err != nil {
			return wire.BackendMatch{}, s.fail(fmt.Errorf("framing: %w", err))
		}
		if ok {
			m, yielded, err := s.handleFrame(payload)
			if err != nil {
				return wire.BackendMatch{}, s.fail(err)
			}
			if yielded {
				s.yielded++
				return m, nil
			}
			continue
		}

		if s.eof {
			return wire.BackendMatch{}, s.finish()
		}
		if err := s.fill(ctx); err != nil {
			return wire.BackendMatch{}, s.fail(err)
		}
	}
}

// handleFrame routes one complete frame payload by stream state. The bool
// result reports whether a match should be yielded to the caller.
func (s *Stream) handleFrame(payload []byte) (wire.BackendMatch, bool, error) {
	switch s.state {
	case stateAwaitingHeader:
		header, err := wire.DecodeChromosomeHeader(wire.NewCursor(payload))
		if err != nil {
			return wire.BackendMatch{}, false, fmt.Errorf("chromosome header: %w", err)
		}
		s.header = header
		s.state = stateStreaming
		observability.RecordFrameDecoded("header")
		s.log.Debug().Int("files", len(header)).Msg("header decoded")
		return wire.BackendMatch{}, false, nil

	default:
		cur := wire.NewCursor(payload)
		m, err := wire.DecodeBackendMatch(cur)
		if err != nil {
			// One corrupt record must not lose the rest of an
			// otherwise-healthy stream.
			reason := skipReason(err)
			observability.RecordFrameSkipped(reason)
			s.log.Warn().Err(err).Str("reason", reason).
				Int("frame_bytes", len(payload)).Msg("match frame skipped")
			return wire.BackendMatch{}, false, nil
		}
		if rem := cur.Remaining(); rem > 0 {
			s.log.Debug().Int("trailing_bytes", rem).Msg("match frame has trailing bytes")
		}
		observability.RecordFrameDecoded("match")
		return m, true, nil
	}
}

// fill blocks for the next transport chunk. Cancelling ctx closes the body,
// which unblocks the pending read.
func (s *Stream) fill(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCanceled, err)
	}
	stop := context.AfterFunc(ctx, func() { s.Close() })
	n, err := s.body.Read(s.chunk)
	stop()

	if n > 0 {
		observability.RecordBytesRead(n)
		s.asm.Push(s.chunk[:n])
	}
	if err != nil {
		if errors.Is(err, io.EOF) {
			s.eof = true
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %w", ErrCanceled, ctxErr)
		}
		return fmt.Errorf("stream: read: %w", err)
	}
	return nil
}

func (s *Stream) finish() error {
	s.state = stateDone
	if leftover := s.asm.Leftover(); leftover > 0 {
		// Truncated final message. Advisory only.
		s.log.Warn().Int("leftover_bytes", leftover).Msg("stream ended mid-frame")
	}
	observability.RecordStream("completed", time.Since(s.started))
	s.log.Debug().Int("matches", s.yielded).Msg("stream complete")
	return io.EOF
}

func (s *Stream) fail(err error) error {
	s.fatal = err
	outcome := "failed"
	if errors.Is(err, ErrCanceled) {
		outcome = "canceled"
	}
	observability.RecordStream(outcome, time.Since(s.started))
	return err
}

// Close releases the underlying body. Safe to call more than once; the
// body is closed exactly once.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.body.Close()
	})
	return s.closeErr
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, wire.ErrProtocolViolation):
		return "protocol_violation"
	case errors.Is(err, wire.ErrOutOfRange):
		return "out_of_range"
	case errors.Is(err, wire.ErrInvalidEncoding):
		return "invalid_encoding"
	default:
		return "decode_error"
	}
}
