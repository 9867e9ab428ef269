package testlog

import (
	"testing"

	"github.com/rs/zerolog"

	"xmapstream/internal/logging"
)

func Start(t *testing.T) {
	t.Helper()
	logging.ConfigureTests()
}

// New returns a logger that writes through t.Log, so stream diagnostics
// show up attached to the failing test.
func New(t *testing.T) zerolog.Logger {
	t.Helper()
	return zerolog.New(zerolog.NewTestWriter(t)).With().Str("test", t.Name()).Logger()
}
