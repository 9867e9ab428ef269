// Package client uploads XMAP files and drives the match stream to
// completion.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"xmapstream/internal/stream"
	"xmapstream/internal/wire"
)

const (
	// The match endpoint accepts two or three files per request.
	MinFiles = 2
	MaxFiles = 3

	errorBodyLimit = 4 * 1024
)

var ErrBadFileCount = errors.New("client: expected 2 or 3 files")

// ServerError is an HTTP-level failure reported before any streaming
// begins.
type ServerError struct {
	Status int
	Body   string
}

func (e *ServerError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("client: server returned status %d", e.Status)
	}
	return fmt.Sprintf("client: server returned status %d: %s", e.Status, e.Body)
}

// File is one upload: a display name and the raw XMAP content.
type File struct {
	Name string
	Data []byte
}

// Client drives the upload-and-stream round trip against one server.
type Client struct {
	baseURL string
	httpc   *http.Client
	log     zerolog.Logger
}

func New(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpc:   &http.Client{Timeout: timeout},
		log:     log,
	}
}

// StreamMatches posts files as multipart fields file0..fileN and consumes
// the streamed response to exhaustion. onProgress, when non-nil, is called
// after every decoded match with the running match count. The returned
// response holds everything decoded before any failure, so partial results
// survive a mid-stream error or cancellation.
func (c *Client) StreamMatches(
	ctx context.Context,
	files []File,
	onProgress func(count int),
) (*wire.BackendResponse, error) {
	if len(files) < MinFiles || len(files) > MaxFiles {
		return nil, fmt.Errorf("%w: got %d", ErrBadFileCount, len(files))
	}

	body, contentType, err := buildForm(files)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/xmap/matches", body)
	if err != nil {
		return nil, fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		resp.Body.Close()
		return nil, &ServerError{Status: resp.StatusCode, Body: strings.TrimSpace(string(detail))}
	}

	st := stream.New(resp.Body, stream.Options{Logger: &c.log})
	defer st.Close()

	out := &wire.BackendResponse{}
	for {
		m, err := st.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Hand back what already arrived alongside the failure.
			out.ChromosomeInfo = st.Header()
			return out, err
		}
		out.Matches = append(out.Matches, m)
		if onProgress != nil {
			onProgress(len(out.Matches))
		}
	}
	out.ChromosomeInfo = st.Header()

	c.log.Debug().
		Int("files", len(files)).
		Int("matches", len(out.Matches)).
		Msg("stream drained")
	return out, nil
}

func buildForm(files []File) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for i, f := range files {
		part, err := w.CreateFormFile(fmt.Sprintf("file%d", i), f.Name)
		if err != nil {
			return nil, "", fmt.Errorf("client: form field file%d: %w", i, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", fmt.Errorf("client: form field file%d: %w", i, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("client: close form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
