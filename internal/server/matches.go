package server

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"xmapstream/internal/wire"
	"xmapstream/internal/xmap"
)

// The viewer uploads two or three files per comparison.
const maxUploadFiles = 3

// handleMatches accepts multipart fields file0..fileN and streams the
// chromosome header frame followed by one frame per cross-file match.
// Frames are flushed individually so the client decodes progressively.
func (s *Server) handleMatches(c *gin.Context) {
	if s.cfg.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed multipart form"})
		return
	}

	var uploads [][]byte
	for i := 0; ; i++ {
		headers := form.File[fmt.Sprintf("file%d", i)]
		if len(headers) == 0 {
			break
		}
		f, err := headers[0].Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("file%d unreadable", i)})
			return
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("file%d unreadable", i)})
			return
		}
		uploads = append(uploads, content)
	}

	if len(uploads) == 0 || len(uploads) > maxUploadFiles {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected 2 or 3 files"})
		return
	}

	// A single file has nothing to match against; respond with an empty
	// stream rather than an error.
	if len(uploads) == 1 {
		setStreamHeaders(c)
		c.Status(http.StatusOK)
		return
	}

	files := make([][]xmap.Record, len(uploads))
	for i, content := range uploads {
		records, err := s.cache.GetOrParse(xmap.HashContent(content), content)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("file%d: %v", i, err)})
			return
		}
		files[i] = records
	}

	fileset := xmap.NewFileSet(files)
	setStreamHeaders(c)
	c.Status(http.StatusOK)

	payload := wire.AppendChromosomeHeader(nil, fileset.ChromosomeInfo())
	if err := wire.WriteFrame(c.Writer, payload); err != nil {
		s.log.Warn().Err(err).Msg("header frame write failed")
		return
	}
	c.Writer.Flush()

	ctx := c.Request.Context()
	sent := 0
	for m := range fileset.StreamMatches(ctx) {
		payload = wire.AppendBackendMatch(payload[:0], m)
		if err := wire.WriteFrame(c.Writer, payload); err != nil {
			s.log.Warn().Err(err).Int("sent", sent).Msg("match frame write failed")
			return
		}
		c.Writer.Flush()
		sent++
	}
	s.log.Debug().Int("files", len(uploads)).Int("matches", sent).Msg("match stream complete")
}

func setStreamHeaders(c *gin.Context) {
	c.Header("Content-Type", "application/octet-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Content-Type-Options", "nosniff")
}
