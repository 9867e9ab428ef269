// Package server exposes the match-streaming HTTP API.
package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"xmapstream/internal/config"
	"xmapstream/internal/observability"
	"xmapstream/internal/xmap"
)

type Server struct {
	cfg    config.ServerConfig
	log    zerolog.Logger
	cache  *xmap.Cache
	engine *gin.Engine
}

func New(cfg config.ServerConfig, log zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(observability.RequestLogger(log))
	engine.Use(observability.RequestMetricsMiddleware(cfg.Name))
	if len(cfg.CorsOrigins) > 0 {
		engine.Use(cors.New(cors.Config{
			AllowOrigins: cfg.CorsOrigins,
			AllowMethods: []string{"GET", "POST"},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}

	s := &Server{
		cfg:    cfg,
		log:    log,
		cache:  xmap.NewCache(),
		engine: engine,
	}
	s.registerRoutes()
	return s
}

// Engine exposes the underlying router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) Run() error {
	s.log.Info().Str("addr", s.cfg.Addr).Msg("listening")
	return s.engine.Run(s.cfg.Addr)
}
