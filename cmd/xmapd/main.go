package main

import (
	"flag"
	"os"

	"xmapstream/internal/config"
	"xmapstream/internal/logging"
	"xmapstream/internal/observability"
	"xmapstream/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to TOML server config")
	addr := flag.String("addr", "", "listen address override")
	flag.Parse()

	logging.ConfigureRuntime()
	logger := observability.InitLogger("xmapd")

	cfg := config.DefaultServerConfig()
	if *configPath != "" {
		loaded, err := config.LoadServerConfig(*configPath)
		if err != nil {
			logger.Error().Err(err).Msg("config load failed")
			os.Exit(1)
		}
		cfg = loaded
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	observability.RegisterMetrics()

	if err := server.New(cfg, logger).Run(); err != nil {
		logger.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
}
