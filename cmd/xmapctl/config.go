package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

type ctlConfig struct {
	ServerURL      string `toml:"server_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

func defaultCtlConfig() ctlConfig {
	return ctlConfig{
		ServerURL:      "http://localhost:8080",
		TimeoutSeconds: 0, // no timeout; streams can run long
	}
}

func loadCtlConfig(path string) (ctlConfig, error) {
	cfg := defaultCtlConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return ctlConfig{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if cfg.ServerURL == "" {
		return ctlConfig{}, fmt.Errorf("config missing server_url (%s)", path)
	}
	if cfg.TimeoutSeconds < 0 {
		return ctlConfig{}, fmt.Errorf("config timeout_seconds must be >= 0 (%s)", path)
	}
	return cfg, nil
}

func readUploadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
