// xmapctl uploads 2-3 XMAP files to an xmapd server and streams the
// decoded matches back, printing progress as they arrive.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"xmapstream/internal/client"
	"xmapstream/internal/logging"
	"xmapstream/internal/observability"
)

func main() {
	configPath := flag.String("config", "", "path to TOML client config")
	serverURL := flag.String("server", "", "server base URL override")
	timeout := flag.Duration("timeout", 0, "request timeout override (0 = none)")
	asJSON := flag.Bool("json", false, "print the full response as JSON")
	flag.Parse()

	logging.ConfigureRuntime()
	logger := observability.InitLogger("xmapctl")

	if flag.NArg() < client.MinFiles || flag.NArg() > client.MaxFiles {
		fmt.Fprintf(os.Stderr, "usage: xmapctl [flags] <file1.xmap> <file2.xmap> [file3.xmap]\n")
		os.Exit(2)
	}

	cfg, err := loadCtlConfig(*configPath)
	if err != nil {
		logger.Error().Err(err).Msg("config load failed")
		os.Exit(1)
	}
	if *serverURL != "" {
		cfg.ServerURL = *serverURL
	}
	reqTimeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if *timeout > 0 {
		reqTimeout = *timeout
	}

	files := make([]client.File, 0, flag.NArg())
	for _, path := range flag.Args() {
		data, err := readUploadFile(path)
		if err != nil {
			logger.Error().Err(err).Msg("upload file unreadable")
			os.Exit(1)
		}
		files = append(files, client.File{Name: filepath.Base(path), Data: data})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := client.New(cfg.ServerURL, reqTimeout, logger)
	resp, err := c.StreamMatches(ctx, files, func(count int) {
		if count%100 == 0 {
			fmt.Fprintf(os.Stderr, "\rmatches: %d", count)
		}
	})
	fmt.Fprintln(os.Stderr)
	if err != nil {
		// Matches decoded before the failure are still reported below.
		logger.Error().Err(err).Msg("stream failed")
	}
	if resp == nil {
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(resp); encErr != nil {
			logger.Error().Err(encErr).Msg("encode response")
			os.Exit(1)
		}
	} else {
		for i, chroms := range resp.ChromosomeInfo {
			fmt.Printf("file %d: %d chromosomes\n", i, len(chroms))
		}
		fmt.Printf("matches: %d\n", len(resp.Matches))
	}
	if err != nil {
		os.Exit(1)
	}
}
