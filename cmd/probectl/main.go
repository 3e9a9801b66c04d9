package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/danmuck/futctl/internal/config"
	"github.com/danmuck/futctl/internal/logging"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to a probectl TOML config")
		writeConfig = flag.Bool("write-config", false, "write a starter config template and exit")
		force       = flag.Bool("force", false, "overwrite an existing file with -write-config")
		addr        = flag.String("addr", "", "listen address")
		ndim        = flag.Int("ndim", 0, "probe point dimensionality")
		sessions    = flag.Int("sessions", 0, "sessions to serve before exiting")
		points      = flag.Int("points", 0, "probe points per session")
		seed        = flag.Int64("seed", 0, "probe stream seed")
		trailer     = flag.Bool("trailer", true, "write the end trailer before dropping a session")
	)
	flag.Parse()

	logging.ConfigureRuntime("probectl")

	if *writeConfig {
		path := strings.TrimSpace(*configPath)
		if path == "" {
			path = "cmd/probectl/config.toml"
		}
		if err := config.WriteTemplate(path, "engine", *force); err != nil {
			fmt.Fprintf(os.Stderr, "probectl: %v\n", err)
			os.Exit(1)
		}
		log.Info().Str("path", path).Msg("probectl wrote config template")
		return
	}

	cfg := config.DefaultEngineConfig()
	if strings.TrimSpace(*configPath) != "" {
		loaded, err := config.LoadEngineConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "probectl: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = strings.TrimSpace(*addr)
		case "ndim":
			cfg.Dimensions = *ndim
		case "sessions":
			cfg.Sessions = *sessions
		case "points":
			cfg.PointsPerSession = *points
		case "seed":
			cfg.Seed = *seed
		case "trailer":
			cfg.EndTrailer = *trailer
		}
	})

	if err := config.ValidateEngineConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "probectl: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newEngine(cfg).run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "probectl: %v\n", err)
		os.Exit(1)
	}
}
