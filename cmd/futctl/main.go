package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/danmuck/futctl/internal/bnn"
	"github.com/danmuck/futctl/internal/config"
	"github.com/danmuck/futctl/internal/explore"
	"github.com/danmuck/futctl/internal/logging"
	"github.com/danmuck/futctl/internal/problem"
	"github.com/danmuck/futctl/internal/viz"
	"github.com/rs/zerolog/log"
	xrand "golang.org/x/exp/rand"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to a futctl TOML config")
		writeConfig = flag.Bool("write-config", false, "write a starter config template and exit")
		force       = flag.Bool("force", false, "overwrite an existing file with -write-config")
		mode        = flag.String("mode", "", "run mode: train|explore|full")
		targetID    = flag.String("target", "", "target surface id")
		addr        = flag.String("addr", "", "exploration engine address")
		rounds      = flag.Int("rounds", 0, "exploration rounds")
		threshold   = flag.Float64("threshold", 0, "squared-error classification threshold")
		graphics    = flag.Bool("graphics", false, "render session and loss plots")
		adminAddr   = flag.String("admin", "", "admin HTTP listen address")
	)
	flag.Parse()

	logging.ConfigureRuntime("futctl")

	if *writeConfig {
		path := strings.TrimSpace(*configPath)
		if path == "" {
			path = "cmd/futctl/config.toml"
		}
		if err := config.WriteTemplate(path, "explorer", *force); err != nil {
			fmt.Fprintf(os.Stderr, "futctl: %v\n", err)
			os.Exit(1)
		}
		log.Info().Str("path", path).Msg("futctl wrote config template")
		return
	}

	cfg := defaultRuntimeConfig()
	if strings.TrimSpace(*configPath) != "" {
		loaded, err := loadRuntimeConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "futctl: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "mode":
			cfg.Mode = strings.TrimSpace(*mode)
		case "target":
			cfg.Target = strings.TrimSpace(*targetID)
		case "addr":
			cfg.Explorer.Session.Address = strings.TrimSpace(*addr)
		case "rounds":
			cfg.Explorer.Rounds = *rounds
		case "threshold":
			cfg.Threshold = *threshold
		case "graphics":
			cfg.Graphics = *graphics
		case "admin":
			cfg.Explorer.AdminListenAddr = strings.TrimSpace(*adminAddr)
		}
	})

	if err := validateRuntimeConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "futctl: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "futctl: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg runtimeConfig) error {
	registry := problem.NewRegistry()
	if err := problem.InstallBuiltinTargets(registry); err != nil {
		return err
	}
	target, ok := registry.Resolve(cfg.Target)
	if !ok {
		return fmt.Errorf("%w: %q", problem.ErrTargetUnknown, cfg.Target)
	}

	ds, err := bnn.BuildGridDataset(target, cfg.GridPoints)
	if err != nil {
		return err
	}
	store, err := bnn.NewStore(cfg.StoreRoot)
	if err != nil {
		return err
	}

	var plotter *viz.Plotter
	if cfg.Graphics {
		plotter, err = viz.NewPlotter(cfg.PlotsDir)
		if err != nil {
			return err
		}
	}

	log.Info().
		Str("mode", cfg.Mode).
		Str("target", cfg.Target).
		Int("ndim", target.Dimensions()).
		Int("samples", ds.Len()).
		Msg("futctl run starting")

	var net *bnn.Net
	switch cfg.Mode {
	case ModeTrain:
		_, err = trainModel(cfg, ds, store, plotter)
		return err
	case ModeExplore:
		net, err = loadOrTrainModel(cfg, ds, store, plotter)
	case ModeFull:
		net, err = trainModel(cfg, ds, store, plotter)
	default:
		return fmt.Errorf("unknown mode %q", cfg.Mode)
	}
	if err != nil {
		return err
	}

	return explorationService(cfg, target, ds, net, store, plotter)
}

// trainModel builds a fresh probabilistic network, fits it on the grid
// dataset, and persists it before returning.
func trainModel(cfg runtimeConfig, ds *bnn.Dataset, store *bnn.Store, plotter *viz.Plotter) (*bnn.Net, error) {
	net, err := bnn.NewNet(ds.Dims(), cfg.Hidden, xrand.NewSource(cfg.Seed))
	if err != nil {
		return nil, err
	}
	hist, err := bnn.Train(net, ds, cfg.Train)
	if err != nil {
		return nil, err
	}
	if err := store.SaveModel(net); err != nil {
		return nil, err
	}
	if plotter != nil {
		path, err := plotter.RenderLoss(hist.Train, hist.Test)
		if err != nil {
			log.Warn().Err(err).Msg("futctl loss plot failed")
		} else {
			log.Info().Str("path", path).Msg("futctl wrote loss plot")
		}
	}
	return net, nil
}

// loadOrTrainModel prefers the persisted model and falls back to a
// fresh training run when none exists yet.
func loadOrTrainModel(cfg runtimeConfig, ds *bnn.Dataset, store *bnn.Store, plotter *viz.Plotter) (*bnn.Net, error) {
	net, err := store.LoadModel()
	if errors.Is(err, bnn.ErrNoModel) {
		log.Info().Str("path", store.ModelPath()).Msg("futctl no saved model, training")
		return trainModel(cfg, ds, store, plotter)
	}
	if err != nil {
		return nil, err
	}
	if net.Dims() != ds.Dims() {
		return nil, fmt.Errorf("saved model expects %d inputs, target %q has %d", net.Dims(), cfg.Target, ds.Dims())
	}
	log.Info().Str("path", store.ModelPath()).Msg("futctl loaded model")
	return net, nil
}

func explorationService(cfg runtimeConfig, target problem.Target, ds *bnn.Dataset, net *bnn.Net, store *bnn.Store, plotter *viz.Plotter) error {
	sampler, err := bnn.NewSampler(net, ds, target, cfg.Threshold, cfg.Seed)
	if err != nil {
		return err
	}

	deps := explore.Deps{
		Sampler: explore.SamplerFunc(func() (explore.ConcreteModel, error) {
			model, err := sampler.Sample()
			if err != nil {
				return nil, err
			}
			return model, nil
		}),
		Store: store,
	}
	if plotter != nil {
		deps.Sink = plotter
	}

	svcCfg := cfg.Explorer
	svcCfg.Session.Dimensions = target.Dimensions()
	svc, err := explore.NewService(svcCfg, deps)
	if err != nil {
		return err
	}
	return svc.Run()
}
