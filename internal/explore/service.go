package explore

import (
	"context"
	"errors"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/futctl/internal/observability"
	"github.com/danmuck/futctl/internal/sembas"
)

// Phase describes where the service is in its lifecycle.
type Phase string

const (
	PhaseBoot      Phase = "boot"
	PhaseExploring Phase = "exploring"
	PhaseDone      Phase = "done"
	PhaseFailed    Phase = "failed"
)

// ServiceConfig configures one exploration run as a standalone process.
type ServiceConfig struct {
	Rounds           int
	ContinueOnFault  bool
	AdminListenAddr  string
	AdminCORSOrigins []string
	Session          sembas.Config
}

// DefaultServiceConfig returns standalone runtime defaults. The admin
// surface stays off until an address is configured.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Rounds:          DefaultRounds,
		AdminListenAddr: "",
		Session:         sembas.DefaultConfig(),
	}
}

// Deps are the capabilities one run needs from the model side. Sink is
// optional; nil disables rendering.
type Deps struct {
	Sampler Sampler
	Store   ArtifactStore
	Sink    VisualizationSink
}

// Service runs the exploration lifecycle as a standalone process:
// bootstrap, round loop, optional admin HTTP surface, and
// signal-driven shutdown.
type Service struct {
	cfg    ServiceConfig
	runner *Runner

	mu      sync.RWMutex
	phase   Phase
	started time.Time
}

// NewService validates the engine link configuration and wires the
// round loop.
func NewService(cfg ServiceConfig, deps Deps) (*Service, error) {
	client, err := sembas.NewClient(cfg.Session)
	if err != nil {
		return nil, err
	}
	runner, err := NewRunner(
		RunnerConfig{Rounds: cfg.Rounds, ContinueOnFault: cfg.ContinueOnFault},
		client,
		deps.Sampler,
		deps.Store,
		deps.Sink,
	)
	if err != nil {
		return nil, err
	}
	return &Service{
		cfg:     cfg,
		runner:  runner,
		phase:   PhaseBoot,
		started: time.Now(),
	}, nil
}

// Run blocks until the exploration finishes or a process signal ends it.
func (s *Service) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := s.bootstrap(); err != nil {
		return err
	}
	return s.serve(ctx)
}

func (s *Service) bootstrap() error {
	observability.RegisterMetrics()
	log.Info().
		Str("addr", s.cfg.Session.Address).
		Int("ndim", s.cfg.Session.Dimensions).
		Int("rounds", s.runner.cfg.Rounds).
		Str("admin", s.cfg.AdminListenAddr).
		Msg("explore.Service.bootstrap ready")
	return nil
}

func (s *Service) serve(ctx context.Context) error {
	adminErr := make(chan error, 1)
	if addr := strings.TrimSpace(s.cfg.AdminListenAddr); addr != "" {
		go func() {
			adminErr <- s.serveAdmin(ctx, addr)
		}()
	}

	s.setPhase(PhaseExploring)
	runErr := make(chan error, 1)
	go func() {
		_, err := s.runner.Run(ctx)
		runErr <- err
	}()

	select {
	case err := <-runErr:
		return s.finish(err)
	case err := <-adminErr:
		if err != nil {
			return err
		}
		return s.finish(<-runErr)
	}
}

// finish maps the run outcome onto the terminal phase. A signal-driven
// cancellation is a clean shutdown, not a failure.
func (s *Service) finish(err error) error {
	switch {
	case err == nil:
		s.setPhase(PhaseDone)
		log.Info().Msg("explore.Service exploration complete")
		return nil
	case errors.Is(err, context.Canceled):
		s.setPhase(PhaseDone)
		log.Info().Msg("explore.Service shutdown")
		return nil
	default:
		s.setPhase(PhaseFailed)
		return err
	}
}

func (s *Service) setPhase(p Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = p
}

// Phase reports the current lifecycle phase.
func (s *Service) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// Results returns a snapshot of the rounds recorded so far.
func (s *Service) Results() []RoundResult {
	return s.runner.Snapshot()
}
