package explore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/futctl/internal/observability"
	"github.com/danmuck/futctl/internal/sembas"
)

var ErrRunnerIncomplete = errors.New("explore: runner requires a client, sampler, and artifact store")

// DefaultRounds is the stock ensemble size: one persisted instance per
// round.
const DefaultRounds = 100

// RunnerConfig tunes the round loop.
type RunnerConfig struct {
	Rounds          int
	ContinueOnFault bool
}

// WithDefaults fills zero-valued fields.
func (c RunnerConfig) WithDefaults() RunnerConfig {
	if c.Rounds <= 0 {
		c.Rounds = DefaultRounds
	}
	return c
}

// Runner drives exploration rounds against one engine endpoint. Each
// round draws a fresh instance, connects, serves the session to its
// natural end, and persists the instance as that round's artifact.
type Runner struct {
	cfg     RunnerConfig
	client  *sembas.Client
	sampler Sampler
	store   ArtifactStore
	sink    VisualizationSink

	mu      sync.Mutex
	results []RoundResult
}

// NewRunner wires the round loop. The sink may be nil; everything else
// is required.
func NewRunner(cfg RunnerConfig, client *sembas.Client, sampler Sampler, store ArtifactStore, sink VisualizationSink) (*Runner, error) {
	if client == nil || sampler == nil || store == nil {
		return nil, ErrRunnerIncomplete
	}
	return &Runner{
		cfg:     cfg.WithDefaults(),
		client:  client,
		sampler: sampler,
		store:   store,
		sink:    sink,
	}, nil
}

// Run executes the configured rounds in order. A round fault ends the
// run with the fault unless ContinueOnFault is set, in which case the
// round is recorded as aborted and the loop moves on. Context
// cancellation always ends the run.
func (r *Runner) Run(ctx context.Context) ([]RoundResult, error) {
	log.Info().
		Int("rounds", r.cfg.Rounds).
		Bool("continue_on_fault", r.cfg.ContinueOnFault).
		Msg("explore.Runner.Run start")

	for round := 0; round < r.cfg.Rounds; round++ {
		res, err := r.runRound(ctx, round)
		r.append(res)
		observability.RecordRound(string(res.Status), res.Samples)
		if err != nil {
			if r.cfg.ContinueOnFault && ctx.Err() == nil {
				log.Warn().
					Int("round", round).
					Err(err).
					Msg("explore.Runner round aborted")
				continue
			}
			return r.Snapshot(), fmt.Errorf("explore: round %d: %w", round, err)
		}
	}
	return r.Snapshot(), nil
}

func (r *Runner) runRound(ctx context.Context, round int) (RoundResult, error) {
	res := RoundResult{Round: round, Status: RoundAborted}

	model, err := r.sampler.Sample()
	if err != nil {
		return res, fmt.Errorf("sample model: %w", err)
	}

	session, err := r.client.Connect(ctx)
	if err != nil {
		return res, err
	}
	defer session.Close()

	samples, err := session.Serve(ctx, model)
	res.Samples = len(samples)
	if err != nil {
		return res, err
	}

	path, err := r.store.SaveRound(round, model)
	if err != nil {
		return res, fmt.Errorf("persist artifact: %w", err)
	}
	res.ArtifactPath = path
	res.Status = RoundCompleted

	if r.sink != nil {
		if err := r.sink.RenderSession(round, samples, model); err != nil {
			log.Warn().
				Int("round", round).
				Err(err).
				Msg("explore.Runner visualization failed")
		}
	}

	log.Info().
		Int("round", round).
		Int("samples", res.Samples).
		Str("artifact", path).
		Msg("explore.Runner round complete")
	return res, nil
}

func (r *Runner) append(res RoundResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

// Snapshot returns a copy of the results recorded so far, in round
// order. Safe to call while Run is in flight.
func (r *Runner) Snapshot() []RoundResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RoundResult, len(r.results))
	copy(out, r.results)
	return out
}
