package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net"

	"github.com/danmuck/futctl/internal/config"
	"github.com/danmuck/futctl/internal/protocol"
	"github.com/rs/zerolog/log"
)

// engine is a scripted stand-in for the boundary explorer: it owns the
// listening half of the protocol and probes whatever FUT connects.
type engine struct {
	cfg config.EngineConfig
	rng *rand.Rand
}

func newEngine(cfg config.EngineConfig) *engine {
	return &engine{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// run serves the configured number of sessions sequentially, then
// returns. Context cancellation closes the listener and ends the run
// cleanly.
func (e *engine) run(ctx context.Context) error {
	ln, err := net.Listen("tcp", e.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", e.cfg.Addr, err)
	}
	defer ln.Close()
	return e.serve(ctx, ln)
}

func (e *engine) serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	log.Info().
		Str("addr", ln.Addr().String()).
		Int("ndim", e.cfg.Dimensions).
		Int("sessions", e.cfg.Sessions).
		Int("points", e.cfg.PointsPerSession).
		Msg("probectl listening")

	for i := 0; i < e.cfg.Sessions; i++ {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept session %d: %w", i, err)
		}
		if err := e.serveSession(i, conn); err != nil {
			return fmt.Errorf("session %d: %w", i, err)
		}
	}
	return nil
}

// serveSession runs one full session: handshake, probe stream, drop.
func (e *engine) serveSession(i int, conn net.Conn) error {
	defer conn.Close()

	ndim, err := protocol.ReadHandshake(conn)
	if err != nil {
		return fmt.Errorf("handshake: %w", err)
	}
	if ndim != e.cfg.Dimensions {
		if err := protocol.WriteRejection(conn, e.cfg.Dimensions); err != nil {
			return fmt.Errorf("reject %d-d handshake: %w", ndim, err)
		}
		return fmt.Errorf("handshake announced %d dimensions, want %d", ndim, e.cfg.Dimensions)
	}
	if err := protocol.WriteAck(conn); err != nil {
		return fmt.Errorf("ack: %w", err)
	}

	var valid, invalid int
	for p := 0; p < e.cfg.PointsPerSession; p++ {
		if err := protocol.WriteRequest(conn, e.nextPoint(ndim)); err != nil {
			return fmt.Errorf("request %d: %w", p, err)
		}
		ok, err := protocol.ReadResponse(conn)
		if err != nil {
			return fmt.Errorf("response %d: %w", p, err)
		}
		if ok {
			valid++
		} else {
			invalid++
		}
	}

	if e.cfg.EndTrailer {
		if _, err := io.WriteString(conn, protocol.SessionEndText); err != nil {
			return fmt.Errorf("end trailer: %w", err)
		}
	}

	log.Info().
		Int("session", i).
		Int("valid", valid).
		Int("invalid", invalid).
		Msg("probectl session complete")
	return nil
}

// nextPoint draws one probe from the engine's normalized request space.
func (e *engine) nextPoint(ndim int) []float64 {
	point := make([]float64, ndim)
	for d := range point {
		point[d] = e.rng.Float64()
	}
	return point
}
