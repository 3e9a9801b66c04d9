package sembas

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/futctl/internal/observability"
	"github.com/danmuck/futctl/internal/protocol"
)

var (
	ErrDimensionsRequired = errors.New("sembas: positive dimensions required")
	ErrConnectExhausted   = errors.New("sembas: connect attempts exhausted")
)

// Client establishes classification sessions with an exploration engine.
type Client struct {
	cfg Config
	rng *rand.Rand
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.Dimensions <= 0 || cfg.Dimensions > protocol.MaxDimensions {
		return nil, fmt.Errorf("%w: %d", ErrDimensionsRequired, cfg.Dimensions)
	}
	cfg = cfg.WithDefaults()
	return &Client{
		cfg: cfg,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Connect dials the engine until a transport connection opens or the
// attempt budget runs out, then performs the dimensionality handshake.
// Handshake failures are never retried: the engine is up but disagrees,
// so the connection is closed and the rejection surfaces immediately.
func (c *Client) Connect(ctx context.Context) (*Session, error) {
	var attempt int
	for {
		attempt++
		conn, err := c.dial(ctx)
		if err == nil {
			observability.RecordConnectAttempt("ok")
			return c.handshake(conn)
		}

		observability.RecordConnectAttempt("refused")
		log.Warn().
			Int("attempt", attempt).
			Str("addr", c.cfg.Address).
			Err(err).
			Msg("sembas.Client dial failed")
		if !c.shouldRetry(attempt) {
			return nil, fmt.Errorf("%w: %d attempts, last: %v", ErrConnectExhausted, attempt, err)
		}
		if err := c.sleepRetry(ctx, attempt); err != nil {
			return nil, err
		}
	}
}

func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	dialer := net.Dialer{Timeout: c.cfg.ConnectTimeout}
	return dialer.DialContext(ctx, "tcp", c.cfg.Address)
}

func (c *Client) shouldRetry(attempt int) bool {
	if c.cfg.FailFast {
		return false
	}
	if c.cfg.MaxConnectAttempts <= 0 {
		return true
	}
	return attempt < c.cfg.MaxConnectAttempts
}

func (c *Client) sleepRetry(ctx context.Context, attempt int) error {
	delay := NextBackoffDelay(c.cfg.Backoff, attempt, c.rng)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// handshake announces dimensionality and requires the engine's exact
// acknowledgement. Every failure path closes the connection before the
// error propagates.
func (c *Client) handshake(conn net.Conn) (*Session, error) {
	s := newSession(conn, c.cfg.Dimensions)
	s.setState(StateHandshaking)
	_ = conn.SetDeadline(time.Now().Add(c.cfg.HandshakeTimeout))

	if err := protocol.WriteHandshake(conn, c.cfg.Dimensions); err != nil {
		s.setState(StateClosedError)
		_ = conn.Close()
		return nil, fmt.Errorf("%w: announce: %v", protocol.ErrHandshakeRejected, err)
	}
	if err := protocol.ReadAck(conn); err != nil {
		s.setState(StateClosedError)
		_ = conn.Close()
		return nil, err
	}

	_ = conn.SetDeadline(time.Time{})
	s.setState(StateStreaming)
	log.Debug().
		Int("ndim", c.cfg.Dimensions).
		Str("addr", c.cfg.Address).
		Msg("sembas.Client session established")
	return s, nil
}
