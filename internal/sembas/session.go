package sembas

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/futctl/internal/observability"
	"github.com/danmuck/futctl/internal/protocol"
)

// SessionState tracks a session through its lifecycle.
type SessionState int32

const (
	StateConnecting SessionState = iota
	StateHandshaking
	StateStreaming
	StateClosedNormal
	StateClosedError
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateHandshaking:
		return "handshaking"
	case StateStreaming:
		return "streaming"
	case StateClosedNormal:
		return "closed_normal"
	case StateClosedError:
		return "closed_error"
	default:
		return "unknown"
	}
}

// Classifier is the capability a session drives: one verdict per probe
// point, closing over whatever model state the verdict needs.
type Classifier interface {
	Classify(point []float64) (bool, error)
}

// ClassifierFunc adapts a plain function to the Classifier interface.
type ClassifierFunc func(point []float64) (bool, error)

func (f ClassifierFunc) Classify(point []float64) (bool, error) {
	return f(point)
}

// Sample is one classified probe point. Samples keep arrival order and
// are never re-classified.
type Sample struct {
	Point []float64
	Valid bool
}

// Session is one live engine link that has passed the dimensionality
// handshake. It is owned by exactly one round at a time; nothing here
// is safe for concurrent Serve calls. State and the served counter are
// atomics only so status reporting can peek from outside.
type Session struct {
	conn      net.Conn
	ndim      int
	state     atomic.Int32
	served    atomic.Int64
	closeOnce sync.Once
}

func newSession(conn net.Conn, ndim int) *Session {
	s := &Session{conn: conn, ndim: ndim}
	s.setState(StateConnecting)
	return s
}

func (s *Session) setState(st SessionState) {
	s.state.Store(int32(st))
}

// State reports where the session is in its lifecycle.
func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

// Served reports how many verdicts this session has sent so far.
func (s *Session) Served() int64 {
	return s.served.Load()
}

// Dimensions reports the ndim agreed at handshake.
func (s *Session) Dimensions() int {
	return s.ndim
}

// Close tears down the connection. Safe to call more than once; the
// session is closed exactly once on every exit path.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.state.CompareAndSwap(int32(StateStreaming), int32(StateClosedNormal))
		err = s.conn.Close()
	})
	return err
}

// Serve runs the classify loop: read one request frame, classify it,
// write one verdict byte, repeat until the engine ends the session by
// dropping the connection. The engine ending the session is the normal
// exit and returns a nil error with every sample collected; any other
// fault aborts the round and surfaces alongside the samples gathered
// before it. The context is consulted between iterations only, since
// streaming reads carry no deadline.
func (s *Session) Serve(ctx context.Context, classify Classifier) ([]Sample, error) {
	samples := make([]Sample, 0, 64)
	for {
		if err := ctx.Err(); err != nil {
			s.setState(StateClosedError)
			return samples, err
		}

		point, err := protocol.ReadRequest(s.conn, s.ndim)
		if err != nil {
			if errors.Is(err, protocol.ErrSessionEnded) {
				s.setState(StateClosedNormal)
				log.Debug().
					Int("samples", len(samples)).
					AnErr("signal", err).
					Msg("sembas.Session ended by engine")
				return samples, nil
			}
			s.setState(StateClosedError)
			return samples, fmt.Errorf("sembas: request read: %w", err)
		}

		start := time.Now()
		valid, err := classify.Classify(point)
		if err != nil {
			s.setState(StateClosedError)
			return samples, fmt.Errorf("sembas: classify: %w", err)
		}
		observability.RecordClassification(time.Since(start), valid)

		if err := protocol.WriteResponse(s.conn, valid); err != nil {
			s.setState(StateClosedError)
			return samples, fmt.Errorf("sembas: response write: %w", err)
		}

		samples = append(samples, Sample{Point: point, Valid: valid})
		s.served.Add(1)
	}
}
