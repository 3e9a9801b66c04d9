package sembas

import (
	"context"
	"errors"
	"io"
	"math"
	"net"
	"testing"
	"time"

	"github.com/danmuck/futctl/internal/protocol"
	"github.com/danmuck/futctl/internal/testutil/testlog"
)

type engineResult struct {
	verdicts []bool
	err      error
}

// serveScriptedEngine plays the engine half of one session: acknowledge
// the handshake, stream the given points, collect one verdict per point,
// optionally write the courtesy trailer, then drop the connection.
func serveScriptedEngine(ln net.Listener, wantNdim int, points [][]float64, trailer bool) engineResult {
	defer ln.Close()

	conn, err := ln.Accept()
	if err != nil {
		return engineResult{err: err}
	}
	defer conn.Close()

	ndim, err := protocol.ReadHandshake(conn)
	if err != nil {
		return engineResult{err: err}
	}
	if ndim != wantNdim {
		return engineResult{err: protocol.WriteRejection(conn, wantNdim)}
	}
	if err := protocol.WriteAck(conn); err != nil {
		return engineResult{err: err}
	}

	verdicts := make([]bool, 0, len(points))
	for _, p := range points {
		if err := protocol.WriteRequest(conn, p); err != nil {
			return engineResult{verdicts: verdicts, err: err}
		}
		v, err := protocol.ReadResponse(conn)
		if err != nil {
			return engineResult{verdicts: verdicts, err: err}
		}
		verdicts = append(verdicts, v)
	}
	if trailer {
		if _, err := io.WriteString(conn, protocol.SessionEndText); err != nil {
			return engineResult{verdicts: verdicts, err: err}
		}
	}
	return engineResult{verdicts: verdicts}
}

func dialSession(t *testing.T, addr string, ndim int) *Session {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Address = addr
	cfg.Dimensions = ndim
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	sess, err := client.Connect(ctx)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	return sess
}

func TestSessionServeCollectsOrderedSamples(t *testing.T) {
	testlog.Start(t)

	points := [][]float64{
		{0.25, 0.75},
		{-1.0, 2.0},
		{3.5, -4.5},
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	results := make(chan engineResult, 1)
	go func() {
		results <- serveScriptedEngine(ln, 2, points, false)
	}()

	sess := dialSession(t, ln.Addr().String(), 2)
	defer sess.Close()

	classify := ClassifierFunc(func(p []float64) (bool, error) {
		return p[0] > 0, nil
	})
	samples, err := sess.Serve(context.Background(), classify)
	if err != nil {
		t.Fatalf("serve: %v", err)
	}

	if len(samples) != len(points) {
		t.Fatalf("expected %d samples, got %d", len(points), len(samples))
	}
	for i, p := range points {
		for j, v := range p {
			if math.Float64bits(samples[i].Point[j]) != math.Float64bits(v) {
				t.Fatalf("sample %d[%d] = %v, want %v", i, j, samples[i].Point[j], v)
			}
		}
		if want := p[0] > 0; samples[i].Valid != want {
			t.Fatalf("sample %d verdict = %v, want %v", i, samples[i].Valid, want)
		}
	}
	if sess.State() != StateClosedNormal {
		t.Fatalf("expected closed_normal, got %v", sess.State())
	}
	if sess.Served() != int64(len(points)) {
		t.Fatalf("expected %d served, got %d", len(points), sess.Served())
	}

	res := <-results
	if res.err != nil {
		t.Fatalf("engine: %v", res.err)
	}
	for i, v := range res.verdicts {
		if want := points[i][0] > 0; v != want {
			t.Fatalf("engine verdict %d = %v, want %v", i, v, want)
		}
	}
}

func TestSessionServeEmptySessionEndsNormally(t *testing.T) {
	testlog.Start(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	results := make(chan engineResult, 1)
	go func() {
		results <- serveScriptedEngine(ln, 2, nil, false)
	}()

	sess := dialSession(t, ln.Addr().String(), 2)
	defer sess.Close()

	samples, err := sess.Serve(context.Background(), ClassifierFunc(func([]float64) (bool, error) {
		return true, nil
	}))
	if err != nil {
		t.Fatalf("serve: %v", err)
	}
	if len(samples) != 0 {
		t.Fatalf("expected no samples, got %d", len(samples))
	}
	if sess.State() != StateClosedNormal {
		t.Fatalf("expected closed_normal, got %v", sess.State())
	}
	if res := <-results; res.err != nil {
		t.Fatalf("engine: %v", res.err)
	}
}

func TestSessionServeEndTrailerEndsNormally(t *testing.T) {
	testlog.Start(t)

	points := [][]float64{{1.0, 1.0}}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	results := make(chan engineResult, 1)
	go func() {
		results <- serveScriptedEngine(ln, 2, points, true)
	}()

	sess := dialSession(t, ln.Addr().String(), 2)
	defer sess.Close()

	samples, err := sess.Serve(context.Background(), ClassifierFunc(func([]float64) (bool, error) {
		return true, nil
	}))
	if err != nil {
		t.Fatalf("serve: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(samples))
	}
	if sess.State() != StateClosedNormal {
		t.Fatalf("expected closed_normal, got %v", sess.State())
	}
	if res := <-results; res.err != nil {
		t.Fatalf("engine: %v", res.err)
	}
}

func TestSessionServeClassifyFaultAborts(t *testing.T) {
	testlog.Start(t)

	boom := errors.New("model exploded")
	points := [][]float64{{1.0, 1.0}, {2.0, 2.0}}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	results := make(chan engineResult, 1)
	go func() {
		results <- serveScriptedEngine(ln, 2, points, false)
	}()

	sess := dialSession(t, ln.Addr().String(), 2)

	calls := 0
	samples, err := sess.Serve(context.Background(), ClassifierFunc(func([]float64) (bool, error) {
		calls++
		if calls == 2 {
			return false, boom
		}
		return true, nil
	}))
	if !errors.Is(err, boom) {
		t.Fatalf("expected classifier fault, got %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("expected 1 sample before the fault, got %d", len(samples))
	}
	if sess.State() != StateClosedError {
		t.Fatalf("expected closed_error, got %v", sess.State())
	}

	_ = sess.Close()
	<-results
}

func TestSessionReferenceScenario(t *testing.T) {
	testlog.Start(t)

	// ndim = 2, handshake frame 00 00 00 00 00 00 00 02, engine replies
	// "OK\n", streams (1.5, -2.25), expects exactly one 0x01 verdict byte,
	// then the next frame is awaited (a second point follows).
	points := [][]float64{{1.5, -2.25}, {0.5, 0.5}}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	type rawResult struct {
		handshake []byte
		first     byte
		err       error
	}
	results := make(chan rawResult, 1)
	go func() {
		defer ln.Close()
		conn, err := ln.Accept()
		if err != nil {
			results <- rawResult{err: err}
			return
		}
		defer conn.Close()

		hs := make([]byte, protocol.HandshakeSize)
		if _, err := io.ReadFull(conn, hs); err != nil {
			results <- rawResult{err: err}
			return
		}
		if err := protocol.WriteAck(conn); err != nil {
			results <- rawResult{err: err}
			return
		}
		if err := protocol.WriteRequest(conn, points[0]); err != nil {
			results <- rawResult{err: err}
			return
		}
		verdict := make([]byte, 1)
		if _, err := io.ReadFull(conn, verdict); err != nil {
			results <- rawResult{err: err}
			return
		}
		if err := protocol.WriteRequest(conn, points[1]); err != nil {
			results <- rawResult{err: err}
			return
		}
		if _, err := io.ReadFull(conn, make([]byte, 1)); err != nil {
			results <- rawResult{err: err}
			return
		}
		results <- rawResult{handshake: hs, first: verdict[0]}
	}()

	sess := dialSession(t, ln.Addr().String(), 2)
	defer sess.Close()

	samples, err := sess.Serve(context.Background(), ClassifierFunc(func([]float64) (bool, error) {
		return true, nil
	}))
	if err != nil {
		t.Fatalf("serve: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}

	res := <-results
	if res.err != nil {
		t.Fatalf("engine: %v", res.err)
	}
	wantHandshake := []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x02}
	for i, b := range wantHandshake {
		if res.handshake[i] != b {
			t.Fatalf("handshake byte %d = %02x, want %02x", i, res.handshake[i], b)
		}
	}
	if res.first != protocol.ResponseValid {
		t.Fatalf("first verdict byte = %02x, want %02x", res.first, protocol.ResponseValid)
	}
	if math.Float64bits(samples[0].Point[0]) != math.Float64bits(1.5) ||
		math.Float64bits(samples[0].Point[1]) != math.Float64bits(-2.25) {
		t.Fatalf("first sample = %v, want [1.5 -2.25]", samples[0].Point)
	}
}
