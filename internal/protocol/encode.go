package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// WriteHandshake announces the request dimensionality to the engine.
func WriteHandshake(w io.Writer, ndim int) error {
	if ndim <= 0 || ndim > MaxDimensions {
		return fmt.Errorf("%w: %d", ErrInvalidDimension, ndim)
	}
	var buf [HandshakeSize]byte
	binary.BigEndian.PutUint64(buf[:], uint64(int64(ndim)))
	_, err := w.Write(buf[:])
	return err
}

// WriteResponse reports one classification verdict as a single byte.
func WriteResponse(w io.Writer, valid bool) error {
	b := ResponseInvalid
	if valid {
		b = ResponseValid
	}
	_, err := w.Write([]byte{b})
	return err
}

// WriteAck acknowledges a handshake, establishing the session.
func WriteAck(w io.Writer) error {
	_, err := io.WriteString(w, AckOK)
	return err
}

// WriteRejection tells the peer which dimensionality this side expected.
// Any text other than AckOK rejects the handshake, so the reply doubles
// as a diagnostic.
func WriteRejection(w io.Writer, want int) error {
	_, err := fmt.Fprintf(w, "%d\n", want)
	return err
}

// WriteRequest sends one probe point as ndim big-endian doubles in
// declared order. The frame carries no length prefix; length is implied
// by the dimensionality agreed at handshake.
func WriteRequest(w io.Writer, point []float64) error {
	if len(point) == 0 {
		return fmt.Errorf("%w: empty point", ErrInvalidDimension)
	}
	buf := make([]byte, FrameSize(len(point)))
	for i, v := range point {
		binary.BigEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	_, err := w.Write(buf)
	return err
}
