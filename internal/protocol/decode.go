package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// ReadAck consumes the engine's handshake acknowledgement. The engine
// sends the acknowledgement as one short write, so a single read of up
// to AckMaxSize bytes captures it whole. Anything other than the exact
// text AckOK rejects the handshake, including an engine that closed the
// connection without replying.
func ReadAck(r io.Reader) error {
	buf := make([]byte, AckMaxSize)
	n, err := r.Read(buf)
	if n == 0 {
		if err == nil || errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: no acknowledgement", ErrHandshakeRejected)
		}
		return fmt.Errorf("%w: %v", ErrHandshakeRejected, err)
	}
	if got := string(buf[:n]); got != AckOK {
		return fmt.Errorf("%w: %q", ErrHandshakeRejected, got)
	}
	return nil
}

// ReadRequest reads one probe point of ndim big-endian doubles. A peer
// close before a full frame arrives is the end-of-session signal, not a
// fault: it returns ErrSessionEnded wrapping the residual byte count,
// and the residual bytes are discarded. Decoding a complete frame never
// fails; every 8-byte group is a valid double bit pattern.
func ReadRequest(r io.Reader, ndim int) ([]float64, error) {
	if ndim <= 0 || ndim > MaxDimensions {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDimension, ndim)
	}
	buf := make([]byte, FrameSize(ndim))
	n, err := io.ReadFull(r, buf)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: %d residual bytes", ErrSessionEnded, n)
		}
		return nil, err
	}
	point := make([]float64, ndim)
	for i := range point {
		point[i] = math.Float64frombits(binary.BigEndian.Uint64(buf[i*8:]))
	}
	return point, nil
}

// ReadHandshake reads a client's dimensionality announcement.
func ReadHandshake(r io.Reader) (int, error) {
	var buf [HandshakeSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	ndim := int64(binary.BigEndian.Uint64(buf[:]))
	if ndim <= 0 || ndim > MaxDimensions {
		return 0, fmt.Errorf("%w: %d", ErrInvalidDimension, ndim)
	}
	return int(ndim), nil
}

// ReadResponse reads one classification verdict byte. Values above
// ResponseValid are a protocol violation.
func ReadResponse(r io.Reader) (bool, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return false, err
	}
	switch buf[0] {
	case ResponseInvalid:
		return false, nil
	case ResponseValid:
		return true, nil
	default:
		return false, fmt.Errorf("%w: 0x%02x", ErrInvalidResponse, buf[0])
	}
}
