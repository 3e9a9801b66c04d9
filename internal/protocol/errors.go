package protocol

import "errors"

var (
	ErrInvalidDimension  = errors.New("protocol: invalid dimension")
	ErrHandshakeRejected = errors.New("protocol: handshake rejected")
	ErrSessionEnded      = errors.New("protocol: session ended")
	ErrInvalidResponse   = errors.New("protocol: invalid response byte")
)
