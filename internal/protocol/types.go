package protocol

// Wire constants shared by both halves of the protocol.
const (
	// HandshakeSize is the length of the dimensionality announcement:
	// one big-endian signed 64-bit integer.
	HandshakeSize = 8

	// AckOK is the only acknowledgement text that establishes a session.
	AckOK = "OK\n"

	// AckMaxSize bounds a single acknowledgement read.
	AckMaxSize = 1024

	// SessionEndText is the courtesy trailer an engine may write
	// immediately before dropping the connection. It is not required;
	// any short read on a request frame boundary ends the session.
	SessionEndText = "end\n"

	// MaxDimensions bounds the handshake so a request frame stays a
	// sane allocation.
	MaxDimensions = 1 << 16
)

// Response frame values.
const (
	ResponseInvalid byte = 0x00
	ResponseValid   byte = 0x01
)

// FrameSize is the request frame length in bytes for ndim doubles.
func FrameSize(ndim int) int {
	return ndim * 8
}
