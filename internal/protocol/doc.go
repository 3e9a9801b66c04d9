// Package protocol owns the exploration wire contract.
//
// Ownership boundary:
// - dimensionality handshake and acknowledgement primitives
// - request frame (big-endian IEEE-754 vector) codec
// - response byte codec and end-of-session detection
//
// Both halves of the exchange live here: the function-under-test side
// (announce dimensionality, read probe points, write verdicts) and the
// engine side (acknowledge, stream probe points, read verdicts), so the
// two stay bit-compatible by construction.
package protocol
