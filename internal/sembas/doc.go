// Package sembas owns the function-under-test side of a boundary
// exploration engine link.
//
// Ownership boundary:
// - connection establishment: dial retry budget and dimensionality handshake
// - the request/classify/respond loop for one live session
// - session state, from handshake through terminal close
//
// Streaming deliberately carries no read or write deadlines: the link is
// a trusted local loopback and the engine ends a session by dropping it.
// Anyone pointing this at an untrusted network should revisit that.
package sembas
