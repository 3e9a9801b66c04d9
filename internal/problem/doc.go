// Package problem owns the ground-truth functions a run probes.
//
// Ownership boundary:
// - target metadata shape and evaluation contract
// - the named registry binaries resolve targets from
// - builtin benchmark surfaces
package problem
