// Package explore owns the exploration run: the round loop that draws
// model instances and serves them to a boundary exploration engine.
//
// Ownership boundary:
// - per-round orchestration: draw an instance, serve the session,
//   persist the round artifact
// - fault policy: a failed round halts the run unless the runner is
//   configured to record it and continue
// - service lifecycle: signal-driven shutdown and the admin HTTP
//   surface
//
// The model itself lives elsewhere; explore sees it only through the
// ConcreteModel and Sampler capabilities, so any posterior that can
// classify points and serialize itself can be explored.
package explore
