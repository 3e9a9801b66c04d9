// Package bnn owns the probabilistic model whose posterior an
// exploration run probes.
//
// Ownership boundary:
// - Bayesian two-layer perceptron: variational parameters, KL, sampling
// - the gradient training loop (Adam over reparametrized draws)
// - the standardized grid dataset and its input-space transforms
// - concrete-instance classification against a validity threshold
// - model and per-round ensemble persistence
package bnn
