package bnn

import (
	"errors"
	"fmt"
	"math"

	xrand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

var ErrBadShape = errors.New("bnn: bad layer shape")

// Layer is one Bayesian linear layer. Every weight and bias carries a
// posterior mean and log-variance; a concrete draw is
// mu + exp(0.5*logvar) * eps with eps ~ N(0,1).
type Layer struct {
	In, Out  int
	WeightMu *mat.Dense // In×Out
	WeightLV *mat.Dense // In×Out
	BiasMu   *mat.Dense // 1×Out
	BiasLV   *mat.Dense // 1×Out
}

const initLogVar = -5.0

func newLayer(in, out int, normal distuv.Normal) *Layer {
	l := &Layer{
		In:       in,
		Out:      out,
		WeightMu: mat.NewDense(in, out, nil),
		WeightLV: mat.NewDense(in, out, nil),
		BiasMu:   mat.NewDense(1, out, nil),
		BiasLV:   mat.NewDense(1, out, nil),
	}
	fill := func(d *mat.Dense, scale, shift float64) {
		r, c := d.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				d.Set(i, j, normal.Rand()*scale+shift)
			}
		}
	}
	fill(l.WeightMu, 0.1, 0)
	fill(l.WeightLV, 0.1, initLogVar)
	fill(l.BiasMu, 0.1, 0)
	fill(l.BiasLV, 0.1, initLogVar)
	return l
}

// kl accumulates KL(N(mu, sigma^2) || N(0,1)) over every parameter:
// 0.5 * (mu^2 + sigma^2 - log(sigma^2) - 1).
func (l *Layer) kl() float64 {
	var sum float64
	add := func(mu, lv *mat.Dense) {
		r, c := mu.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				m := mu.At(i, j)
				v := lv.At(i, j)
				sum += 0.5 * (m*m + math.Exp(v) - v - 1)
			}
		}
	}
	add(l.WeightMu, l.WeightLV)
	add(l.BiasMu, l.BiasLV)
	return sum
}

// draw materializes one concrete weight/bias pair and returns the noise
// used, which the trainer needs for the reparametrization gradients.
func (l *Layer) draw(normal distuv.Normal) (w, b, epsW, epsB *mat.Dense) {
	epsW = mat.NewDense(l.In, l.Out, nil)
	epsB = mat.NewDense(1, l.Out, nil)
	fillNoise(epsW, normal)
	fillNoise(epsB, normal)

	w = mat.NewDense(l.In, l.Out, nil)
	w.Apply(func(i, j int, mu float64) float64 {
		return mu + math.Exp(0.5*l.WeightLV.At(i, j))*epsW.At(i, j)
	}, l.WeightMu)

	b = mat.NewDense(1, l.Out, nil)
	b.Apply(func(i, j int, mu float64) float64 {
		return mu + math.Exp(0.5*l.BiasLV.At(i, j))*epsB.At(i, j)
	}, l.BiasMu)
	return w, b, epsW, epsB
}

func fillNoise(d *mat.Dense, normal distuv.Normal) {
	r, c := d.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			d.Set(i, j, normal.Rand())
		}
	}
}

// Net is the probabilistic model: in → hidden → 1 with ReLU between.
type Net struct {
	Hidden *Layer
	Out    *Layer
}

// NewNet initializes variational parameters around zero with tight
// posteriors, deterministically for a given source.
func NewNet(in, hidden int, src xrand.Source) (*Net, error) {
	if in <= 0 || hidden <= 0 {
		return nil, fmt.Errorf("%w: in=%d hidden=%d", ErrBadShape, in, hidden)
	}
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	return &Net{
		Hidden: newLayer(in, hidden, normal),
		Out:    newLayer(hidden, 1, normal),
	}, nil
}

// Dims reports the model input arity.
func (n *Net) Dims() int {
	return n.Hidden.In
}

// KL is the divergence of the whole posterior from the standard normal
// prior.
func (n *Net) KL() float64 {
	return n.Hidden.kl() + n.Out.kl()
}

// SampleNetwork draws one deterministic instance from the posterior.
func (n *Net) SampleNetwork(src xrand.Source) *ConcreteNet {
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	w1, b1, _, _ := n.Hidden.draw(normal)
	w2, b2, _, _ := n.Out.draw(normal)
	return &ConcreteNet{W1: w1, B1: b1, W2: w2, B2: b2}
}
