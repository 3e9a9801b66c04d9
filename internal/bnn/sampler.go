package bnn

import (
	"errors"
	"fmt"

	xrand "golang.org/x/exp/rand"

	"github.com/danmuck/futctl/internal/problem"
)

var ErrSamplerIncomplete = errors.New("bnn: sampler requires a model, dataset, and target")

// Sampler draws independent concrete classifiers from a trained
// posterior. Each exploration round consumes one draw.
type Sampler struct {
	net       *Net
	data      *Dataset
	target    problem.Target
	threshold float64
	rng       *xrand.Rand
}

// NewSampler validates that the posterior, dataset, and surface agree
// on arity and seeds the draw stream. A non-positive threshold falls
// back to DefaultThreshold.
func NewSampler(net *Net, data *Dataset, target problem.Target, threshold float64, seed uint64) (*Sampler, error) {
	if net == nil || data == nil || target == nil {
		return nil, ErrSamplerIncomplete
	}
	if net.Dims() != data.Dims() || data.Dims() != target.Dimensions() {
		return nil, fmt.Errorf("%w: model=%d dataset=%d target=%d",
			ErrBadShape, net.Dims(), data.Dims(), target.Dimensions())
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Sampler{
		net:       net,
		data:      data,
		target:    target,
		threshold: threshold,
		rng:       xrand.New(xrand.NewSource(seed)),
	}, nil
}

// Sample draws the next concrete classifier.
func (s *Sampler) Sample() (*Classifier, error) {
	return &Classifier{
		Net:       s.net.SampleNetwork(s.rng),
		Data:      s.data,
		Target:    s.target,
		Threshold: s.threshold,
	}, nil
}
