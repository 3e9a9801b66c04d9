package bnn

import (
	"fmt"

	"github.com/danmuck/futctl/internal/problem"
)

// DefaultThreshold is the squared-error cutoff separating valid from
// invalid predictions in standardized target space.
const DefaultThreshold = 0.5

// Classifier binds one concrete network instance to the dataset it was
// trained against and the surface that supplies ground truth. A probe
// point is valid when the instance's prediction lands within Threshold
// squared error of the true standardized response.
type Classifier struct {
	Net       *ConcreteNet
	Data      *Dataset
	Target    problem.Target
	Threshold float64
}

// Classify judges one unit-cube probe point.
func (c *Classifier) Classify(point []float64) (bool, error) {
	mapped, err := c.Data.MapUnit(point)
	if err != nil {
		return false, fmt.Errorf("bnn: map point: %w", err)
	}
	pred, err := c.Net.Forward(mapped)
	if err != nil {
		return false, fmt.Errorf("bnn: predict: %w", err)
	}
	truth, err := c.Target.Eval(c.Data.DestandardizeInput(mapped))
	if err != nil {
		return false, fmt.Errorf("bnn: surface eval: %w", err)
	}
	diff := pred - c.Data.StandardizeTarget(truth)
	return diff*diff < c.Threshold, nil
}

// MarshalBinary persists the underlying concrete instance.
func (c *Classifier) MarshalBinary() ([]byte, error) {
	return c.Net.MarshalBinary()
}
