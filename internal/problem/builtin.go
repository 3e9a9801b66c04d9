package problem

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidDomain = errors.New("problem: invalid domain bounds")

// ErrDimensionMismatch reports a point evaluated against the wrong arity.
var ErrDimensionMismatch = errors.New("problem: dimension mismatch")

type funcTarget struct {
	meta Metadata
	min  []float64
	max  []float64
	fn   func(point []float64) float64
}

func (t *funcTarget) Metadata() Metadata {
	return t.meta
}

func (t *funcTarget) Dimensions() int {
	return len(t.min)
}

func (t *funcTarget) Domain() ([]float64, []float64) {
	min := make([]float64, len(t.min))
	max := make([]float64, len(t.max))
	copy(min, t.min)
	copy(max, t.max)
	return min, max
}

func (t *funcTarget) Eval(point []float64) (float64, error) {
	if len(point) != len(t.min) {
		return 0, fmt.Errorf("%w: got %d values, want %d", ErrDimensionMismatch, len(point), len(t.min))
	}
	return t.fn(point), nil
}

// NewTarget builds a Target from a plain function over a rectangular
// domain. Domain bounds must pair up and each axis must have min < max.
func NewTarget(meta Metadata, min, max []float64, fn func(point []float64) float64) (Target, error) {
	if err := ValidateMetadata(meta); err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, ErrTargetNil
	}
	if len(min) == 0 || len(min) != len(max) {
		return nil, fmt.Errorf("%w: %d min bounds, %d max bounds", ErrInvalidDomain, len(min), len(max))
	}
	for i := range min {
		if !(min[i] < max[i]) {
			return nil, fmt.Errorf("%w: axis %d: [%v, %v]", ErrInvalidDomain, i, min[i], max[i])
		}
	}
	t := &funcTarget{meta: meta, min: make([]float64, len(min)), max: make([]float64, len(max)), fn: fn}
	copy(t.min, min)
	copy(t.max, max)
	return t, nil
}

// PolySurface is the benchmark surface f(a,b) = a²/5 − b³/10 over [-6,6]².
func PolySurface() Target {
	t, err := NewTarget(
		Metadata{
			ID:          "surface.poly",
			Name:        "Poly",
			Description: "Quadratic-cubic polynomial surface a^2/5 - b^3/10 over [-6,6]^2",
		},
		[]float64{-6, -6},
		[]float64{6, 6},
		func(p []float64) float64 {
			return p[0]*p[0]/5 - p[1]*p[1]*p[1]/10
		},
	)
	if err != nil {
		panic(err)
	}
	return t
}

// RippleSurface is a bounded oscillating benchmark over the same domain.
func RippleSurface() Target {
	t, err := NewTarget(
		Metadata{
			ID:          "surface.ripple",
			Name:        "Ripple",
			Description: "Oscillating surface sin(a)*cos(b) over [-6,6]^2",
		},
		[]float64{-6, -6},
		[]float64{6, 6},
		func(p []float64) float64 {
			return math.Sin(p[0]) * math.Cos(p[1])
		},
	)
	if err != nil {
		panic(err)
	}
	return t
}

// InstallBuiltinTargets registers every builtin surface.
func InstallBuiltinTargets(r *Registry) error {
	for _, t := range []Target{PolySurface(), RippleSurface()} {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}
