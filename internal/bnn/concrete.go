package bnn

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ConcreteNet is one deterministic draw from a Net's posterior. It is
// the unit of persistence: exploration rounds snapshot the instance
// they classified with, not the posterior.
type ConcreteNet struct {
	W1 *mat.Dense
	B1 *mat.Dense
	W2 *mat.Dense
	B2 *mat.Dense
}

// Dims reports the instance input arity.
func (c *ConcreteNet) Dims() int {
	r, _ := c.W1.Dims()
	return r
}

// Forward evaluates relu(x*W1 + b1)*W2 + b2 for a single point and
// returns the scalar output.
func (c *ConcreteNet) Forward(point []float64) (float64, error) {
	if len(point) != c.Dims() {
		return 0, fmt.Errorf("%w: point has %d values, model takes %d", ErrBadShape, len(point), c.Dims())
	}
	x := mat.NewDense(1, len(point), point)

	var z1 mat.Dense
	z1.Mul(x, c.W1)
	z1.Add(&z1, c.B1)
	z1.Apply(func(_, _ int, v float64) float64 {
		if v < 0 {
			return 0
		}
		return v
	}, &z1)

	var out mat.Dense
	out.Mul(&z1, c.W2)
	out.Add(&out, c.B2)
	return out.At(0, 0), nil
}

// denseWire flattens a mat.Dense for gob; the matrix type keeps its
// fields unexported and offers no encoder of its own.
type denseWire struct {
	Rows, Cols int
	Data       []float64
}

func packDense(d *mat.Dense) denseWire {
	r, c := d.Dims()
	w := denseWire{Rows: r, Cols: c, Data: make([]float64, 0, r*c)}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			w.Data = append(w.Data, d.At(i, j))
		}
	}
	return w
}

func (w denseWire) unpack() (*mat.Dense, error) {
	if w.Rows <= 0 || w.Cols <= 0 || len(w.Data) != w.Rows*w.Cols {
		return nil, fmt.Errorf("%w: %dx%d with %d values", ErrBadShape, w.Rows, w.Cols, len(w.Data))
	}
	return mat.NewDense(w.Rows, w.Cols, w.Data), nil
}

type concreteWire struct {
	W1, B1, W2, B2 denseWire
}

// MarshalBinary encodes the instance for persistence.
func (c *ConcreteNet) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	wire := concreteWire{
		W1: packDense(c.W1),
		B1: packDense(c.B1),
		W2: packDense(c.W2),
		B2: packDense(c.B2),
	}
	if err := gob.NewEncoder(&buf).Encode(wire); err != nil {
		return nil, fmt.Errorf("bnn: encode instance: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary restores an instance persisted by MarshalBinary.
func (c *ConcreteNet) UnmarshalBinary(data []byte) error {
	var wire concreteWire
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&wire); err != nil {
		return fmt.Errorf("bnn: decode instance: %w", err)
	}
	var err error
	if c.W1, err = wire.W1.unpack(); err != nil {
		return err
	}
	if c.B1, err = wire.B1.unpack(); err != nil {
		return err
	}
	if c.W2, err = wire.W2.unpack(); err != nil {
		return err
	}
	if c.B2, err = wire.B2.unpack(); err != nil {
		return err
	}
	return nil
}
