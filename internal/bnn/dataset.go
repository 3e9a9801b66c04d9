package bnn

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/danmuck/futctl/internal/problem"
)

var ErrDatasetTooSmall = errors.New("bnn: dataset too small")

// Dataset is the standardized training corpus for one target surface:
// a regular grid over the target domain, evaluated and normalized to
// zero mean and unit variance per column. It also remembers the
// standardization constants so unit-cube probe points and raw surface
// values can move between spaces.
type Dataset struct {
	inputs  *mat.Dense // n×d, standardized
	targets *mat.Dense // n×1, standardized

	inputMean []float64
	inputStd  []float64

	targetMean float64
	targetStd  float64

	minIn []float64 // per-column bounds of the standardized inputs
	maxIn []float64
}

// BuildGridDataset samples target on a regular side^d grid, where side
// is the largest integer with side^d <= n, and standardizes both the
// inputs and the responses.
func BuildGridDataset(target problem.Target, n int) (*Dataset, error) {
	dims := target.Dimensions()
	if dims <= 0 {
		return nil, fmt.Errorf("%w: target has %d dimensions", ErrBadShape, dims)
	}
	side := int(math.Floor(math.Pow(float64(n), 1/float64(dims))))
	if side < 2 {
		return nil, fmt.Errorf("%w: %d points across %d dimensions", ErrDatasetTooSmall, n, dims)
	}
	lo, hi := target.Domain()

	total := 1
	for i := 0; i < dims; i++ {
		total *= side
	}

	inputs := mat.NewDense(total, dims, nil)
	targets := mat.NewDense(total, 1, nil)

	idx := make([]int, dims)
	point := make([]float64, dims)
	for row := 0; row < total; row++ {
		for d := 0; d < dims; d++ {
			point[d] = lo[d] + (hi[d]-lo[d])*float64(idx[d])/float64(side-1)
		}
		y, err := target.Eval(point)
		if err != nil {
			return nil, fmt.Errorf("bnn: sample grid: %w", err)
		}
		inputs.SetRow(row, point)
		targets.Set(row, 0, y)

		for d := dims - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < side {
				break
			}
			idx[d] = 0
		}
	}

	ds := &Dataset{
		inputs:    inputs,
		targets:   targets,
		inputMean: make([]float64, dims),
		inputStd:  make([]float64, dims),
		minIn:     make([]float64, dims),
		maxIn:     make([]float64, dims),
	}
	col := make([]float64, total)
	for d := 0; d < dims; d++ {
		mat.Col(col, d, inputs)
		mean, std := stat.MeanStdDev(col, nil)
		if std <= 0 {
			std = 1
		}
		ds.inputMean[d] = mean
		ds.inputStd[d] = std
		ds.minIn[d] = math.Inf(1)
		ds.maxIn[d] = math.Inf(-1)
		for i := 0; i < total; i++ {
			v := (inputs.At(i, d) - mean) / std
			inputs.Set(i, d, v)
			ds.minIn[d] = math.Min(ds.minIn[d], v)
			ds.maxIn[d] = math.Max(ds.maxIn[d], v)
		}
	}
	mat.Col(col, 0, targets)
	mean, std := stat.MeanStdDev(col, nil)
	if std <= 0 {
		std = 1
	}
	ds.targetMean = mean
	ds.targetStd = std
	for i := 0; i < total; i++ {
		targets.Set(i, 0, (targets.At(i, 0)-mean)/std)
	}
	return ds, nil
}

// Len reports the number of grid rows.
func (ds *Dataset) Len() int {
	r, _ := ds.inputs.Dims()
	return r
}

// Dims reports the input arity.
func (ds *Dataset) Dims() int {
	_, c := ds.inputs.Dims()
	return c
}

// Inputs exposes the standardized input matrix.
func (ds *Dataset) Inputs() *mat.Dense { return ds.inputs }

// Targets exposes the standardized response column.
func (ds *Dataset) Targets() *mat.Dense { return ds.targets }

// Bounds reports per-column min and max of the standardized inputs.
func (ds *Dataset) Bounds() (lo, hi []float64) {
	lo = make([]float64, len(ds.minIn))
	hi = make([]float64, len(ds.maxIn))
	copy(lo, ds.minIn)
	copy(hi, ds.maxIn)
	return lo, hi
}

// MapUnit rescales a unit-cube point onto the standardized input
// bounds: min + x*(max-min) per column. Probe points arrive in
// [0,1]^d; the model was trained in standardized space.
func (ds *Dataset) MapUnit(x []float64) ([]float64, error) {
	if len(x) != ds.Dims() {
		return nil, fmt.Errorf("%w: point has %d values, dataset has %d columns", ErrBadShape, len(x), ds.Dims())
	}
	out := make([]float64, len(x))
	for d := range x {
		out[d] = ds.minIn[d] + x[d]*(ds.maxIn[d]-ds.minIn[d])
	}
	return out, nil
}

// DestandardizeInput maps a standardized point back onto the raw
// target domain.
func (ds *Dataset) DestandardizeInput(x []float64) []float64 {
	out := make([]float64, len(x))
	for d := range x {
		out[d] = x[d]*ds.inputStd[d] + ds.inputMean[d]
	}
	return out
}

// StandardizeTarget maps a raw surface value into the space the model
// predicts in.
func (ds *Dataset) StandardizeTarget(y float64) float64 {
	return (y - ds.targetMean) / ds.targetStd
}
