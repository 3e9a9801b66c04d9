package problem

// Metadata is the contract for target identity and display data.
type Metadata struct {
	ID          string
	Name        string
	Description string
}

// Target is one ground-truth function under test: a scalar field over a
// rectangular input domain.
type Target interface {
	Metadata() Metadata
	Dimensions() int
	// Domain returns per-axis [min, max] bounds, one pair per dimension.
	Domain() (min []float64, max []float64)
	// Eval returns the true value at one point inside the domain.
	Eval(point []float64) (float64, error)
}
