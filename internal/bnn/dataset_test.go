package bnn

import (
	"errors"
	"math"
	"testing"

	"github.com/danmuck/futctl/internal/problem"
	"github.com/danmuck/futctl/internal/testutil/testlog"
)

func TestBuildGridDatasetStandardizes(t *testing.T) {
	testlog.Start(t)

	ds, err := BuildGridDataset(problem.PolySurface(), 100)
	if err != nil {
		t.Fatalf("expected dataset, got %v", err)
	}
	if ds.Len() != 100 {
		t.Fatalf("expected 100 grid rows, got %d", ds.Len())
	}
	if ds.Dims() != 2 {
		t.Fatalf("expected 2 columns, got %d", ds.Dims())
	}

	for d := 0; d < ds.Dims(); d++ {
		var sum float64
		for i := 0; i < ds.Len(); i++ {
			sum += ds.Inputs().At(i, d)
		}
		if mean := sum / float64(ds.Len()); math.Abs(mean) > 1e-9 {
			t.Fatalf("expected standardized column %d, got mean %v", d, mean)
		}
	}
	var sum float64
	for i := 0; i < ds.Len(); i++ {
		sum += ds.Targets().At(i, 0)
	}
	if mean := sum / float64(ds.Len()); math.Abs(mean) > 1e-9 {
		t.Fatalf("expected standardized targets, got mean %v", mean)
	}
}

func TestBuildGridDatasetTruncatesToGrid(t *testing.T) {
	testlog.Start(t)

	ds, err := BuildGridDataset(problem.PolySurface(), 10)
	if err != nil {
		t.Fatalf("expected dataset, got %v", err)
	}
	// floor(sqrt(10)) = 3 points per axis.
	if ds.Len() != 9 {
		t.Fatalf("expected 9 grid rows, got %d", ds.Len())
	}
}

func TestBuildGridDatasetRejectsTinyBudget(t *testing.T) {
	testlog.Start(t)

	if _, err := BuildGridDataset(problem.PolySurface(), 1); !errors.Is(err, ErrDatasetTooSmall) {
		t.Fatalf("expected ErrDatasetTooSmall, got %v", err)
	}
}

func TestMapUnitSpansStandardizedBounds(t *testing.T) {
	testlog.Start(t)

	ds, err := BuildGridDataset(problem.PolySurface(), 100)
	if err != nil {
		t.Fatalf("expected dataset, got %v", err)
	}
	lo, hi := ds.Bounds()

	atLo, err := ds.MapUnit([]float64{0, 0})
	if err != nil {
		t.Fatalf("expected mapped point, got %v", err)
	}
	atHi, err := ds.MapUnit([]float64{1, 1})
	if err != nil {
		t.Fatalf("expected mapped point, got %v", err)
	}
	for d := 0; d < ds.Dims(); d++ {
		if math.Abs(atLo[d]-lo[d]) > 1e-12 {
			t.Fatalf("expected unit zero to map to lower bound %v, got %v", lo[d], atLo[d])
		}
		if math.Abs(atHi[d]-hi[d]) > 1e-12 {
			t.Fatalf("expected unit one to map to upper bound %v, got %v", hi[d], atHi[d])
		}
	}

	// The standardized lower corner destandardizes back to the raw
	// domain minimum.
	raw := ds.DestandardizeInput(atLo)
	for d := 0; d < ds.Dims(); d++ {
		if math.Abs(raw[d]-(-6)) > 1e-9 {
			t.Fatalf("expected raw domain corner -6, got %v", raw[d])
		}
	}
}

func TestMapUnitRejectsArityMismatch(t *testing.T) {
	testlog.Start(t)

	ds, err := BuildGridDataset(problem.PolySurface(), 100)
	if err != nil {
		t.Fatalf("expected dataset, got %v", err)
	}
	if _, err := ds.MapUnit([]float64{0.5}); !errors.Is(err, ErrBadShape) {
		t.Fatalf("expected ErrBadShape, got %v", err)
	}
}
