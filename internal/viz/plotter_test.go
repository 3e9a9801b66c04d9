package viz

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/futctl/internal/sembas"
	"github.com/danmuck/futctl/internal/testutil/testlog"
)

type halfPlaneModel struct{}

func (halfPlaneModel) Classify(point []float64) (bool, error) {
	return point[0] > 0.5, nil
}

func (halfPlaneModel) MarshalBinary() ([]byte, error) {
	return []byte{0x1}, nil
}

func TestRenderSessionWritesPNG(t *testing.T) {
	testlog.Start(t)

	dir := t.TempDir()
	p, err := NewPlotter(dir)
	if err != nil {
		t.Fatalf("expected plotter, got %v", err)
	}

	samples := []sembas.Sample{
		{Point: []float64{0.9, 0.1}, Valid: true},
		{Point: []float64{0.7, 0.8}, Valid: true},
		{Point: []float64{0.2, 0.4}, Valid: false},
		{Point: []float64{0.1, 0.9}, Valid: false},
	}
	if err := p.RenderSession(7, samples, halfPlaneModel{}); err != nil {
		t.Fatalf("expected render to succeed, got %v", err)
	}

	path := filepath.Join(dir, "session_007.png")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected plot at %s, got %v", path, err)
	}
	if info.Size() == 0 {
		t.Fatalf("expected non-empty plot file")
	}
}

func TestRenderSessionRejectsNonPlanarPoints(t *testing.T) {
	testlog.Start(t)

	p, err := NewPlotter(t.TempDir())
	if err != nil {
		t.Fatalf("expected plotter, got %v", err)
	}
	samples := []sembas.Sample{{Point: []float64{0.1, 0.2, 0.3}, Valid: true}}
	if err := p.RenderSession(0, samples, nil); !errors.Is(err, ErrNotPlanar) {
		t.Fatalf("expected ErrNotPlanar, got %v", err)
	}
}

func TestRenderLossWritesPNG(t *testing.T) {
	testlog.Start(t)

	dir := t.TempDir()
	p, err := NewPlotter(dir)
	if err != nil {
		t.Fatalf("expected plotter, got %v", err)
	}
	path, err := p.RenderLoss([]float64{1.2, 0.8}, []float64{1.4, 0.9})
	if err != nil {
		t.Fatalf("expected loss render to succeed, got %v", err)
	}
	if filepath.Base(path) != "loss.png" {
		t.Fatalf("expected loss.png, got %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected plot at %s, got %v", path, err)
	}
}

func TestNewPlotterRequiresDir(t *testing.T) {
	testlog.Start(t)

	if _, err := NewPlotter(""); !errors.Is(err, ErrPlotDirRequired) {
		t.Fatalf("expected ErrPlotDirRequired, got %v", err)
	}
}
