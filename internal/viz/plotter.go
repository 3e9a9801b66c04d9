// Package viz renders exploration rounds to PNG plots. It is an
// optional sink: runs work identically without it.
package viz

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/danmuck/futctl/internal/explore"
	"github.com/danmuck/futctl/internal/sembas"
)

var (
	ErrPlotDirRequired = errors.New("viz: plot directory required")
	ErrNotPlanar       = errors.New("viz: session plots need 2-d points")
)

// Plotter writes one scatter plot per rendered session and an optional
// training-loss chart, all under a single directory.
type Plotter struct {
	dir string
}

var _ explore.VisualizationSink = (*Plotter)(nil)

// NewPlotter roots plot output at dir.
func NewPlotter(dir string) (*Plotter, error) {
	if dir == "" {
		return nil, ErrPlotDirRequired
	}
	return &Plotter{dir: dir}, nil
}

// RenderSession draws the round's verdicts over the unit square: the
// region the instance predicts valid as a faint backdrop, the engine's
// probe points colored by verdict on top.
func (p *Plotter) RenderSession(round int, samples []sembas.Sample, model explore.ConcreteModel) error {
	for _, s := range samples {
		if len(s.Point) != 2 {
			return fmt.Errorf("%w: got %d-d", ErrNotPlanar, len(s.Point))
		}
	}

	pl := plot.New()
	pl.Title.Text = fmt.Sprintf("session %d", round)
	pl.X.Label.Text = "x0"
	pl.Y.Label.Text = "x1"
	pl.X.Min, pl.X.Max = 0, 1
	pl.Y.Min, pl.Y.Max = 0, 1

	if model != nil {
		backdrop, err := predictedRegion(model)
		if err != nil {
			return err
		}
		if len(backdrop) > 0 {
			sc, err := plotter.NewScatter(backdrop)
			if err != nil {
				return fmt.Errorf("viz: backdrop scatter: %w", err)
			}
			sc.GlyphStyle.Color = color.RGBA{R: 0xd0, G: 0xd0, B: 0xd0, A: 0xff}
			sc.GlyphStyle.Radius = vg.Points(1)
			pl.Add(sc)
		}
	}

	var valid, invalid plotter.XYs
	for _, s := range samples {
		xy := plotter.XY{X: s.Point[0], Y: s.Point[1]}
		if s.Valid {
			valid = append(valid, xy)
		} else {
			invalid = append(invalid, xy)
		}
	}
	if len(valid) > 0 {
		sc, err := plotter.NewScatter(valid)
		if err != nil {
			return fmt.Errorf("viz: valid scatter: %w", err)
		}
		sc.GlyphStyle.Color = color.RGBA{G: 0xa0, A: 0xff}
		pl.Add(sc)
		pl.Legend.Add("valid", sc)
	}
	if len(invalid) > 0 {
		sc, err := plotter.NewScatter(invalid)
		if err != nil {
			return fmt.Errorf("viz: invalid scatter: %w", err)
		}
		sc.GlyphStyle.Color = color.RGBA{R: 0xc8, A: 0xff}
		pl.Add(sc)
		pl.Legend.Add("invalid", sc)
	}

	path := filepath.Join(p.dir, fmt.Sprintf("session_%03d.png", round))
	if err := p.save(pl, path); err != nil {
		return err
	}
	log.Debug().Str("path", path).Int("samples", len(samples)).Msg("viz.Plotter session rendered")
	return nil
}

// RenderLoss charts per-epoch train and holdout losses and returns the
// written path.
func (p *Plotter) RenderLoss(train, test []float64) (string, error) {
	pl := plot.New()
	pl.Title.Text = "training loss"
	pl.X.Label.Text = "epoch"
	pl.Y.Label.Text = "loss"

	if err := plotutil.AddLinePoints(pl,
		"train", seriesXYs(train),
		"test", seriesXYs(test),
	); err != nil {
		return "", fmt.Errorf("viz: loss lines: %w", err)
	}

	path := filepath.Join(p.dir, "loss.png")
	if err := p.save(pl, path); err != nil {
		return "", err
	}
	return path, nil
}

func (p *Plotter) save(pl *plot.Plot, path string) error {
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return fmt.Errorf("viz: create plot dir: %w", err)
	}
	if err := pl.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("viz: save plot: %w", err)
	}
	return nil
}

// predictedRegion classifies a coarse unit-square grid with the round's
// instance so the plot shows the region it believes valid.
func predictedRegion(model explore.ConcreteModel) (plotter.XYs, error) {
	const side = 50
	pts := make(plotter.XYs, 0, side*side)
	for i := 0; i < side; i++ {
		for j := 0; j < side; j++ {
			x := float64(i) / float64(side-1)
			y := float64(j) / float64(side-1)
			ok, err := model.Classify([]float64{x, y})
			if err != nil {
				return nil, fmt.Errorf("viz: backdrop classify: %w", err)
			}
			if ok {
				pts = append(pts, plotter.XY{X: x, Y: y})
			}
		}
	}
	return pts, nil
}

func seriesXYs(values []float64) plotter.XYs {
	out := make(plotter.XYs, len(values))
	for i, v := range values {
		out[i] = plotter.XY{X: float64(i), Y: v}
	}
	return out
}
