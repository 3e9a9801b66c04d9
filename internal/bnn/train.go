package bnn

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
	xrand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// TrainConfig tunes the variational fit. Zero values fall back to
// defaults via WithDefaults.
type TrainConfig struct {
	Epochs    int
	BatchSize int
	LearnRate float64
	KLWeight  float64
	TestFrac  float64
	Seed      uint64
}

// DefaultTrainConfig returns the stock training schedule.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Epochs:    2,
		BatchSize: 32,
		LearnRate: 0.01,
		KLWeight:  1e-6,
		TestFrac:  0.1,
		Seed:      1,
	}
}

// WithDefaults fills zero-valued fields from DefaultTrainConfig.
func (c TrainConfig) WithDefaults() TrainConfig {
	d := DefaultTrainConfig()
	if c.Epochs <= 0 {
		c.Epochs = d.Epochs
	}
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.LearnRate <= 0 {
		c.LearnRate = d.LearnRate
	}
	if c.KLWeight <= 0 {
		c.KLWeight = d.KLWeight
	}
	if c.TestFrac <= 0 {
		c.TestFrac = d.TestFrac
	}
	return c
}

// History records per-epoch losses on the train split and the holdout.
type History struct {
	Train []float64
	Test  []float64
}

// Train fits net's posterior to ds by stochastic gradient descent over
// reparametrized draws: each minibatch samples one concrete network,
// measures squared error plus the KL penalty, and pushes gradients
// back through the draw into the variational parameters with Adam.
func Train(net *Net, ds *Dataset, cfg TrainConfig) (History, error) {
	cfg = cfg.WithDefaults()
	if net.Dims() != ds.Dims() {
		return History{}, fmt.Errorf("%w: model takes %d inputs, dataset has %d columns", ErrBadShape, net.Dims(), ds.Dims())
	}

	rng := xrand.New(xrand.NewSource(cfg.Seed))
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rng}

	perm := rng.Perm(ds.Len())
	testN := int(float64(ds.Len()) * cfg.TestFrac)
	if testN < 1 {
		testN = 1
	}
	trainN := ds.Len() - testN
	if trainN < 1 {
		return History{}, fmt.Errorf("%w: %d rows after holdout", ErrDatasetTooSmall, trainN)
	}
	testIdx := perm[:testN]
	trainIdx := perm[testN:]

	testX := gatherRows(ds.inputs, testIdx)
	testY := gatherRows(ds.targets, testIdx)

	opt := newAdam(cfg.LearnRate, []*mat.Dense{
		net.Hidden.WeightMu, net.Hidden.WeightLV, net.Hidden.BiasMu, net.Hidden.BiasLV,
		net.Out.WeightMu, net.Out.WeightLV, net.Out.BiasMu, net.Out.BiasLV,
	})

	log.Info().
		Int("rows", ds.Len()).
		Int("train", trainN).
		Int("test", testN).
		Int("epochs", cfg.Epochs).
		Msg("bnn.Train start")

	var hist History
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		rng.Shuffle(len(trainIdx), func(i, j int) {
			trainIdx[i], trainIdx[j] = trainIdx[j], trainIdx[i]
		})

		var epochLoss float64
		var batches int
		for start := 0; start < len(trainIdx); start += cfg.BatchSize {
			end := start + cfg.BatchSize
			if end > len(trainIdx) {
				end = len(trainIdx)
			}
			batch := trainIdx[start:end]
			x := gatherRows(ds.inputs, batch)
			y := gatherRows(ds.targets, batch)

			loss := trainStep(net, opt, normal, x, y, cfg.KLWeight)
			epochLoss += loss
			batches++
		}
		epochLoss /= float64(batches)

		w1, b1, _, _ := net.Hidden.draw(normal)
		w2, b2, _, _ := net.Out.draw(normal)
		_, _, testHat := forwardBatch(testX, w1, b1, w2, b2)
		var testRes mat.Dense
		testRes.Sub(testHat, testY)
		testLoss := meanSq(&testRes) + cfg.KLWeight*net.KL()

		hist.Train = append(hist.Train, epochLoss)
		hist.Test = append(hist.Test, testLoss)
		log.Debug().
			Int("epoch", epoch).
			Float64("train_loss", epochLoss).
			Float64("test_loss", testLoss).
			Msg("bnn.Train epoch")
	}

	log.Info().
		Float64("train_loss", hist.Train[len(hist.Train)-1]).
		Float64("test_loss", hist.Test[len(hist.Test)-1]).
		Msg("bnn.Train done")
	return hist, nil
}

// trainStep runs forward and backward for one minibatch and applies
// the optimizer. Returns the batch loss.
func trainStep(net *Net, opt *adam, normal distuv.Normal, x, y *mat.Dense, klWeight float64) float64 {
	w1, b1, epsW1, epsB1 := net.Hidden.draw(normal)
	w2, b2, epsW2, epsB2 := net.Out.draw(normal)

	z1, h, yhat := forwardBatch(x, w1, b1, w2, b2)

	rows, _ := x.Dims()
	var res mat.Dense
	res.Sub(yhat, y)
	loss := meanSq(&res) + klWeight*net.KL()

	// dLoss/dYhat for mean squared error over the batch.
	var dYhat mat.Dense
	dYhat.Scale(2/float64(rows), &res)

	var dW2 mat.Dense
	dW2.Mul(h.T(), &dYhat)
	dB2 := colSums(&dYhat)

	var dH mat.Dense
	dH.Mul(&dYhat, w2.T())
	var dZ1 mat.Dense
	dZ1.Apply(func(i, j int, v float64) float64 {
		if z1.At(i, j) > 0 {
			return v
		}
		return 0
	}, &dH)

	var dW1 mat.Dense
	dW1.Mul(x.T(), &dZ1)
	dB1 := colSums(&dZ1)

	dMuW1, dLVW1 := variationalGrads(&dW1, epsW1, net.Hidden.WeightMu, net.Hidden.WeightLV, klWeight)
	dMuB1, dLVB1 := variationalGrads(dB1, epsB1, net.Hidden.BiasMu, net.Hidden.BiasLV, klWeight)
	dMuW2, dLVW2 := variationalGrads(&dW2, epsW2, net.Out.WeightMu, net.Out.WeightLV, klWeight)
	dMuB2, dLVB2 := variationalGrads(dB2, epsB2, net.Out.BiasMu, net.Out.BiasLV, klWeight)

	opt.step([]*mat.Dense{
		dMuW1, dLVW1, dMuB1, dLVB1,
		dMuW2, dLVW2, dMuB2, dLVB2,
	})
	return loss
}

// variationalGrads pushes a concrete-weight gradient through the draw
// W = mu + exp(0.5*lv)*eps and adds the KL term's contribution.
func variationalGrads(dW, eps, mu, lv *mat.Dense, klWeight float64) (dMu, dLV *mat.Dense) {
	r, c := dW.Dims()
	dMu = mat.NewDense(r, c, nil)
	dLV = mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			g := dW.At(i, j)
			v := lv.At(i, j)
			dMu.Set(i, j, g+klWeight*mu.At(i, j))
			dLV.Set(i, j, g*eps.At(i, j)*0.5*math.Exp(0.5*v)+klWeight*0.5*(math.Exp(v)-1))
		}
	}
	return dMu, dLV
}

func forwardBatch(x, w1, b1, w2, b2 *mat.Dense) (z1, h, yhat *mat.Dense) {
	z1 = &mat.Dense{}
	z1.Mul(x, w1)
	addRowInPlace(z1, b1)
	h = &mat.Dense{}
	h.Apply(func(_, _ int, v float64) float64 {
		if v < 0 {
			return 0
		}
		return v
	}, z1)
	yhat = &mat.Dense{}
	yhat.Mul(h, w2)
	addRowInPlace(yhat, b2)
	return z1, h, yhat
}

func addRowInPlace(m, row *mat.Dense) {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			m.Set(i, j, m.At(i, j)+row.At(0, j))
		}
	}
}

func gatherRows(src *mat.Dense, rows []int) *mat.Dense {
	_, c := src.Dims()
	out := mat.NewDense(len(rows), c, nil)
	for i, r := range rows {
		out.SetRow(i, mat.Row(nil, r, src))
	}
	return out
}

func colSums(m *mat.Dense) *mat.Dense {
	r, c := m.Dims()
	out := mat.NewDense(1, c, nil)
	for j := 0; j < c; j++ {
		var s float64
		for i := 0; i < r; i++ {
			s += m.At(i, j)
		}
		out.Set(0, j, s)
	}
	return out
}

func meanSq(m *mat.Dense) float64 {
	r, c := m.Dims()
	var s float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			s += v * v
		}
	}
	return s / float64(r*c)
}

// adam is a plain Adam optimizer over a fixed parameter list.
type adam struct {
	lr     float64
	beta1  float64
	beta2  float64
	eps    float64
	t      float64
	params []*mat.Dense
	m, v   []*mat.Dense
}

func newAdam(lr float64, params []*mat.Dense) *adam {
	a := &adam{
		lr:     lr,
		beta1:  0.9,
		beta2:  0.999,
		eps:    1e-8,
		params: params,
		m:      make([]*mat.Dense, len(params)),
		v:      make([]*mat.Dense, len(params)),
	}
	for i, p := range params {
		r, c := p.Dims()
		a.m[i] = mat.NewDense(r, c, nil)
		a.v[i] = mat.NewDense(r, c, nil)
	}
	return a
}

// step applies one update; grads must align with the parameter list
// passed to newAdam.
func (a *adam) step(grads []*mat.Dense) {
	a.t++
	mCorr := 1 - math.Pow(a.beta1, a.t)
	vCorr := 1 - math.Pow(a.beta2, a.t)
	for i, p := range a.params {
		g := grads[i]
		m := a.m[i]
		v := a.v[i]
		r, c := p.Dims()
		for row := 0; row < r; row++ {
			for col := 0; col < c; col++ {
				gv := g.At(row, col)
				mv := a.beta1*m.At(row, col) + (1-a.beta1)*gv
				vv := a.beta2*v.At(row, col) + (1-a.beta2)*gv*gv
				m.Set(row, col, mv)
				v.Set(row, col, vv)
				p.Set(row, col, p.At(row, col)-a.lr*(mv/mCorr)/(math.Sqrt(vv/vCorr)+a.eps))
			}
		}
	}
}
