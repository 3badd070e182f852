package train

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/AbdelrahmanSuliman/Graduation-Project/logging"
	"github.com/AbdelrahmanSuliman/Graduation-Project/model"
	"github.com/AbdelrahmanSuliman/Graduation-Project/pkg/validation"
)

// Config holds the training loop settings.
type Config struct {
	Epochs       int     `validate:"gt=0"`
	BatchSize    int     `validate:"gt=0"`
	LearningRate float64 `validate:"gt=0"`
	Beta1        float64 `validate:"gte=0,lt=1"`
	Beta2        float64 `validate:"gte=0,lt=1"`
	Epsilon      float64 `validate:"gt=0"`
	Dropout      float64 `validate:"gte=0,lt=1"`
	Seed         uint64
}

// DefaultConfig is the reference schedule: 10 epochs of batch 32 at lr 0.001.
func DefaultConfig() Config {
	return Config{
		Epochs:       10,
		BatchSize:    32,
		LearningRate: 0.001,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      1e-8,
		Dropout:      model.DropoutRate,
		Seed:         42,
	}
}

// EpochStats summarises one pass over the dataset.
type EpochStats struct {
	Epoch    int
	Loss     float64
	Batches  int
	Duration time.Duration
}

// Trainer runs mini-batch Adam on binary cross-entropy. It mutates the model in place
// and is not safe for concurrent use.
type Trainer struct {
	cfg   Config
	model *model.HybridNeuMF
	grads *model.HybridNeuMF
	opt   *Adam
	rng   *rand.Rand
	log   zerolog.Logger
}

func New(m *model.HybridNeuMF, cfg Config) (*Trainer, error) {
	if m == nil {
		return nil, fmt.Errorf("trainer: nil model")
	}
	if err := validation.Struct(cfg); err != nil {
		return nil, fmt.Errorf("trainer config: %w", err)
	}
	grads, err := model.NewHybridNeuMF(m.Hyperparameters())
	if err != nil {
		return nil, err
	}
	return &Trainer{
		cfg:   cfg,
		model: m,
		grads: grads,
		opt:   NewAdam(m.Parameters(), cfg.LearningRate, cfg.Beta1, cfg.Beta2, cfg.Epsilon),
		rng:   rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x5851f42d4c957f2d)),
		log:   logging.WithComponent("train"),
	}, nil
}

// Fit trains for cfg.Epochs passes, reshuffling before each one.
func (t *Trainer) Fit(ctx context.Context, ds *Dataset) ([]EpochStats, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, fmt.Errorf("trainer: empty dataset")
	}
	hp := t.model.Hyperparameters()
	if err := ds.Check(hp.NumFaceShapes, hp.NumItems); err != nil {
		return nil, err
	}

	order := make([]int, ds.Len())
	for i := range order {
		order[i] = i
	}

	stats := make([]EpochStats, 0, t.cfg.Epochs)
	for epoch := 1; epoch <= t.cfg.Epochs; epoch++ {
		start := time.Now()
		t.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		var total float64
		batches := 0
		for lo := 0; lo < len(order); lo += t.cfg.BatchSize {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			hi := min(lo+t.cfg.BatchSize, len(order))
			batch := make([]Sample, hi-lo)
			for i, idx := range order[lo:hi] {
				batch[i] = ds.Samples[idx]
			}
			loss, err := t.Step(batch)
			if err != nil {
				return stats, fmt.Errorf("epoch %d: %w", epoch, err)
			}
			total += loss
			batches++
		}

		s := EpochStats{Epoch: epoch, Loss: total / float64(batches), Batches: batches, Duration: time.Since(start)}
		stats = append(stats, s)
		t.log.Info().
			Int("epoch", epoch).
			Int("epochs", t.cfg.Epochs).
			Float64("loss", s.Loss).
			Dur("took", s.Duration).
			Msg("epoch finished")
	}
	return stats, nil
}

// Step runs forward, backward and one optimizer update on a batch and returns
// the batch loss measured before the update.
func (t *Trainer) Step(batch []Sample) (float64, error) {
	n := len(batch)
	if n == 0 {
		return 0, fmt.Errorf("trainer: empty batch")
	}
	hp := t.model.Hyperparameters()

	shapes := make([]int, n)
	items := make([]int, n)
	labels := make([]float64, n)
	feats := mat.NewDense(n, hp.NumGeometricFeatures, nil)
	for i, s := range batch {
		shapes[i], items[i], labels[i] = s.Shape, s.Item, s.Label
		feats.SetRow(i, s.Features.Vector())
	}

	act, err := t.model.Forward(shapes, items, feats, t.dropoutMask(n, hp.MLPLayers[0]))
	if err != nil {
		return 0, err
	}
	loss := BCELoss(act.Probs, labels)

	// ∂mean-BCE/∂logit = (p - y) / n
	dLogits := make([]float64, n)
	for i, p := range act.Probs {
		dLogits[i] = (p - labels[i]) / float64(n)
	}
	if err := t.model.Backward(shapes, items, act, dLogits, t.grads); err != nil {
		return 0, err
	}
	if err := t.opt.Step(t.grads.Parameters()); err != nil {
		return 0, err
	}
	return loss, nil
}

// dropoutMask samples inverted dropout: each unit is 0 with probability p,
// otherwise 1/(1-p). It returns nil when dropout is off.
func (t *Trainer) dropoutMask(rows, cols int) *mat.Dense {
	p := t.cfg.Dropout
	if p <= 0 {
		return nil
	}
	keep := 1 / (1 - p)
	data := make([]float64, rows*cols)
	for i := range data {
		if t.rng.Float64() >= p {
			data[i] = keep
		}
	}
	return mat.NewDense(rows, cols, data)
}

// BCELoss is the mean binary cross-entropy with each log term clamped at -100.
func BCELoss(probs, labels []float64) float64 {
	if len(probs) == 0 {
		return 0
	}
	var sum float64
	for i, p := range probs {
		y := labels[i]
		sum -= y*clampedLog(p) + (1-y)*clampedLog(1-p)
	}
	return sum / float64(len(probs))
}

func clampedLog(x float64) float64 {
	return math.Max(math.Log(x), -100)
}
