package model

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// RandomInit fills the parameters the way the reference training framework does:
// embeddings ~ N(0,1) and linear weights and biases ~ U(-1/√in, 1/√in).
// The same seed always yields the same network.
func (m *HybridNeuMF) RandomInit(seed uint64) {
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: src}

	for _, e := range []*Embedding{m.Encoder.ShapeGMF, m.Encoder.ItemGMF, m.Encoder.ShapeMLP, m.Encoder.ItemMLP} {
		fill(e.Weight, normal.Rand)
	}

	linears := append([]*Linear{m.Encoder.Geometry}, m.MLP...)
	linears = append(linears, m.Predict)
	for _, l := range linears {
		bound := 1 / math.Sqrt(float64(l.In()))
		uniform := distuv.Uniform{Min: -bound, Max: bound, Src: src}
		fill(l.Weight, uniform.Rand)
		b := l.Bias.RawVector().Data
		for i := range b {
			b[i] = uniform.Rand()
		}
	}
}

func fill(d *mat.Dense, sample func() float64) {
	r, c := d.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			d.Set(i, j, sample())
		}
	}
}
