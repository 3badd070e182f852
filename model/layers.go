package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/AbdelrahmanSuliman/Graduation-Project/core"
)

// Embedding is a lookup table with one row per id.
type Embedding struct {
	Weight *mat.Dense // num × dim
}

func NewEmbedding(num, dim int) *Embedding {
	return &Embedding{Weight: mat.NewDense(num, dim, nil)}
}

func (e *Embedding) Num() int {
	r, _ := e.Weight.Dims()
	return r
}

func (e *Embedding) Dim() int {
	_, c := e.Weight.Dims()
	return c
}

// Lookup gathers the rows for ids into a len(ids) × dim matrix.
func (e *Embedding) Lookup(ids []int) (*mat.Dense, error) {
	num, dim := e.Weight.Dims()
	out := mat.NewDense(len(ids), dim, nil)
	for r, id := range ids {
		if id < 0 || id >= num {
			return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput,
				fmt.Sprintf("embedding id %d out of range [0,%d)", id, num))
		}
		out.SetRow(r, e.Weight.RawRowView(id))
	}
	return out, nil
}

// Linear is an affine layer y = x·Wᵀ + b, with W stored out × in.
type Linear struct {
	Weight *mat.Dense
	Bias   *mat.VecDense
}

func NewLinear(in, out int) *Linear {
	return &Linear{
		Weight: mat.NewDense(out, in, nil),
		Bias:   mat.NewVecDense(out, nil),
	}
}

func (l *Linear) In() int {
	_, c := l.Weight.Dims()
	return c
}

func (l *Linear) Out() int {
	r, _ := l.Weight.Dims()
	return r
}

// Forward maps a batch × in matrix to batch × out.
func (l *Linear) Forward(x mat.Matrix) *mat.Dense {
	rows, _ := x.Dims()
	out := mat.NewDense(rows, l.Out(), nil)
	out.Mul(x, l.Weight.T())
	bias := l.Bias.RawVector().Data
	for r := 0; r < rows; r++ {
		row := out.RawRowView(r)
		for j := range row {
			row[j] += bias[j]
		}
	}
	return out
}

// reluInPlace clamps negative entries of m to zero.
func reluInPlace(m *mat.Dense) {
	m.Apply(func(_, _ int, v float64) float64 {
		if v < 0 {
			return 0
		}
		return v
	}, m)
}

// Sigmoid is evaluated without overflow for large |z|.
func Sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// hstack concatenates matrices with equal row counts left to right.
func hstack(parts ...*mat.Dense) *mat.Dense {
	out := parts[0]
	for _, p := range parts[1:] {
		var next mat.Dense
		next.Augment(out, p)
		out = &next
	}
	return out
}
