package model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Param is a named view over the live storage of one parameter tensor.
// Writing to Data writes to the network.
type Param struct {
	Name string
	Data []float64
}

// Parameters lists every tensor in state-dict order. Two networks with equal
// hyperparameters return lists that pair up index by index.
func (m *HybridNeuMF) Parameters() []Param {
	ps := m.params()
	out := make([]Param, len(ps))
	for i, p := range ps {
		out[i].Name = p.name
		if p.matrix != nil {
			out[i].Data = p.matrix.RawMatrix().Data
		} else {
			out[i].Data = p.vector.RawVector().Data
		}
	}
	return out
}

// ZeroParams sets every parameter to zero.
func (m *HybridNeuMF) ZeroParams() {
	for _, p := range m.Parameters() {
		clear(p.Data)
	}
}

// Backward back-propagates dLogits (∂loss/∂logit per batch row) through the pass recorded
// in act and writes the parameter gradients into g, which must share m's hyperparameters.
// g is overwritten.
func (m *HybridNeuMF) Backward(shapes, items []int, act *Activations, dLogits []float64, g *HybridNeuMF) error {
	batch := len(dLogits)
	if len(shapes) != batch || len(items) != batch || len(act.Probs) != batch {
		return fmt.Errorf("backward: batch mismatch (%d logits, %d shapes, %d items, %d activations)",
			batch, len(shapes), len(items), len(act.Probs))
	}
	if !m.hp.Equal(g.hp) {
		return fmt.Errorf("backward: gradient holder has different hyperparameters")
	}
	g.ZeroParams()

	factors := m.hp.FactorNum
	dZ := mat.NewDense(batch, 1, append([]float64(nil), dLogits...))
	dFused := linearBackward(m.Predict, g.Predict, act.Fused, dZ)

	_, fusedWidth := dFused.Dims()
	dGMF := mat.DenseCopyOf(dFused.Slice(0, batch, 0, factors))
	dH := mat.DenseCopyOf(dFused.Slice(0, batch, factors, fusedWidth))

	for i := len(m.MLP) - 1; i >= 0; i-- {
		if i == 0 && act.DropMask != nil {
			dH.MulElem(dH, act.DropMask)
		}
		pre := act.PreAct[i]
		dH.Apply(func(r, c int, v float64) float64 {
			if pre.At(r, c) <= 0 {
				return 0
			}
			return v
		}, dH)

		var in mat.Matrix = act.Encoded.Deep
		if i > 0 {
			in = act.Hidden[i-1]
		}
		dH = linearBackward(m.MLP[i], g.MLP[i], in, dH)
	}

	// dH is now ∂loss/∂[shapeMLP | itemMLP | geometry]
	dShapeMLP := mat.DenseCopyOf(dH.Slice(0, batch, 0, factors))
	dItemMLP := mat.DenseCopyOf(dH.Slice(0, batch, factors, 2*factors))
	dGeometry := mat.DenseCopyOf(dH.Slice(0, batch, 2*factors, 3*factors))

	linearBackward(m.Encoder.Geometry, g.Encoder.Geometry, act.Encoded.Features, dGeometry)

	var dShapeGMF, dItemGMF mat.Dense
	dShapeGMF.MulElem(dGMF, act.Encoded.ItemGMF)
	dItemGMF.MulElem(dGMF, act.Encoded.ShapeGMF)

	scatterRows(g.Encoder.ShapeGMF, shapes, &dShapeGMF)
	scatterRows(g.Encoder.ItemGMF, items, &dItemGMF)
	scatterRows(g.Encoder.ShapeMLP, shapes, dShapeMLP)
	scatterRows(g.Encoder.ItemMLP, items, dItemMLP)
	return nil
}

// linearBackward adds the gradients of l for input x and upstream dy into gl
// and returns ∂loss/∂x.
func linearBackward(l, gl *Linear, x mat.Matrix, dy *mat.Dense) *mat.Dense {
	var dW mat.Dense
	dW.Mul(dy.T(), x)
	gl.Weight.Add(gl.Weight, &dW)

	rows, cols := dy.Dims()
	bias := gl.Bias.RawVector().Data
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			bias[c] += dy.At(r, c)
		}
	}

	dx := mat.NewDense(rows, l.In(), nil)
	dx.Mul(dy, l.Weight)
	return dx
}

// scatterRows adds row r of d to row ids[r] of the embedding gradient.
func scatterRows(g *Embedding, ids []int, d *mat.Dense) {
	for r, id := range ids {
		dst := g.Weight.RawRowView(id)
		for j, v := range d.RawRowView(r) {
			dst[j] += v
		}
	}
}
