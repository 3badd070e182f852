package train

import (
	"fmt"
	"math"

	"github.com/AbdelrahmanSuliman/Graduation-Project/model"
)

// Adam is a dense Adam optimizer over a fixed parameter list.
type Adam struct {
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64

	params []model.Param
	m, v   [][]float64
	step   int
}

func NewAdam(params []model.Param, lr, beta1, beta2, eps float64) *Adam {
	a := &Adam{
		LearningRate: lr,
		Beta1:        beta1,
		Beta2:        beta2,
		Epsilon:      eps,
		params:       params,
		m:            make([][]float64, len(params)),
		v:            make([][]float64, len(params)),
	}
	for i, p := range params {
		a.m[i] = make([]float64, len(p.Data))
		a.v[i] = make([]float64, len(p.Data))
	}
	return a
}

// Step applies one update. grads must pair up with the optimizer's parameters.
func (a *Adam) Step(grads []model.Param) error {
	if len(grads) != len(a.params) {
		return fmt.Errorf("adam: %d gradients for %d parameters", len(grads), len(a.params))
	}
	a.step++
	c1 := 1 - math.Pow(a.Beta1, float64(a.step))
	c2 := 1 - math.Pow(a.Beta2, float64(a.step))

	for i, p := range a.params {
		g := grads[i].Data
		if len(g) != len(p.Data) {
			return fmt.Errorf("adam: %s has %d values, gradient has %d", p.Name, len(p.Data), len(g))
		}
		m, v := a.m[i], a.v[i]
		for j, gj := range g {
			m[j] = a.Beta1*m[j] + (1-a.Beta1)*gj
			v[j] = a.Beta2*v[j] + (1-a.Beta2)*gj*gj
			p.Data[j] -= a.LearningRate * (m[j] / c1) / (math.Sqrt(v[j]/c2) + a.Epsilon)
		}
	}
	return nil
}

// Steps returns how many updates have been applied.
func (a *Adam) Steps() int { return a.step }
