package model

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/AbdelrahmanSuliman/Graduation-Project/core"
)

// Hyperparameters fix the architecture. They are stored in the artifact and must match
// the serving configuration exactly.
type Hyperparameters struct {
	NumFaceShapes        int   `json:"num_face_shapes" koanf:"num_face_shapes" validate:"gt=0"`
	NumItems             int   `json:"num_items" koanf:"num_items" validate:"gt=0"`
	NumGeometricFeatures int   `json:"num_geometric_features" koanf:"num_geometric_features" validate:"gt=0"`
	FactorNum            int   `json:"factor_num" koanf:"factor_num" validate:"gt=0"`
	MLPLayers            []int `json:"mlp_layers" koanf:"mlp_layers" validate:"min=1,dive,gt=0"`
}

// DefaultHyperparameters is the reference configuration: 5 shapes, 50 items, 3 ratios,
// 8 factors and a 32-16-8 tower.
func DefaultHyperparameters() Hyperparameters {
	return Hyperparameters{
		NumFaceShapes:        core.NumFaceShapes,
		NumItems:             50,
		NumGeometricFeatures: core.NumGeometricFeatures,
		FactorNum:            8,
		MLPLayers:            []int{32, 16, 8},
	}
}

func (h Hyperparameters) Validate() error {
	if h.NumFaceShapes <= 0 || h.NumItems <= 0 || h.NumGeometricFeatures <= 0 || h.FactorNum <= 0 {
		return fmt.Errorf("hyperparameters must be positive: %+v", h)
	}
	if len(h.MLPLayers) == 0 {
		return fmt.Errorf("mlp_layers must not be empty")
	}
	for i, w := range h.MLPLayers {
		if w <= 0 {
			return fmt.Errorf("mlp_layers[%d] must be positive, got %d", i, w)
		}
	}
	return nil
}

func (h Hyperparameters) Equal(o Hyperparameters) bool {
	return h.NumFaceShapes == o.NumFaceShapes &&
		h.NumItems == o.NumItems &&
		h.NumGeometricFeatures == o.NumGeometricFeatures &&
		h.FactorNum == o.FactorNum &&
		slices.Equal(h.MLPLayers, o.MLPLayers)
}

// DropoutRate applies after the first MLP layer, during training only.
const DropoutRate = 0.2

// HybridNeuMF is the dual-branch fusion scorer.
//
//	GMF:  shapeGMF ⊙ itemGMF                                      (F)
//	Deep: [shapeMLP | itemMLP | geometry(x)] → Linear+ReLU (+Dropout) → Linear+ReLU ... (last)
//	Out:  sigmoid(Predict([GMF | Deep]))                          (1)
//
// Scoring never writes to parameters; a loaded model is shared read-only across requests.
type HybridNeuMF struct {
	hp Hyperparameters

	Encoder *FeatureEncoder
	MLP     []*Linear
	Predict *Linear
}

// NewHybridNeuMF builds a zero-valued network. Use RandomInit or LoadStateDict to fill it.
func NewHybridNeuMF(hp Hyperparameters) (*HybridNeuMF, error) {
	if err := hp.Validate(); err != nil {
		return nil, err
	}
	hp.MLPLayers = slices.Clone(hp.MLPLayers)

	m := &HybridNeuMF{
		hp:      hp,
		Encoder: NewFeatureEncoder(hp.NumFaceShapes, hp.NumItems, hp.NumGeometricFeatures, hp.FactorNum),
		MLP:     make([]*Linear, len(hp.MLPLayers)),
	}
	in := 3 * hp.FactorNum
	for i, out := range hp.MLPLayers {
		m.MLP[i] = NewLinear(in, out)
		in = out
	}
	m.Predict = NewLinear(hp.FactorNum+in, 1)
	return m, nil
}

func (m *HybridNeuMF) Name() string { return "hybrid_neumf" }

func (m *HybridNeuMF) NumShapes() int { return m.hp.NumFaceShapes }

func (m *HybridNeuMF) NumItems() int { return m.hp.NumItems }

func (m *HybridNeuMF) Hyperparameters() Hyperparameters {
	hp := m.hp
	hp.MLPLayers = slices.Clone(m.hp.MLPLayers)
	return hp
}

// Activations keeps every intermediate of one forward pass. The trainer reads them for
// back-propagation; inference only uses Probs.
type Activations struct {
	Encoded *Encoded

	// PreAct[i] is MLP layer i before ReLU, Hidden[i] after ReLU (and dropout for i == 0).
	PreAct []*mat.Dense
	Hidden []*mat.Dense

	// DropMask is nil at inference. Otherwise it holds 0 or 1/(1-p) per unit of Hidden[0].
	DropMask *mat.Dense

	Fused  *mat.Dense
	Logits []float64
	Probs  []float64
}

// Forward evaluates a batch. mask, when non-nil, supplies the dropout mask for the first
// hidden layer and must have batch × MLPLayers[0] entries.
func (m *HybridNeuMF) Forward(shapes, items []int, features *mat.Dense, mask *mat.Dense) (*Activations, error) {
	enc, err := m.Encoder.Encode(shapes, items, features)
	if err != nil {
		return nil, err
	}
	act := &Activations{
		Encoded:  enc,
		PreAct:   make([]*mat.Dense, len(m.MLP)),
		Hidden:   make([]*mat.Dense, len(m.MLP)),
		DropMask: mask,
	}

	x := enc.Deep
	for i, layer := range m.MLP {
		pre := layer.Forward(x)
		h := mat.DenseCopyOf(pre)
		reluInPlace(h)
		if i == 0 && mask != nil {
			h.MulElem(h, mask)
		}
		act.PreAct[i] = pre
		act.Hidden[i] = h
		x = h
	}

	act.Fused = hstack(enc.GMF, x)
	logits := m.Predict.Forward(act.Fused)
	act.Logits = mat.Col(nil, 0, logits)
	act.Probs = make([]float64, len(act.Logits))
	for i, z := range act.Logits {
		act.Probs[i] = Sigmoid(z)
	}
	return act, nil
}

// ScoreBatch scores every item for one face profile with dropout disabled.
func (m *HybridNeuMF) ScoreBatch(shape int, items []int, features []float64) ([]float64, error) {
	if shape < 0 || shape >= m.hp.NumFaceShapes {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput,
			fmt.Sprintf("face shape id %d out of range [0,%d)", shape, m.hp.NumFaceShapes))
	}
	if len(features) != m.hp.NumGeometricFeatures {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput,
			fmt.Sprintf("expected %d geometric features, got %d", m.hp.NumGeometricFeatures, len(features)))
	}
	for i, f := range features {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput,
				fmt.Sprintf("geometric feature %d is not finite", i))
		}
	}
	if len(items) == 0 {
		return []float64{}, nil
	}

	shapes, feats := Broadcast(shape, items, features)
	act, err := m.Forward(shapes, items, feats, nil)
	if err != nil {
		return nil, err
	}
	return act.Probs, nil
}

// Score is ScoreBatch for a single item.
func (m *HybridNeuMF) Score(shape, item int, features []float64) (float64, error) {
	scores, err := m.ScoreBatch(shape, []int{item}, features)
	if err != nil {
		return 0, err
	}
	return scores[0], nil
}

var _ ScoringModel = (*HybridNeuMF)(nil)
