package model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/AbdelrahmanSuliman/Graduation-Project/core"
)

// FeatureEncoder turns ids and geometric ratios into dense vectors.
//
// Each categorical axis has two tables: the GMF pair feeds the multiplicative branch and
// the MLP pair feeds the deep branch, so one id can contribute differently to each.
// Geometry projects the ratio vector to the factor width so it can be concatenated.
type FeatureEncoder struct {
	ShapeGMF *Embedding
	ItemGMF  *Embedding
	ShapeMLP *Embedding
	ItemMLP  *Embedding
	Geometry *Linear
}

func NewFeatureEncoder(numShapes, numItems, numFeatures, factors int) *FeatureEncoder {
	return &FeatureEncoder{
		ShapeGMF: NewEmbedding(numShapes, factors),
		ItemGMF:  NewEmbedding(numItems, factors),
		ShapeMLP: NewEmbedding(numShapes, factors),
		ItemMLP:  NewEmbedding(numItems, factors),
		Geometry: NewLinear(numFeatures, factors),
	}
}

// Encoded is the encoder output for one batch. All matrices have one row per batch entry.
type Encoded struct {
	ShapeGMF *mat.Dense
	ItemGMF  *mat.Dense
	ShapeMLP *mat.Dense
	ItemMLP  *mat.Dense
	Geometry *mat.Dense
	Features *mat.Dense

	// GMF is ShapeGMF ⊙ ItemGMF.
	GMF *mat.Dense
	// Deep is [ShapeMLP | ItemMLP | Geometry].
	Deep *mat.Dense
}

// Encode looks up every table for the batch. shapes and items are per-row ids and
// features is batch × NumGeometricFeatures.
func (e *FeatureEncoder) Encode(shapes, items []int, features *mat.Dense) (*Encoded, error) {
	if len(shapes) != len(items) {
		return nil, fmt.Errorf("encode: %d shape ids for %d item ids", len(shapes), len(items))
	}
	rows, cols := features.Dims()
	if rows != len(items) || cols != e.Geometry.In() {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput,
			fmt.Sprintf("features must be %d×%d, got %d×%d", len(items), e.Geometry.In(), rows, cols))
	}

	var (
		enc Encoded
		err error
	)
	if enc.ShapeGMF, err = e.ShapeGMF.Lookup(shapes); err != nil {
		return nil, fmt.Errorf("face shape: %w", err)
	}
	if enc.ItemGMF, err = e.ItemGMF.Lookup(items); err != nil {
		return nil, fmt.Errorf("item: %w", err)
	}
	if enc.ShapeMLP, err = e.ShapeMLP.Lookup(shapes); err != nil {
		return nil, fmt.Errorf("face shape: %w", err)
	}
	if enc.ItemMLP, err = e.ItemMLP.Lookup(items); err != nil {
		return nil, fmt.Errorf("item: %w", err)
	}
	enc.Features = features
	enc.Geometry = e.Geometry.Forward(features)

	enc.GMF = mat.NewDense(len(items), e.ShapeGMF.Dim(), nil)
	enc.GMF.MulElem(enc.ShapeGMF, enc.ItemGMF)
	enc.Deep = hstack(enc.ShapeMLP, enc.ItemMLP, enc.Geometry)
	return &enc, nil
}

// Broadcast repeats one shape id and one feature vector across every item id.
func Broadcast(shape int, items []int, features []float64) ([]int, *mat.Dense) {
	shapes := make([]int, len(items))
	data := make([]float64, 0, len(items)*len(features))
	for i := range items {
		shapes[i] = shape
		data = append(data, features...)
	}
	return shapes, mat.NewDense(len(items), len(features), data)
}
