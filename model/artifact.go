package model

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"sort"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/mat"
)

// ArtifactFormat tags the on-disk layout.
const ArtifactFormat = "hybrid-neumf/v1"

// Tensor is a row-major parameter blob.
type Tensor struct {
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

// Artifact is the serialized model. State dict keys follow the reference network's
// parameter names, so a trained state_dict exports as {name: {shape, data: flatten()}}.
type Artifact struct {
	Format          string            `json:"format"`
	Hyperparameters Hyperparameters   `json:"hyperparameters"`
	StateDict       map[string]Tensor `json:"state_dict"`
}

// mlpKey maps MLP layer i to its index in the reference Sequential:
// Linear, ReLU, Dropout, Linear, ReLU, Linear, ReLU → 0, 3, 5.
func mlpKey(i int) string {
	if i == 0 {
		return "mlp.0"
	}
	return fmt.Sprintf("mlp.%d", 3+2*(i-1))
}

type namedParam struct {
	name   string
	matrix *mat.Dense
	vector *mat.VecDense
}

func (m *HybridNeuMF) params() []namedParam {
	ps := []namedParam{
		{name: "embed_shape_GMF.weight", matrix: m.Encoder.ShapeGMF.Weight},
		{name: "embed_item_GMF.weight", matrix: m.Encoder.ItemGMF.Weight},
		{name: "embed_shape_MLP.weight", matrix: m.Encoder.ShapeMLP.Weight},
		{name: "embed_item_MLP.weight", matrix: m.Encoder.ItemMLP.Weight},
		{name: "feature_processor.weight", matrix: m.Encoder.Geometry.Weight},
		{name: "feature_processor.bias", vector: m.Encoder.Geometry.Bias},
	}
	for i, l := range m.MLP {
		ps = append(ps,
			namedParam{name: mlpKey(i) + ".weight", matrix: l.Weight},
			namedParam{name: mlpKey(i) + ".bias", vector: l.Bias},
		)
	}
	return append(ps,
		namedParam{name: "predict_layer.weight", matrix: m.Predict.Weight},
		namedParam{name: "predict_layer.bias", vector: m.Predict.Bias},
	)
}

func (p namedParam) shape() []int {
	if p.matrix != nil {
		r, c := p.matrix.Dims()
		return []int{r, c}
	}
	return []int{p.vector.Len()}
}

// StateDict copies every parameter out of the network.
func (m *HybridNeuMF) StateDict() map[string]Tensor {
	sd := make(map[string]Tensor)
	for _, p := range m.params() {
		t := Tensor{Shape: p.shape()}
		if p.matrix != nil {
			r, c := p.matrix.Dims()
			t.Data = make([]float64, 0, r*c)
			for i := 0; i < r; i++ {
				t.Data = append(t.Data, p.matrix.RawRowView(i)...)
			}
		} else {
			t.Data = mat.Col(nil, 0, p.vector)
		}
		sd[p.name] = t
	}
	return sd
}

// LoadStateDict copies sd into the network. The key set and every shape must match,
// and every value must be finite.
func (m *HybridNeuMF) LoadStateDict(sd map[string]Tensor) error {
	params := m.params()
	if len(sd) != len(params) {
		return fmt.Errorf("state dict has %d tensors, expected %d (unexpected keys: %v)",
			len(sd), len(params), unexpectedKeys(sd, params))
	}
	for _, p := range params {
		t, ok := sd[p.name]
		if !ok {
			return fmt.Errorf("state dict missing %q", p.name)
		}
		want := p.shape()
		if !slices.Equal(t.Shape, want) {
			return fmt.Errorf("%s: shape %v, expected %v", p.name, t.Shape, want)
		}
		size := 1
		for _, d := range want {
			size *= d
		}
		if len(t.Data) != size {
			return fmt.Errorf("%s: %d values for shape %v", p.name, len(t.Data), want)
		}
		for i, v := range t.Data {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%s: value %d is not finite", p.name, i)
			}
		}
		if p.matrix != nil {
			p.matrix.Copy(mat.NewDense(want[0], want[1], slices.Clone(t.Data)))
		} else {
			p.vector.CopyVec(mat.NewVecDense(want[0], slices.Clone(t.Data)))
		}
	}
	return nil
}

func unexpectedKeys(sd map[string]Tensor, params []namedParam) []string {
	known := make(map[string]bool, len(params))
	for _, p := range params {
		known[p.name] = true
	}
	var extra []string
	for k := range sd {
		if !known[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return extra
}

// DecodeArtifact reads an artifact and builds the network it describes. When want is
// non-nil the stored hyperparameters must equal it.
func DecodeArtifact(r io.Reader, want *Hyperparameters) (*HybridNeuMF, error) {
	var a Artifact
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if a.Format != ArtifactFormat {
		return nil, fmt.Errorf("artifact format %q, expected %q", a.Format, ArtifactFormat)
	}
	if want != nil && !a.Hyperparameters.Equal(*want) {
		return nil, fmt.Errorf("artifact hyperparameters %+v do not match configured %+v", a.Hyperparameters, *want)
	}
	m, err := NewHybridNeuMF(a.Hyperparameters)
	if err != nil {
		return nil, fmt.Errorf("artifact hyperparameters: %w", err)
	}
	if err := m.LoadStateDict(a.StateDict); err != nil {
		return nil, fmt.Errorf("load state dict: %w", err)
	}
	return m, nil
}

// LoadArtifact is DecodeArtifact over a file.
func LoadArtifact(path string, want *Hyperparameters) (*HybridNeuMF, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return DecodeArtifact(bytes.NewReader(data), want)
}

// EncodeArtifact writes m in ArtifactFormat.
func EncodeArtifact(w io.Writer, m *HybridNeuMF) error {
	a := Artifact{
		Format:          ArtifactFormat,
		Hyperparameters: m.Hyperparameters(),
		StateDict:       m.StateDict(),
	}
	return json.NewEncoder(w).Encode(&a)
}

// SaveArtifact writes m to path, replacing any existing file.
func SaveArtifact(path string, m *HybridNeuMF) error {
	var buf bytes.Buffer
	if err := EncodeArtifact(&buf, m); err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}
