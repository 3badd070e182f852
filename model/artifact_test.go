package model

import (
	"bytes"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbdelrahmanSuliman/Graduation-Project/core"
)

func TestMLPKeys(t *testing.T) {
	assert.Equal(t, "mlp.0", mlpKey(0))
	assert.Equal(t, "mlp.3", mlpKey(1))
	assert.Equal(t, "mlp.5", mlpKey(2))
}

func TestStateDictLayout(t *testing.T) {
	m := newTestModel(t, 1)
	sd := m.StateDict()

	want := map[string][]int{
		"embed_shape_GMF.weight":   {5, 8},
		"embed_item_GMF.weight":    {50, 8},
		"embed_shape_MLP.weight":   {5, 8},
		"embed_item_MLP.weight":    {50, 8},
		"feature_processor.weight": {8, 3},
		"feature_processor.bias":   {8},
		"mlp.0.weight":             {32, 24},
		"mlp.0.bias":               {32},
		"mlp.3.weight":             {16, 32},
		"mlp.3.bias":               {16},
		"mlp.5.weight":             {8, 16},
		"mlp.5.bias":               {8},
		"predict_layer.weight":     {1, 16},
		"predict_layer.bias":       {1},
	}
	require.Len(t, sd, len(want))
	for k, shape := range want {
		require.Contains(t, sd, k)
		assert.Equal(t, shape, sd[k].Shape, k)
	}
}

func TestArtifactRoundTrip(t *testing.T) {
	m := newTestModel(t, 42)
	path := filepath.Join(t.TempDir(), "hybrid.json")
	require.NoError(t, SaveArtifact(path, m))

	hp := DefaultHyperparameters()
	loaded, err := LoadArtifact(path, &hp)
	require.NoError(t, err)

	feats := []float64{1.05, 1.1, 0.5}
	want, err := m.ScoreBatch(4, allItems(50), feats)
	require.NoError(t, err)
	got, err := loaded.ScoreBatch(4, allItems(50), feats)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDecodeArtifactFailures(t *testing.T) {
	m := newTestModel(t, 2)
	var buf bytes.Buffer
	require.NoError(t, EncodeArtifact(&buf, m))
	good := buf.String()

	hp := DefaultHyperparameters()
	wider := DefaultHyperparameters()
	wider.FactorNum = 16

	tests := []struct {
		name   string
		input  string
		want   *Hyperparameters
		errMsg string
	}{
		{"not json", "{", &hp, "decode artifact"},
		{"wrong format", strings.Replace(good, ArtifactFormat, "neumf/v0", 1), &hp, "artifact format"},
		{"factor mismatch", good, &wider, "do not match"},
		{"missing tensor", strings.Replace(good, `"predict_layer.bias"`, `"predict.bias"`, 1), &hp, "missing"},
		{"wrong shape", strings.Replace(good, `"shape":[1]`, `"shape":[2]`, 1), &hp, "shape"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeArtifact(strings.NewReader(tt.input), tt.want)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	// Without an expected configuration any consistent artifact loads.
	_, err := DecodeArtifact(strings.NewReader(good), nil)
	assert.NoError(t, err)
}

func TestLoadStateDictRejectsNonFinite(t *testing.T) {
	m := newTestModel(t, 2)
	sd := m.StateDict()
	bias := sd["predict_layer.bias"]
	bias.Data = []float64{math.Inf(1)}
	sd["predict_layer.bias"] = bias

	fresh, err := NewHybridNeuMF(DefaultHyperparameters())
	require.NoError(t, err)
	err = fresh.LoadStateDict(sd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not finite")
}

func TestHandle(t *testing.T) {
	h := LoadHandle(filepath.Join(t.TempDir(), "missing.json"), nil)
	assert.False(t, h.Available())
	_, err := h.Get()
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrModelUnavailable))
	assert.True(t, core.IsUnavailable(err))
	assert.Error(t, h.LoadError())

	m := newTestModel(t, 1)
	ok := Loaded(m)
	got, err := ok.Get()
	require.NoError(t, err)
	assert.Same(t, m, got)
	assert.NoError(t, ok.LoadError())

	var nilHandle *Handle
	_, err = nilHandle.Get()
	assert.ErrorIs(t, err, core.ErrModelUnavailable)
}
