package recommend

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbdelrahmanSuliman/Graduation-Project/catalog"
	"github.com/AbdelrahmanSuliman/Graduation-Project/config"
	"github.com/AbdelrahmanSuliman/Graduation-Project/core"
	"github.com/AbdelrahmanSuliman/Graduation-Project/logging"
	"github.com/AbdelrahmanSuliman/Graduation-Project/model"
	"github.com/AbdelrahmanSuliman/Graduation-Project/pipeline"
)

func newModel(t *testing.T) *model.HybridNeuMF {
	t.Helper()
	m, err := model.NewHybridNeuMF(model.DefaultHyperparameters())
	require.NoError(t, err)
	m.RandomInit(42)
	return m
}

func newCatalog(t *testing.T, n int) *catalog.Catalog {
	t.Helper()
	styles := []string{"Aviator", "Wayfarer", "Round", "Square"}
	items := make([]catalog.Item, n)
	for i := range items {
		items[i] = catalog.Item{ID: i, Style: styles[i%len(styles)], Material: "Metal"}
	}
	cat, err := catalog.New(items)
	require.NoError(t, err)
	return cat
}

func ranking() config.RankingConfig {
	return config.RankingConfig{TopK: 5, ChunkSize: 16, Workers: 4}
}

func newService(t *testing.T) *Service {
	t.Helper()
	s, err := New(model.Loaded(newModel(t)), newCatalog(t, 50), ranking())
	require.NoError(t, err)
	require.True(t, s.Available())
	return s
}

func squareFeatures() core.GeometricFeatures {
	return core.GeometricFeatures{CheekJaw: 1.05, FaceHW: 1.1, Midface: 0.5}
}

func TestRecommend_EndToEnd(t *testing.T) {
	s := newService(t)
	ctx := logging.ContextWithRequestID(context.Background(), "req-42")

	resp, err := s.Recommend(ctx, Request{ShapeLabel: "Square", Features: squareFeatures()})
	require.NoError(t, err)

	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "Square", resp.DetectedFaceShape)
	assert.Equal(t, "Square", resp.RequestedFaceShape)
	assert.False(t, resp.ShapeFallback)
	assert.Equal(t, Method, resp.Method)
	assert.Equal(t, "req-42", resp.RequestID)
	require.Len(t, resp.Recommendations, 5)

	seen := map[int]bool{}
	for i, r := range resp.Recommendations {
		assert.GreaterOrEqual(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 1.0)
		assert.GreaterOrEqual(t, r.GlassID, 0)
		assert.Less(t, r.GlassID, 50)
		assert.False(t, seen[r.GlassID])
		seen[r.GlassID] = true
		assert.Equal(t, "Metal", r.Material)
		assert.NotEmpty(t, r.Style)
		if i > 0 {
			prev := resp.Recommendations[i-1]
			assert.GreaterOrEqual(t, prev.Score, r.Score)
			if prev.Score == r.Score {
				assert.Less(t, prev.GlassID, r.GlassID)
			}
		}
	}
}

func TestRecommend_MatchesDirectScoring(t *testing.T) {
	m := newModel(t)
	s, err := New(model.Loaded(m), newCatalog(t, 50), ranking())
	require.NoError(t, err)

	resp, err := s.Recommend(context.Background(), Request{ShapeLabel: "Round", Features: squareFeatures()})
	require.NoError(t, err)

	for _, r := range resp.Recommendations {
		want, err := m.Score(core.FaceShapeRound.ID(), r.GlassID, squareFeatures().Vector())
		require.NoError(t, err)
		assert.InDelta(t, want, r.Score, 1e-12)
	}
}

func TestRecommend_Deterministic(t *testing.T) {
	s := newService(t)
	req := Request{ShapeLabel: "Heart", Features: squareFeatures()}
	a, err := s.Recommend(context.Background(), req)
	require.NoError(t, err)
	b, err := s.Recommend(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, a.Recommendations, b.Recommendations)
}

func TestRecommend_FallbackBehavesAsOval(t *testing.T) {
	s := newService(t)

	oval, err := s.Recommend(context.Background(), Request{ShapeLabel: "Oval", Features: squareFeatures()})
	require.NoError(t, err)

	for _, label := range []string{"Diamond", "", "triangle"} {
		resp, err := s.Recommend(context.Background(), Request{ShapeLabel: label, Features: squareFeatures()})
		require.NoError(t, err, label)
		assert.Equal(t, "Oval", resp.DetectedFaceShape)
		assert.Equal(t, label, resp.RequestedFaceShape)
		assert.True(t, resp.ShapeFallback)
		assert.Equal(t, oval.Recommendations, resp.Recommendations)
	}
}

func TestRecommend_CaseInsensitiveLabel(t *testing.T) {
	s := newService(t)
	resp, err := s.Recommend(context.Background(), Request{ShapeLabel: " square ", Features: squareFeatures()})
	require.NoError(t, err)
	assert.Equal(t, "Square", resp.DetectedFaceShape)
	assert.False(t, resp.ShapeFallback)
}

func TestRecommend_SmallCatalog(t *testing.T) {
	s, err := New(model.Loaded(newModel(t)), newCatalog(t, 3), ranking())
	require.NoError(t, err)

	resp, err := s.Recommend(context.Background(), Request{ShapeLabel: "Oblong", Features: core.DefaultGeometricFeatures()})
	require.NoError(t, err)
	assert.Len(t, resp.Recommendations, 3)
}

func TestRecommend_Unavailable(t *testing.T) {
	tests := []struct {
		name    string
		handle  *model.Handle
		catalog func(t *testing.T) *catalog.Catalog
	}{
		{"load failed", model.Failed(errors.New("artifact missing")), func(t *testing.T) *catalog.Catalog { return newCatalog(t, 50) }},
		{"catalog too large", nil, func(t *testing.T) *catalog.Catalog { return newCatalog(t, 51) }},
		{"no catalog", nil, func(*testing.T) *catalog.Catalog { return nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := tt.handle
			if h == nil {
				h = model.Loaded(newModel(t))
			}
			s, err := New(h, tt.catalog(t), ranking())
			require.NoError(t, err)
			assert.False(t, s.Available())

			_, err = s.Recommend(context.Background(), Request{ShapeLabel: "Square", Features: squareFeatures()})
			require.Error(t, err)
			assert.True(t, core.IsUnavailable(err), "got %v", err)
		})
	}
}

func TestNew_BadPipeline(t *testing.T) {
	r := ranking()
	r.FilterExpr = "item.meta.material =="
	_, err := New(model.Loaded(newModel(t)), newCatalog(t, 50), r)
	assert.Error(t, err)
}

type failingNode struct{ err error }

func (n failingNode) Name() string        { return "failing" }
func (n failingNode) Kind() pipeline.Kind { return pipeline.KindRank }
func (n failingNode) Process(context.Context, *core.RecommendContext, []*core.Item) ([]*core.Item, error) {
	return nil, n.err
}

func TestRecommend_PipelineErrorIsInternal(t *testing.T) {
	p := &pipeline.Pipeline{Nodes: []pipeline.Node{failingNode{err: errors.New("boom")}}}
	s := NewWithPipeline(model.Loaded(newModel(t)), newCatalog(t, 50), p)

	_, err := s.Recommend(context.Background(), Request{ShapeLabel: "Square"})
	require.Error(t, err)
	de := core.GetDomainError(err)
	require.NotNil(t, de)
	assert.Equal(t, core.ErrorCodeInternalError, de.Code)
}
