// Package recommend turns one face profile into a ranked list of eyewear.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AbdelrahmanSuliman/Graduation-Project/catalog"
	"github.com/AbdelrahmanSuliman/Graduation-Project/config"
	"github.com/AbdelrahmanSuliman/Graduation-Project/config/builders"
	"github.com/AbdelrahmanSuliman/Graduation-Project/core"
	"github.com/AbdelrahmanSuliman/Graduation-Project/logging"
	"github.com/AbdelrahmanSuliman/Graduation-Project/metrics"
	"github.com/AbdelrahmanSuliman/Graduation-Project/model"
	"github.com/AbdelrahmanSuliman/Graduation-Project/pipeline"
	"github.com/AbdelrahmanSuliman/Graduation-Project/pkg/utils"
)

// Method identifies the ranking approach in every response.
const Method = "multimodal_hybrid_fusion"

// Request is one face profile: the classifier's label and the client's ratios.
type Request struct {
	ShapeLabel string
	Features   core.GeometricFeatures
}

type Recommendation struct {
	GlassID  int     `json:"glass_id"`
	Score    float64 `json:"score"`
	Style    string  `json:"style,omitempty"`
	Material string  `json:"material,omitempty"`
}

type Response struct {
	Status string `json:"status"`
	// DetectedFaceShape is the shape actually used for scoring.
	DetectedFaceShape string `json:"detected_face_shape"`
	// RequestedFaceShape is the raw classifier label.
	RequestedFaceShape string           `json:"requested_face_shape"`
	ShapeFallback      bool             `json:"shape_fallback"`
	Method             string           `json:"method"`
	Recommendations    []Recommendation `json:"recommendations"`
	RequestID          string           `json:"request_id,omitempty"`
}

// Service owns the loaded model, the catalog and the ranking pipeline.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	handle   *model.Handle
	catalog  *catalog.Catalog
	pipeline *pipeline.Pipeline

	// unavailable is set once at construction when recommendations cannot be served.
	unavailable error
}

// New wires the ranking pipeline for a loaded model. A missing model or a catalog
// larger than the model's item table does not fail construction; the service then
// answers every Recommend call with an UNAVAILABLE error. Pipeline configuration
// errors are returned.
func New(handle *model.Handle, cat *catalog.Catalog, ranking config.RankingConfig) (*Service, error) {
	log := logging.WithComponent("recommend")
	s := &Service{handle: handle, catalog: cat}

	m, err := handle.Get()
	switch {
	case err != nil:
		s.unavailable = err
	case cat == nil:
		s.unavailable = core.NewDomainError(core.ModuleCatalog, core.ErrorCodeUnavailable, "catalog is not loaded")
	case cat.Size() > m.NumItems():
		s.unavailable = fmt.Errorf("%w: catalog has %d items, model item table has %d",
			core.ErrModelUnavailable, cat.Size(), m.NumItems())
	}
	if s.unavailable != nil {
		log.Error().Err(s.unavailable).Msg("recommendations disabled")
		return s, nil
	}

	p, err := builders.BuildRankingPipeline(ranking, builders.Deps{Model: m, Catalog: cat})
	if err != nil {
		return nil, fmt.Errorf("build ranking pipeline: %w", err)
	}
	s.pipeline = p
	log.Info().Strs("nodes", p.Describe()).Int("catalog_size", cat.Size()).Str("model", m.Name()).Msg("ranking pipeline ready")
	return s, nil
}

// NewWithPipeline uses an already built pipeline.
func NewWithPipeline(handle *model.Handle, cat *catalog.Catalog, p *pipeline.Pipeline) *Service {
	s := &Service{handle: handle, catalog: cat, pipeline: p}
	if _, err := handle.Get(); err != nil {
		s.unavailable = err
	}
	return s
}

func (s *Service) Available() bool {
	return s != nil && s.unavailable == nil && s.pipeline != nil
}

// Unavailable returns why recommendations are disabled, or nil.
func (s *Service) Unavailable() error {
	if s == nil {
		return core.ErrModelUnavailable
	}
	return s.unavailable
}

// Recommend ranks the catalog for one face. An unknown shape label is never an error:
// it is scored as core.FallbackFaceShape and flagged in the response.
func (s *Service) Recommend(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := s.recommend(ctx, req)
	metrics.RecommendationsTotal.WithLabelValues(outcome(err)).Inc()
	if err == nil {
		metrics.RecommendationDuration.Observe(time.Since(start).Seconds())
	}
	return resp, err
}

func (s *Service) recommend(ctx context.Context, req Request) (*Response, error) {
	if !s.Available() {
		err := s.Unavailable()
		if err == nil {
			err = core.ErrModelUnavailable
		}
		if !core.IsUnavailable(err) {
			err = fmt.Errorf("%w: %v", core.ErrModelUnavailable, err)
		}
		return nil, err
	}

	log := logging.Ctx(ctx)
	shape := core.ResolveFaceShape(req.ShapeLabel)
	if !shape.Recognized {
		log.Warn().Str("label", shape.Raw).Str("fallback", shape.Shape.String()).Msg("unknown face shape label, using fallback")
		metrics.ShapeFallbacks.WithLabelValues(shape.Shape.String()).Inc()
	}
	metrics.DetectedFaceShapes.WithLabelValues(shape.Shape.String()).Inc()

	rctx := &core.RecommendContext{
		RequestID: logging.RequestIDFromContext(ctx),
		Shape:     shape,
		Features:  req.Features,
	}
	rctx.PutLabel("face_shape", utils.Label{Value: shape.Shape.String(), Source: "classifier"})
	if !shape.Recognized {
		rctx.PutLabel("shape_fallback", utils.Label{Value: shape.Raw, Source: "recommend"})
	}

	items, err := s.pipeline.Run(ctx, rctx, nil)
	if err != nil {
		if core.IsDomainError(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, core.WrapDomainError(core.ModuleRecommend, core.ErrorCodeInternalError, "ranking failed", err)
	}

	recs := make([]Recommendation, 0, len(items))
	for _, it := range items {
		if !shape.Recognized {
			it.PutLabel("shape_fallback", utils.Label{Value: shape.Raw, Source: "recommend"})
		}
		recs = append(recs, Recommendation{
			GlassID:  it.ID,
			Score:    it.Score,
			Style:    it.MetaString("style"),
			Material: it.MetaString("material"),
		})
	}

	log.Debug().Str("face_shape", shape.Shape.String()).Bool("fallback", !shape.Recognized).Int("results", len(recs)).Msg("recommendation served")
	return &Response{
		Status:             "success",
		DetectedFaceShape:  shape.Shape.String(),
		RequestedFaceShape: shape.Raw,
		ShapeFallback:      !shape.Recognized,
		Method:             Method,
		Recommendations:    recs,
		RequestID:          rctx.RequestID,
	}, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case core.IsInvalidInput(err):
		return "invalid_input"
	case core.IsUnavailable(err):
		return "unavailable"
	case core.IsUpstream(err):
		return "upstream_error"
	default:
		return "error"
	}
}
