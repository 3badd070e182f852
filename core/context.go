package core

import "github.com/AbdelrahmanSuliman/Graduation-Project/pkg/utils"

// RecommendContext holds the per-request face profile and is passed through every pipeline node.
type RecommendContext struct {
	RequestID string

	// Shape is the resolved face shape used for scoring.
	Shape ShapeResolution

	Features GeometricFeatures

	// Labels are request-level labels, e.g. shape_fallback.
	Labels map[string]utils.Label
}

func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
