// Package eyewear recommends eyeglass frames for a face.
//
// A request carries a face photo and optional geometric ratios. The photo goes to an
// external classifier that names the face shape; the shape, the ratios and every
// catalog item are then scored by a dual-branch HybridNeuMF network and the best items
// are returned.
//
// Layout:
//   - core: shared types (face shapes, features, items, errors)
//   - model: the network, its artifact format and back-propagation
//   - train: CSV dataset, BCE + Adam training loop
//   - pipeline, recall, rank, filter, rerank: the ranking pipeline (Recall → Rank → Filter → ReRank)
//   - recommend: request-level orchestration
//   - service: the face classifier client and its circuit breaker
//   - api: the HTTP surface
//
// This package re-exports the core abstractions for callers that embed the engine.
package eyewear

import (
	"github.com/AbdelrahmanSuliman/Graduation-Project/pipeline"
	"github.com/AbdelrahmanSuliman/Graduation-Project/recommend"
)

type (
	Pipeline = pipeline.Pipeline
	Node     = pipeline.Node
	Kind     = pipeline.Kind

	Service        = recommend.Service
	Request        = recommend.Request
	Response       = recommend.Response
	Recommendation = recommend.Recommendation
)

const (
	KindRecall = pipeline.KindRecall
	KindFilter = pipeline.KindFilter
	KindRank   = pipeline.KindRank
	KindReRank = pipeline.KindReRank
)

// Method is the value of the method field in every response.
const Method = recommend.Method
