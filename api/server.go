// Package api exposes the recommender over HTTP.
//
//	POST /recommend      multipart: file (image), features (JSON ratios)
//	POST /classify-face  multipart: file (image)
//	GET  /healthz
//	GET  /metrics
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AbdelrahmanSuliman/Graduation-Project/config"
	"github.com/AbdelrahmanSuliman/Graduation-Project/core"
	"github.com/AbdelrahmanSuliman/Graduation-Project/recommend"
)

// Recommender is the ranking side of the service.
type Recommender interface {
	Available() bool
	Recommend(ctx context.Context, req recommend.Request) (*recommend.Response, error)
}

type Options struct {
	MaxUploadBytes int64
	RequestTimeout time.Duration
	CORS           config.CORSConfig
	RateLimit      config.RateLimitConfig
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		RequestTimeout: cfg.Server.RequestTimeout,
		CORS:           cfg.CORS,
		RateLimit:      cfg.RateLimit,
	}
}

type Server struct {
	recommender Recommender
	classifier  core.FaceClassifier
	opts        Options
}

func NewServer(rec Recommender, cls core.FaceClassifier, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	return &Server{recommender: rec, classifier: cls, opts: opts}
}

// Routes builds the chi router with the full middleware stack.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(AccessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(CORS(s.opts.CORS))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(RateLimit(s.opts.RateLimit))
		if s.opts.RequestTimeout > 0 {
			r.Use(chimiddleware.Timeout(s.opts.RequestTimeout))
		}
		r.Post("/recommend", s.handleRecommend)
		r.Post("/classify-face", s.handleClassifyFace)
	})

	return r
}
