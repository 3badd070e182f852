// Command server runs the eyewear recommendation HTTP API.
//
// Startup order: configuration (defaults, optional YAML file, environment), logging,
// model artifact, catalog, face classifier client, ranking pipeline, HTTP server.
// A missing or mismatched artifact does not stop the process: /recommend answers 503
// until it is fixed and the server restarted, while /classify-face keeps working.
//
// SIGINT and SIGTERM trigger a graceful shutdown bounded by server.shutdown_timeout.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/AbdelrahmanSuliman/Graduation-Project/api"
	"github.com/AbdelrahmanSuliman/Graduation-Project/catalog"
	"github.com/AbdelrahmanSuliman/Graduation-Project/config"
	"github.com/AbdelrahmanSuliman/Graduation-Project/logging"
	"github.com/AbdelrahmanSuliman/Graduation-Project/metrics"
	"github.com/AbdelrahmanSuliman/Graduation-Project/model"
	"github.com/AbdelrahmanSuliman/Graduation-Project/recommend"
	"github.com/AbdelrahmanSuliman/Graduation-Project/service"
	"github.com/AbdelrahmanSuliman/Graduation-Project/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Format = cfg.Logging.Format
	logCfg.Caller = cfg.Logging.Caller
	logging.Init(logCfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logging.WithComponent("main")
	log.Info().
		Str("addr", cfg.Server.Addr()).
		Str("catalog_source", cfg.Catalog.Source).
		Int("top_k", cfg.Ranking.TopK).
		Str("classifier", cfg.Classifier.Endpoint).
		Bool("rate_limit", cfg.RateLimit.Enabled).
		Msg("starting")

	handle := model.LoadHandle(cfg.Model.ArtifactPath, &cfg.Model.Hyperparameters)
	metrics.SetModelLoaded(handle.Available())
	if err := handle.LoadError(); err != nil {
		log.Error().Err(err).Str("path", cfg.Model.ArtifactPath).Msg("model artifact not loaded, /recommend will answer 503")
	} else {
		log.Info().Str("path", cfg.Model.ArtifactPath).Msg("model artifact loaded")
	}

	cat, err := loadCatalog(ctx, cfg.Catalog)
	if err != nil {
		log.Error().Err(err).Str("source", cfg.Catalog.Source).Msg("catalog not loaded, /recommend will answer 503")
	} else {
		metrics.CatalogSize.Set(float64(cat.Size()))
		log.Info().Str("source", cfg.Catalog.Source).Int("items", cat.Size()).Msg("catalog loaded")
	}

	rec, err := recommend.New(handle, cat, cfg.Ranking)
	if err != nil {
		return err
	}

	classifier := service.NewBreakerClassifier(
		service.NewHTTPClassifier(cfg.Classifier.Endpoint,
			service.WithClassifierTimeout(cfg.Classifier.Timeout),
			service.WithBearerToken(cfg.Classifier.Token),
		),
		service.BreakerSettings{
			Name:         service.DefaultBreakerSettings().Name,
			MaxRequests:  cfg.Classifier.Breaker.MaxRequests,
			Interval:     cfg.Classifier.Breaker.Interval,
			Timeout:      cfg.Classifier.Breaker.Timeout,
			MinRequests:  cfg.Classifier.Breaker.MinRequests,
			FailureRatio: cfg.Classifier.Breaker.FailureRatio,
		},
	)

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.NewServer(rec, classifier, api.OptionsFromConfig(cfg)).Routes(),
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Bool("model_loaded", rec.Available()).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}

func loadCatalog(ctx context.Context, c config.CatalogConfig) (*catalog.Catalog, error) {
	switch c.Source {
	case config.CatalogSourceFile:
		return catalog.LoadFile(c.Path)
	case config.CatalogSourceRedis:
		s, err := store.NewRedisStore(ctx, store.RedisOptions{
			Addr:        c.Redis.Addr,
			Password:    c.Redis.Password,
			DB:          c.Redis.DB,
			DialTimeout: c.Redis.DialTimeout,
		})
		if err != nil {
			return nil, err
		}
		defer s.Close()
		return catalog.LoadStore(ctx, s, c.Redis.KeyPrefix, c.Size)
	default:
		return catalog.NewStatic(c.Size)
	}
}
