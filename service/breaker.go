package service

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/AbdelrahmanSuliman/Graduation-Project/core"
	"github.com/AbdelrahmanSuliman/Graduation-Project/logging"
	"github.com/AbdelrahmanSuliman/Graduation-Project/metrics"
)

// BreakerSettings configures BreakerClassifier.
type BreakerSettings struct {
	Name string
	// MaxRequests is the number of trial calls allowed while half-open.
	MaxRequests uint32
	// Interval resets the closed-state counts; 0 never resets.
	Interval time.Duration
	// Timeout is how long the breaker stays open before going half-open.
	Timeout time.Duration
	// The breaker opens once at least MinRequests calls were seen and
	// the failure ratio reaches FailureRatio.
	MinRequests  uint32
	FailureRatio float64
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:         "face-classifier",
		MaxRequests:  3,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MinRequests:  5,
		FailureRatio: 0.6,
	}
}

// BreakerClassifier short-circuits calls to a failing classifier.
// Calls cancelled by the caller do not count as failures.
type BreakerClassifier struct {
	inner core.FaceClassifier
	cb    *gobreaker.CircuitBreaker[string]
	name  string
}

func NewBreakerClassifier(inner core.FaceClassifier, s BreakerSettings) *BreakerClassifier {
	if s.Name == "" {
		s.Name = DefaultBreakerSettings().Name
	}
	log := logging.WithComponent("classifier")

	metrics.CircuitBreakerState.WithLabelValues(s.Name).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(s.Name).Set(0)

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= s.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
		IsExcluded: callerGaveUp,
	})

	return &BreakerClassifier{inner: inner, cb: cb, name: s.Name}
}

func (b *BreakerClassifier) Name() string { return b.inner.Name() }

// State reports the breaker state, e.g. for health output.
func (b *BreakerClassifier) State() string { return b.cb.State().String() }

func (b *BreakerClassifier) Classify(ctx context.Context, image []byte, contentType string) (string, error) {
	start := time.Now()
	label, err := b.cb.Execute(func() (string, error) {
		return b.inner.Classify(ctx, image, contentType)
	})

	switch {
	case err == nil:
		metrics.ClassifierDuration.Observe(time.Since(start).Seconds())
		metrics.ClassifierRequests.WithLabelValues("success").Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(0)
		return label, nil
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.ClassifierRequests.WithLabelValues("rejected").Inc()
		return "", upstream("face classifier temporarily unavailable", err)
	default:
		metrics.ClassifierDuration.Observe(time.Since(start).Seconds())
		metrics.ClassifierRequests.WithLabelValues("failure").Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(float64(b.cb.Counts().ConsecutiveFailures))
		logging.Ctx(ctx).Warn().Err(err).Msg("face classifier call failed")
		if core.IsDomainError(err) || callerGaveUp(err) {
			return "", err
		}
		return "", upstream("face classifier failed", err)
	}
}

// callerGaveUp reports a cancellation or deadline of the caller's own context. The inner
// classifier wraps its private timeout as an upstream error, so a bare context error
// always comes from the caller and says nothing about the classifier's health.
func callerGaveUp(err error) bool {
	if core.IsDomainError(err) {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

var _ core.FaceClassifier = (*BreakerClassifier)(nil)
