package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/AbdelrahmanSuliman/Graduation-Project/config"
	"github.com/AbdelrahmanSuliman/Graduation-Project/logging"
	"github.com/AbdelrahmanSuliman/Graduation-Project/metrics"
)

const requestIDHeader = "X-Request-ID"

// RequestID takes the caller's X-Request-ID or generates one, stores it in the
// context for logging and echoes it in the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = logging.GenerateRequestID()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.ContextWithRequestID(r.Context(), id)))
	})
}

// AccessLog logs and counts every request by its route pattern.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		d := time.Since(start)
		metrics.RecordHTTPRequest(r.Method, route, status, d)
		logging.Ctx(r.Context()).Debug().
			Str("method", r.Method).
			Str("route", route).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", d).
			Msg("request")
	})
}

func CORS(c config.CORSConfig) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   c.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: c.AllowCredentials,
		MaxAge:           300,
	})
}

// RateLimit limits requests per client IP; disabled settings give a no-op.
func RateLimit(c config.RateLimitConfig) func(http.Handler) http.Handler {
	if !c.Enabled || c.Requests <= 0 || c.Window <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		c.Requests,
		c.Window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusTooManyRequests, ErrorResponse{
				Status:    "error",
				Code:      "RATE_LIMITED",
				Detail:    "too many requests",
				RequestID: logging.RequestIDFromContext(r.Context()),
			})
		}),
	)
}
