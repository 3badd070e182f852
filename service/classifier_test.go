package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbdelrahmanSuliman/Graduation-Project/core"
)

func TestParseClassifierResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"label object", `{"label":"Square"}`, "Square"},
		{"face_shape object", `{"face_shape":" Round "}`, "Round"},
		{"hf list", `[{"label":"Oval","score":0.1},{"label":"Heart","score":0.8},{"label":"Round","score":0.1}]`, "Heart"},
		{"probability map", `{"Oblong":0.2,"Square":0.7,"Oval":0.1}`, "Square"},
		{"probability tie", `{"Round":0.5,"Heart":0.5}`, "Heart"},
		{"bare string", `"Diamond"`, "Diamond"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseClassifierResponse([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, body := range []string{`{}`, `[]`, `{"score":0.9,"other":"x"}`, `not json`, `""`, `42`, `{"label":5}`, `{"face_shape":null,"Square":0.9}`} {
		_, err := ParseClassifierResponse([]byte(body))
		assert.Error(t, err, body)
	}
}

func TestHTTPClassifier_Classify(t *testing.T) {
	var gotType, gotAuth string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("Content-Type")
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`[{"label":"Square","score":0.93},{"label":"Oval","score":0.07}]`))
	}))
	defer srv.Close()

	c := NewHTTPClassifier(srv.URL, WithBearerToken("secret"), WithClassifierTimeout(time.Second))
	label, err := c.Classify(context.Background(), []byte("\x89PNG"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "Square", label)
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, []byte("\x89PNG"), gotBody)
}

func TestHTTPClassifier_UpstreamErrors(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "model crashed", http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := NewHTTPClassifier(srv.URL).Classify(context.Background(), []byte("x"), "image/jpeg")
		require.Error(t, err)
		assert.True(t, core.IsUpstream(err))
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer srv.Close()

		_, err := NewHTTPClassifier(srv.URL, WithClassifierTimeout(50*time.Millisecond)).
			Classify(context.Background(), []byte("x"), "image/jpeg")
		require.Error(t, err)
		assert.True(t, core.IsUpstream(err))
	})

	t.Run("caller deadline is not upstream", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer srv.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := NewHTTPClassifier(srv.URL, WithClassifierTimeout(5*time.Second)).
			Classify(ctx, []byte("x"), "image/jpeg")
		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.False(t, core.IsDomainError(err))
	})

	t.Run("unreachable", func(t *testing.T) {
		_, err := NewHTTPClassifier("http://127.0.0.1:1").Classify(context.Background(), []byte("x"), "")
		require.Error(t, err)
		assert.True(t, core.IsUpstream(err))
	})
}

type stubClassifier struct {
	calls atomic.Int32
	label string
	err   error
}

func (s *stubClassifier) Name() string { return "stub" }
func (s *stubClassifier) Classify(context.Context, []byte, string) (string, error) {
	s.calls.Add(1)
	return s.label, s.err
}

func TestBreakerClassifier_OpensAfterFailures(t *testing.T) {
	inner := &stubClassifier{err: errors.New("connection refused")}
	b := NewBreakerClassifier(inner, BreakerSettings{
		Name:         "test-open",
		MaxRequests:  1,
		Timeout:      time.Minute,
		MinRequests:  2,
		FailureRatio: 0.5,
	})

	for i := 0; i < 2; i++ {
		_, err := b.Classify(context.Background(), nil, "")
		require.Error(t, err)
		assert.True(t, core.IsUpstream(err))
	}
	assert.Equal(t, "open", b.State())

	_, err := b.Classify(context.Background(), nil, "")
	require.Error(t, err)
	assert.True(t, core.IsUpstream(err))
	assert.Equal(t, int32(2), inner.calls.Load(), "open breaker must not call upstream")
}

func TestBreakerClassifier_PassThrough(t *testing.T) {
	inner := &stubClassifier{label: "Oval"}
	b := NewBreakerClassifier(inner, BreakerSettings{Name: "test-pass", MinRequests: 1, FailureRatio: 0.5})

	label, err := b.Classify(context.Background(), []byte("img"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "Oval", label)
	assert.Equal(t, "stub", b.Name())
	assert.Equal(t, "closed", b.State())
}

func TestBreakerClassifier_CallerContextNotCounted(t *testing.T) {
	for _, cerr := range []error{context.Canceled, context.DeadlineExceeded} {
		t.Run(cerr.Error(), func(t *testing.T) {
			inner := &stubClassifier{err: cerr}
			b := NewBreakerClassifier(inner, BreakerSettings{
				Name: "test-caller-" + cerr.Error(), MinRequests: 1, FailureRatio: 0.1, Timeout: time.Minute,
			})

			for i := 0; i < 3; i++ {
				_, err := b.Classify(context.Background(), nil, "")
				assert.ErrorIs(t, err, cerr)
				assert.False(t, core.IsUpstream(err))
			}
			assert.Equal(t, "closed", b.State())
			assert.Equal(t, int32(3), inner.calls.Load())
		})
	}
}
