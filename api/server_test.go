package api

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbdelrahmanSuliman/Graduation-Project/catalog"
	"github.com/AbdelrahmanSuliman/Graduation-Project/config"
	"github.com/AbdelrahmanSuliman/Graduation-Project/core"
	"github.com/AbdelrahmanSuliman/Graduation-Project/model"
	"github.com/AbdelrahmanSuliman/Graduation-Project/recommend"
	"github.com/AbdelrahmanSuliman/Graduation-Project/service"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type stubClassifier struct {
	label string
	err   error
	calls atomic.Int32
}

func (s *stubClassifier) Name() string { return "stub" }
func (s *stubClassifier) Classify(_ context.Context, image []byte, contentType string) (string, error) {
	s.calls.Add(1)
	if s.err != nil {
		return "", s.err
	}
	return s.label, nil
}

func loadedService(t *testing.T) *recommend.Service {
	t.Helper()
	m, err := model.NewHybridNeuMF(model.DefaultHyperparameters())
	require.NoError(t, err)
	m.RandomInit(7)
	cat, err := catalog.NewStatic(50)
	require.NoError(t, err)
	svc, err := recommend.New(model.Loaded(m), cat, config.RankingConfig{TopK: 5, ChunkSize: 16})
	require.NoError(t, err)
	return svc
}

func unavailableService(t *testing.T) *recommend.Service {
	t.Helper()
	cat, err := catalog.NewStatic(50)
	require.NoError(t, err)
	svc, err := recommend.New(model.Failed(errors.New("artifact not found")), cat, config.RankingConfig{TopK: 5})
	require.NoError(t, err)
	return svc
}

func testOptions() Options {
	return Options{
		MaxUploadBytes: 1 << 20,
		RequestTimeout: 5 * time.Second,
		CORS: config.CORSConfig{
			AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
			AllowCredentials: true,
		},
	}
}

func multipartRequest(t *testing.T, path string, file []byte, features *string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	if file != nil {
		fw, err := mw.CreateFormFile("file", "face.png")
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	if features != nil {
		require.NoError(t, mw.WriteField("features", *features))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e), rec.Body.String())
	assert.Equal(t, "error", e.Status)
	return e
}

func strPtr(s string) *string { return &s }

func TestRecommend_EndToEnd(t *testing.T) {
	cls := &stubClassifier{label: "Square"}
	h := NewServer(loadedService(t), cls, testOptions()).Routes()

	req := multipartRequest(t, "/recommend", pngBytes,
		strPtr(`{"cheek_jaw_ratio":1.05,"face_hw_ratio":1.1,"midface_ratio":0.5}`))
	req.Header.Set(requestIDHeader, "abc-123")
	rec := serve(h, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))

	var resp recommend.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "Square", resp.DetectedFaceShape)
	assert.Equal(t, "multimodal_hybrid_fusion", resp.Method)
	assert.Equal(t, "abc-123", resp.RequestID)
	require.Len(t, resp.Recommendations, 5)
	for i := 1; i < len(resp.Recommendations); i++ {
		assert.GreaterOrEqual(t, resp.Recommendations[i-1].Score, resp.Recommendations[i].Score)
	}
	assert.Equal(t, int32(1), cls.calls.Load())
}

func TestRecommend_DefaultsWhenFeaturesMissing(t *testing.T) {
	h := NewServer(loadedService(t), &stubClassifier{label: "Round"}, testOptions()).Routes()
	rec := serve(h, multipartRequest(t, "/recommend", pngBytes, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestRecommend_UnknownLabelFallsBack(t *testing.T) {
	h := NewServer(loadedService(t), &stubClassifier{label: "Diamond"}, testOptions()).Routes()
	rec := serve(h, multipartRequest(t, "/recommend", pngBytes, strPtr(`{}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp recommend.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Oval", resp.DetectedFaceShape)
	assert.Equal(t, "Diamond", resp.RequestedFaceShape)
	assert.True(t, resp.ShapeFallback)
	assert.Len(t, resp.Recommendations, 5)
}

func TestRecommend_ClientErrors(t *testing.T) {
	tests := []struct {
		name     string
		file     []byte
		features *string
		detail   string
	}{
		{"malformed features", pngBytes, strPtr(`{"cheek_jaw_ratio": 1.05`), "features"},
		{"non-numeric ratio", pngBytes, strPtr(`{"face_hw_ratio":"tall"}`), "features"},
		{"non-positive ratio", pngBytes, strPtr(`{"midface_ratio":0}`), "features"},
		{"not an image", []byte("just some text, definitely not a picture"), strPtr(`{}`), "File must be an image."},
		{"missing file", nil, strPtr(`{}`), "file is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls := &stubClassifier{label: "Square"}
			h := NewServer(loadedService(t), cls, testOptions()).Routes()

			rec := serve(h, multipartRequest(t, "/recommend", tt.file, tt.features))
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			e := decodeError(t, rec)
			assert.Equal(t, core.ErrorCodeInvalidInput, e.Code)
			assert.Contains(t, e.Detail, tt.detail)
			assert.NotEmpty(t, e.RequestID)
			assert.Zero(t, cls.calls.Load(), "classifier must not be called")
		})
	}
}

func TestRecommend_NotMultipart(t *testing.T) {
	h := NewServer(loadedService(t), &stubClassifier{}, testOptions()).Routes()
	req := httptest.NewRequest(http.MethodPost, "/recommend", bytes.NewBufferString(`{"features":{}}`))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(h, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecommend_UploadTooLarge(t *testing.T) {
	opts := testOptions()
	opts.MaxUploadBytes = 64
	h := NewServer(loadedService(t), &stubClassifier{label: "Square"}, opts).Routes()

	big := append(append([]byte{}, pngBytes...), make([]byte, 1024)...)
	rec := serve(h, multipartRequest(t, "/recommend", big, strPtr(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestModelUnavailable(t *testing.T) {
	cls := &stubClassifier{label: "Heart"}
	h := NewServer(unavailableService(t), cls, testOptions()).Routes()

	rec := serve(h, multipartRequest(t, "/recommend", pngBytes, strPtr(`{}`)))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code, rec.Body.String())
	e := decodeError(t, rec)
	assert.Equal(t, core.ErrorCodeUnavailable, e.Code)
	assert.NotContains(t, e.Detail, "artifact not found")
	assert.Zero(t, cls.calls.Load())

	rec = serve(h, multipartRequest(t, "/classify-face", pngBytes, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var cr ClassifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cr))
	assert.Equal(t, "face.png", cr.Filename)
	assert.Equal(t, "Heart", cr.FaceShape)
	assert.Equal(t, "Successfully detected Heart face.", cr.Message)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var hr HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hr))
	assert.False(t, hr.ModelLoaded)
}

func TestUpstreamClassifierFailure(t *testing.T) {
	cls := &stubClassifier{err: core.WrapDomainError(core.ModuleService, core.ErrorCodeUpstream,
		"face classifier returned status 500", errors.New("secret stack trace"))}
	h := NewServer(loadedService(t), cls, testOptions()).Routes()

	for _, path := range []string{"/recommend", "/classify-face"} {
		rec := serve(h, multipartRequest(t, path, pngBytes, strPtr(`{}`)))
		require.Equal(t, http.StatusBadGateway, rec.Code, path)
		e := decodeError(t, rec)
		assert.Equal(t, core.ErrorCodeUpstream, e.Code)
		assert.NotContains(t, e.Detail, "secret")
	}
}

func TestRequestDeadlineDuringClassification(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
			_, _ = w.Write([]byte(`{"label":"Square"}`))
		}
	}))
	defer upstream.Close()

	cls := service.NewBreakerClassifier(
		service.NewHTTPClassifier(upstream.URL, service.WithClassifierTimeout(5*time.Second)),
		service.BreakerSettings{Name: "api-deadline", MaxRequests: 1, MinRequests: 1, FailureRatio: 0.1, Timeout: time.Minute},
	)
	opts := testOptions()
	opts.RequestTimeout = 100 * time.Millisecond
	h := NewServer(loadedService(t), cls, opts).Routes()

	for _, path := range []string{"/recommend", "/classify-face"} {
		rec := serve(h, multipartRequest(t, path, pngBytes, strPtr(`{}`)))
		require.Equal(t, http.StatusGatewayTimeout, rec.Code, path)
		assert.Equal(t, "TIMEOUT", decodeError(t, rec).Code)
	}
	assert.Equal(t, "closed", cls.State())
}

func TestUnexpectedErrorIsGeneric(t *testing.T) {
	cls := &stubClassifier{err: errors.New("disk on fire")}
	h := NewServer(loadedService(t), cls, testOptions()).Routes()

	rec := serve(h, multipartRequest(t, "/classify-face", pngBytes, nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	e := decodeError(t, rec)
	assert.Equal(t, "internal server error", e.Detail)
}

func TestHealthz(t *testing.T) {
	h := NewServer(loadedService(t), &stubClassifier{}, testOptions()).Routes()
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var hr HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hr))
	assert.Equal(t, "ok", hr.Status)
	assert.True(t, hr.ModelLoaded)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	h := NewServer(loadedService(t), &stubClassifier{}, testOptions()).Routes()
	serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestCORSPreflight(t *testing.T) {
	h := NewServer(loadedService(t), &stubClassifier{}, testOptions()).Routes()

	req := httptest.NewRequest(http.MethodOptions, "/recommend", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := serve(h, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodOptions, "/recommend", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = serve(h, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	opts := testOptions()
	opts.RateLimit = config.RateLimitConfig{Enabled: true, Requests: 1, Window: time.Minute}
	h := NewServer(loadedService(t), &stubClassifier{label: "Oval"}, opts).Routes()

	rec := serve(h, multipartRequest(t, "/recommend", pngBytes, strPtr(`{}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(h, multipartRequest(t, "/recommend", pngBytes, strPtr(`{}`)))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", decodeError(t, rec).Code)
}
