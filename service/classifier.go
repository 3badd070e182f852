// Package service holds clients for services the recommender calls out to.
package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/AbdelrahmanSuliman/Graduation-Project/core"
)

const (
	DefaultClassifierTimeout = 10 * time.Second
	maxClassifierResponse    = 1 << 20
)

// HTTPClassifier calls a remote face-shape classifier over HTTP.
//
// The image is POSTed as the raw request body with its original content type.
// Accepted response bodies:
//   - {"label": "Square"} or {"face_shape": "Square"}
//   - [{"label": "Square", "score": 0.91}, ...]  (Hugging Face image-classification)
//   - {"Square": 0.91, "Oval": 0.05, ...}      (TorchServe image classifier)
//
// For the last two the highest score wins.
type HTTPClassifier struct {
	Endpoint string
	Timeout  time.Duration

	token      string
	httpClient *http.Client
}

type ClassifierOption func(*HTTPClassifier)

func WithClassifierTimeout(timeout time.Duration) ClassifierOption {
	return func(c *HTTPClassifier) {
		c.Timeout = timeout
	}
}

func WithClassifierHTTPClient(httpClient *http.Client) ClassifierOption {
	return func(c *HTTPClassifier) {
		c.httpClient = httpClient
	}
}

// WithBearerToken sets an Authorization header on every call.
func WithBearerToken(token string) ClassifierOption {
	return func(c *HTTPClassifier) {
		c.token = token
	}
}

func NewHTTPClassifier(endpoint string, opts ...ClassifierOption) *HTTPClassifier {
	c := &HTTPClassifier{
		Endpoint: endpoint,
		Timeout:  DefaultClassifierTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.Timeout}
	}
	return c
}

func (c *HTTPClassifier) Name() string { return "http" }

func upstream(msg string, err error) error {
	return core.WrapDomainError(core.ModuleService, core.ErrorCodeUpstream, msg, err)
}

// Classify returns the caller's ctx.Err() unwrapped when the caller's context ends first,
// so request deadlines are not reported as classifier failures. Only the classifier's own
// Timeout is an upstream error.
func (c *HTTPClassifier) Classify(ctx context.Context, image []byte, contentType string) (string, error) {
	parent := ctx
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(image))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if perr := parent.Err(); perr != nil {
			return "", perr
		}
		return "", upstream("face classifier request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxClassifierResponse))
	if err != nil {
		if perr := parent.Err(); perr != nil {
			return "", perr
		}
		return "", upstream("read face classifier response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", upstream(
			fmt.Sprintf("face classifier returned status %d", resp.StatusCode),
			fmt.Errorf("body: %s", truncate(body, 256)),
		)
	}

	label, err := ParseClassifierResponse(body)
	if err != nil {
		return "", upstream("unexpected face classifier response", err)
	}
	return label, nil
}

// ParseClassifierResponse extracts the winning label from a classifier response body.
func ParseClassifierResponse(body []byte) (string, error) {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}

	var label string
	switch t := v.(type) {
	case string:
		label = t
	case map[string]any:
		label = labelFromObject(t)
	case []any:
		label = labelFromList(t)
	}

	label = strings.TrimSpace(label)
	if label == "" {
		return "", fmt.Errorf("no label in response: %s", truncate(body, 256))
	}
	return label, nil
}

func labelFromObject(m map[string]any) string {
	for _, key := range []string{"label", "face_shape"} {
		if v, present := m[key]; present {
			s, _ := v.(string)
			return s
		}
	}

	// label -> probability; sorted keys keep ties deterministic
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best, bestScore := "", 0.0
	for _, k := range keys {
		score, ok := m[k].(float64)
		if !ok {
			return ""
		}
		if best == "" || score > bestScore {
			best, bestScore = k, score
		}
	}
	return best
}

func labelFromList(list []any) string {
	best, bestScore := "", 0.0
	for _, e := range list {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		label, _ := m["label"].(string)
		score, _ := m["score"].(float64)
		if label == "" {
			continue
		}
		if best == "" || score > bestScore {
			best, bestScore = label, score
		}
	}
	return best
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

var _ core.FaceClassifier = (*HTTPClassifier)(nil)
