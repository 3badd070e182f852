package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequests.WithLabelValues(http.MethodPost, "/recommend", "200"))
	RecordHTTPRequest(http.MethodPost, "/recommend", http.StatusOK, 12*time.Millisecond)
	after := testutil.ToFloat64(HTTPRequests.WithLabelValues(http.MethodPost, "/recommend", "200"))
	assert.Equal(t, before+1, after)
}

func TestSetModelLoaded(t *testing.T) {
	SetModelLoaded(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(ModelLoaded))
	SetModelLoaded(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(ModelLoaded))
}
