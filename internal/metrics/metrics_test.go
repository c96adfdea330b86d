package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	// Register should be safe to call multiple times
	Register()
	Register()

	before := testutil.ToFloat64(webhookUpdates.WithLabelValues("stored"))
	IncWebhook("stored")
	assert.Equal(t, before+1, testutil.ToFloat64(webhookUpdates.WithLabelValues("stored")))

	assert.NotPanics(t, func() {
		ObserveHTTP("POST /bots", http.MethodPost, 201, 15*time.Millisecond)
		IncTelegramCall("getMe", false)
		IncAuditWrite("written")
	})
	assert.Equal(t, 1.0, testutil.ToFloat64(httpRequests.WithLabelValues("POST /bots", "POST", "201")))

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "botdesk_webhook_updates_total")
}
