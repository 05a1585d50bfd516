package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	t.Run("json logger", func(t *testing.T) {
		logger, err := NewLogger("info", "json")
		require.NoError(t, err)
		assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
		assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("console logger at debug", func(t *testing.T) {
		logger, err := NewLogger("debug", "text")
		require.NoError(t, err)
		assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("invalid level", func(t *testing.T) {
		logger, err := NewLogger("loud", "json")
		assert.Nil(t, logger)
		assert.ErrorContains(t, err, "invalid log level")
	})
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	handler := middleware.RequestID(RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		case "/boom":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			_, _ = io.WriteString(w, "ok")
		}
	})))

	for _, path := range []string{"/ok", "/missing", "/boom"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := logs.All()
	require.Len(t, entries, 3)

	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/ok", fields["path"])
	assert.EqualValues(t, http.StatusOK, fields["status"])
	assert.EqualValues(t, 2, fields["bytes"])
	assert.NotEmpty(t, fields["request_id"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
}

func TestMetrics(t *testing.T) {
	m := NewMetrics()

	m.RecordInterception("authenticated")
	m.RecordInterception("authenticated")
	m.RecordInterception("invalid_token")
	m.RecordDecision("admin", "forbidden")
	m.RecordLogin(true)
	m.RecordLogin(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.InterceptionsTotal.WithLabelValues("authenticated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InterceptionsTotal.WithLabelValues("invalid_token")))

	expected := `
# HELP storefront_access_decisions_total Access policy decisions, by matched rule and decision
# TYPE storefront_access_decisions_total counter
storefront_access_decisions_total{decision="forbidden",rule="admin"} 1
`
	require.NoError(t, testutil.CollectAndCompare(m.DecisionsTotal, strings.NewReader(expected)))
	assert.Equal(t, 2, testutil.CollectAndCount(m.LoginsTotal))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "storefront_auth_interceptions_total")
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordInterception("skipped")
		m.RecordDecision("public", "allowed")
		m.RecordLogin(true)
	})
}
