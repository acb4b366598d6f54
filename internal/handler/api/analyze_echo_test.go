package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ScamDunk/internal/domain/models"
	"ScamDunk/internal/domain/repository"
	"ScamDunk/internal/usecase"
	"ScamDunk/pkg/logger"
)

type stubProber struct{ healthy bool }

func (p stubProber) Probe(ctx context.Context) bool { return p.healthy }

type stubAnalyzer struct {
	assessment *models.RiskAssessment
	err        error
}

func (a stubAnalyzer) Analyze(ctx context.Context, req models.AnalysisRequest) (*models.RiskAssessment, error) {
	return a.assessment, a.err
}

type noopDispatcher struct{}

func (noopDispatcher) Dispatch(alert repository.OutageAlert) {}

type noopMetrics struct{}

func (noopMetrics) RecordAssessment(source, riskLevel string) {}

func (noopMetrics) RecordFallback(reason string) {}

func (noopMetrics) RecordHardFailure(apiName string) {}

func (noopMetrics) RecordAlert(sink, result string) {}

func (noopMetrics) RecordError(kind string) {}

func (noopMetrics) RecordLatency(op string, sec float64) {}

func newTestHandler(t *testing.T, healthy bool, primary, fallback stubAnalyzer) (*AnalyzeEchoHandler, *echo.Echo) {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)

	uc := usecase.NewAnalyzeUseCase(stubProber{healthy: healthy}, primary, fallback, noopDispatcher{}, noopMetrics{}, log)
	h := NewAnalyzeEchoHandler(log, uc, stubProber{healthy: healthy})

	e := echo.New()
	h.RegisterRoutes(e)
	return h, e
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAnalyzeEndpointSuccess(t *testing.T) {
	primary := stubAnalyzer{assessment: &models.RiskAssessment{
		Ticker:    "GME",
		RiskLevel: models.RiskHigh,
		Source:    models.SourceAIBackend,
	}}
	_, e := newTestHandler(t, true, primary, stubAnalyzer{})

	rec := doJSON(e, http.MethodPost, "/api/analyze", `{"ticker":"gme"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status int `json:"status"`
		Data   struct {
			Ticker    string `json:"ticker"`
			RiskLevel string `json:"riskLevel"`
			Source    string `json:"source"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusOK, body.Status)
	assert.Equal(t, "GME", body.Data.Ticker)
	assert.Equal(t, "HIGH", body.Data.RiskLevel)
	assert.Equal(t, "ai_backend", body.Data.Source)
}

func TestAnalyzeEndpointValidation(t *testing.T) {
	_, e := newTestHandler(t, true, stubAnalyzer{}, stubAnalyzer{})

	rec := doJSON(e, http.MethodPost, "/api/analyze", `{"assetType":"stock"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status int `json:"status"`
		Data   []struct {
			Code  string `json:"code"`
			Field string `json:"field"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusBadRequest, body.Status)
	require.NotEmpty(t, body.Data)
	assert.Equal(t, "ERR_REQUIRED", body.Data[0].Code)
	assert.Equal(t, "Ticker", body.Data[0].Field)
}

func TestAnalyzeEndpointRejectsBadAssetType(t *testing.T) {
	_, e := newTestHandler(t, true, stubAnalyzer{}, stubAnalyzer{})

	rec := doJSON(e, http.MethodPost, "/api/analyze", `{"ticker":"GME","assetType":"bond"}`)

	var body struct {
		Status int `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusBadRequest, body.Status)
}

func TestAnalyzeEndpointHardFailure(t *testing.T) {
	primary := stubAnalyzer{err: &models.UpstreamDataError{
		APIName:   "alpha_vantage",
		Ticker:    "GME",
		AssetType: models.AssetStock,
		Cause:     "rate limit exceeded",
	}}
	_, e := newTestHandler(t, true, primary, stubAnalyzer{})

	rec := doJSON(e, http.MethodPost, "/api/analyze", `{"ticker":"GME"}`)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	var body models.ServiceUnavailable
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "service_unavailable", body.Error)
	assert.Equal(t, 60, body.RetryAfter)
	assert.Equal(t, "alpha_vantage", body.APIName)
	assert.Equal(t, "GME", body.Ticker)
}

func TestAnalyzeEndpointFallsBackWhenUnhealthy(t *testing.T) {
	fallback := stubAnalyzer{assessment: &models.RiskAssessment{
		Ticker:    "GME",
		RiskLevel: models.RiskMedium,
		Source:    models.SourceFallback,
	}}
	_, e := newTestHandler(t, false, stubAnalyzer{}, fallback)

	rec := doJSON(e, http.MethodPost, "/api/analyze", `{"ticker":"GME"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			Source string `json:"source"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, string(models.SourceFallback), body.Data.Source)
}

func TestHealthEndpoint(t *testing.T) {
	_, e := newTestHandler(t, false, stubAnalyzer{}, stubAnalyzer{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data models.HealthStatus `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Data.Status)
	assert.Equal(t, "unavailable", body.Data.InferenceBackend)
}
