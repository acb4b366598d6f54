package inference

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ScamDunk/internal/domain/models"
	"ScamDunk/pkg/config"
	"ScamDunk/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	return log
}

func testConfig(baseURL string) *config.Config {
	cfg := &config.Config{}
	cfg.Inference.BaseURL = baseURL
	cfg.Inference.HealthTimeout = 2 * time.Second
	cfg.Inference.AnalyzeTimeout = 2 * time.Second
	cfg.Inference.LookbackDays = 90
	return cfg
}

func stockRequest(ticker string) models.AnalysisRequest {
	return models.AnalysisRequest{
		Asset:       models.AssetRef{Symbol: ticker, AssetType: models.AssetStock},
		UseLiveData: true,
	}
}

func TestAnalyzeSuccess(t *testing.T) {
	rf := 0.82
	lstm := 0.74

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/analyze", r.URL.Path)

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "GME", req["ticker"])
		assert.Equal(t, "stock", req["asset_type"])
		assert.Equal(t, float64(90), req["days"])
		assert.Equal(t, true, req["use_live_data"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"risk_level":       "HIGH",
			"risk_probability": 0.78,
			"risk_score":       11,
			"rf_probability":   rf,
			"lstm_probability": lstm,
			"anomaly_score":    0.6,
			"signals": []map[string]interface{}{
				{"code": "UNSOLICITED_PITCH", "category": "BEHAVIORAL", "description": "Unsolicited investment pitch", "weight": 2},
				{"code": "PENNY_PRICE", "category": "STRUCTURAL", "description": "Penny-stock price range", "weight": 3},
			},
			"explanations":       []string{"Unusually large price movement in recent days"},
			"sec_flagged":        false,
			"is_otc":             true,
			"is_micro_cap":       true,
			"data_available":     true,
			"analysis_timestamp": "2025-06-01T12:00:00Z",
		})
	}))
	defer srv.Close()

	a := NewRemoteMLAnalyzer(testConfig(srv.URL), testLogger(t))

	got, err := a.Analyze(context.Background(), stockRequest("GME"))
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "GME", got.Ticker)
	assert.Equal(t, models.RiskHigh, got.RiskLevel)
	assert.Equal(t, 11, got.TotalScore)
	assert.Equal(t, 0.78, got.RiskProbability)
	assert.Equal(t, models.SourceAIBackend, got.Source)

	require.NotNil(t, got.Models.RFProbability)
	assert.Equal(t, rf, *got.Models.RFProbability)
	require.NotNil(t, got.Models.LSTMProbability)
	assert.Equal(t, lstm, *got.Models.LSTMProbability)
	assert.Equal(t, 0.6, got.Models.AnomalyScore)

	// Signals come back sorted: structural before behavioral.
	require.Len(t, got.Signals, 2)
	assert.Equal(t, "PENNY_PRICE", got.Signals[0].Code)
	assert.Equal(t, "UNSOLICITED_PITCH", got.Signals[1].Code)

	assert.True(t, got.Metadata.IsOTC)
	assert.True(t, got.Metadata.IsMicroCap)
	assert.True(t, got.Metadata.DataAvailable)
	assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), got.Metadata.AnalysisTimestamp)
}

func TestAnalyzeUpstreamOutage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"detail": map[string]interface{}{
				"api_name":       "alpha_vantage",
				"ticker":         "GME",
				"asset_type":     "stock",
				"original_error": "rate limit exceeded",
			},
		})
	}))
	defer srv.Close()

	a := NewRemoteMLAnalyzer(testConfig(srv.URL), testLogger(t))

	got, err := a.Analyze(context.Background(), stockRequest("GME"))
	assert.Nil(t, got)
	require.Error(t, err)

	var upstream *models.UpstreamDataError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "alpha_vantage", upstream.APIName)
	assert.Equal(t, "GME", upstream.Ticker)
	assert.Equal(t, models.AssetStock, upstream.AssetType)
	assert.Equal(t, "rate limit exceeded", upstream.Cause)
}

func TestAnalyzePlain503IsSoft(t *testing.T) {
	// A 503 without the upstream marker means the inference service itself is
	// down, which callers recover from locally.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "service restarting", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	a := NewRemoteMLAnalyzer(testConfig(srv.URL), testLogger(t))

	got, err := a.Analyze(context.Background(), stockRequest("GME"))
	assert.Nil(t, got)
	assert.NoError(t, err)
}

func TestAnalyzeServerErrorIsSoft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := NewRemoteMLAnalyzer(testConfig(srv.URL), testLogger(t))

	got, err := a.Analyze(context.Background(), stockRequest("GME"))
	assert.Nil(t, got)
	assert.NoError(t, err)
}

func TestAnalyzeUnreachableIsSoft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	a := NewRemoteMLAnalyzer(testConfig(srv.URL), testLogger(t))

	got, err := a.Analyze(context.Background(), stockRequest("GME"))
	assert.Nil(t, got)
	assert.NoError(t, err)
}

func TestAnalyzeMalformedBodyIsSoft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	a := NewRemoteMLAnalyzer(testConfig(srv.URL), testLogger(t))

	got, err := a.Analyze(context.Background(), stockRequest("GME"))
	assert.Nil(t, got)
	assert.NoError(t, err)
}

func TestProbeHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":        "healthy",
			"models_loaded": true,
			"rf_ready":      true,
			"lstm_ready":    true,
			"version":       "1.4.2",
		})
	}))
	defer srv.Close()

	p := NewProber(testConfig(srv.URL), testLogger(t))
	assert.True(t, p.Probe(context.Background()))
}

func TestProbeDegraded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":        "healthy",
			"models_loaded": false,
			"rf_ready":      false,
			"lstm_ready":    true,
		})
	}))
	defer srv.Close()

	p := NewProber(testConfig(srv.URL), testLogger(t))
	assert.False(t, p.Probe(context.Background()))
}

func TestProbeUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	p := NewProber(testConfig(srv.URL), testLogger(t))
	assert.False(t, p.Probe(context.Background()))
}
