package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ScamDunk/internal/domain/models"
	"ScamDunk/internal/domain/repository"
	"ScamDunk/pkg/logger"
)

type stubProber struct {
	healthy bool
	probes  int
}

func (p *stubProber) Probe(ctx context.Context) bool {
	p.probes++
	return p.healthy
}

type stubAnalyzer struct {
	assessment *models.RiskAssessment
	err        error
	calls      int
}

func (a *stubAnalyzer) Analyze(ctx context.Context, req models.AnalysisRequest) (*models.RiskAssessment, error) {
	a.calls++
	return a.assessment, a.err
}

type stubDispatcher struct {
	alerts []repository.OutageAlert
}

func (d *stubDispatcher) Dispatch(alert repository.OutageAlert) {
	d.alerts = append(d.alerts, alert)
}

type noopMetrics struct {
	fallbacks    []string
	hardFailures []string
}

func (m *noopMetrics) RecordAssessment(source, riskLevel string) {}

func (m *noopMetrics) RecordFallback(reason string) {
	m.fallbacks = append(m.fallbacks, reason)
}

func (m *noopMetrics) RecordHardFailure(apiName string) {
	m.hardFailures = append(m.hardFailures, apiName)
}

func (m *noopMetrics) RecordAlert(sink, result string) {}

func (m *noopMetrics) RecordError(kind string) {}

func (m *noopMetrics) RecordLatency(op string, sec float64) {}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	return log
}

func assessment(source models.Source) *models.RiskAssessment {
	return &models.RiskAssessment{
		Ticker:    "GME",
		RiskLevel: models.RiskMedium,
		Source:    source,
	}
}

func testReq() models.AnalysisRequest {
	return models.AnalysisRequest{
		Asset: models.AssetRef{Symbol: "GME", AssetType: models.AssetStock},
	}
}

func TestAnalyzeHealthyPrimarySucceeds(t *testing.T) {
	primary := &stubAnalyzer{assessment: assessment(models.SourceAIBackend)}
	fallback := &stubAnalyzer{assessment: assessment(models.SourceFallback)}
	dispatcher := &stubDispatcher{}

	uc := NewAnalyzeUseCase(&stubProber{healthy: true}, primary, fallback, dispatcher, &noopMetrics{}, newTestLogger(t))

	got, err := uc.AnalyzeAsset(context.Background(), testReq())
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, models.SourceAIBackend, got.Source)
	assert.Equal(t, 1, primary.calls)
	assert.Zero(t, fallback.calls)
	assert.Empty(t, dispatcher.alerts)
}

func TestAnalyzeUnhealthySkipsPrimary(t *testing.T) {
	primary := &stubAnalyzer{assessment: assessment(models.SourceAIBackend)}
	fallback := &stubAnalyzer{assessment: assessment(models.SourceFallback)}
	metrics := &noopMetrics{}

	uc := NewAnalyzeUseCase(&stubProber{healthy: false}, primary, fallback, &stubDispatcher{}, metrics, newTestLogger(t))

	got, err := uc.AnalyzeAsset(context.Background(), testReq())
	require.NoError(t, err)

	assert.Equal(t, models.SourceFallback, got.Source)
	assert.Zero(t, primary.calls, "unhealthy backend must never receive analyze traffic")
	assert.Equal(t, 1, fallback.calls)
	assert.Equal(t, []string{"unhealthy"}, metrics.fallbacks)
}

func TestAnalyzeSoftFailureFallsBack(t *testing.T) {
	primary := &stubAnalyzer{} // (nil, nil): soft failure
	fallback := &stubAnalyzer{assessment: assessment(models.SourceFallback)}
	dispatcher := &stubDispatcher{}
	metrics := &noopMetrics{}

	uc := NewAnalyzeUseCase(&stubProber{healthy: true}, primary, fallback, dispatcher, metrics, newTestLogger(t))

	got, err := uc.AnalyzeAsset(context.Background(), testReq())
	require.NoError(t, err)

	assert.Equal(t, models.SourceFallback, got.Source)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
	assert.Empty(t, dispatcher.alerts, "soft failures are handled silently")
	assert.Equal(t, []string{"primary_soft_failure"}, metrics.fallbacks)
}

func TestAnalyzeHardFailureEscalates(t *testing.T) {
	upstream := &models.UpstreamDataError{
		APIName:   "alpha_vantage",
		Ticker:    "GME",
		AssetType: models.AssetStock,
		Cause:     "rate limit exceeded",
	}
	primary := &stubAnalyzer{err: upstream}
	fallback := &stubAnalyzer{assessment: assessment(models.SourceFallback)}
	dispatcher := &stubDispatcher{}
	metrics := &noopMetrics{}

	uc := NewAnalyzeUseCase(&stubProber{healthy: true}, primary, fallback, dispatcher, metrics, newTestLogger(t))

	got, err := uc.AnalyzeAsset(context.Background(), testReq())
	assert.Nil(t, got)
	require.Error(t, err)

	var gotUpstream *models.UpstreamDataError
	require.ErrorAs(t, err, &gotUpstream)
	assert.Equal(t, "alpha_vantage", gotUpstream.APIName)

	assert.Zero(t, fallback.calls, "hard failures must not fall back")
	require.Len(t, dispatcher.alerts, 1, "exactly one alert per hard failure")
	assert.Equal(t, repository.OutageAlert{
		APIName:       "alpha_vantage",
		Ticker:        "GME",
		AssetType:     "stock",
		OriginalError: "rate limit exceeded",
	}, dispatcher.alerts[0])
	assert.Equal(t, []string{"alpha_vantage"}, metrics.hardFailures)
}

func TestAnalyzeUnexpectedPrimaryErrorFallsBack(t *testing.T) {
	primary := &stubAnalyzer{err: errors.New("analyzer bug")}
	fallback := &stubAnalyzer{assessment: assessment(models.SourceFallback)}
	dispatcher := &stubDispatcher{}
	metrics := &noopMetrics{}

	uc := NewAnalyzeUseCase(&stubProber{healthy: true}, primary, fallback, dispatcher, metrics, newTestLogger(t))

	got, err := uc.AnalyzeAsset(context.Background(), testReq())
	require.NoError(t, err)

	assert.Equal(t, models.SourceFallback, got.Source)
	assert.Empty(t, dispatcher.alerts)
	assert.Equal(t, []string{"primary_error"}, metrics.fallbacks)
}

func TestAnalyzeFallbackErrorPropagates(t *testing.T) {
	primary := &stubAnalyzer{} // soft failure
	fallback := &stubAnalyzer{err: errors.New("market data fetch blew up")}

	uc := NewAnalyzeUseCase(&stubProber{healthy: true}, primary, fallback, &stubDispatcher{}, &noopMetrics{}, newTestLogger(t))

	got, err := uc.AnalyzeAsset(context.Background(), testReq())
	assert.Nil(t, got)
	assert.Error(t, err)
}
