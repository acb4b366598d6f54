package service

import (
	"context"

	"ScamDunk/internal/domain/models"
)

// RiskAnalyzer produces one canonical risk assessment for an asset.
// There are two implementations: the remote ML backend and the local
// rule-based fallback. A soft failure of the remote path is expressed as
// (nil, nil) so the caller tries the fallback; the distinguished hard
// failure is returned as *models.UpstreamDataError.
type RiskAnalyzer interface {
	Analyze(ctx context.Context, req models.AnalysisRequest) (*models.RiskAssessment, error)
}

// HealthProber reports whether the remote inference service is ready.
// It never errors: an unreachable health endpoint is itself the answer.
type HealthProber interface {
	Probe(ctx context.Context) bool
}

// AnomalyDetector computes statistical pattern signals over a daily
// price/volume series. Pure; requires at least 30 bars to fire anything.
type AnomalyDetector interface {
	Detect(bars []models.OHLCVBar) models.AnomalyReport
}
