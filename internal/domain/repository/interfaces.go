package repository

import (
	"context"

	"ScamDunk/internal/domain/models"
)

// MarketData fetches and normalizes a snapshot for the fallback path.
// It never fabricates data: an unreachable provider or empty history yields
// a snapshot with DataAvailable=false rather than an error.
type MarketData interface {
	Fetch(ctx context.Context, asset models.AssetRef) *models.MarketDataSnapshot
}

// OutageAlert is the fire-and-forget notification emitted on a hard
// upstream failure.
type OutageAlert struct {
	APIName       string `json:"api_name"`
	Ticker        string `json:"ticker"`
	AssetType     string `json:"asset_type"`
	OriginalError string `json:"original_error"`
}

// AlertSink delivers one outage alert to a channel (webhook, event bus).
type AlertSink interface {
	Send(ctx context.Context, alert OutageAlert) error
	Name() string
}

// Metrics records operational counters for the analysis pipeline.
type Metrics interface {
	RecordAssessment(source, riskLevel string)
	RecordFallback(reason string)
	RecordHardFailure(apiName string)
	RecordAlert(sink, result string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
