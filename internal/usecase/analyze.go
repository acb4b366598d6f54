package usecase

import (
	"context"
	"errors"
	"time"

	"ScamDunk/internal/domain/models"
	"ScamDunk/internal/domain/repository"
	"ScamDunk/internal/domain/service"
	"ScamDunk/pkg/logger"
)

// AlertDispatcher is the fire-and-forget escalation channel for hard
// upstream failures.
type AlertDispatcher interface {
	Dispatch(alert repository.OutageAlert)
}

// AnalyzeUseCase orchestrates one analysis request: probe the remote ML
// service, prefer it when healthy, fall back to the local scorer on soft
// failures, and escalate hard failures untouched. No retries; the fallback
// is never raced against the primary.
type AnalyzeUseCase struct {
	prober     service.HealthProber
	primary    service.RiskAnalyzer
	fallback   service.RiskAnalyzer
	dispatcher AlertDispatcher
	metrics    repository.Metrics
	log        *logger.Logger
}

func NewAnalyzeUseCase(
	prober service.HealthProber,
	primary service.RiskAnalyzer,
	fallback service.RiskAnalyzer,
	dispatcher AlertDispatcher,
	metrics repository.Metrics,
	log *logger.Logger,
) *AnalyzeUseCase {
	return &AnalyzeUseCase{
		prober:     prober,
		primary:    primary,
		fallback:   fallback,
		dispatcher: dispatcher,
		metrics:    metrics,
		log:        log,
	}
}

// AnalyzeAsset produces exactly one assessment or a hard error. A returned
// *models.UpstreamDataError means the caller must answer 503; by the time it
// surfaces the alert is already queued.
func (uc *AnalyzeUseCase) AnalyzeAsset(ctx context.Context, req models.AnalysisRequest) (*models.RiskAssessment, error) {
	start := time.Now()
	defer func() {
		uc.metrics.RecordLatency("analyze_asset", time.Since(start).Seconds())
	}()

	if !uc.prober.Probe(ctx) {
		uc.log.Info("inference backend unhealthy, using fallback",
			logger.String("ticker", req.Asset.Symbol),
		)
		uc.metrics.RecordFallback("unhealthy")
		return uc.runFallback(ctx, req)
	}

	assessment, err := uc.primary.Analyze(ctx, req)
	if err != nil {
		var upstream *models.UpstreamDataError
		if errors.As(err, &upstream) {
			uc.escalate(upstream)
			return nil, err
		}
		// Analyzer contract violation; treat like a soft failure so the
		// user still gets an answer.
		uc.log.Error("primary analyzer returned unexpected error",
			logger.String("ticker", req.Asset.Symbol),
			logger.Error(err),
		)
		uc.metrics.RecordError("primary_unexpected")
		uc.metrics.RecordFallback("primary_error")
		return uc.runFallback(ctx, req)
	}

	if assessment == nil {
		uc.metrics.RecordFallback("primary_soft_failure")
		return uc.runFallback(ctx, req)
	}

	uc.metrics.RecordAssessment(string(assessment.Source), string(assessment.RiskLevel))
	return assessment, nil
}

func (uc *AnalyzeUseCase) runFallback(ctx context.Context, req models.AnalysisRequest) (*models.RiskAssessment, error) {
	assessment, err := uc.fallback.Analyze(ctx, req)
	if err != nil {
		uc.metrics.RecordError("fallback_failed")
		return nil, err
	}
	uc.metrics.RecordAssessment(string(assessment.Source), string(assessment.RiskLevel))
	return assessment, nil
}

func (uc *AnalyzeUseCase) escalate(upstream *models.UpstreamDataError) {
	uc.log.Error("upstream market-data API unavailable",
		logger.String("api_name", upstream.APIName),
		logger.String("ticker", upstream.Ticker),
		logger.String("asset_type", string(upstream.AssetType)),
		logger.String("cause", upstream.Cause),
	)
	uc.metrics.RecordHardFailure(upstream.APIName)

	uc.dispatcher.Dispatch(repository.OutageAlert{
		APIName:       upstream.APIName,
		Ticker:        upstream.Ticker,
		AssetType:     string(upstream.AssetType),
		OriginalError: upstream.Cause,
	})
}
