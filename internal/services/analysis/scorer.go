package analysis

import (
	"context"
	"fmt"
	"math"
	"time"

	"ScamDunk/internal/domain/models"
	"ScamDunk/internal/domain/repository"
	"ScamDunk/internal/domain/service"
	"ScamDunk/pkg/config"
	"ScamDunk/pkg/logger"
)

const (
	pennyPriceThreshold     = 1.0
	smallCapThreshold       = 300_000_000 // MICRO_CAP signal fires below this
	microCapThreshold       = 50_000_000  // metadata IsMicroCap flag
	microLiquidityThreshold = 150_000

	legitimateCapThreshold       = 2_000_000_000
	legitimateLiquidityThreshold = 500_000

	// probabilityNorm maps the additive score onto [0, probabilityCap].
	// A score of 20 (several strong signals) saturates the probability.
	probabilityNorm = 20.0
	probabilityCap  = 0.95

	fallbackNotice = "Full AI analysis backend unavailable; results produced by rules-based fallback scoring."
)

// Thresholds carries the configurable scoring knobs.
type Thresholds struct {
	High       int
	Medium     int
	SECFlagged map[string]bool
}

func ThresholdsFromConfig(cfg *config.Config) Thresholds {
	flagged := make(map[string]bool, len(cfg.Risk.SECFlagged))
	for _, t := range cfg.Risk.SECFlagged {
		flagged[t] = true
	}
	return Thresholds{
		High:       cfg.Risk.HighThreshold,
		Medium:     cfg.Risk.MediumThreshold,
		SECFlagged: flagged,
	}
}

// RuleBasedAnalyzer is the deterministic local scorer used when the remote
// ML service cannot serve a request. It implements service.RiskAnalyzer.
type RuleBasedAnalyzer struct {
	market     repository.MarketData
	detector   service.AnomalyDetector
	thresholds Thresholds
	log        *logger.Logger
}

func NewRuleBasedAnalyzer(market repository.MarketData, detector service.AnomalyDetector, thresholds Thresholds, log *logger.Logger) *RuleBasedAnalyzer {
	return &RuleBasedAnalyzer{
		market:     market,
		detector:   detector,
		thresholds: thresholds,
		log:        log,
	}
}

func (a *RuleBasedAnalyzer) Analyze(ctx context.Context, req models.AnalysisRequest) (*models.RiskAssessment, error) {
	start := time.Now()

	snapshot := a.market.Fetch(ctx, req.Asset)
	report := a.detector.Detect(snapshot.PriceHistory)
	assessment := Score(req, snapshot, report, a.thresholds, time.Now().UTC())

	a.log.Info("fallback assessment computed",
		logger.String("ticker", req.Asset.Symbol),
		logger.String("risk_level", string(assessment.RiskLevel)),
		logger.Int("score", assessment.TotalScore),
		logger.Duration("duration_ms", time.Since(start)),
	)
	return assessment, nil
}

// Score turns a snapshot, pitch context, and anomaly report into a complete
// assessment. It is pure: same inputs, same output, no I/O.
func Score(req models.AnalysisRequest, snap *models.MarketDataSnapshot, report models.AnomalyReport, th Thresholds, now time.Time) *models.RiskAssessment {
	var signals []models.Signal
	add := func(code string, category models.SignalCategory, weight int, description string) {
		signals = append(signals, models.Signal{
			Code:        code,
			Category:    category,
			Weight:      weight,
			Description: description,
		})
	}

	secFlagged := th.SECFlagged[req.Asset.Symbol]
	if secFlagged {
		add("SEC_FLAGGED", models.CategoryStructural, 5,
			"Ticker appears on SEC regulatory alerts")
	}

	if snap.DataAvailable {
		if snap.Quote.Price > 0 && snap.Quote.Price < pennyPriceThreshold {
			add("PENNY_PRICE", models.CategoryStructural, 3,
				fmt.Sprintf("Penny stock priced at $%.2f", snap.Quote.Price))
		}
		if snap.Quote.MarketCap > 0 && snap.Quote.MarketCap < smallCapThreshold {
			add("MICRO_CAP", models.CategoryStructural, 2,
				fmt.Sprintf("Small market cap of $%.0fM", snap.Quote.MarketCap/1_000_000))
		}
		if snap.Quote.AvgDollarVolume > 0 && snap.Quote.AvgDollarVolume < microLiquidityThreshold {
			add("LOW_LIQUIDITY", models.CategoryStructural, 2,
				fmt.Sprintf("Thin trading at $%.0fK average daily dollar volume", snap.Quote.AvgDollarVolume/1_000))
		}
		if snap.IsOTC {
			add("OTC_EXCHANGE", models.CategoryStructural, 3,
				"Trades on an OTC or unregulated venue")
		}

		if report.Flags.PriceSpike {
			add("PRICE_SPIKE", models.CategoryPattern, 3,
				"Recent price movement far outside historical range")
		}
		if report.Flags.VolumeExplosion {
			add("VOLUME_EXPLOSION", models.CategoryPattern, 3,
				"Trading volume far above historical average")
		}
		if report.Flags.SpikeThenDrop {
			add("SPIKE_THEN_DROP", models.CategoryPattern, 4,
				"Rapid price rise followed by sharp fall (pump-and-dump shape)")
		}
		if report.Flags.OverboughtRSI {
			add("OVERBOUGHT_RSI", models.CategoryPattern, 2,
				"RSI indicates overbought conditions")
		}
		if report.Flags.HighVolatility {
			add("HIGH_VOLATILITY", models.CategoryPattern, 2,
				"Realized volatility well above its baseline")
		}
	}

	if req.Pitch.Unsolicited {
		add("UNSOLICITED_PITCH", models.CategoryBehavioral, 2,
			"Investment tip was unsolicited")
	}
	if req.Pitch.PromisesHighReturns {
		add("PROMISED_RETURNS", models.CategoryBehavioral, 3,
			"Pitch promises high returns")
	}
	if req.Pitch.UrgencyPressure {
		add("URGENCY_PRESSURE", models.CategoryBehavioral, 2,
			"Pitch applies urgency or pressure tactics")
	}
	if req.Pitch.SecrecyInsideInfo {
		add("SECRECY_CLAIM", models.CategoryBehavioral, 3,
			"Pitch claims secret or insider information")
	}
	if matchesGuaranteedReturns(req.Pitch.PitchText) {
		add("GUARANTEED_RETURNS_TEXT", models.CategoryBehavioral, 3,
			"Pitch text guarantees returns or claims no risk")
	}
	if matchesUrgency(req.Pitch.PitchText) {
		add("URGENCY_TEXT", models.CategoryBehavioral, 2,
			"Pitch text uses urgency language")
	}
	if matchesInsider(req.Pitch.PitchText) {
		add("INSIDER_TEXT", models.CategoryBehavioral, 3,
			"Pitch text references insider or non-public information")
	}

	models.SortSignals(signals)

	total := 0
	for _, s := range signals {
		total += s.Weight
	}

	level := models.RiskLow
	switch {
	case !snap.DataAvailable:
		level = models.RiskInsufficient
	case total >= th.High:
		level = models.RiskHigh
	case total >= th.Medium:
		level = models.RiskMedium
	}

	explanations := append([]string(nil), report.Explanations...)
	if !snap.DataAvailable {
		explanations = append(explanations,
			"Insufficient market data to assess this asset")
	}

	isMicroCap := snap.DataAvailable && snap.Quote.MarketCap < microCapThreshold
	isLegitimate := snap.DataAvailable &&
		snap.Quote.MarketCap >= legitimateCapThreshold &&
		snap.Quote.AvgDollarVolume >= legitimateLiquidityThreshold &&
		!snap.IsOTC &&
		total < th.Medium

	return &models.RiskAssessment{
		Ticker:          req.Asset.Symbol,
		RiskLevel:       level,
		TotalScore:      total,
		RiskProbability: math.Min(float64(total)/probabilityNorm, probabilityCap),
		Signals:         signals,
		Models: models.ModelOutputs{
			AnomalyScore: report.AnomalyScore,
		},
		Explanations: explanations,
		Metadata: models.AssessmentMetadata{
			SECFlagged:        secFlagged,
			IsOTC:             snap.DataAvailable && snap.IsOTC,
			IsMicroCap:        isMicroCap,
			DataAvailable:     snap.DataAvailable,
			AnalysisTimestamp: now,
		},
		IsLegitimate: isLegitimate,
		Source:       models.SourceFallback,
		Notice:       fallbackNotice,
	}
}
