package analysis

import (
	"math"

	"ScamDunk/internal/domain/models"
)

const (
	// minBars is the minimum history needed before any statistical rule is
	// meaningful. Below this the detector reports nothing at all.
	minBars = 30

	zThreshold        = 2.5
	extremeZThreshold = 3.0
	volumeZThreshold  = 2.5

	rsiPeriod     = 14
	rsiOverbought = 70.0

	shortWindow       = 7
	volRatioThreshold = 2.0

	patternWindow = 14
	pumpRise      = 0.20
	dumpFall      = -0.15
)

// Per-rule contributions to the combined anomaly score. They sum above 1.0
// deliberately; the final score is capped.
const (
	contribPriceSpike      = 0.3
	contribVolumeExplosion = 0.2
	contribCombinedSurge   = 0.1
	contribSpikeThenDrop   = 0.3
	contribOverboughtRSI   = 0.1
	contribHighVolatility  = 0.1
)

// Detector runs statistical pattern rules over daily bars. It is stateless
// and safe for concurrent use.
type Detector struct{}

func NewDetector() *Detector {
	return &Detector{}
}

// Detect computes the anomaly report for a chronological bar series. Fewer
// than minBars bars yields a zero report, never an error.
func (d *Detector) Detect(bars []models.OHLCVBar) models.AnomalyReport {
	if len(bars) < minBars {
		return models.AnomalyReport{}
	}

	closes := make([]float64, len(bars))
	volumes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
		volumes[i] = bar.Volume
	}
	returns := logReturns(closes)

	var report models.AnomalyReport
	score := 0.0

	retZ := latestZScore(returns)
	volZ := latestZScore(volumes)

	if math.Abs(retZ) > zThreshold {
		report.Flags.PriceSpike = true
		score += contribPriceSpike
		report.Explanations = append(report.Explanations,
			"Unusually large price movement in recent days")
	}

	if volZ > volumeZThreshold {
		report.Flags.VolumeExplosion = true
		score += contribVolumeExplosion
		report.Explanations = append(report.Explanations,
			"Abnormal trading volume spike in recent days")
	}

	// Extreme surge needs both dimensions moving together, on top of
	// whatever each dimension scored on its own.
	if math.Abs(retZ) > extremeZThreshold && volZ > volumeZThreshold {
		score += contribCombinedSurge
		report.Explanations = append(report.Explanations,
			"Combined price pump + volume explosion detected")
	}

	if spikeThenDrop(closes) {
		report.Flags.SpikeThenDrop = true
		score += contribSpikeThenDrop
		report.Explanations = append(report.Explanations,
			"Classic pump-and-dump pattern detected")
	}

	if rsi(closes, rsiPeriod) > rsiOverbought {
		report.Flags.OverboughtRSI = true
		score += contribOverboughtRSI
		report.Explanations = append(report.Explanations,
			"Relative strength index indicates overbought conditions")
	}

	if volatilityRatio(returns) > volRatioThreshold {
		report.Flags.HighVolatility = true
		score += contribHighVolatility
		report.Explanations = append(report.Explanations,
			"Extremely high price volatility")
	}

	report.AnomalyScore = math.Min(score, 1.0)
	report.HasAnomalies = report.Flags.PriceSpike || report.Flags.VolumeExplosion ||
		report.Flags.SpikeThenDrop || report.Flags.OverboughtRSI || report.Flags.HighVolatility
	return report
}

// logReturns converts a close series into daily log returns. Non-positive
// closes produce a zero return for that day.
func logReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	returns := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] > 0 && closes[i] > 0 {
			returns[i-1] = math.Log(closes[i] / closes[i-1])
		}
	}
	return returns
}

// latestZScore measures how far the last value sits from the mean and σ of
// everything before it.
func latestZScore(series []float64) float64 {
	if len(series) < 3 {
		return 0
	}
	prior := series[:len(series)-1]
	m := mean(prior)
	sd := stddev(prior, m)
	if sd == 0 {
		return 0
	}
	return (series[len(series)-1] - m) / sd
}

// spikeThenDrop looks for a pump-and-dump shape inside the trailing pattern
// window: a peak in the interior third, a sharp rise into it, and a sharp
// fall after it.
func spikeThenDrop(closes []float64) bool {
	if len(closes) < patternWindow {
		return false
	}
	recent := closes[len(closes)-patternWindow:]

	peakIdx := 0
	for i, c := range recent {
		if c > recent[peakIdx] {
			peakIdx = i
		}
	}
	if peakIdx <= patternWindow/3 || peakIdx >= patternWindow*2/3 {
		return false
	}
	if recent[0] <= 0 || recent[peakIdx] <= 0 {
		return false
	}

	rise := recent[peakIdx]/recent[0] - 1
	fall := recent[len(recent)-1]/recent[peakIdx] - 1
	return rise > pumpRise && fall < dumpFall
}

// rsi computes Wilder's relative strength index over the trailing period.
func rsi(closes []float64, period int) float64 {
	if len(closes) < period+1 {
		return 50
	}
	recent := closes[len(closes)-period-1:]

	var gains, losses float64
	for i := 1; i < len(recent); i++ {
		delta := recent[i] - recent[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}
	if losses == 0 {
		if gains == 0 {
			return 50
		}
		return 100
	}
	rs := gains / losses
	return 100 - 100/(1+rs)
}

// volatilityRatio compares realized volatility in the short window against
// the baseline of everything before it.
func volatilityRatio(returns []float64) float64 {
	if len(returns) < shortWindow*2 {
		return 0
	}
	recent := returns[len(returns)-shortWindow:]
	baseline := returns[:len(returns)-shortWindow]

	baseSD := stddev(baseline, mean(baseline))
	if baseSD == 0 {
		return 0
	}
	recentSD := stddev(recent, mean(recent))
	return recentSD / baseSD
}

func mean(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range series {
		sum += v
	}
	return sum / float64(len(series))
}

func stddev(series []float64, m float64) float64 {
	if len(series) < 2 {
		return 0
	}
	sum := 0.0
	for _, v := range series {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(series)-1))
}
