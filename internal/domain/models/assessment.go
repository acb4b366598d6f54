package models

import (
	"fmt"
	"sort"
	"time"
)

// AssetType distinguishes the two supported asset classes.
type AssetType string

const (
	AssetStock  AssetType = "stock"
	AssetCrypto AssetType = "crypto"
)

// AssetRef identifies the asset under analysis. Created once per request.
type AssetRef struct {
	Symbol    string
	AssetType AssetType
}

// RiskLevel is the categorical outcome of an assessment.
type RiskLevel string

const (
	RiskLow          RiskLevel = "LOW"
	RiskMedium       RiskLevel = "MEDIUM"
	RiskHigh         RiskLevel = "HIGH"
	RiskInsufficient RiskLevel = "INSUFFICIENT"
)

// Source identifies which computation path produced an assessment.
type Source string

const (
	SourceAIBackend Source = "ai_backend"
	SourceFallback  Source = "typescript_fallback"
)

// SignalCategory groups signals by the kind of evidence they carry.
type SignalCategory string

const (
	CategoryStructural SignalCategory = "STRUCTURAL"
	CategoryPattern    SignalCategory = "PATTERN"
	CategoryAnomaly    SignalCategory = "ANOMALY"
	CategoryBehavioral SignalCategory = "BEHAVIORAL"
)

// categoryRank fixes the render order of signal categories.
var categoryRank = map[SignalCategory]int{
	CategoryStructural: 0,
	CategoryPattern:    1,
	CategoryAnomaly:    2,
	CategoryBehavioral: 3,
}

// Signal is a named, weighted, boolean-triggered risk indicator.
// A code appears at most once per assessment.
type Signal struct {
	Code        string         `json:"code"`
	Category    SignalCategory `json:"category"`
	Weight      int            `json:"weight"`
	Description string         `json:"description"`
}

// SortSignals orders signals by category, then weight (descending), then
// code, so identical inputs always render identically.
func SortSignals(signals []Signal) {
	sort.SliceStable(signals, func(i, j int) bool {
		if categoryRank[signals[i].Category] != categoryRank[signals[j].Category] {
			return categoryRank[signals[i].Category] < categoryRank[signals[j].Category]
		}
		if signals[i].Weight != signals[j].Weight {
			return signals[i].Weight > signals[j].Weight
		}
		return signals[i].Code < signals[j].Code
	})
}

// PitchContext carries the optional behavioral context supplied with a
// request. All fields default to false/empty.
type PitchContext struct {
	PitchText           string
	Unsolicited         bool
	PromisesHighReturns bool
	UrgencyPressure     bool
	SecrecyInsideInfo   bool
}

// ModelOutputs holds the per-model sub-probabilities of an assessment.
// RF/LSTM are only populated on the ai_backend path.
type ModelOutputs struct {
	RFProbability   *float64 `json:"rfProbability"`
	LSTMProbability *float64 `json:"lstmProbability"`
	AnomalyScore    float64  `json:"anomalyScore"`
}

// AssessmentMetadata carries contextual flags about the analyzed asset.
type AssessmentMetadata struct {
	SECFlagged        bool      `json:"secFlagged"`
	IsOTC             bool      `json:"isOtc"`
	IsMicroCap        bool      `json:"isMicroCap"`
	DataAvailable     bool      `json:"dataAvailable"`
	AnalysisTimestamp time.Time `json:"analysisTimestamp"`
}

// RiskAssessment is the single canonical result of one analysis request.
// It is built once and never mutated afterwards.
type RiskAssessment struct {
	Ticker          string             `json:"ticker"`
	RiskLevel       RiskLevel          `json:"riskLevel"`
	TotalScore      int                `json:"riskScore"`
	RiskProbability float64            `json:"riskProbability"`
	Signals         []Signal           `json:"signals"`
	Models          ModelOutputs       `json:"models"`
	Explanations    []string           `json:"explanations"`
	Metadata        AssessmentMetadata `json:"metadata"`
	IsLegitimate    bool               `json:"isLegitimate"`
	Source          Source             `json:"source"`
	Notice          string             `json:"notice,omitempty"`
}

// AnalysisRequest is the domain-level input to a RiskAnalyzer.
type AnalysisRequest struct {
	Asset       AssetRef
	UseLiveData bool
	Pitch       PitchContext
}

// UpstreamDataError is the distinguished hard failure: the market-data API
// the remote inference service depends on is down. Falling back locally
// would be silently wrong, so callers must escalate instead.
type UpstreamDataError struct {
	APIName   string
	Ticker    string
	AssetType AssetType
	Cause     string
}

func (e *UpstreamDataError) Error() string {
	return fmt.Sprintf("upstream market-data API %s unavailable for %s: %s", e.APIName, e.Ticker, e.Cause)
}
