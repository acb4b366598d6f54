package models

// Requests and responses for the analysis HTTP endpoint. Defined in domain
// for consistency and reuse.

type AnalyzeContext struct {
	Unsolicited         bool `json:"unsolicited"`
	PromisesHighReturns bool `json:"promisesHighReturns"`
	UrgencyPressure     bool `json:"urgencyPressure"`
	SecrecyInsideInfo   bool `json:"secrecyInsideInfo"`
}

type AnalyzeRequest struct {
	Ticker      string          `json:"ticker" validate:"required,min=1,max=10"`
	AssetType   string          `json:"assetType" default:"stock" validate:"oneof=stock crypto"`
	UseLiveData bool            `json:"useLiveData"`
	PitchText   string          `json:"pitchText" validate:"omitempty,max=10000"`
	Context     *AnalyzeContext `json:"context"`
}

// ToAnalysisRequest maps the transport shape onto the domain request.
// Symbol normalization happens in the handler before this is called.
func (r *AnalyzeRequest) ToAnalysisRequest() AnalysisRequest {
	req := AnalysisRequest{
		Asset:       AssetRef{Symbol: r.Ticker, AssetType: AssetType(r.AssetType)},
		UseLiveData: r.UseLiveData,
		Pitch:       PitchContext{PitchText: r.PitchText},
	}
	if r.Context != nil {
		req.Pitch.Unsolicited = r.Context.Unsolicited
		req.Pitch.PromisesHighReturns = r.Context.PromisesHighReturns
		req.Pitch.UrgencyPressure = r.Context.UrgencyPressure
		req.Pitch.SecrecyInsideInfo = r.Context.SecrecyInsideInfo
	}
	return req
}

// ServiceUnavailable is the 503 body returned on a hard upstream failure.
type ServiceUnavailable struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter"`
	APIName    string `json:"apiName,omitempty"`
	Ticker     string `json:"ticker,omitempty"`
}

// HealthStatus is the body of GET /api/health.
type HealthStatus struct {
	Status           string `json:"status"`
	InferenceBackend string `json:"inferenceBackend"`
}
