package inference

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"ScamDunk/internal/domain/models"
	"ScamDunk/pkg/config"
	xhttp "ScamDunk/pkg/http"
	"ScamDunk/pkg/logger"
)

// RemoteMLAnalyzer calls the ML inference service over HTTP. Its contract
// with callers distinguishes three outcomes:
//
//   - success:       (*RiskAssessment, nil)
//   - soft failure:  (nil, nil) — service is down/slow/garbled, fall back
//   - hard failure:  (nil, *models.UpstreamDataError) — the market-data API
//     behind the service is out, escalate instead of falling back
type RemoteMLAnalyzer struct {
	baseURL      string
	lookbackDays int
	client       *xhttp.Client
	log          *logger.Logger
}

func NewRemoteMLAnalyzer(cfg *config.Config, log *logger.Logger) *RemoteMLAnalyzer {
	timeout := cfg.Inference.AnalyzeTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RemoteMLAnalyzer{
		baseURL:      cfg.Inference.BaseURL,
		lookbackDays: cfg.Inference.LookbackDays,
		client:       xhttp.NewClient(xhttp.WithTimeout(timeout)),
		log:          log,
	}
}

type analyzeReq struct {
	Ticker      string `json:"ticker"`
	AssetType   string `json:"asset_type"`
	Days        int    `json:"days"`
	UseLiveData bool   `json:"use_live_data"`
}

type analyzeSignal struct {
	Code        string  `json:"code"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
}

type analyzeResp struct {
	RiskLevel         string          `json:"risk_level"`
	RiskProbability   float64         `json:"risk_probability"`
	RiskScore         float64         `json:"risk_score"`
	RFProbability     *float64        `json:"rf_probability"`
	LSTMProbability   *float64        `json:"lstm_probability"`
	AnomalyScore      float64         `json:"anomaly_score"`
	Signals           []analyzeSignal `json:"signals"`
	Explanations      []string        `json:"explanations"`
	SECFlagged        bool            `json:"sec_flagged"`
	IsOTC             bool            `json:"is_otc"`
	IsMicroCap        bool            `json:"is_micro_cap"`
	DataAvailable     bool            `json:"data_available"`
	AnalysisTimestamp time.Time       `json:"analysis_timestamp"`
}

// upstreamDetail is the body the inference service returns with a 503 when
// its own market-data dependency is unavailable.
type upstreamDetail struct {
	Detail struct {
		APIName       string `json:"api_name"`
		Ticker        string `json:"ticker"`
		AssetType     string `json:"asset_type"`
		OriginalError string `json:"original_error"`
	} `json:"detail"`
}

func (a *RemoteMLAnalyzer) Analyze(ctx context.Context, req models.AnalysisRequest) (*models.RiskAssessment, error) {
	resp, err := a.client.SendRequest(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     a.baseURL + "/analyze",
		Headers: map[string]string{"Content-Type": "application/json"},
		Body: analyzeReq{
			Ticker:      req.Asset.Symbol,
			AssetType:   string(req.Asset.AssetType),
			Days:        a.lookbackDays,
			UseLiveData: req.UseLiveData,
		},
	})
	if err != nil {
		// Connection refused, DNS failure, timeout: the service itself is
		// unreachable, which is recoverable locally.
		a.log.Warn("inference service unreachable",
			logger.String("ticker", req.Asset.Symbol),
			logger.Error(err),
		)
		return nil, nil
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var body analyzeResp
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			a.log.Warn("inference response malformed",
				logger.String("ticker", req.Asset.Symbol),
				logger.Error(err),
			)
			return nil, nil
		}
		return a.toAssessment(req, &body), nil

	case resp.StatusCode == http.StatusServiceUnavailable:
		var detail upstreamDetail
		if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil || detail.Detail.APIName == "" {
			// A 503 without the upstream marker is the service itself being
			// down (restart, overload), not its data source.
			a.log.Warn("inference service unavailable",
				logger.String("ticker", req.Asset.Symbol),
				logger.Int("status", resp.StatusCode),
			)
			return nil, nil
		}
		return nil, &models.UpstreamDataError{
			APIName:   detail.Detail.APIName,
			Ticker:    req.Asset.Symbol,
			AssetType: req.Asset.AssetType,
			Cause:     detail.Detail.OriginalError,
		}

	default:
		a.log.Warn("inference service returned unexpected status",
			logger.String("ticker", req.Asset.Symbol),
			logger.Int("status", resp.StatusCode),
		)
		return nil, nil
	}
}

func (a *RemoteMLAnalyzer) toAssessment(req models.AnalysisRequest, body *analyzeResp) *models.RiskAssessment {
	signals := make([]models.Signal, 0, len(body.Signals))
	for _, s := range body.Signals {
		signals = append(signals, models.Signal{
			Code:        s.Code,
			Category:    models.SignalCategory(s.Category),
			Weight:      int(s.Weight),
			Description: s.Description,
		})
	}
	models.SortSignals(signals)

	ts := body.AnalysisTimestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	return &models.RiskAssessment{
		Ticker:          req.Asset.Symbol,
		RiskLevel:       models.RiskLevel(body.RiskLevel),
		TotalScore:      int(body.RiskScore),
		RiskProbability: body.RiskProbability,
		Signals:         signals,
		Models: models.ModelOutputs{
			RFProbability:   body.RFProbability,
			LSTMProbability: body.LSTMProbability,
			AnomalyScore:    body.AnomalyScore,
		},
		Explanations: body.Explanations,
		Metadata: models.AssessmentMetadata{
			SECFlagged:        body.SECFlagged,
			IsOTC:             body.IsOTC,
			IsMicroCap:        body.IsMicroCap,
			DataAvailable:     body.DataAvailable,
			AnalysisTimestamp: ts,
		},
		Source: models.SourceAIBackend,
	}
}
