package inference

import (
	"context"
	"time"

	"ScamDunk/pkg/config"
	xhttp "ScamDunk/pkg/http"
	"ScamDunk/pkg/logger"
)

// Prober checks whether the inference service is ready to take analyze
// traffic. Any failure means "not healthy"; the prober never errors.
type Prober struct {
	baseURL string
	client  *xhttp.Client
	log     *logger.Logger
}

func NewProber(cfg *config.Config, log *logger.Logger) *Prober {
	timeout := cfg.Inference.HealthTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Prober{
		baseURL: cfg.Inference.BaseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
		log:     log,
	}
}

type healthResp struct {
	Status       string `json:"status"`
	ModelsLoaded bool   `json:"models_loaded"`
	RFReady      bool   `json:"rf_ready"`
	LSTMReady    bool   `json:"lstm_ready"`
	Version      string `json:"version"`
}

// Probe returns true only when the service reports healthy with both
// sub-models loaded. A degraded service (one model missing) is treated as
// unhealthy because its scores would not be comparable.
func (p *Prober) Probe(ctx context.Context) bool {
	var body healthResp
	err := p.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    p.baseURL + "/health",
	}, &body)
	if err != nil {
		p.log.Debug("inference health probe failed", logger.Error(err))
		return false
	}

	return body.Status == "healthy" && body.RFReady && body.LSTMReady
}
