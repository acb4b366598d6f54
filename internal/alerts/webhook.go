package alerts

import (
	"context"
	"time"

	"ScamDunk/internal/domain/repository"
	xhttp "ScamDunk/pkg/http"
)

// WebhookSink POSTs outage alerts to an operator-configured URL.
type WebhookSink struct {
	url    string
	client *xhttp.Client
}

func NewWebhookSink(url string, timeout time.Duration) *WebhookSink {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookSink{
		url:    url,
		client: xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

func (s *WebhookSink) Name() string { return "webhook" }

type webhookPayload struct {
	Event     string    `json:"event"`
	APIName   string    `json:"api_name"`
	Ticker    string    `json:"ticker"`
	AssetType string    `json:"asset_type"`
	Error     string    `json:"original_error"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *WebhookSink) Send(ctx context.Context, alert repository.OutageAlert) error {
	return s.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     s.url,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body: webhookPayload{
			Event:     "upstream_data_outage",
			APIName:   alert.APIName,
			Ticker:    alert.Ticker,
			AssetType: alert.AssetType,
			Error:     alert.OriginalError,
			Timestamp: time.Now().UTC(),
		},
	}, nil)
}
