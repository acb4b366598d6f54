package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const minimalConfig = `
environment: test
inference:
  base_url: http://localhost:8000
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Environment)
	assert.Equal(t, 5*time.Second, cfg.Inference.HealthTimeout)
	assert.Equal(t, 10*time.Second, cfg.Inference.AnalyzeTimeout)
	assert.Equal(t, 90, cfg.Inference.LookbackDays)
	assert.Equal(t, 90, cfg.MarketData.HistoryDays)
	assert.Equal(t, 8, cfg.Risk.HighThreshold)
	assert.Equal(t, 4, cfg.Risk.MediumThreshold)
	assert.NotEmpty(t, cfg.Risk.SECFlagged)
	assert.Equal(t, 60*time.Second, cfg.Alerts.DedupWindow)
	assert.Equal(t, 256, cfg.Alerts.QueueSize)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadExplicitValuesWin(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
environment: production
inference:
  base_url: http://ml.internal:8000
  analyze_timeout: 3s
  lookback_days: 30
risk:
  high_threshold: 10
  medium_threshold: 5
`))
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.Inference.AnalyzeTimeout)
	assert.Equal(t, 30, cfg.Inference.LookbackDays)
	assert.Equal(t, 10, cfg.Risk.HighThreshold)
	assert.Equal(t, 5, cfg.Risk.MediumThreshold)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsMissingInferenceURL(t *testing.T) {
	_, err := Load(writeConfig(t, `
environment: test
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inference.base_url")
}

func TestValidateRejectsInvertedThresholds(t *testing.T) {
	_, err := Load(writeConfig(t, minimalConfig+`
risk:
  high_threshold: 4
  medium_threshold: 6
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "medium_threshold")
}

func TestValidateRejectsKafkaWithoutBrokers(t *testing.T) {
	_, err := Load(writeConfig(t, minimalConfig+`
alerts:
  kafka:
    enabled: true
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "brokers")
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("INFERENCE_URL", "http://override:9000")
	t.Setenv("ALERT_WEBHOOK_URL", "https://hooks.example.com/outage")

	cfg, err := LoadWithEnv(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "http://override:9000", cfg.Inference.BaseURL)
	assert.Equal(t, "https://hooks.example.com/outage", cfg.Alerts.WebhookURL)
}
