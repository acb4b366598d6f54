package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Inference struct {
		BaseURL        string        `yaml:"base_url"`
		HealthTimeout  time.Duration `yaml:"health_timeout"`
		AnalyzeTimeout time.Duration `yaml:"analyze_timeout"`
		LookbackDays   int           `yaml:"lookback_days"`
	} `yaml:"inference"`
	MarketData struct {
		HistoryDays  int `yaml:"history_days"`
		AlphaVantage struct {
			BaseURL           string        `yaml:"base_url"`
			APIKey            string        `yaml:"api_key"`
			RequestsPerMinute float64       `yaml:"requests_per_minute"`
			Timeout           time.Duration `yaml:"timeout"`
		} `yaml:"alpha_vantage"`
		CoinGecko struct {
			BaseURL           string        `yaml:"base_url"`
			RequestsPerMinute float64       `yaml:"requests_per_minute"`
			Timeout           time.Duration `yaml:"timeout"`
		} `yaml:"coingecko"`
	} `yaml:"market_data"`
	Risk struct {
		HighThreshold   int      `yaml:"high_threshold"`
		MediumThreshold int      `yaml:"medium_threshold"`
		SECFlagged      []string `yaml:"sec_flagged"`
	} `yaml:"risk"`
	Alerts struct {
		WebhookURL  string        `yaml:"webhook_url"`
		DedupWindow time.Duration `yaml:"dedup_window"`
		QueueSize   int           `yaml:"queue_size"`
		SendTimeout time.Duration `yaml:"send_timeout"`
		Kafka       struct {
			Enabled     bool     `yaml:"enabled"`
			Brokers     []string `yaml:"brokers"`
			Topic       string   `yaml:"topic"`
			Compression string   `yaml:"compression"`
		} `yaml:"kafka"`
	} `yaml:"alerts"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("INFERENCE_URL"); v != "" {
		c.Inference.BaseURL = v
	}
	if v := os.Getenv("ALPHA_VANTAGE_API_KEY"); v != "" {
		c.MarketData.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("ALERT_WEBHOOK_URL"); v != "" {
		c.Alerts.WebhookURL = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Alerts.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Inference.HealthTimeout <= 0 {
		c.Inference.HealthTimeout = 5 * time.Second
	}
	if c.Inference.AnalyzeTimeout <= 0 {
		// Deliberately below the platform execution ceiling so a full
		// fallback computation still fits after a primary timeout.
		c.Inference.AnalyzeTimeout = 10 * time.Second
	}
	if c.Inference.LookbackDays <= 0 {
		c.Inference.LookbackDays = 90
	}
	if c.MarketData.HistoryDays <= 0 {
		c.MarketData.HistoryDays = 90
	}
	if c.MarketData.AlphaVantage.BaseURL == "" {
		c.MarketData.AlphaVantage.BaseURL = "https://www.alphavantage.co/query"
	}
	if c.MarketData.AlphaVantage.RequestsPerMinute <= 0 {
		c.MarketData.AlphaVantage.RequestsPerMinute = 5
	}
	if c.MarketData.CoinGecko.BaseURL == "" {
		c.MarketData.CoinGecko.BaseURL = "https://api.coingecko.com/api/v3"
	}
	if c.MarketData.CoinGecko.RequestsPerMinute <= 0 {
		c.MarketData.CoinGecko.RequestsPerMinute = 30
	}
	if c.Risk.HighThreshold <= 0 {
		c.Risk.HighThreshold = 8
	}
	if c.Risk.MediumThreshold <= 0 {
		c.Risk.MediumThreshold = 4
	}
	if len(c.Risk.SECFlagged) == 0 {
		c.Risk.SECFlagged = []string{"SCAM", "PUMP", "DUMP", "FRAU", "SUSP", "HALT", "XYZQ", "ABCD"}
	}
	if c.Alerts.DedupWindow <= 0 {
		c.Alerts.DedupWindow = 60 * time.Second
	}
	if c.Alerts.QueueSize <= 0 {
		c.Alerts.QueueSize = 256
	}
	if c.Alerts.SendTimeout <= 0 {
		c.Alerts.SendTimeout = 10 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Inference.BaseURL == "" {
		return fmt.Errorf("inference.base_url is required")
	}
	if c.Risk.MediumThreshold >= c.Risk.HighThreshold {
		return fmt.Errorf("risk.medium_threshold must be below risk.high_threshold")
	}
	if c.Alerts.Kafka.Enabled && len(c.Alerts.Kafka.Brokers) == 0 {
		return fmt.Errorf("alerts.kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}
