package di

import (
	"fmt"

	"ScamDunk/internal/alerts"
	"ScamDunk/internal/domain/repository"
	"ScamDunk/internal/domain/service"
	"ScamDunk/internal/handler/api"
	"ScamDunk/internal/service/marketdata"
	"ScamDunk/internal/services/analysis"
	"ScamDunk/internal/services/inference"
	"ScamDunk/internal/usecase"
	"ScamDunk/pkg/cache"
	"ScamDunk/pkg/config"
	xhttp "ScamDunk/pkg/http"
	pkgkafka "ScamDunk/pkg/kafka"
	applogger "ScamDunk/pkg/logger"
	"ScamDunk/pkg/metrics"
	"ScamDunk/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCache creates the dedup/cache backend: Redis when enabled, process
// memory otherwise.
func ProvideCache(cfg *config.Config, l *applogger.Logger) cache.Service {
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(
			cache.WithRedisHost(cfg.Redis.Host),
			cache.WithRedisPort(cfg.Redis.Port),
			cache.WithRedisPassword(cfg.Redis.Password),
			cache.WithRedisDB(cfg.Redis.DB),
		)
		if err == nil {
			return redisCache
		}
		l.Warn("redis unavailable, using in-memory cache", applogger.Error(err))
	}
	return cache.NewMemoryCache()
}

// ProvideKafkaProducer creates a Kafka producer when alert publishing to the
// event bus is enabled. Returns nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Alerts.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Alerts.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Alerts.Kafka.Compression),
		pkgkafka.WithRequiredAcks(-1),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideAlertSinks assembles the configured outage alert channels.
func ProvideAlertSinks(cfg *config.Config, producer *pkgkafka.Producer) []repository.AlertSink {
	var sinks []repository.AlertSink
	if cfg.Alerts.WebhookURL != "" {
		sinks = append(sinks, alerts.NewWebhookSink(cfg.Alerts.WebhookURL, cfg.Alerts.SendTimeout))
	}
	if producer != nil {
		sinks = append(sinks, alerts.NewKafkaSink(producer, cfg.Alerts.Kafka.Topic))
	}
	return sinks
}

// ProvideDispatcher creates the fire-and-forget alert dispatcher.
func ProvideDispatcher(
	cfg *config.Config,
	sinks []repository.AlertSink,
	dedup cache.Service,
	m repository.Metrics,
	l *applogger.Logger,
) *alerts.Dispatcher {
	return alerts.NewDispatcher(sinks, dedup, m, l, alerts.Options{
		QueueSize:   cfg.Alerts.QueueSize,
		DedupWindow: cfg.Alerts.DedupWindow,
		SendTimeout: cfg.Alerts.SendTimeout,
	})
}

// ProvideMarketData creates the provider-backed market data gateway.
func ProvideMarketData(cfg *config.Config, l *applogger.Logger) repository.MarketData {
	return marketdata.NewGateway(cfg, l)
}

// ProvideDetector creates the local statistical anomaly detector.
func ProvideDetector() service.AnomalyDetector {
	return analysis.NewDetector()
}

// ProvideFallbackAnalyzer creates the deterministic rule-based scorer.
func ProvideFallbackAnalyzer(
	cfg *config.Config,
	market repository.MarketData,
	detector service.AnomalyDetector,
	l *applogger.Logger,
) *analysis.RuleBasedAnalyzer {
	return analysis.NewRuleBasedAnalyzer(market, detector, analysis.ThresholdsFromConfig(cfg), l)
}

// ProvidePrimaryAnalyzer creates the remote ML inference client.
func ProvidePrimaryAnalyzer(cfg *config.Config, l *applogger.Logger) *inference.RemoteMLAnalyzer {
	return inference.NewRemoteMLAnalyzer(cfg, l)
}

// ProvideProber creates the inference health prober.
func ProvideProber(cfg *config.Config, l *applogger.Logger) service.HealthProber {
	return inference.NewProber(cfg, l)
}

// ProvideAnalyzeUseCase wires the orchestrator.
func ProvideAnalyzeUseCase(
	prober service.HealthProber,
	primary *inference.RemoteMLAnalyzer,
	fallback *analysis.RuleBasedAnalyzer,
	dispatcher *alerts.Dispatcher,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.AnalyzeUseCase {
	return usecase.NewAnalyzeUseCase(prober, primary, fallback, dispatcher, m, l)
}

// ProvideHTTPHandler creates the Echo route handler.
func ProvideHTTPHandler(l *applogger.Logger, uc *usecase.AnalyzeUseCase, prober service.HealthProber) xhttp.Handler {
	return api.NewAnalyzeEchoHandler(l, uc, prober)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	dispatcher *alerts.Dispatcher,
	producer *pkgkafka.Producer,
	cacheSvc cache.Service,
) *server.App {
	return server.New(cfg, l, handler, dispatcher, producer, cacheSvc)
}
