package marketdata

import (
	"context"
	"time"

	"ScamDunk/internal/domain/models"
	"ScamDunk/pkg/config"
	"ScamDunk/pkg/logger"
)

const (
	// assumedUnknownMarketCap is used when the provider reports no cap at
	// all. Unknown caps are treated as micro-cap until proven otherwise.
	assumedUnknownMarketCap = 50_000_000

	// dollarVolumeWindow is the number of trailing bars averaged for the
	// liquidity figure.
	dollarVolumeWindow = 30
)

// provider is a single upstream source of market data.
type provider interface {
	Fetch(ctx context.Context, symbol string) (*models.MarketDataSnapshot, error)
}

// Gateway routes fetches to the provider for the asset class and normalizes
// the result. It implements repository.MarketData and never returns an
// error: any provider failure yields a snapshot with DataAvailable=false so
// the caller can degrade to an INSUFFICIENT assessment.
type Gateway struct {
	stocks  provider
	crypto  provider
	history int
	log     *logger.Logger
}

func NewGateway(cfg *config.Config, log *logger.Logger) *Gateway {
	return &Gateway{
		stocks:  NewAlphaVantageClient(cfg),
		crypto:  NewCoinGeckoClient(cfg),
		history: cfg.MarketData.HistoryDays,
		log:     log,
	}
}

// NewGatewayWithProviders wires explicit providers. Used in tests.
func NewGatewayWithProviders(stocks, crypto provider, historyDays int, log *logger.Logger) *Gateway {
	return &Gateway{stocks: stocks, crypto: crypto, history: historyDays, log: log}
}

func (g *Gateway) Fetch(ctx context.Context, asset models.AssetRef) *models.MarketDataSnapshot {
	start := time.Now()

	p := g.stocks
	if asset.AssetType == models.AssetCrypto {
		p = g.crypto
	}

	snap, err := p.Fetch(ctx, asset.Symbol)
	if err != nil {
		g.log.Warn("market data fetch failed",
			logger.String("ticker", asset.Symbol),
			logger.String("asset_type", string(asset.AssetType)),
			logger.Duration("duration_ms", time.Since(start)),
			logger.Error(err),
		)
		return &models.MarketDataSnapshot{DataAvailable: false}
	}

	g.normalize(snap)

	g.log.Debug("market data fetched",
		logger.String("ticker", asset.Symbol),
		logger.Int("bars", len(snap.PriceHistory)),
		logger.Bool("available", snap.DataAvailable),
		logger.Duration("duration_ms", time.Since(start)),
	)
	return snap
}

func (g *Gateway) normalize(snap *models.MarketDataSnapshot) {
	if g.history > 0 && len(snap.PriceHistory) > g.history {
		snap.PriceHistory = snap.PriceHistory[len(snap.PriceHistory)-g.history:]
	}

	if snap.DataAvailable && snap.Quote.MarketCap <= 0 {
		snap.Quote.MarketCap = assumedUnknownMarketCap
	}

	snap.Quote.AvgDollarVolume = avgDollarVolume(snap.PriceHistory, dollarVolumeWindow)
}

func avgDollarVolume(bars []models.OHLCVBar, window int) float64 {
	if len(bars) == 0 {
		return 0
	}
	if window > len(bars) {
		window = len(bars)
	}

	sum := 0.0
	for _, bar := range bars[len(bars)-window:] {
		sum += bar.Close * bar.Volume
	}
	return sum / float64(window)
}
