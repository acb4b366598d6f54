package marketdata

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ScamDunk/internal/domain/models"
	"ScamDunk/pkg/config"
	xhttp "ScamDunk/pkg/http"

	"golang.org/x/time/rate"
)

// CoinGeckoClient fetches crypto quotes and daily history. Crypto assets
// trade on unregulated venues, so every snapshot is marked OTC.
type CoinGeckoClient struct {
	baseURL string
	days    int
	client  *xhttp.Client
	limiter *rate.Limiter
}

func NewCoinGeckoClient(cfg *config.Config) *CoinGeckoClient {
	cg := cfg.MarketData.CoinGecko
	timeout := cg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rpm := cg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 30
	}
	days := cfg.MarketData.HistoryDays
	if days <= 0 {
		days = 90
	}
	return &CoinGeckoClient{
		baseURL: cg.BaseURL,
		days:    days,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
		// Burst covers one snapshot (search + markets + chart).
		limiter: rate.NewLimiter(rate.Limit(rpm/60), snapshotCalls),
	}
}

type cgSearchResp struct {
	Coins []struct {
		ID     string `json:"id"`
		Symbol string `json:"symbol"`
	} `json:"coins"`
}

type cgMarketResp []struct {
	CurrentPrice float64 `json:"current_price"`
	MarketCap    float64 `json:"market_cap"`
}

type cgChartResp struct {
	Prices       [][2]float64 `json:"prices"`
	TotalVolumes [][2]float64 `json:"total_volumes"`
}

// Fetch resolves the ticker to a coin id, then pulls current market data and
// daily price/volume history.
func (c *CoinGeckoClient) Fetch(ctx context.Context, symbol string) (*models.MarketDataSnapshot, error) {
	id, err := c.resolveID(ctx, symbol)
	if err != nil {
		return nil, err
	}

	price, marketCap, err := c.fetchMarket(ctx, id)
	if err != nil {
		return nil, err
	}

	history, err := c.fetchChart(ctx, id)
	if err != nil {
		return nil, err
	}

	return &models.MarketDataSnapshot{
		Quote: models.Quote{
			Price:     price,
			MarketCap: marketCap,
		},
		PriceHistory:  history,
		IsOTC:         true,
		DataAvailable: price > 0 && len(history) > 0,
	}, nil
}

func (c *CoinGeckoClient) resolveID(ctx context.Context, symbol string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	var body cgSearchResp
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + "/search",
		QueryParams: map[string][]string{"query": {symbol}},
	}, &body)
	if err != nil {
		return "", fmt.Errorf("coingecko search %s: %w", symbol, err)
	}

	lower := strings.ToLower(symbol)
	for _, coin := range body.Coins {
		if strings.ToLower(coin.Symbol) == lower {
			return coin.ID, nil
		}
	}
	if len(body.Coins) > 0 {
		return body.Coins[0].ID, nil
	}
	return "", fmt.Errorf("coingecko search %s: no match", symbol)
}

func (c *CoinGeckoClient) fetchMarket(ctx context.Context, id string) (float64, float64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, 0, err
	}

	var body cgMarketResp
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/coins/markets",
		QueryParams: map[string][]string{
			"vs_currency": {"usd"},
			"ids":         {id},
		},
	}, &body)
	if err != nil {
		return 0, 0, fmt.Errorf("coingecko markets %s: %w", id, err)
	}
	if len(body) == 0 {
		return 0, 0, fmt.Errorf("coingecko markets %s: empty response", id)
	}
	return body[0].CurrentPrice, body[0].MarketCap, nil
}

func (c *CoinGeckoClient) fetchChart(ctx context.Context, id string) ([]models.OHLCVBar, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var body cgChartResp
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/coins/" + id + "/market_chart",
		QueryParams: map[string][]string{
			"vs_currency": {"usd"},
			"days":        {strconv.Itoa(c.days)},
			"interval":    {"daily"},
		},
	}, &body)
	if err != nil {
		return nil, fmt.Errorf("coingecko chart %s: %w", id, err)
	}

	bars := make([]models.OHLCVBar, 0, len(body.Prices))
	for i, point := range body.Prices {
		price := point[1]
		if price <= 0 {
			continue
		}
		bar := models.OHLCVBar{
			Date:  time.UnixMilli(int64(point[0])).UTC(),
			Open:  price,
			High:  price,
			Low:   price,
			Close: price,
		}
		// total_volumes is quoted in dollars; convert to unit volume so
		// bars carry the same semantics as stock history.
		if i < len(body.TotalVolumes) {
			bar.Volume = body.TotalVolumes[i][1] / price
		}
		bars = append(bars, bar)
	}
	return bars, nil
}
