package marketdata

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"ScamDunk/internal/domain/models"
	"ScamDunk/pkg/config"
	xhttp "ScamDunk/pkg/http"

	"golang.org/x/time/rate"
)

// snapshotCalls is the number of upstream requests one snapshot needs.
const snapshotCalls = 3

// otcExchanges are the venue names Alpha Vantage reports for over-the-counter
// listings.
var otcExchanges = map[string]bool{
	"OTC":         true,
	"OTCBB":       true,
	"OTCQX":       true,
	"OTCQB":       true,
	"PINK":        true,
	"GREY":        true,
	"OTC MARKETS": true,
}

// AlphaVantageClient fetches stock quotes and daily history.
type AlphaVantageClient struct {
	baseURL string
	apiKey  string
	client  *xhttp.Client
	limiter *rate.Limiter
}

func NewAlphaVantageClient(cfg *config.Config) *AlphaVantageClient {
	av := cfg.MarketData.AlphaVantage
	timeout := av.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rpm := av.RequestsPerMinute
	if rpm <= 0 {
		rpm = 5 // free tier
	}
	return &AlphaVantageClient{
		baseURL: av.BaseURL,
		apiKey:  av.APIKey,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
		// Burst covers one snapshot (quote + daily + overview) so a cold
		// fetch never stacks limiter waits; sustained rate stays at rpm.
		limiter: rate.NewLimiter(rate.Limit(rpm/60), snapshotCalls),
	}
}

type avQuoteResp struct {
	GlobalQuote struct {
		Price string `json:"05. price"`
	} `json:"Global Quote"`
}

type avDailyBar struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

type avDailyResp struct {
	Note       string                `json:"Note"`
	TimeSeries map[string]avDailyBar `json:"Time Series (Daily)"`
}

type avOverviewResp struct {
	Exchange             string `json:"Exchange"`
	MarketCapitalization string `json:"MarketCapitalization"`
}

// Fetch pulls quote, daily history, and company overview for a stock ticker.
func (c *AlphaVantageClient) Fetch(ctx context.Context, symbol string) (*models.MarketDataSnapshot, error) {
	quote, err := c.fetchQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	history, err := c.fetchDaily(ctx, symbol)
	if err != nil {
		return nil, err
	}

	// Overview is best-effort: a missing profile leaves the cap unknown
	// rather than failing the whole snapshot.
	marketCap, isOTC, _ := c.fetchOverview(ctx, symbol)

	return &models.MarketDataSnapshot{
		Quote: models.Quote{
			Price:     quote,
			MarketCap: marketCap,
		},
		PriceHistory:  history,
		IsOTC:         isOTC,
		DataAvailable: quote > 0 && len(history) > 0,
	}, nil
}

func (c *AlphaVantageClient) fetchQuote(ctx context.Context, symbol string) (float64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	var body avQuoteResp
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL,
		QueryParams: map[string][]string{
			"function": {"GLOBAL_QUOTE"},
			"symbol":   {symbol},
			"apikey":   {c.apiKey},
		},
	}, &body)
	if err != nil {
		return 0, fmt.Errorf("alphavantage quote %s: %w", symbol, err)
	}

	price, err := strconv.ParseFloat(body.GlobalQuote.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("alphavantage quote %s: no price in response", symbol)
	}
	return price, nil
}

func (c *AlphaVantageClient) fetchDaily(ctx context.Context, symbol string) ([]models.OHLCVBar, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var body avDailyResp
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL,
		QueryParams: map[string][]string{
			"function":   {"TIME_SERIES_DAILY"},
			"symbol":     {symbol},
			"outputsize": {"compact"},
			"apikey":     {c.apiKey},
		},
	}, &body)
	if err != nil {
		return nil, fmt.Errorf("alphavantage daily %s: %w", symbol, err)
	}
	if body.Note != "" {
		return nil, fmt.Errorf("alphavantage daily %s: throttled", symbol)
	}

	bars := make([]models.OHLCVBar, 0, len(body.TimeSeries))
	for dateStr, raw := range body.TimeSeries {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}
		bar := models.OHLCVBar{Date: date}
		if bar.Open, err = strconv.ParseFloat(raw.Open, 64); err != nil {
			continue
		}
		if bar.High, err = strconv.ParseFloat(raw.High, 64); err != nil {
			continue
		}
		if bar.Low, err = strconv.ParseFloat(raw.Low, 64); err != nil {
			continue
		}
		if bar.Close, err = strconv.ParseFloat(raw.Close, 64); err != nil {
			continue
		}
		if bar.Volume, err = strconv.ParseFloat(raw.Volume, 64); err != nil {
			continue
		}
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

func (c *AlphaVantageClient) fetchOverview(ctx context.Context, symbol string) (float64, bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, false, err
	}

	var body avOverviewResp
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL,
		QueryParams: map[string][]string{
			"function": {"OVERVIEW"},
			"symbol":   {symbol},
			"apikey":   {c.apiKey},
		},
	}, &body)
	if err != nil {
		return 0, false, err
	}

	marketCap, _ := strconv.ParseFloat(body.MarketCapitalization, 64)
	isOTC := otcExchanges[strings.ToUpper(strings.TrimSpace(body.Exchange))]
	return marketCap, isOTC, nil
}
