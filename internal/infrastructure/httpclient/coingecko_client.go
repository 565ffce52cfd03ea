package httpclient

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"portfolio_aggregator/internal/domain/entity"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// PriceFeedClient defines the interface for the external market-data API.
// One call covers the whole id set; a missing id in the result means no price
// is available for it.
type PriceFeedClient interface {
	GetQuotes(ctx context.Context, feedIDs []string) (map[string]entity.PriceQuote, error)
}

// simplePriceRow mirrors one row of the /simple/price response. The 24h
// change arrives as a percentage number (+5% is 5.0).
type simplePriceRow struct {
	Usd           float64 `json:"usd"`
	UsdMarketCap  float64 `json:"usd_market_cap"`
	Usd24hVol     float64 `json:"usd_24h_vol"`
	Usd24hChange  float64 `json:"usd_24h_change"`
	LastUpdatedAt int64   `json:"last_updated_at"`
}

// coinGeckoClientImpl is the implementation of PriceFeedClient.
type coinGeckoClientImpl struct {
	client     *fasthttp.Client
	baseURL    string
	apiKey     string
	vsCurrency string
	timeout    time.Duration
	logger     *zap.Logger
}

// NewCoinGeckoClient creates a new instance of coinGeckoClientImpl.
func NewCoinGeckoClient(baseURL, apiKey, vsCurrency string, timeout time.Duration, logger *zap.Logger) PriceFeedClient {
	return &coinGeckoClientImpl{
		client:     &fasthttp.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		vsCurrency: vsCurrency,
		timeout:    timeout,
		logger:     logger.Named("CoinGeckoClient"),
	}
}

// GetQuotes implements the PriceFeedClient interface with a single batched
// /simple/price request for the given feed ids.
func (c *coinGeckoClientImpl) GetQuotes(ctx context.Context, feedIDs []string) (map[string]entity.PriceQuote, error) {
	if len(feedIDs) == 0 {
		return map[string]entity.PriceQuote{}, nil
	}

	// Sorted ids keep the outbound URL deterministic for identical id sets.
	ids := make([]string, len(feedIDs))
	copy(ids, feedIDs)
	sort.Strings(ids)

	query := url.Values{}
	query.Set("ids", strings.Join(ids, ","))
	query.Set("vs_currencies", c.vsCurrency)
	query.Set("include_market_cap", "true")
	query.Set("include_24hr_vol", "true")
	query.Set("include_24hr_change", "true")
	query.Set("include_last_updated_at", "true")
	requestURL := fmt.Sprintf("%s/simple/price?%s", c.baseURL, query.Encode())

	c.logger.Debug("Requesting quotes from price feed", zap.String("url", requestURL), zap.Int("idCount", len(ids)))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-pro-api-key", c.apiKey)
	}

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			c.logger.Error("Failed to execute request to price feed", zap.String("url", requestURL), zap.Error(err))
			return nil, fmt.Errorf("failed to execute request to %s: %w", requestURL, err)
		}
	} else {
		if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
			c.logger.Error("Failed to execute request to price feed (with default timeout)", zap.String("url", requestURL), zap.Error(err))
			return nil, fmt.Errorf("failed to execute request to %s with default timeout: %w", requestURL, err)
		}
	}

	rawBody := resp.Body()
	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Error("Price feed API request failed",
			zap.String("url", requestURL),
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", rawBody),
		)
		return nil, fmt.Errorf("price feed request to %s failed with status %d: %s", requestURL, resp.StatusCode(), string(rawBody))
	}

	var rows map[string]simplePriceRow
	if err := json.Unmarshal(rawBody, &rows); err != nil {
		c.logger.Error("Failed to unmarshal price feed response",
			zap.String("url", requestURL),
			zap.ByteString("responseBody", rawBody),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to unmarshal price feed response from %s: %w", requestURL, err)
	}

	quotes := make(map[string]entity.PriceQuote, len(rows))
	for id, row := range rows {
		quotes[id] = entity.PriceQuote{
			FeedID:               id,
			UsdPrice:             row.Usd,
			Usd24hChangeFraction: row.Usd24hChange / 100,
			UsdMarketCap:         row.UsdMarketCap,
			Usd24hVolume:         row.Usd24hVol,
			LastUpdatedAt:        row.LastUpdatedAt,
		}
	}

	if len(quotes) < len(ids) {
		c.logger.Debug("Price feed returned fewer quotes than requested ids",
			zap.Int("requested", len(ids)), zap.Int("returned", len(quotes)))
	}

	c.logger.Debug("Successfully unmarshalled price feed response", zap.Int("quoteCount", len(quotes)))
	return quotes, nil
}
