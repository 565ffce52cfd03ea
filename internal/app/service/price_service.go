package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"portfolio_aggregator/internal/app/port"
	"portfolio_aggregator/internal/domain/entity"
	"portfolio_aggregator/internal/infrastructure/configloader"
	"portfolio_aggregator/internal/infrastructure/httpclient"
	"portfolio_aggregator/internal/pkg/metrics"
	"portfolio_aggregator/internal/pkg/utils"
)

// priceServiceImpl implements port.PriceService on top of the feed client with
// a TTL quote cache. Only ids missing from the cache go upstream, batched.
type priceServiceImpl struct {
	feedClient    httpclient.PriceFeedClient
	quoteCache    *gocache.Cache
	maxIDsPerCall int
	logger        port.Logger
}

// NewPriceService creates a new instance of priceServiceImpl.
func NewPriceService(
	feedClient httpclient.PriceFeedClient,
	cfg configloader.PriceServiceConfig,
	logger port.Logger,
) port.PriceService {
	ttl := time.Duration(cfg.CacheTTLMinutes) * time.Minute
	cleanup := time.Duration(cfg.CleanupIntervalMins) * time.Minute
	maxIDs := cfg.MaxIDsPerBatchCall
	if maxIDs <= 0 {
		maxIDs = 250
	}
	return &priceServiceImpl{
		feedClient:    feedClient,
		quoteCache:    gocache.New(ttl, cleanup),
		maxIDsPerCall: maxIDs,
		logger:        logger,
	}
}

// GetQuotes returns quotes for the given feed ids, serving from the cache
// where possible. Ids are deduplicated before anything goes upstream. A feed
// id absent from the returned map has no price; a failed upstream call fails
// the whole lookup.
func (s *priceServiceImpl) GetQuotes(ctx context.Context, feedIDs []string) (map[string]entity.PriceQuote, error) {
	quotes := make(map[string]entity.PriceQuote, len(feedIDs))
	seen := make(map[string]struct{}, len(feedIDs))
	var missing []string

	for _, feedID := range feedIDs {
		if feedID == "" {
			continue
		}
		if _, dup := seen[feedID]; dup {
			continue
		}
		seen[feedID] = struct{}{}

		if cached, found := s.quoteCache.Get(feedID); found {
			quotes[feedID] = cached.(entity.PriceQuote)
			continue
		}
		missing = append(missing, feedID)
	}

	if len(missing) == 0 {
		s.logger.Debug("All quotes served from cache", "requested", len(seen))
		return quotes, nil
	}
	sort.Strings(missing)

	for _, batch := range utils.BatchStrings(missing, s.maxIDsPerCall) {
		fetched, err := s.feedClient.GetQuotes(ctx, batch)
		if err != nil {
			metrics.PriceBatchCalls.WithLabelValues(metrics.ResultError).Inc()
			s.logger.Error("Price feed batch call failed", "ids", len(batch), "error", err)
			return nil, fmt.Errorf("price feed batch call failed: %w", err)
		}
		metrics.PriceBatchCalls.WithLabelValues(metrics.ResultOK).Inc()
		for feedID, quote := range fetched {
			quotes[feedID] = quote
			s.quoteCache.Set(feedID, quote, gocache.DefaultExpiration)
		}
	}

	s.logger.Debug("Fetched quotes from price feed",
		"requested", len(seen), "fetched_upstream", len(missing), "returned", len(quotes))
	return quotes, nil
}
