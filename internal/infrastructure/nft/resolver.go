package nft

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	gocache "github.com/patrickmn/go-cache"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"portfolio_aggregator/internal/domain/entity"
	"portfolio_aggregator/internal/infrastructure/network/client"
	"portfolio_aggregator/internal/pkg/metrics"
	"portfolio_aggregator/internal/infrastructure/configloader"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// AccountReader is the batched account read the resolver needs from a chain
// client. Satisfied by *client.SolanaClient.
type AccountReader interface {
	GetMultipleAccounts(ctx context.Context, addresses []string) ([]*client.AccountInfo, error)
}

// Resolver implements the port.NftResolver interface. Resolution is strictly
// best-effort: every holding comes back as exactly one record and failures are
// reported per record, never as a call-level error.
type Resolver struct {
	accounts      AccountReader
	httpClient    *fasthttp.Client
	offchainCache *gocache.Cache
	cfg           configloader.NftResolverConfig
	logger        *zap.Logger
}

// NewResolver creates a resolver reading metadata accounts through the given
// reader and off-chain documents over HTTP.
func NewResolver(accounts AccountReader, cfg configloader.NftResolverConfig, logger *zap.Logger) *Resolver {
	ttl := time.Duration(cfg.CacheTTLMinutes) * time.Minute
	return &Resolver{
		accounts:      accounts,
		httpClient:    &fasthttp.Client{},
		offchainCache: gocache.New(ttl, 2*ttl),
		cfg:           cfg,
		logger:        logger.Named("NftResolver"),
	}
}

// ResolveAll resolves metadata for every holding on the given chain. Records
// are returned in account-address order so repeated calls over the same
// holdings produce identical output.
func (r *Resolver) ResolveAll(
	ctx context.Context,
	chain entity.ChainDefinition,
	holdings map[string]entity.RawHolding,
) ([]entity.NftRecord, error) {
	if chain.MetadataProgramID == "" {
		return nil, fmt.Errorf("chain %s has no metadata program configured", chain.Identifier)
	}
	if len(holdings) == 0 {
		return []entity.NftRecord{}, nil
	}

	accountAddresses := make([]string, 0, len(holdings))
	for accountAddress := range holdings {
		accountAddresses = append(accountAddresses, accountAddress)
	}
	sort.Strings(accountAddresses)

	records := make([]entity.NftRecord, len(accountAddresses))
	var metadataAddresses []string
	var pending []int // record indexes awaiting an account read

	for i, accountAddress := range accountAddresses {
		holding := holdings[accountAddress]
		records[i] = entity.NftRecord{
			ChainIdentifier: chain.Identifier,
			AccountAddress:  accountAddress,
			Mint:            holding.AssetID,
		}

		metadataAddress, err := FindMetadataAddress(chain.MetadataProgramID, holding.AssetID)
		if err != nil {
			r.logger.Warn("Failed to derive metadata address",
				zap.String("mint", holding.AssetID), zap.Error(err))
			records[i].Status = entity.NftFetchFailed
			continue
		}
		metadataAddresses = append(metadataAddresses, metadataAddress)
		pending = append(pending, i)
	}

	accounts, err := r.accounts.GetMultipleAccounts(ctx, metadataAddresses)
	if err != nil || len(accounts) != len(pending) {
		r.logger.Warn("Failed to read metadata accounts",
			zap.String("chain", chain.Identifier), zap.Int("count", len(pending)), zap.Error(err))
		for _, idx := range pending {
			records[idx].Status = entity.NftFetchFailed
		}
		return records, nil
	}

	for j, idx := range pending {
		account := accounts[j]
		if account == nil {
			records[idx].Status = entity.NftNoMetadata
			continue
		}

		onChain, err := DecodeMetadata(records[idx].Mint, metadataAddresses[j], account.Data)
		if err != nil {
			r.logger.Warn("Failed to decode metadata account",
				zap.String("address", metadataAddresses[j]), zap.Error(err))
			records[idx].Status = entity.NftFetchFailed
			continue
		}
		records[idx].Status = entity.NftResolved
		records[idx].OnChain = onChain
	}

	r.fetchOffchainDocuments(records)
	for i := range records {
		metrics.NftResolutions.WithLabelValues(string(records[i].Status)).Inc()
	}
	return records, nil
}

// fetchOffchainDocuments fetches the off-chain JSON document for every
// resolved record carrying a URI. A failed fetch downgrades the record to
// fetch_failed but keeps its on-chain metadata.
func (r *Resolver) fetchOffchainDocuments(records []entity.NftRecord) {
	semaphore := make(chan struct{}, r.cfg.MaxConcurrentFetches)
	var wg sync.WaitGroup

	for i := range records {
		if records[i].Status != entity.NftResolved || records[i].OnChain == nil || records[i].OnChain.URI == "" {
			continue
		}

		wg.Add(1)
		semaphore <- struct{}{}
		go func(record *entity.NftRecord) {
			defer wg.Done()
			defer func() { <-semaphore }()

			offChain, err := r.fetchOffchainDocument(record.OnChain.URI)
			if err != nil {
				r.logger.Warn("Failed to fetch off-chain metadata",
					zap.String("mint", record.Mint), zap.String("uri", record.OnChain.URI), zap.Error(err))
				record.Status = entity.NftFetchFailed
				return
			}
			record.OffChain = offChain
		}(&records[i])
	}

	wg.Wait()
}

func (r *Resolver) fetchOffchainDocument(uri string) (*entity.OffChainNftMetadata, error) {
	if cached, found := r.offchainCache.Get(uri); found {
		document := cached.(entity.OffChainNftMetadata)
		return &document, nil
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(uri)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	timeout := time.Duration(r.cfg.OffchainTimeoutMillis) * time.Millisecond
	if err := r.httpClient.DoTimeout(req, resp, timeout); err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", uri, err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("host at %s responded with status %d", uri, resp.StatusCode())
	}

	var document entity.OffChainNftMetadata
	if err := json.Unmarshal(resp.Body(), &document); err != nil {
		return nil, fmt.Errorf("failed to decode off-chain document from %s: %w", uri, err)
	}

	r.offchainCache.Set(uri, document, gocache.DefaultExpiration)
	return &document, nil
}
