package client

import (
	"context"
	"encoding/base64"
	"fmt"
	"math/big"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"portfolio_aggregator/internal/domain/entity"
	"portfolio_aggregator/internal/pkg/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// AccountInfo is one entry of a getMultipleAccounts response. A nil entry in
// the result slice means the account does not exist.
type AccountInfo struct {
	Owner string
	Data  []byte
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result jsoniter.RawMessage `json:"result"`
	Error  *rpcErrorBody       `json:"error"`
}

type tokenAccountsResult struct {
	Value []struct {
		Pubkey  string `json:"pubkey"`
		Account struct {
			Data struct {
				Parsed struct {
					Info struct {
						Mint        string `json:"mint"`
						TokenAmount struct {
							Amount   string `json:"amount"`
							Decimals int32  `json:"decimals"`
						} `json:"tokenAmount"`
					} `json:"info"`
				} `json:"parsed"`
			} `json:"data"`
		} `json:"account"`
	} `json:"value"`
}

type lamportBalanceResult struct {
	Value uint64 `json:"value"`
}

type multipleAccountsResult struct {
	Value []*struct {
		Owner string   `json:"owner"`
		Data  []string `json:"data"` // [payload, encoding]
	} `json:"value"`
}

// SolanaClient implements port.HoldingFetcher against a Solana-style JSON-RPC
// node. It also exposes the batched account reads the NFT resolver needs.
type SolanaClient struct {
	httpClient          *fasthttp.Client
	endpoints           []string
	chainDef            entity.ChainDefinition
	limiter             *rate.Limiter
	callTimeout         time.Duration
	maxAccountsPerBatch int
	logger              *zap.Logger
}

// NewSolanaClient creates a new Solana JSON-RPC client for the given chain
// definition. Fallback RPC URLs are tried in order on transport failures.
func NewSolanaClient(
	chainDef entity.ChainDefinition,
	callTimeout time.Duration,
	rateLimit, burstLimit, maxAccountsPerBatch int,
	logger *zap.Logger,
) *SolanaClient {
	return &SolanaClient{
		httpClient:          &fasthttp.Client{},
		endpoints:           append([]string{chainDef.PrimaryRPCURL}, chainDef.FallbackRPCURLs...),
		chainDef:            chainDef,
		limiter:             rate.NewLimiter(rate.Limit(rateLimit), burstLimit),
		callTimeout:         callTimeout,
		maxAccountsPerBatch: maxAccountsPerBatch,
		logger:              logger.Named("SolanaClient").With(zap.String("chain", chainDef.Identifier)),
	}
}

// GetHoldings fetches all token accounts owned by the wallet, plus the native
// balance when the chain maps it to an asset id. Accounts holding less than
// one raw unit are excluded. The call is all-or-nothing.
func (c *SolanaClient) GetHoldings(ctx context.Context, walletAddress string) (map[string]entity.RawHolding, error) {
	raw, err := c.call(ctx, "getTokenAccountsByOwner", []interface{}{
		walletAddress,
		map[string]string{"programId": c.chainDef.TokenProgramID},
		map[string]string{"encoding": "jsonParsed", "commitment": "confirmed"},
	})
	if err != nil {
		return nil, fmt.Errorf("getTokenAccountsByOwner failed for %s: %w", walletAddress, err)
	}

	var result tokenAccountsResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to decode token accounts for %s: %w", walletAddress, err)
	}

	holdings := make(map[string]entity.RawHolding, len(result.Value))
	for _, item := range result.Value {
		info := item.Account.Data.Parsed.Info
		amount, ok := new(big.Int).SetString(info.TokenAmount.Amount, 10)
		if !ok {
			return nil, fmt.Errorf("malformed token amount %q for account %s", info.TokenAmount.Amount, item.Pubkey)
		}
		if amount.Sign() < 1 {
			c.logger.Debug("Skipping empty token account", zap.String("account", item.Pubkey), zap.String("mint", info.Mint))
			continue
		}
		holdings[item.Pubkey] = entity.RawHolding{
			AccountAddress: item.Pubkey,
			AssetID:        info.Mint,
			RawAmount:      amount,
		}
	}

	if c.chainDef.NativeAssetID != "" {
		lamports, err := c.getNativeBalance(ctx, walletAddress)
		if err != nil {
			return nil, err
		}
		if lamports >= 1 {
			holdings[walletAddress] = entity.RawHolding{
				AccountAddress: walletAddress,
				AssetID:        c.chainDef.NativeAssetID,
				RawAmount:      new(big.Int).SetUint64(lamports),
			}
		}
	}

	c.logger.Debug("Fetched holdings", zap.String("wallet", walletAddress), zap.Int("count", len(holdings)))
	return holdings, nil
}

func (c *SolanaClient) getNativeBalance(ctx context.Context, walletAddress string) (uint64, error) {
	raw, err := c.call(ctx, "getBalance", []interface{}{walletAddress})
	if err != nil {
		return 0, fmt.Errorf("getBalance failed for %s: %w", walletAddress, err)
	}
	var result lamportBalanceResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return 0, fmt.Errorf("failed to decode native balance for %s: %w", walletAddress, err)
	}
	return result.Value, nil
}

// GetMultipleAccounts reads the given accounts in batches. The result keeps
// input order; a nil entry means the account does not exist on chain.
func (c *SolanaClient) GetMultipleAccounts(ctx context.Context, addresses []string) ([]*AccountInfo, error) {
	accounts := make([]*AccountInfo, 0, len(addresses))

	for _, batch := range utils.BatchStrings(addresses, c.maxAccountsPerBatch) {
		raw, err := c.call(ctx, "getMultipleAccounts", []interface{}{
			batch,
			map[string]string{"encoding": "base64"},
		})
		if err != nil {
			return nil, fmt.Errorf("getMultipleAccounts failed: %w", err)
		}

		var result multipleAccountsResult
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, fmt.Errorf("failed to decode multiple accounts response: %w", err)
		}
		if len(result.Value) != len(batch) {
			return nil, fmt.Errorf("getMultipleAccounts returned %d entries for %d addresses", len(result.Value), len(batch))
		}

		for i, entry := range result.Value {
			if entry == nil {
				accounts = append(accounts, nil)
				continue
			}
			if len(entry.Data) < 1 {
				return nil, fmt.Errorf("account %s has no data payload", batch[i])
			}
			data, err := base64.StdEncoding.DecodeString(entry.Data[0])
			if err != nil {
				return nil, fmt.Errorf("failed to decode data of account %s: %w", batch[i], err)
			}
			accounts = append(accounts, &AccountInfo{Owner: entry.Owner, Data: data})
		}
	}

	return accounts, nil
}

// Definition returns the chain definition for this client.
func (c *SolanaClient) Definition() entity.ChainDefinition {
	return c.chainDef
}

// call executes one JSON-RPC request, trying each configured endpoint in
// order on transport failures. An RPC-level error is final and is not retried
// against fallbacks.
func (c *SolanaClient) call(ctx context.Context, method string, params []interface{}) (jsoniter.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait aborted: %w", err)
	}

	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", method, err)
	}

	var lastErr error
	for _, endpoint := range c.endpoints {
		raw, err := c.post(ctx, endpoint, body)
		if err != nil {
			c.logger.Warn("RPC endpoint failed, trying next",
				zap.String("endpoint", endpoint), zap.String("method", method), zap.Error(err))
			lastErr = err
			continue
		}

		var response rpcResponse
		if err := json.Unmarshal(raw, &response); err != nil {
			return nil, fmt.Errorf("failed to decode %s response: %w", method, err)
		}
		if response.Error != nil {
			return nil, fmt.Errorf("%s returned RPC error %d: %s", method, response.Error.Code, response.Error.Message)
		}
		return response.Result, nil
	}

	return nil, fmt.Errorf("all RPC endpoints failed for %s: %w", method, lastErr)
}

func (c *SolanaClient) post(ctx context.Context, endpoint string, body []byte) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(endpoint)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.httpClient.DoDeadline(req, resp, deadline); err != nil {
			return nil, fmt.Errorf("request to %s failed: %w", endpoint, err)
		}
	} else {
		if err := c.httpClient.DoTimeout(req, resp, c.callTimeout); err != nil {
			return nil, fmt.Errorf("request to %s failed: %w", endpoint, err)
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("node at %s responded with status %d: %s", endpoint, resp.StatusCode(), resp.Body())
	}

	// The response body is reused by fasthttp once released; copy it out.
	out := make([]byte, len(resp.Body()))
	copy(out, resp.Body())
	return out, nil
}
