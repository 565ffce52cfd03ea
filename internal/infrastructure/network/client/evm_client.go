package client

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"portfolio_aggregator/internal/domain/entity"
)

// EVMClient implements the port.HoldingFetcher interface for EVM-compatible
// chains. EVM nodes have no "all token accounts by owner" read, so the client
// probes the balanceOf of every registered asset in one JSON-RPC batch.
type EVMClient struct {
	ethClient      *ethclient.Client
	chainDef       entity.ChainDefinition
	assetIDs       []string // ERC-20 contract addresses from the registry
	rpcCallTimeout time.Duration
}

// ERC20 ABI minimal part for balanceOf
const erc20ABI = `[{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"}]`

var (
	parsedERC20ABI  abi.ABI
	parsedERC20Once sync.Once
	erc20MethodID   []byte
)

func initParsedERC20ABI() {
	parsedERC20Once.Do(func() {
		var err error
		parsedERC20ABI, err = abi.JSON(strings.NewReader(erc20ABI))
		if err != nil {
			// This is a critical error during initialization, panic is appropriate
			panic(fmt.Sprintf("failed to parse ERC20 ABI: %v", err))
		}
		balanceOfMethod, ok := parsedERC20ABI.Methods["balanceOf"]
		if !ok {
			panic("balanceOf method not found in parsed ERC20 ABI")
		}
		erc20MethodID = balanceOfMethod.ID
	})
}

// NewEVMClient creates a new EVM client for the given chain definition,
// trying the primary and fallback RPC URLs in order.
func NewEVMClient(
	chainDef entity.ChainDefinition,
	assetIDs []string,
	connectionTimeout time.Duration,
	rpcCallTimeout time.Duration,
) (*EVMClient, error) {
	initParsedERC20ABI()
	rpcURLs := append([]string{chainDef.PrimaryRPCURL}, chainDef.FallbackRPCURLs...)
	var lastErr error

	for _, rpcURL := range rpcURLs {
		ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
		ethCl, err := ethclient.DialContext(ctx, rpcURL)
		cancel()

		if err == nil {
			return &EVMClient{
				ethClient:      ethCl,
				chainDef:       chainDef,
				assetIDs:       assetIDs,
				rpcCallTimeout: rpcCallTimeout,
			}, nil
		}
		lastErr = fmt.Errorf("failed to connect to RPC %s: %w", rpcURL, err)
	}

	return nil, fmt.Errorf("all RPC connection attempts failed for chain %s: %w", chainDef.Identifier, lastErr)
}

// GetHoldings fetches the wallet's balance for every registered asset, plus
// the native balance when the chain maps it to an asset id, all in one
// JSON-RPC batch. Balances below one raw unit are excluded. Any element-level
// error fails the whole call: the fetch is all-or-nothing.
func (c *EVMClient) GetHoldings(ctx context.Context, walletAddress string) (map[string]entity.RawHolding, error) {
	wallet := common.HexToAddress(walletAddress)

	type slot struct {
		accountAddress string
		assetID        string
	}

	var batchElems []rpc.BatchElem
	var slots []slot

	if c.chainDef.NativeAssetID != "" {
		batchElems = append(batchElems, rpc.BatchElem{
			Method: "eth_getBalance",
			Args:   []interface{}{wallet, "latest"},
			Result: new(*hexutil.Big),
		})
		slots = append(slots, slot{accountAddress: walletAddress, assetID: c.chainDef.NativeAssetID})
	}

	for _, assetID := range c.assetIDs {
		paddedWallet := common.LeftPadBytes(wallet.Bytes(), 32)
		callData := append(append([]byte{}, erc20MethodID...), paddedWallet...)

		callArgs := map[string]interface{}{
			"to":   common.HexToAddress(assetID),
			"data": hexutil.Bytes(callData),
		}
		batchElems = append(batchElems, rpc.BatchElem{
			Method: "eth_call",
			Args:   []interface{}{callArgs, "latest"},
			Result: new(hexutil.Bytes),
		})
		slots = append(slots, slot{
			accountAddress: fmt.Sprintf("%s:%s", walletAddress, strings.ToLower(assetID)),
			assetID:        assetID,
		})
	}

	if len(batchElems) == 0 {
		return map[string]entity.RawHolding{}, nil
	}

	rpcCallCtx, cancel := context.WithTimeout(ctx, c.rpcCallTimeout)
	defer cancel()

	if err := c.ethClient.Client().BatchCallContext(rpcCallCtx, batchElems); err != nil {
		return nil, fmt.Errorf("RPC batch call failed: %w", err)
	}

	holdings := make(map[string]entity.RawHolding, len(batchElems))
	for i, elem := range batchElems {
		if elem.Error != nil {
			return nil, fmt.Errorf("failed to fetch balance of %s for wallet %s: %w",
				slots[i].assetID, walletAddress, elem.Error)
		}

		var amount *big.Int
		switch result := elem.Result.(type) {
		case **hexutil.Big:
			if result == nil || *result == nil {
				return nil, fmt.Errorf("failed to decode native balance for wallet %s: nil result", walletAddress)
			}
			amount = (*big.Int)(*result)
		case *hexutil.Bytes:
			if result == nil {
				return nil, fmt.Errorf("failed to decode token balance of %s: nil result", slots[i].assetID)
			}
			if len(*result) == 0 {
				amount = big.NewInt(0)
			} else {
				unpacked, err := parsedERC20ABI.Unpack("balanceOf", *result)
				if err != nil {
					return nil, fmt.Errorf("failed to unpack balanceOf result for %s: %w. Raw: %s",
						slots[i].assetID, err, hexutil.Encode(*result))
				}
				if len(unpacked) == 0 {
					return nil, fmt.Errorf("balanceOf unpack returned no data for %s", slots[i].assetID)
				}
				value, ok := unpacked[0].(*big.Int)
				if !ok {
					return nil, fmt.Errorf("failed to assert unpacked balanceOf result to *big.Int for %s. Got: %T",
						slots[i].assetID, unpacked[0])
				}
				amount = value
			}
		default:
			return nil, fmt.Errorf("unexpected batch result type %T for %s", elem.Result, slots[i].assetID)
		}

		if amount.Sign() < 1 {
			continue
		}
		holdings[slots[i].accountAddress] = entity.RawHolding{
			AccountAddress: slots[i].accountAddress,
			AssetID:        slots[i].assetID,
			RawAmount:      amount,
		}
	}

	return holdings, nil
}

// Definition returns the chain definition for this client.
func (c *EVMClient) Definition() entity.ChainDefinition {
	return c.chainDef
}
