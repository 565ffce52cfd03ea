package entity

import "math/big"

// RawHolding is one token balance record as read from a chain node.
// Immutable once fetched; keyed by AccountAddress within one fetch cycle.
type RawHolding struct {
	AccountAddress string   `json:"accountAddress"`
	AssetID        string   `json:"assetId"`
	RawAmount      *big.Int `json:"-"`
}
