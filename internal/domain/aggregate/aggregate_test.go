package aggregate

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio_aggregator/internal/domain/entity"
)

func solChain() entity.ChainDefinition {
	return entity.ChainDefinition{
		Name:       "Solana Mainnet",
		Identifier: "solana",
		Kind:       entity.ChainKindSolana,
	}
}

func snapshotWith(holdings map[string]entity.RawHolding, assets map[string]entity.AssetMetadata) entity.ChainSnapshot {
	return entity.ChainSnapshot{
		Chain:    solChain(),
		Holdings: holdings,
		Assets:   assets,
	}
}

func TestBuildRecordsEnrichment(t *testing.T) {
	cs := snapshotWith(
		map[string]entity.RawHolding{
			"acc1": {AccountAddress: "acc1", AssetID: "mintA", RawAmount: big.NewInt(1_500_000)},
		},
		map[string]entity.AssetMetadata{
			"mintA": {AssetID: "mintA", Symbol: "ABC", Name: "Alpha Coin", DecimalPlaces: 6, PriceFeedID: "alpha"},
		},
	)
	quotes := map[string]entity.PriceQuote{
		"alpha": {FeedID: "alpha", UsdPrice: 2.00, Usd24hChangeFraction: 0.10},
	}

	records := BuildRecords(cs, quotes)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, "acc1", r.AccountAddress)
	assert.Equal(t, "ABC", r.Symbol)
	assert.Equal(t, "Alpha Coin", r.Name)
	assert.True(t, r.NativeBalance.Equal(decimal.RequireFromString("1.5")), "native balance: %s", r.NativeBalance)
	assert.True(t, r.UsdBalance.Equal(decimal.RequireFromString("3")), "usd balance: %s", r.UsdBalance)

	require.True(t, r.RecentUsdChange.Valid)
	assert.InDelta(t, 0.10, r.RecentUsdChange.Decimal.InexactFloat64(), 1e-9)

	// Absolute move: 3.00 - 3.00/1.10 = ~0.2727.
	require.True(t, r.UsdChangeAmount.Valid)
	assert.InDelta(t, 3.0-3.0/1.1, r.UsdChangeAmount.Decimal.InexactFloat64(), 1e-9)
}

func TestBuildRecordsNativeBalanceReconstructsRawAmount(t *testing.T) {
	for _, decimals := range []int32{0, 1, 6, 9, 18} {
		raw := big.NewInt(987_654_321)
		cs := snapshotWith(
			map[string]entity.RawHolding{
				"acc": {AccountAddress: "acc", AssetID: "m", RawAmount: raw},
			},
			map[string]entity.AssetMetadata{
				"m": {AssetID: "m", Symbol: "M", Name: "M", DecimalPlaces: decimals},
			},
		)
		records := BuildRecords(cs, nil)
		require.Len(t, records, 1)

		scale := decimal.New(1, decimals)
		back := records[0].NativeBalance.Mul(scale)
		assert.True(t, back.Equal(decimal.NewFromBigInt(raw, 0)),
			"decimals=%d: %s does not reconstruct %s", decimals, back, raw)
	}
}

func TestBuildRecordsUnknownAssetDowngrades(t *testing.T) {
	cs := snapshotWith(
		map[string]entity.RawHolding{
			"acc": {AccountAddress: "acc", AssetID: "mystery", RawAmount: big.NewInt(42)},
		},
		map[string]entity.AssetMetadata{},
	)

	records := BuildRecords(cs, map[string]entity.PriceQuote{})
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, unknownSymbol, r.Symbol)
	assert.Equal(t, unknownName, r.Name)
	// Unknown assets default to zero decimals: raw amount is the balance.
	assert.True(t, r.NativeBalance.Equal(decimal.NewFromInt(42)))
	assert.True(t, r.UsdBalance.IsZero())
	assert.False(t, r.RecentUsdChange.Valid)
}

func TestBuildRecordsNoFeedIDIsUnpriced(t *testing.T) {
	cs := snapshotWith(
		map[string]entity.RawHolding{
			"acc": {AccountAddress: "acc", AssetID: "mintB", RawAmount: big.NewInt(1_000_000)},
		},
		map[string]entity.AssetMetadata{
			"mintB": {AssetID: "mintB", Symbol: "B", Name: "B Coin", DecimalPlaces: 6},
		},
	)
	// A quote keyed by the asset id must not be picked up: pricing goes
	// through the feed id only.
	quotes := map[string]entity.PriceQuote{
		"mintB": {FeedID: "mintB", UsdPrice: 99.0, Usd24hChangeFraction: 0.5},
	}

	records := BuildRecords(cs, quotes)
	require.Len(t, records, 1)
	assert.True(t, records[0].UsdBalance.IsZero())
	assert.False(t, records[0].RecentUsdChange.Valid)
}

func TestChangeUndefinedWhenOldBalanceIsZero(t *testing.T) {
	// A -100% feed change makes the 24h-ago balance reconstruct to zero;
	// the change fraction is undefined, not infinite.
	change, amount := changeFromQuote(decimal.NewFromInt(5), entity.PriceQuote{UsdPrice: 1, Usd24hChangeFraction: -1.0})
	assert.False(t, change.Valid)
	assert.False(t, amount.Valid)
}

func TestChangeZeroWhenCurrentBalanceIsZero(t *testing.T) {
	change, amount := changeFromQuote(decimal.Zero, entity.PriceQuote{UsdPrice: 1, Usd24hChangeFraction: 0.25})
	require.True(t, change.Valid)
	require.True(t, amount.Valid)
	assert.True(t, change.Decimal.IsZero())
	assert.True(t, amount.Decimal.IsZero())
}

func TestSortRecordsDescendingAndIdempotent(t *testing.T) {
	records := []entity.DisplayRecord{
		{AssetID: "small", UsdBalance: decimal.NewFromInt(1)},
		{AssetID: "zeroA", UsdBalance: decimal.Zero},
		{AssetID: "big", UsdBalance: decimal.NewFromInt(100)},
		{AssetID: "zeroB", UsdBalance: decimal.Zero},
	}

	SortRecords(records)
	first := make([]string, len(records))
	for i, r := range records {
		first[i] = r.AssetID
	}
	assert.Equal(t, []string{"big", "small", "zeroA", "zeroB"}, first)

	// Re-sorting already sorted records must not reorder ties.
	SortRecords(records)
	second := make([]string, len(records))
	for i, r := range records {
		second[i] = r.AssetID
	}
	assert.Equal(t, first, second)
}

func TestChainTotalCountsOnlyPricedRecords(t *testing.T) {
	records := []entity.DisplayRecord{
		{
			AssetID:         "priced",
			UsdBalance:      decimal.NewFromInt(100),
			RecentUsdChange: decimal.NewNullDecimal(decimal.RequireFromString("0.1")),
			UsdChangeAmount: decimal.NewNullDecimal(decimal.RequireFromString("9.09")),
		},
		{AssetID: "unpriced", UsdBalance: decimal.Zero},
	}
	SortRecords(records)
	assert.Equal(t, "priced", records[0].AssetID)

	total := ComputeChainTotal("solana", records)
	assert.Equal(t, "100", total.TotalUsdBalance.String())
	assert.Equal(t, "9.09", total.TotalUsdChange.String())
	require.True(t, total.PercentChange.Valid)
	assert.Equal(t, "0.1", total.PercentChange.Decimal.String())
}

func TestChainTotalExcludesUndefinedChange(t *testing.T) {
	records := []entity.DisplayRecord{
		{
			AssetID:         "degenerate",
			UsdBalance:      decimal.NewFromInt(50),
			RecentUsdChange: decimal.NullDecimal{},
			UsdChangeAmount: decimal.NullDecimal{},
		},
	}
	total := ComputeChainTotal("solana", records)
	assert.True(t, total.TotalUsdBalance.IsZero())
	assert.True(t, total.TotalUsdChange.IsZero())
	assert.False(t, total.PercentChange.Valid)
}

func TestChainTotalNoQuotesIsZeroWithoutError(t *testing.T) {
	cs := snapshotWith(
		map[string]entity.RawHolding{
			"a": {AccountAddress: "a", AssetID: "m1", RawAmount: big.NewInt(10)},
			"b": {AccountAddress: "b", AssetID: "m2", RawAmount: big.NewInt(20)},
		},
		map[string]entity.AssetMetadata{
			"m1": {AssetID: "m1", Symbol: "M1", Name: "M1", PriceFeedID: "feed-1"},
			"m2": {AssetID: "m2", Symbol: "M2", Name: "M2", PriceFeedID: "feed-2"},
		},
	)

	records := BuildRecords(cs, map[string]entity.PriceQuote{})
	total := ComputeChainTotal("solana", records)

	assert.True(t, total.TotalUsdBalance.IsZero())
	assert.True(t, total.TotalUsdChange.IsZero())
	assert.False(t, total.PercentChange.Valid)
}

func TestCombineTotals(t *testing.T) {
	totals := []entity.ChainTotal{
		{
			ChainIdentifier: "solana",
			TotalUsdBalance: decimal.RequireFromString("110"),
			TotalUsdChange:  decimal.RequireFromString("10"),
		},
		{
			ChainIdentifier: "ethereum",
			TotalUsdBalance: decimal.RequireFromString("220"),
			TotalUsdChange:  decimal.RequireFromString("20"),
		},
	}

	combined := CombineTotals(totals)
	assert.Equal(t, "330", combined.TotalUsdBalance.String())
	assert.Equal(t, "30", combined.TotalUsdChange.String())
	require.True(t, combined.PercentChange.Valid)
	// 30 / (330 - 30) = 0.10
	assert.Equal(t, "0.1", combined.PercentChange.Decimal.String())
}

func TestCombineTotalsEmptyPortfolio(t *testing.T) {
	combined := CombineTotals(nil)
	assert.True(t, combined.TotalUsdBalance.IsZero())
	assert.True(t, combined.TotalUsdChange.IsZero())
	assert.False(t, combined.PercentChange.Valid)
}

func TestPercentChangeRounding(t *testing.T) {
	// 12.345 / (112.345 - 12.345) = 0.12345 -> 0.12 as a fraction.
	total := decimal.RequireFromString("112.345")
	change := decimal.RequireFromString("12.345")
	pc := percentChange(total, change)
	require.True(t, pc.Valid)
	assert.Equal(t, "0.12", pc.Decimal.String())
}

func TestBuildPortfolioDeterministic(t *testing.T) {
	snap := entity.Snapshot{
		WalletAddress: "wallet1",
		LoadID:        "load-1",
		Chains: []entity.ChainSnapshot{
			snapshotWith(
				map[string]entity.RawHolding{
					"acc1": {AccountAddress: "acc1", AssetID: "mintA", RawAmount: big.NewInt(1_500_000)},
					"acc2": {AccountAddress: "acc2", AssetID: "mintB", RawAmount: big.NewInt(7)},
				},
				map[string]entity.AssetMetadata{
					"mintA": {AssetID: "mintA", Symbol: "A", Name: "A", DecimalPlaces: 6, PriceFeedID: "alpha"},
					"mintB": {AssetID: "mintB", Symbol: "B", Name: "B", DecimalPlaces: 0},
				},
			),
		},
		Quotes: map[string]entity.PriceQuote{
			"alpha": {FeedID: "alpha", UsdPrice: 2.00, Usd24hChangeFraction: 0.10},
		},
	}

	first := BuildPortfolio(snap)
	second := BuildPortfolio(snap)
	assert.Equal(t, first, second)

	require.Len(t, first.Chains, 1)
	require.Len(t, first.Chains[0].Records, 2)
	assert.Equal(t, "mintA", first.Chains[0].Records[0].AssetID)
	assert.Equal(t, "3", first.Chains[0].Total.TotalUsdBalance.String())
	assert.Equal(t, first.Chains[0].Total.TotalUsdBalance.String(), first.GrandTotal.TotalUsdBalance.String())
}
