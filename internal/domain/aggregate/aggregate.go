// Package aggregate turns a loaded snapshot into display records and totals.
// Everything here is a pure function: no I/O, no clocks, no hidden state, so
// recomputing from the same snapshot always yields the same portfolio.
package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"

	"portfolio_aggregator/internal/domain/entity"
)

const (
	unknownSymbol = "UNKNOWN"
	unknownName   = "Unknown Token"

	// displayPrecision is the number of decimal places kept on totals and on
	// the percent-change fraction. A display contract, not a financial one.
	displayPrecision = 2
)

var one = decimal.NewFromInt(1)

// BuildRecords enriches every holding of one chain snapshot into a
// DisplayRecord. Missing registry entries downgrade the record to unknown
// metadata with zero decimals; missing quotes downgrade it to unpriced.
// Output order is deterministic (ascending account address) so that the
// subsequent sort is stable across invocations.
func BuildRecords(cs entity.ChainSnapshot, quotes map[string]entity.PriceQuote) []entity.DisplayRecord {
	addresses := make([]string, 0, len(cs.Holdings))
	for addr := range cs.Holdings {
		addresses = append(addresses, addr)
	}
	sort.Strings(addresses)

	records := make([]entity.DisplayRecord, 0, len(addresses))
	for _, addr := range addresses {
		holding := cs.Holdings[addr]

		meta, known := cs.Assets[holding.AssetID]
		if !known {
			meta = entity.AssetMetadata{
				AssetID:       holding.AssetID,
				Symbol:        unknownSymbol,
				Name:          unknownName,
				DecimalPlaces: 0,
			}
		}

		record := entity.DisplayRecord{
			AccountAddress: holding.AccountAddress,
			AssetID:        holding.AssetID,
			Name:           meta.Name,
			Symbol:         meta.Symbol,
			LogoURI:        meta.LogoURI,
			NativeBalance:  decimal.NewFromBigInt(holding.RawAmount, -meta.DecimalPlaces),
		}

		if quote, priced := lookupQuote(meta, quotes); priced {
			record.UsdBalance = record.NativeBalance.Mul(decimal.NewFromFloat(quote.UsdPrice))
			record.RecentUsdChange, record.UsdChangeAmount = changeFromQuote(record.UsdBalance, quote)
		} else {
			record.UsdBalance = decimal.Zero
		}

		records = append(records, record)
	}
	return records
}

// lookupQuote resolves a holding's quote through its metadata feed id, never
// through the asset id directly: two assets sharing a mint but mapped to
// different feed ids price independently.
func lookupQuote(meta entity.AssetMetadata, quotes map[string]entity.PriceQuote) (entity.PriceQuote, bool) {
	if meta.PriceFeedID == "" {
		return entity.PriceQuote{}, false
	}
	quote, ok := quotes[meta.PriceFeedID]
	return quote, ok
}

// changeFromQuote reconstructs the 24h-ago USD balance from the feed's change
// fraction and derives the record's own change fraction and absolute move.
//
//	old = current / (1 + feedChange)
//	fraction = (current - old) / old
//
// A zero current balance has a change of exactly 0. When the old balance
// reconstructs to zero from a nonzero current balance (a -100% feed value)
// the fraction is undefined and both outputs are null.
func changeFromQuote(current decimal.Decimal, quote entity.PriceQuote) (decimal.NullDecimal, decimal.NullDecimal) {
	if current.IsZero() {
		return decimal.NewNullDecimal(decimal.Zero), decimal.NewNullDecimal(decimal.Zero)
	}

	denom := one.Add(decimal.NewFromFloat(quote.Usd24hChangeFraction))
	if denom.IsZero() {
		return decimal.NullDecimal{}, decimal.NullDecimal{}
	}

	old := current.Div(denom)
	if old.IsZero() {
		return decimal.NullDecimal{}, decimal.NullDecimal{}
	}

	amount := current.Sub(old)
	return decimal.NewNullDecimal(amount.Div(old)), decimal.NewNullDecimal(amount)
}

// SortRecords orders records descending by USD balance. The sort is stable:
// ties keep the deterministic order BuildRecords produced, so re-sorting
// identical inputs is idempotent.
func SortRecords(records []entity.DisplayRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].UsdBalance.GreaterThan(records[j].UsdBalance)
	})
}

// countsTowardTotal reports whether a record participates in totals: it needs
// a nonzero USD balance and a defined change fraction. Unpriced and
// undefined-change records still appear in the sorted list but contribute
// nothing here.
func countsTowardTotal(r entity.DisplayRecord) bool {
	return !r.UsdBalance.IsZero() && r.RecentUsdChange.Valid
}

// ComputeChainTotal sums the qualifying records of one chain and derives the
// percent change against the reconstructed 24h-ago total. Totals and the
// percent fraction are rounded to two decimal places for display.
func ComputeChainTotal(chainIdentifier string, records []entity.DisplayRecord) entity.ChainTotal {
	total := decimal.Zero
	change := decimal.Zero
	for _, r := range records {
		if !countsTowardTotal(r) {
			continue
		}
		total = total.Add(r.UsdBalance)
		change = change.Add(r.UsdChangeAmount.Decimal)
	}

	return entity.ChainTotal{
		ChainIdentifier: chainIdentifier,
		TotalUsdBalance: total.Round(displayPrecision),
		TotalUsdChange:  change.Round(displayPrecision),
		PercentChange:   percentChange(total, change),
	}
}

// CombineTotals sums per-chain totals elementwise and re-derives the combined
// percent change with the same formula the per-chain totals use.
func CombineTotals(totals []entity.ChainTotal) entity.ChainTotal {
	total := decimal.Zero
	change := decimal.Zero
	for _, t := range totals {
		total = total.Add(t.TotalUsdBalance)
		change = change.Add(t.TotalUsdChange)
	}

	return entity.ChainTotal{
		TotalUsdBalance: total.Round(displayPrecision),
		TotalUsdChange:  change.Round(displayPrecision),
		PercentChange:   percentChange(total, change),
	}
}

// percentChange is change / (total - change) as a fraction, rounded to two
// decimal places. Null when the 24h-ago total is zero.
func percentChange(total, change decimal.Decimal) decimal.NullDecimal {
	old := total.Sub(change)
	if old.IsZero() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(change.Div(old).Round(displayPrecision))
}

// BuildPortfolio computes the full derived view for one wallet snapshot:
// per-chain sorted records with totals, plus the cross-chain grand total.
func BuildPortfolio(snap entity.Snapshot) entity.WalletPortfolio {
	portfolio := entity.WalletPortfolio{
		WalletAddress: snap.WalletAddress,
		LoadID:        snap.LoadID,
		Chains:        make([]entity.ChainPortfolio, 0, len(snap.Chains)),
	}

	chainTotals := make([]entity.ChainTotal, 0, len(snap.Chains))
	for _, cs := range snap.Chains {
		records := BuildRecords(cs, snap.Quotes)
		SortRecords(records)
		total := ComputeChainTotal(cs.Chain.Identifier, records)

		portfolio.Chains = append(portfolio.Chains, entity.ChainPortfolio{
			Chain:   cs.Chain,
			Records: records,
			Total:   total,
		})
		chainTotals = append(chainTotals, total)
	}

	portfolio.GrandTotal = CombineTotals(chainTotals)
	return portfolio
}
