// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package tsctlrecord defines the unified transaction record that trade
// executions and cash movements are normalized into.
package tsctlrecord

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bufdev/tsctl/internal/standard/xtime"
	"github.com/shopspring/decimal"
)

// Kind discriminates which optional fields of a Record are meaningful.
type Kind string

const (
	// KindTrade is a buy/sell execution with associated fees.
	KindTrade Kind = "trade"
	// KindCash is a non-trade ledger movement with no fee or contract fields.
	KindCash Kind = "cash"
)

// ParseKind parses a string into a Kind, returning an error for unknown kinds.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "trade":
		return KindTrade, nil
	case "cash":
		return KindCash, nil
	default:
		return "", fmt.Errorf("unknown transaction kind %q, must be one of: trade, cash", s)
	}
}

// Kinds is a set of transaction kinds to fetch.
//
// Valid sets are {trade} and {trade, cash}.
type Kinds []Kind

// TradeKinds fetches trades only.
var TradeKinds = Kinds{KindTrade}

// AllKinds fetches trades and cash transactions.
var AllKinds = Kinds{KindTrade, KindCash}

// NewKinds validates and deduplicates the given kinds.
func NewKinds(kinds ...Kind) (Kinds, error) {
	var result Kinds
	for _, kind := range kinds {
		if kind != KindTrade && kind != KindCash {
			return nil, fmt.Errorf("unknown transaction kind %q", kind)
		}
		if !result.Contains(kind) {
			result = append(result, kind)
		}
	}
	if !result.Contains(KindTrade) {
		return nil, fmt.Errorf("transaction kinds must include %q", KindTrade)
	}
	// Trades are always fetched before cash within a chunk.
	slices.SortFunc(result, func(a Kind, b Kind) int {
		return kindRank(a) - kindRank(b)
	})
	return result, nil
}

// Contains reports whether the set contains the kind.
func (k Kinds) Contains(kind Kind) bool {
	return slices.Contains(k, kind)
}

// Record is a single normalized transaction.
//
// Records are created by the pipeline and not modified afterwards.
// The JSON field names match the CSV column names.
type Record struct {
	// AccountID is the source account identifier.
	AccountID string `json:"accountId"`
	// Date is the trade date or cash posting date, as a UTC calendar day.
	Date xtime.Date `json:"date"`
	// Kind is the record kind.
	Kind Kind `json:"kind"`
	// Description is the trimmed instrument description or cash memo.
	Description string `json:"description"`
	// Symbol is the canonical symbol of a trade. Empty for cash.
	Symbol string `json:"contract"`
	// Buy is the number of contracts bought. Trade only.
	Buy decimal.NullDecimal `json:"buy"`
	// Sell is the number of contracts sold. Trade only.
	Sell decimal.NullDecimal `json:"sell"`
	// Price is the trade price, or the signed cash amount (credit minus debit).
	Price decimal.Decimal `json:"price"`
	// Currency is the currency code, empty if absent.
	Currency string `json:"currency"`
	// ExchangeClearingFee is the exchange and clearing fee. Trade only.
	ExchangeClearingFee decimal.NullDecimal `json:"exchangeClearingFees"`
	// NFAFee is the National Futures Association fee. Trade only.
	NFAFee decimal.NullDecimal `json:"nfaFee"`
	// CommissionFee is the commission in USD. Trade only.
	CommissionFee decimal.NullDecimal `json:"commissionUSD"`
}

// *** PRIVATE ***

func kindRank(kind Kind) int {
	if kind == KindTrade {
		return 0
	}
	return 1
}
