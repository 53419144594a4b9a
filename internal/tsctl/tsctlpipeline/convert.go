// Copyright 2026 Peter Edge
//
// All rights reserved.

package tsctlpipeline

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bufdev/tsctl/internal/pkg/tradestation"
	"github.com/bufdev/tsctl/internal/standard/xtime"
	"github.com/bufdev/tsctl/internal/tsctl/tsctlrecord"
	"github.com/bufdev/tsctl/internal/tsctl/tsctlsymbol"
	"github.com/shopspring/decimal"
)

// remoteDateLayouts are the date layouts accepted from the API, in order.
//
// Layouts without a zone are parsed as UTC.
var remoteDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// TradeRowToRecord converts a raw trade row into a trade record.
//
// The contract description is trimmed and resolved to a symbol. Returns
// *tsctlsymbol.UnknownInstrumentError if the resolver does not know the description.
func TradeRowToRecord(tradeRow *tradestation.TradeRow, resolver tsctlsymbol.Resolver) (*tsctlrecord.Record, error) {
	if tradeRow.AccountID == "" {
		return nil, errors.New("trade has no account ID")
	}
	date, err := ParseRemoteDate(tradeRow.TradeDate)
	if err != nil {
		return nil, fmt.Errorf("parsing trade date: %w", err)
	}
	if !tradeRow.Price.Valid {
		return nil, fmt.Errorf("trade on %s has no price", date)
	}
	description := strings.TrimSpace(tradeRow.Contract)
	symbol, err := resolver.Resolve(description)
	if err != nil {
		return nil, err
	}
	return &tsctlrecord.Record{
		AccountID:           tradeRow.AccountID,
		Date:                date,
		Kind:                tsctlrecord.KindTrade,
		Description:         description,
		Symbol:              symbol,
		Buy:                 tradeRow.Buy,
		Sell:                tradeRow.Sell,
		Price:               tradeRow.Price.Decimal,
		Currency:            strings.TrimSpace(tradeRow.Currency),
		ExchangeClearingFee: tradeRow.ExchangeClearingFees,
		NFAFee:              tradeRow.NFAFee,
		CommissionFee:       tradeRow.CommissionUSD,
	}, nil
}

// CashRowToRecord converts a raw cash row into a cash record.
//
// The price is the credit minus the debit, with an absent side counting as zero.
// Cash records carry no symbol, quantity, or fee fields.
func CashRowToRecord(cashRow *tradestation.CashRow) (*tsctlrecord.Record, error) {
	if cashRow.AccountID == "" {
		return nil, errors.New("cash transaction has no account ID")
	}
	date, err := ParseRemoteDate(cashRow.PostingDate)
	if err != nil {
		return nil, fmt.Errorf("parsing posting date: %w", err)
	}
	return &tsctlrecord.Record{
		AccountID:   cashRow.AccountID,
		Date:        date,
		Kind:        tsctlrecord.KindCash,
		Description: strings.TrimSpace(cashRow.Description),
		Price:       nullDecimalOrZero(cashRow.Credit).Sub(nullDecimalOrZero(cashRow.Debit)),
		Currency:    strings.TrimSpace(cashRow.Currency),
	}, nil
}

// ParseRemoteDate parses a date or timestamp from the API into a UTC calendar day.
//
// Accepted forms are RFC 3339 timestamps, zone-less "YYYY-MM-DDTHH:MM:SS"
// timestamps, and "YYYY-MM-DD" dates. Zoned timestamps are converted to UTC
// before the day is taken.
func ParseRemoteDate(s string) (xtime.Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range remoteDateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return xtime.TimeToDate(t.UTC()), nil
		}
	}
	return xtime.Date{}, fmt.Errorf("invalid date %q", s)
}

// *** PRIVATE ***

func nullDecimalOrZero(nullDecimal decimal.NullDecimal) decimal.Decimal {
	if !nullDecimal.Valid {
		return decimal.Zero
	}
	return nullDecimal.Decimal
}
