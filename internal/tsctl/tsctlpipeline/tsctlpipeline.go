// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package tsctlpipeline provides the chunked, rate-limited retrieval and merge
// pipeline that turns remote transaction rows into one ordered record set.
//
// For each account, the requested span is split into chunks. For each chunk,
// trades are fetched, and then cash transactions if requested, with every
// remote call gated by the same throttler. Rows are converted into records in
// fetch order, and after all accounts are processed the records are sorted
// with a stable sort.
//
// The pipeline is strictly sequential. No two remote calls are ever in flight.
package tsctlpipeline

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/bufdev/tsctl/internal/pkg/throttle"
	"github.com/bufdev/tsctl/internal/pkg/tradestation"
	"github.com/bufdev/tsctl/internal/standard/xtime"
	"github.com/bufdev/tsctl/internal/tsctl/tsctlchunk"
	"github.com/bufdev/tsctl/internal/tsctl/tsctlrecord"
	"github.com/bufdev/tsctl/internal/tsctl/tsctlsymbol"
)

// SortOrder is the global ordering applied to the merged records.
type SortOrder string

const (
	// SortOrderDateDescAccountAsc orders by date descending, then account ID ascending.
	//
	// This is the default.
	SortOrderDateDescAccountAsc SortOrder = "date_desc_account_asc"
	// SortOrderDateAsc orders by date ascending.
	SortOrderDateAsc SortOrder = "date_asc"
)

// ParseSortOrder parses a sort order, returning an error for unknown values.
//
// The empty string is the default sort order.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(s) {
	case "", SortOrderDateDescAccountAsc:
		return SortOrderDateDescAccountAsc, nil
	case SortOrderDateAsc:
		return SortOrderDateAsc, nil
	default:
		return "", fmt.Errorf("unknown sort order %q, must be one of: %s, %s", s, SortOrderDateDescAccountAsc, SortOrderDateAsc)
	}
}

// UnknownInstrumentPolicy decides what happens to a trade whose instrument cannot be resolved.
type UnknownInstrumentPolicy string

const (
	// UnknownInstrumentPolicyAbort fails the whole run.
	//
	// This is the default.
	UnknownInstrumentPolicyAbort UnknownInstrumentPolicy = "abort"
	// UnknownInstrumentPolicySkip drops the row and logs a warning.
	UnknownInstrumentPolicySkip UnknownInstrumentPolicy = "skip"
)

// ParseUnknownInstrumentPolicy parses a policy, returning an error for unknown values.
//
// The empty string is the default policy.
func ParseUnknownInstrumentPolicy(s string) (UnknownInstrumentPolicy, error) {
	switch UnknownInstrumentPolicy(s) {
	case "", UnknownInstrumentPolicyAbort:
		return UnknownInstrumentPolicyAbort, nil
	case UnknownInstrumentPolicySkip:
		return UnknownInstrumentPolicySkip, nil
	default:
		return "", fmt.Errorf("unknown instrument policy %q, must be one of: %s, %s", s, UnknownInstrumentPolicyAbort, UnknownInstrumentPolicySkip)
	}
}

// AccountQuery is the unit of work for one account.
type AccountQuery struct {
	// Token is the bearer credential for the account.
	Token string
	// AccountID is the account to query.
	AccountID string
	// From is the first date of the span.
	From xtime.Date
	// To is the end of the span.
	//
	// Chunks are half-open, but every remote call includes its end date as a
	// whole day, so the to date is included in the last remote call.
	To xtime.Date
}

// Pipeline fetches, converts, and merges transactions across accounts.
type Pipeline interface {
	// Run fetches the configured transaction kinds for every account query
	// and returns the merged, sorted records.
	//
	// Any error aborts the run and no records are returned.
	Run(ctx context.Context, accountQueries []AccountQuery) ([]*tsctlrecord.Record, error)
}

// PipelineOption is a functional option for configuring the Pipeline.
type PipelineOption func(*pipeline)

// PipelineWithKinds sets the transaction kinds to fetch.
//
// The default is tsctlrecord.TradeKinds.
func PipelineWithKinds(kinds tsctlrecord.Kinds) PipelineOption {
	return func(p *pipeline) {
		p.kinds = kinds
	}
}

// PipelineWithSortOrder sets the global sort order.
//
// The default is SortOrderDateDescAccountAsc.
func PipelineWithSortOrder(sortOrder SortOrder) PipelineOption {
	return func(p *pipeline) {
		p.sortOrder = sortOrder
	}
}

// PipelineWithChunkMonths sets the number of calendar months per chunk.
//
// The default is tsctlchunk.DefaultSpanMonths.
func PipelineWithChunkMonths(chunkMonths int) PipelineOption {
	return func(p *pipeline) {
		p.chunkMonths = chunkMonths
	}
}

// PipelineWithUnknownInstrumentPolicy sets the policy for unresolvable instruments.
//
// The default is UnknownInstrumentPolicyAbort.
func PipelineWithUnknownInstrumentPolicy(policy UnknownInstrumentPolicy) PipelineOption {
	return func(p *pipeline) {
		p.unknownInstrumentPolicy = policy
	}
}

// PipelineWithExclusiveChunkEnd stops every remote call but the last on the day
// before its chunk end.
//
// By default each remote call includes its chunk end, so the day shared by two
// adjacent chunks is fetched by both calls and its rows appear twice.
// With this option, no day is fetched twice.
func PipelineWithExclusiveChunkEnd(exclusiveChunkEnd bool) PipelineOption {
	return func(p *pipeline) {
		p.exclusiveChunkEnd = exclusiveChunkEnd
	}
}

// NewPipeline creates a new Pipeline.
//
// All arguments are required. The throttler gates every remote call, trade and cash alike.
func NewPipeline(
	logger *slog.Logger,
	client tradestation.Client,
	resolver tsctlsymbol.Resolver,
	throttler throttle.Throttler,
	options ...PipelineOption,
) Pipeline {
	p := &pipeline{
		logger:                  logger,
		client:                  client,
		resolver:                resolver,
		throttler:               throttler,
		kinds:                   tsctlrecord.TradeKinds,
		sortOrder:               SortOrderDateDescAccountAsc,
		chunkMonths:             tsctlchunk.DefaultSpanMonths,
		unknownInstrumentPolicy: UnknownInstrumentPolicyAbort,
	}
	for _, option := range options {
		option(p)
	}
	return p
}

// SortRecords sorts records in place by the given order.
//
// The sort is stable, so ties keep their existing order.
func SortRecords(records []*tsctlrecord.Record, sortOrder SortOrder) {
	switch sortOrder {
	case SortOrderDateAsc:
		slices.SortStableFunc(records, func(a *tsctlrecord.Record, b *tsctlrecord.Record) int {
			return a.Date.Compare(b.Date)
		})
	default:
		slices.SortStableFunc(records, func(a *tsctlrecord.Record, b *tsctlrecord.Record) int {
			if c := b.Date.Compare(a.Date); c != 0 {
				return c
			}
			return cmp.Compare(a.AccountID, b.AccountID)
		})
	}
}

// *** PRIVATE ***

type pipeline struct {
	logger                  *slog.Logger
	client                  tradestation.Client
	resolver                tsctlsymbol.Resolver
	throttler               throttle.Throttler
	kinds                   tsctlrecord.Kinds
	sortOrder               SortOrder
	chunkMonths             int
	unknownInstrumentPolicy UnknownInstrumentPolicy
	exclusiveChunkEnd       bool
}

func (p *pipeline) Run(ctx context.Context, accountQueries []AccountQuery) ([]*tsctlrecord.Record, error) {
	var records []*tsctlrecord.Record
	for _, accountQuery := range accountQueries {
		p.logger.Info(
			"loading transactions",
			"account_id", accountQuery.AccountID,
			"from", accountQuery.From.String(),
			"to", accountQuery.To.String(),
		)
		accountRecords, err := p.runAccount(ctx, accountQuery)
		if err != nil {
			return nil, err
		}
		records = append(records, accountRecords...)
	}
	SortRecords(records, p.sortOrder)
	p.logger.Info("pipeline complete", "accounts", len(accountQueries), "records", len(records))
	return records, nil
}

func (p *pipeline) runAccount(ctx context.Context, accountQuery AccountQuery) ([]*tsctlrecord.Record, error) {
	var records []*tsctlrecord.Record
	for chunk := range tsctlchunk.Chunks(accountQuery.From, accountQuery.To, p.chunkMonths) {
		chunkRecords, err := p.runChunk(ctx, accountQuery, chunk)
		if err != nil {
			return nil, fmt.Errorf("account %s chunk %s: %w", accountQuery.AccountID, chunk, err)
		}
		records = append(records, chunkRecords...)
	}
	return records, nil
}

func (p *pipeline) runChunk(ctx context.Context, accountQuery AccountQuery, chunk tsctlchunk.Range) ([]*tsctlrecord.Record, error) {
	// The client treats both dates as whole inclusive days.
	toDate := chunk.End
	if p.exclusiveChunkEnd && chunk.End.Before(accountQuery.To) {
		toDate = chunk.End.AddDays(-1)
	}
	// Step 1: Fetch and convert trades.
	if err := p.throttler.Throttle(ctx); err != nil {
		return nil, err
	}
	tradeRows, err := p.client.FetchTrades(ctx, accountQuery.Token, accountQuery.AccountID, chunk.Start, toDate)
	if err != nil {
		return nil, fmt.Errorf("fetching trades: %w", err)
	}
	records := make([]*tsctlrecord.Record, 0, len(tradeRows))
	skipped := 0
	for i := range tradeRows {
		record, err := TradeRowToRecord(&tradeRows[i], p.resolver)
		if err != nil {
			var unknownInstrumentError *tsctlsymbol.UnknownInstrumentError
			if p.unknownInstrumentPolicy == UnknownInstrumentPolicySkip && errors.As(err, &unknownInstrumentError) {
				p.logger.Warn(
					"skipping trade with unknown instrument",
					"account_id", accountQuery.AccountID,
					"description", unknownInstrumentError.Description,
					"trade_date", tradeRows[i].TradeDate,
				)
				skipped++
				continue
			}
			return nil, fmt.Errorf("converting trade %d: %w", i, err)
		}
		records = append(records, record)
	}
	// Step 2: Fetch and convert cash transactions, if requested.
	var cashRows []tradestation.CashRow
	if p.kinds.Contains(tsctlrecord.KindCash) {
		if err := p.throttler.Throttle(ctx); err != nil {
			return nil, err
		}
		cashRows, err = p.client.FetchCash(ctx, accountQuery.Token, accountQuery.AccountID, chunk.Start, toDate)
		if err != nil {
			return nil, fmt.Errorf("fetching cash transactions: %w", err)
		}
		for i := range cashRows {
			record, err := CashRowToRecord(&cashRows[i])
			if err != nil {
				return nil, fmt.Errorf("converting cash transaction %d: %w", i, err)
			}
			records = append(records, record)
		}
	}
	p.logger.Info(
		"chunk fetched",
		"account_id", accountQuery.AccountID,
		"chunk", chunk.String(),
		"trades", len(tradeRows),
		"cash", len(cashRows),
		"skipped", skipped,
	)
	return records, nil
}
