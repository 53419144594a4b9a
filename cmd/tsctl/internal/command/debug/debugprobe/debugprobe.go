// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package debugprobe implements the "debug probe" command for inspecting raw API results.
package debugprobe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/tsctl/cmd/tsctl/internal/tsctlcmd"
	"github.com/bufdev/tsctl/internal/pkg/cliio"
	"github.com/bufdev/tsctl/internal/standard/xos"
	"github.com/bufdev/tsctl/internal/standard/xtime"
	"github.com/bufdev/tsctl/internal/tsctl/tsctlconfig"
	"github.com/bufdev/tsctl/internal/tsctl/tsctlcsv"
	"github.com/bufdev/tsctl/internal/tsctl/tsctlpipeline"
	"github.com/bufdev/tsctl/internal/tsctl/tsctlrecord"
	"github.com/bufdev/tsctl/internal/tsctl/tsctlsymbol"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
)

const (
	// accountFlagName is the flag name for the account to probe.
	accountFlagName = "account"
	// fromFlagName is the flag name for the start date.
	fromFlagName = "from"
	// kindFlagName is the flag name for the transaction kind.
	kindFlagName = "kind"
	// formatFlagName is the flag name for the output format.
	formatFlagName = "format"
)

// NewCommand returns a new debug probe command for inspecting raw API results.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name,
		Short: "Probe the TradeStation API for one account and one month",
		Long: `Probe the TradeStation API for one account and one month.

Makes a single API call for --account covering one calendar month starting
at --from (YYYYMMDD), and prints the converted rows in API order. There is
no chunking, no throttling, and no sorting, and no file is written.`,
		Args: appcmd.NoArgs,
		Run: builder.NewRunFunc(
			func(ctx context.Context, container appext.Container) error {
				return run(ctx, container, flags)
			},
		),
		BindFlags: flags.Bind,
	}
}

type flags struct {
	// Dir is the tsctl directory containing tsctl.yaml.
	Dir string
	// Account is the account to probe.
	Account string
	// From is the start date (YYYYMMDD).
	From string
	// Kind is the transaction kind (trade, cash).
	Kind string
	// Format is the output format (table, csv, json).
	Format string
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.Dir, tsctlcmd.DirFlagName, ".", "The tsctl directory containing tsctl.yaml")
	flagSet.StringVar(&f.Account, accountFlagName, "", "The account ID to probe (required)")
	flagSet.StringVar(&f.From, fromFlagName, "", "Start date (YYYYMMDD, required)")
	flagSet.StringVar(&f.Kind, kindFlagName, string(tsctlrecord.KindTrade), "Transaction kind (trade, cash)")
	flagSet.StringVar(&f.Format, formatFlagName, string(cliio.FormatTable), "Output format (table, csv, json)")
}

func run(ctx context.Context, container appext.Container, flags *flags) error {
	if flags.Account == "" || flags.From == "" {
		return appcmd.NewInvalidArgumentErrorf("--%s and --%s are both required", accountFlagName, fromFlagName)
	}
	fromDate, err := tsctlcmd.ParseDateFlag(fromFlagName, flags.From)
	if err != nil {
		return err
	}
	kind, err := tsctlrecord.ParseKind(flags.Kind)
	if err != nil {
		return appcmd.NewInvalidArgumentError(err.Error())
	}
	format, err := cliio.ParseFormat(flags.Format)
	if err != nil {
		return appcmd.NewInvalidArgumentError(err.Error())
	}
	dirPath, err := xos.ExpandHome(flags.Dir)
	if err != nil {
		return err
	}
	config, err := tsctlconfig.ReadConfig(dirPath)
	if err != nil {
		return err
	}
	token, err := tsctlcmd.Token(container)
	if err != nil {
		return err
	}
	// Make a single API call for one month. The client includes the to date.
	toDate := monthEndDate(fromDate)
	logger := container.Logger()
	client := tsctlcmd.NewClient(container, config)
	logger.Info("probing API", "account_id", flags.Account, "kind", string(kind), "from", fromDate.String(), "to", toDate.String())
	var records []*tsctlrecord.Record
	switch kind {
	case tsctlrecord.KindTrade:
		tradeRows, err := client.FetchTrades(ctx, token, flags.Account, fromDate, toDate)
		if err != nil {
			return fmt.Errorf("probe failed: %w", err)
		}
		resolver := tsctlcmd.NewResolver(config)
		for i := range tradeRows {
			record, err := tsctlpipeline.TradeRowToRecord(&tradeRows[i], resolver)
			if err != nil {
				var unknownInstrumentError *tsctlsymbol.UnknownInstrumentError
				if errors.As(err, &unknownInstrumentError) {
					// Unmapped descriptions are reported, not fatal, when probing.
					logger.Warn("unknown instrument", "description", unknownInstrumentError.Description)
					continue
				}
				return fmt.Errorf("converting trade %d: %w", i, err)
			}
			records = append(records, record)
		}
	case tsctlrecord.KindCash:
		cashRows, err := client.FetchCash(ctx, token, flags.Account, fromDate, toDate)
		if err != nil {
			return fmt.Errorf("probe failed: %w", err)
		}
		for i := range cashRows {
			record, err := tsctlpipeline.CashRowToRecord(&cashRows[i])
			if err != nil {
				return fmt.Errorf("converting cash transaction %d: %w", i, err)
			}
			records = append(records, record)
		}
	}
	logger.Info("probe complete", "records", len(records))
	columns := columnsForKind(kind)
	writer := container.Stdout()
	switch format {
	case cliio.FormatTable:
		headers := make([]string, len(columns))
		for i, column := range columns {
			headers[i] = strings.ToUpper(string(column))
		}
		rows := make([][]string, 0, len(records))
		for _, record := range records {
			rows = append(rows, tsctlcsv.Values(columns, record))
		}
		return cliio.WriteTableWithTotals(writer, headers, rows, totalsRow(columns, records))
	case cliio.FormatCSV:
		if _, err := tsctlcsv.Write(writer, columns, records); err != nil {
			return err
		}
		_, err := fmt.Fprintln(writer)
		return err
	case cliio.FormatJSON:
		return cliio.WriteJSON(writer, records...)
	default:
		return appcmd.NewInvalidArgumentErrorf("unsupported format: %s", format)
	}
}

// monthEndDate returns the last day of the calendar month starting at fromDate.
func monthEndDate(fromDate xtime.Date) xtime.Date {
	return fromDate.AddMonths(1).AddDays(-1)
}

// columnsForKind returns the display columns for a single kind.
func columnsForKind(kind tsctlrecord.Kind) []tsctlcsv.Column {
	if kind == tsctlrecord.KindCash {
		return []tsctlcsv.Column{
			tsctlcsv.ColumnAccountID,
			tsctlcsv.ColumnDate,
			tsctlcsv.ColumnDescription,
			tsctlcsv.ColumnPrice,
			tsctlcsv.ColumnCurrency,
		}
	}
	return tsctlcsv.TradeColumns
}

// totalsRow sums the quantity and fee columns, and the price column for cash.
//
// Returns nil if there are no records.
func totalsRow(columns []tsctlcsv.Column, records []*tsctlrecord.Record) []string {
	if len(records) == 0 {
		return nil
	}
	row := make([]string, len(columns))
	for i, column := range columns {
		var values []decimal.NullDecimal
		for _, record := range records {
			switch column {
			case tsctlcsv.ColumnBuy:
				values = append(values, record.Buy)
			case tsctlcsv.ColumnSell:
				values = append(values, record.Sell)
			case tsctlcsv.ColumnExchangeClearingFees:
				values = append(values, record.ExchangeClearingFee)
			case tsctlcsv.ColumnNFAFee:
				values = append(values, record.NFAFee)
			case tsctlcsv.ColumnCommissionUSD:
				values = append(values, record.CommissionFee)
			case tsctlcsv.ColumnPrice:
				if record.Kind == tsctlrecord.KindCash {
					values = append(values, decimal.NewNullDecimal(record.Price))
				}
			}
		}
		if len(values) == 0 {
			continue
		}
		total := decimal.Zero
		for _, value := range values {
			if value.Valid {
				total = total.Add(value.Decimal)
			}
		}
		row[i] = total.String()
	}
	row[0] = fmt.Sprintf("TOTAL (%d)", len(records))
	return row
}
