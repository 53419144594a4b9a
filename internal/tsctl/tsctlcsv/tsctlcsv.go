// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package tsctlcsv serializes transaction records to CSV.
//
// Values are written verbatim with no quoting or escaping, so a value that
// contains a comma or newline produces a malformed row. Rows are joined by
// newlines and the output has no trailing newline.
package tsctlcsv

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bufdev/tsctl/internal/tsctl/tsctlrecord"
	"github.com/shopspring/decimal"
)

// Column is a CSV column name.
type Column string

// The supported columns. Date-valued columns render as YYYY-MM-DD.
const (
	ColumnAccountID            Column = "accountId"
	ColumnKind                 Column = "kind"
	ColumnDate                 Column = "date"
	ColumnTradeDate            Column = "tradeDate"
	ColumnContract             Column = "contract"
	ColumnDescription          Column = "description"
	ColumnBuy                  Column = "buy"
	ColumnSell                 Column = "sell"
	ColumnPrice                Column = "price"
	ColumnCurrency             Column = "currency"
	ColumnExchangeClearingFees Column = "exchangeClearingFees"
	ColumnNFAFee               Column = "nfaFee"
	ColumnCommissionUSD        Column = "commissionUSD"
)

// AllColumns is every supported column, in vocabulary order.
var AllColumns = []Column{
	ColumnAccountID,
	ColumnKind,
	ColumnDate,
	ColumnTradeDate,
	ColumnContract,
	ColumnDescription,
	ColumnBuy,
	ColumnSell,
	ColumnPrice,
	ColumnCurrency,
	ColumnExchangeClearingFees,
	ColumnNFAFee,
	ColumnCommissionUSD,
}

// TradeColumns are the default columns when only trades are exported.
var TradeColumns = []Column{
	ColumnAccountID,
	ColumnContract,
	ColumnTradeDate,
	ColumnBuy,
	ColumnSell,
	ColumnPrice,
	ColumnCurrency,
	ColumnExchangeClearingFees,
	ColumnNFAFee,
	ColumnCommissionUSD,
}

// TradeAndCashColumns are the default columns when trades and cash are exported.
var TradeAndCashColumns = []Column{
	ColumnAccountID,
	ColumnKind,
	ColumnDate,
	ColumnContract,
	ColumnDescription,
	ColumnBuy,
	ColumnSell,
	ColumnPrice,
	ColumnCurrency,
	ColumnExchangeClearingFees,
	ColumnNFAFee,
	ColumnCommissionUSD,
}

// DefaultColumns returns the default columns for the given kinds.
func DefaultColumns(kinds tsctlrecord.Kinds) []Column {
	if kinds.Contains(tsctlrecord.KindCash) {
		return slices.Clone(TradeAndCashColumns)
	}
	return slices.Clone(TradeColumns)
}

// ParseColumns parses column names, returning an error for unknown or duplicate names.
func ParseColumns(names []string) ([]Column, error) {
	if len(names) == 0 {
		return nil, errors.New("no columns specified")
	}
	columns := make([]Column, 0, len(names))
	for _, name := range names {
		column := Column(name)
		if !slices.Contains(AllColumns, column) {
			return nil, fmt.Errorf("unknown column %q", name)
		}
		if slices.Contains(columns, column) {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		columns = append(columns, column)
	}
	return columns, nil
}

// Marshal serializes the records to CSV with a header row.
func Marshal(columns []Column, records []*tsctlrecord.Record) ([]byte, error) {
	if len(columns) == 0 {
		return nil, errors.New("no columns specified")
	}
	var builder strings.Builder
	header := make([]string, len(columns))
	for i, column := range columns {
		if !slices.Contains(AllColumns, column) {
			return nil, fmt.Errorf("unknown column %q", column)
		}
		header[i] = string(column)
	}
	builder.WriteString(strings.Join(header, ","))
	for _, record := range records {
		builder.WriteString("\n")
		builder.WriteString(strings.Join(Values(columns, record), ","))
	}
	return []byte(builder.String()), nil
}

// Values returns the cell values of the record for the columns.
//
// Absent values and unknown columns are empty strings.
func Values(columns []Column, record *tsctlrecord.Record) []string {
	values := make([]string, len(columns))
	for i, column := range columns {
		values[i] = cellValue(record, column)
	}
	return values
}

// Write serializes the records to CSV and writes them to the writer.
//
// Returns the number of bytes written.
func Write(writer io.Writer, columns []Column, records []*tsctlrecord.Record) (int, error) {
	data, err := Marshal(columns, records)
	if err != nil {
		return 0, err
	}
	return writer.Write(data)
}

// WriteFile serializes the records to CSV and writes them to the file path.
//
// The data is written to a temporary file in the same directory, which is
// renamed to the file path only once fully written. On error, nothing is left
// at the file path and any existing file there is unchanged.
//
// The serialized size is logged before the file is written.
// Returns the number of bytes written.
func WriteFile(logger *slog.Logger, filePath string, columns []Column, records []*tsctlrecord.Record) (_ int, retErr error) {
	data, err := Marshal(columns, records)
	if err != nil {
		return 0, err
	}
	logger.Info("writing csv", "path", filePath, "records", len(records), "csv_size_bytes", len(data))
	file, err := os.CreateTemp(filepath.Dir(filePath), "."+filepath.Base(filePath)+".*.tmp")
	if err != nil {
		return 0, err
	}
	tempFilePath := file.Name()
	defer func() {
		if retErr != nil {
			retErr = errors.Join(retErr, os.Remove(tempFilePath))
		}
	}()
	n, err := file.Write(data)
	if err != nil {
		return 0, errors.Join(err, file.Close())
	}
	if err := file.Close(); err != nil {
		return 0, err
	}
	if err := os.Chmod(tempFilePath, 0o644); err != nil {
		return 0, err
	}
	if err := os.Rename(tempFilePath, filePath); err != nil {
		return 0, err
	}
	return n, nil
}

// *** PRIVATE ***

func cellValue(record *tsctlrecord.Record, column Column) string {
	switch column {
	case ColumnAccountID:
		return record.AccountID
	case ColumnKind:
		return string(record.Kind)
	case ColumnDate, ColumnTradeDate:
		if record.Date.IsZero() {
			return ""
		}
		return record.Date.String()
	case ColumnContract:
		return record.Symbol
	case ColumnDescription:
		return record.Description
	case ColumnBuy:
		return nullDecimalString(record.Buy)
	case ColumnSell:
		return nullDecimalString(record.Sell)
	case ColumnPrice:
		return record.Price.String()
	case ColumnCurrency:
		return record.Currency
	case ColumnExchangeClearingFees:
		return nullDecimalString(record.ExchangeClearingFee)
	case ColumnNFAFee:
		return nullDecimalString(record.NFAFee)
	case ColumnCommissionUSD:
		return nullDecimalString(record.CommissionFee)
	default:
		return ""
	}
}

func nullDecimalString(nullDecimal decimal.NullDecimal) string {
	if !nullDecimal.Valid {
		return ""
	}
	return nullDecimal.Decimal.String()
}
