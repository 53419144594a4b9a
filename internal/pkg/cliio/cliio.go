// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package cliio provides output formatting for CLI commands (table, CSV, JSON).
package cliio

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Format represents the output format for CLI commands.
type Format string

const (
	// FormatTable is the default table output format.
	FormatTable Format = "table"
	// FormatCSV is the CSV output format.
	FormatCSV Format = "csv"
	// FormatJSON is the JSON output format.
	FormatJSON Format = "json"
)

// ParseFormat parses a string into a Format, returning an error for unknown formats.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "table":
		return FormatTable, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown format %q, must be one of: table, csv, json", s)
	}
}

// WriteTable writes tabular data to the writer using tabwriter for aligned columns.
func WriteTable(writer io.Writer, headers []string, rows [][]string) error {
	return WriteTableWithTotals(writer, headers, rows, nil)
}

// WriteTableWithTotals writes a table followed by a blank line and a totals row,
// all through the same tabwriter so columns align between data and totals.
//
// If totalsRow is empty, only the table is written.
func WriteTableWithTotals(writer io.Writer, headers []string, rows [][]string, totalsRow []string) error {
	tw := tabwriter.NewWriter(writer, 0, 0, 2, ' ', 0)
	if err := writeTableRow(tw, headers); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writeTableRow(tw, row); err != nil {
			return err
		}
	}
	if len(totalsRow) > 0 {
		// Tabs on the blank line keep the column alignment.
		if err := writeTableRow(tw, make([]string, len(headers))); err != nil {
			return err
		}
		if err := writeTableRow(tw, totalsRow); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// WriteJSON writes objects as JSON with newlines between each object.
func WriteJSON[O any](writer io.Writer, objects ...O) error {
	for _, object := range objects {
		data, err := json.Marshal(object)
		if err != nil {
			return err
		}
		if _, err := writer.Write(data); err != nil {
			return err
		}
		if _, err := writer.Write([]byte("\n")); err != nil {
			return err
		}
	}
	return nil
}

// *** PRIVATE ***

func writeTableRow(writer io.Writer, row []string) error {
	_, err := fmt.Fprintln(writer, strings.Join(row, "\t"))
	return err
}
