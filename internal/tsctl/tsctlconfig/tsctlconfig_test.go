// Copyright 2026 Peter Edge
//
// All rights reserved.

package tsctlconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bufdev/tsctl/internal/pkg/tradestation"
	"github.com/bufdev/tsctl/internal/tsctl/tsctlcsv"
	"github.com/bufdev/tsctl/internal/tsctl/tsctlpipeline"
	"github.com/bufdev/tsctl/internal/tsctl/tsctlrecord"
	"github.com/stretchr/testify/require"
)

func TestInitConfigThenValidate(t *testing.T) {
	t.Parallel()
	dirPath := filepath.Join(t.TempDir(), "tsctl")
	filePath, err := InitConfig(dirPath)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dirPath, "tsctl.yaml"), filePath)
	config, err := ReadConfig(dirPath)
	require.NoError(t, err)
	require.Equal(t, tradestation.DefaultEndpoint, config.Endpoint)
	require.Empty(t, config.AccountIDs)
	require.Equal(t, tsctlrecord.TradeKinds, config.Kinds)
	require.Equal(t, 2, config.ChunkMonths)
	require.Equal(t, 500*time.Millisecond, config.RequestDelay)
	require.Equal(t, tsctlpipeline.SortOrderDateDescAccountAsc, config.SortOrder)
	require.Equal(t, tsctlpipeline.UnknownInstrumentPolicyAbort, config.UnknownInstrumentPolicy)
	require.Equal(t, OutputNamingTimestamped, config.OutputNaming)
	require.False(t, config.ExclusiveChunkEnd)
	require.Equal(t, "executions", config.OutputPrefix)
	require.Equal(t, tsctlcsv.TradeColumns, config.Columns)
	require.Nil(t, config.Symbols)
	// A second init does not overwrite.
	_, err = InitConfig(dirPath)
	require.Error(t, err)
}

func TestReadConfig(t *testing.T) {
	t.Parallel()
	dirPath := t.TempDir()
	writeConfigFile(t, dirPath, `version: v1
tradestation:
  endpoint: http://localhost:8080/graphql
  account_ids: ["11111111", " 22222222 "]
download:
  transaction_kinds: [cash, trade]
  chunk_months: 3
  request_delay: 1s
  sort_order: date_asc
  unknown_instruments: skip
  exclusive_chunk_end: true
output:
  naming: fixed
  file_name: all.csv
  columns: [date, accountId, contract, price]
symbols:
  - description: " E-Mini S&P 500 Mar24 "
    symbol: ESH24
`)
	config, err := ReadConfig(dirPath)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080/graphql", config.Endpoint)
	require.Equal(t, []string{"11111111", "22222222"}, config.AccountIDs)
	require.Equal(t, tsctlrecord.AllKinds, config.Kinds)
	require.Equal(t, 3, config.ChunkMonths)
	require.Equal(t, time.Second, config.RequestDelay)
	require.Equal(t, tsctlpipeline.SortOrderDateAsc, config.SortOrder)
	require.Equal(t, tsctlpipeline.UnknownInstrumentPolicySkip, config.UnknownInstrumentPolicy)
	require.True(t, config.ExclusiveChunkEnd)
	require.Equal(t, OutputNamingFixed, config.OutputNaming)
	require.Equal(t, "all.csv", config.OutputFileName)
	require.Equal(
		t,
		[]tsctlcsv.Column{tsctlcsv.ColumnDate, tsctlcsv.ColumnAccountID, tsctlcsv.ColumnContract, tsctlcsv.ColumnPrice},
		config.Columns,
	)
	require.Equal(t, map[string]string{"E-Mini S&P 500 Mar24": "ESH24"}, config.Symbols)
}

func TestReadConfigDefaultColumnsForCash(t *testing.T) {
	t.Parallel()
	dirPath := t.TempDir()
	writeConfigFile(t, dirPath, `version: v1
download:
  transaction_kinds: [trade, cash]
`)
	config, err := ReadConfig(dirPath)
	require.NoError(t, err)
	require.Equal(t, tsctlcsv.TradeAndCashColumns, config.Columns)
	require.Equal(t, "transactions", config.OutputPrefix)
}

func TestReadConfigMissing(t *testing.T) {
	t.Parallel()
	_, err := ReadConfig(t.TempDir())
	require.ErrorContains(t, err, "tsctl config init")
}

func TestReadConfigUnknownField(t *testing.T) {
	t.Parallel()
	dirPath := t.TempDir()
	writeConfigFile(t, dirPath, `version: v1
tradestation:
  token: secret
`)
	err := ValidateConfig(dirPath)
	require.Error(t, err)
}

func TestNewConfigErrors(t *testing.T) {
	t.Parallel()
	for name, externalConfig := range map[string]ExternalConfig{
		"version": {
			Version: "v2",
		},
		"duplicate_account": {
			Version:      "v1",
			TradeStation: ExternalTradeStationConfig{AccountIDs: []string{"1", " 1"}},
		},
		"cash_only": {
			Version:  "v1",
			Download: ExternalDownloadConfig{TransactionKinds: []string{"cash"}},
		},
		"unknown_kind": {
			Version:  "v1",
			Download: ExternalDownloadConfig{TransactionKinds: []string{"trade", "dividend"}},
		},
		"zero_chunk_months": {
			Version:  "v1",
			Download: ExternalDownloadConfig{ChunkMonths: intPointer(0)},
		},
		"negative_request_delay": {
			Version:  "v1",
			Download: ExternalDownloadConfig{RequestDelay: "-1s"},
		},
		"invalid_request_delay": {
			Version:  "v1",
			Download: ExternalDownloadConfig{RequestDelay: "soon"},
		},
		"sort_order": {
			Version:  "v1",
			Download: ExternalDownloadConfig{SortOrder: "account_asc"},
		},
		"unknown_instruments": {
			Version:  "v1",
			Download: ExternalDownloadConfig{UnknownInstruments: "ignore"},
		},
		"naming": {
			Version: "v1",
			Output:  ExternalOutputConfig{Naming: "daily"},
		},
		"fixed_without_file_name": {
			Version: "v1",
			Output:  ExternalOutputConfig{Naming: "fixed"},
		},
		"fixed_with_directory": {
			Version: "v1",
			Output:  ExternalOutputConfig{Naming: "fixed", FileName: "out/all.csv"},
		},
		"unknown_column": {
			Version: "v1",
			Output:  ExternalOutputConfig{Columns: []string{"date", "settleDate"}},
		},
		"empty_description": {
			Version: "v1",
			Symbols: []ExternalSymbolConfig{{Description: " ", Symbol: "ESH24"}},
		},
		"empty_symbol": {
			Version: "v1",
			Symbols: []ExternalSymbolConfig{{Description: "E-Mini S&P 500 Mar24"}},
		},
		"duplicate_description": {
			Version: "v1",
			Symbols: []ExternalSymbolConfig{
				{Description: "E-Mini S&P 500 Mar24", Symbol: "ESH24"},
				{Description: "E-Mini S&P 500 Mar24 ", Symbol: "ES"},
			},
		},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := NewConfig(externalConfig)
			require.Error(t, err)
		})
	}
}

func TestResolveAccountIDs(t *testing.T) {
	t.Parallel()
	config, err := NewConfig(
		ExternalConfig{
			Version:      "v1",
			TradeStation: ExternalTradeStationConfig{AccountIDs: []string{"11111111"}},
		},
	)
	require.NoError(t, err)
	accountIDs, err := config.ResolveAccountIDs("")
	require.NoError(t, err)
	require.Equal(t, []string{"11111111"}, accountIDs)
	accountIDs, err = config.ResolveAccountIDs(" 22222222, 33333333 ,")
	require.NoError(t, err)
	require.Equal(t, []string{"22222222", "33333333"}, accountIDs)
	_, err = config.ResolveAccountIDs("22222222,22222222")
	require.Error(t, err)

	config, err = NewConfig(ExternalConfig{Version: "v1"})
	require.NoError(t, err)
	_, err = config.ResolveAccountIDs("")
	require.Error(t, err)
	_, err = config.ResolveAccountIDs(" , ")
	require.Error(t, err)
}

func writeConfigFile(t *testing.T, dirPath string, data string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dirPath, "tsctl.yaml"), []byte(data), 0o644))
}

func intPointer(i int) *int {
	return &i
}
