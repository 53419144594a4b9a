// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package tsctlconfig provides configuration parsing and validation for tsctl.
//
// Configuration is stored at tsctl.yaml in the tsctl base directory.
// The API token is never stored in the file, and is read from the
// TRADESTATION_TOKEN environment variable.
package tsctlconfig

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/bufdev/tsctl/internal/pkg/throttle"
	"github.com/bufdev/tsctl/internal/pkg/tradestation"
	"github.com/bufdev/tsctl/internal/tsctl/tsctlchunk"
	"github.com/bufdev/tsctl/internal/tsctl/tsctlcsv"
	"github.com/bufdev/tsctl/internal/tsctl/tsctlpath"
	"github.com/bufdev/tsctl/internal/tsctl/tsctlpipeline"
	"github.com/bufdev/tsctl/internal/tsctl/tsctlrecord"
	"gopkg.in/yaml.v3"
)

// OutputNaming decides how export files are named.
type OutputNaming string

const (
	// OutputNamingTimestamped names exports "<prefix>.<from>.<to>.csv".
	//
	// This is the default.
	OutputNamingTimestamped OutputNaming = "timestamped"
	// OutputNamingFixed names exports with a fixed file name.
	OutputNamingFixed OutputNaming = "fixed"
)

// configTemplate is the default configuration file template with comments.
// yaml.v3 does not preserve comments, so we hardcode the template string.
const configTemplate = `# The configuration file version.
#
# Required. The only current valid version is v1.
version: v1
# TradeStation API configuration.
#
# The API token must be set via the TRADESTATION_TOKEN environment variable.
tradestation:
  # The GraphQL endpoint.
  #
  # Optional. Defaults to the live endpoint.
  # endpoint: https://api.tradestation.com/graphql/v1/live/graphql
  #
  # The accounts to export.
  #
  # Required unless the TRADESTATION_ACCOUNT_IDS environment variable is set,
  # which takes precedence as a comma-separated list.
  account_ids: []
# Download configuration.
#
# Optional. All values below are the defaults.
download:
  # The transaction kinds to export, either [trade] or [trade, cash].
  transaction_kinds: [trade]
  # The number of calendar months requested per API call.
  chunk_months: 2
  # The minimum delay between API calls.
  request_delay: 500ms
  # The row order, either date_desc_account_asc or date_asc.
  sort_order: date_desc_account_asc
  # What to do with a trade whose description is not in symbols, either abort or skip.
  unknown_instruments: abort
  # Whether each API call but the last stops the day before its chunk end.
  #
  # By default each call includes its chunk end, so rows on a day shared by
  # two chunks are exported twice.
  exclusive_chunk_end: false
# Output configuration.
#
# Optional. All values below are the defaults.
output:
  # The file naming, either timestamped (<prefix>.<from>.<to>.csv) or fixed (file_name).
  naming: timestamped
  # The file name prefix for timestamped naming.
  #
  # Defaults to executions when only trades are exported, and transactions otherwise.
  # prefix: executions
  #
  # The file name for fixed naming.
  # file_name: transactions.csv
  #
  # The CSV columns. Defaults depend on transaction_kinds.
  # Available: accountId, kind, date, tradeDate, contract, description, buy,
  # sell, price, currency, exchangeClearingFees, nfaFee, commissionUSD.
  # columns: [accountId, contract, tradeDate, buy, sell, price, currency, exchangeClearingFees, nfaFee, commissionUSD]
# Symbol mapping.
#
# Optional. If set, every trade description must map to a symbol, and the
# symbol is written to the contract column. If not set, the trimmed
# description is written as is.
# symbols:
#   - description: E-Mini S&P 500 Mar24
#     symbol: ESH24
`

// ExternalConfig is the YAML-serializable configuration file structure.
type ExternalConfig struct {
	// Version is the configuration file version (must be "v1").
	Version string `yaml:"version"`
	// TradeStation holds the API configuration.
	TradeStation ExternalTradeStationConfig `yaml:"tradestation"`
	// Download holds the download configuration.
	Download ExternalDownloadConfig `yaml:"download"`
	// Output holds the output configuration.
	Output ExternalOutputConfig `yaml:"output"`
	// Symbols is the optional description to symbol mapping.
	Symbols []ExternalSymbolConfig `yaml:"symbols"`
}

// ExternalTradeStationConfig holds TradeStation-specific configuration.
type ExternalTradeStationConfig struct {
	// Endpoint is the optional GraphQL endpoint override.
	Endpoint string `yaml:"endpoint"`
	// AccountIDs are the accounts to export.
	AccountIDs []string `yaml:"account_ids"`
}

// ExternalDownloadConfig holds download configuration.
type ExternalDownloadConfig struct {
	// TransactionKinds are the kinds to export.
	TransactionKinds []string `yaml:"transaction_kinds"`
	// ChunkMonths is the number of calendar months per API call.
	ChunkMonths *int `yaml:"chunk_months"`
	// RequestDelay is the minimum delay between API calls, as a Go duration.
	RequestDelay string `yaml:"request_delay"`
	// SortOrder is the row order.
	SortOrder string `yaml:"sort_order"`
	// UnknownInstruments is the policy for unmapped trade descriptions.
	UnknownInstruments string `yaml:"unknown_instruments"`
	// ExclusiveChunkEnd stops every API call but the last on the day before its chunk end.
	ExclusiveChunkEnd bool `yaml:"exclusive_chunk_end"`
}

// ExternalOutputConfig holds output configuration.
type ExternalOutputConfig struct {
	// Naming is the file naming mode.
	Naming string `yaml:"naming"`
	// Prefix is the file name prefix for timestamped naming.
	Prefix string `yaml:"prefix"`
	// FileName is the file name for fixed naming.
	FileName string `yaml:"file_name"`
	// Columns is the optional column override.
	Columns []string `yaml:"columns"`
}

// ExternalSymbolConfig maps a trade description to a symbol.
type ExternalSymbolConfig struct {
	// Description is the trade description as returned by the API.
	Description string `yaml:"description"`
	// Symbol is the canonical symbol.
	Symbol string `yaml:"symbol"`
}

// Config is the validated runtime configuration derived from the config file.
type Config struct {
	// Endpoint is the GraphQL endpoint.
	Endpoint string
	// AccountIDs are the accounts configured in the file. May be empty.
	AccountIDs []string
	// Kinds are the transaction kinds to export.
	Kinds tsctlrecord.Kinds
	// ChunkMonths is the number of calendar months per API call.
	ChunkMonths int
	// RequestDelay is the minimum delay between API calls.
	RequestDelay time.Duration
	// SortOrder is the row order.
	SortOrder tsctlpipeline.SortOrder
	// UnknownInstrumentPolicy is the policy for unmapped trade descriptions.
	UnknownInstrumentPolicy tsctlpipeline.UnknownInstrumentPolicy
	// ExclusiveChunkEnd stops every API call but the last on the day before its chunk end.
	ExclusiveChunkEnd bool
	// OutputNaming is the file naming mode.
	OutputNaming OutputNaming
	// OutputPrefix is the file name prefix for timestamped naming.
	OutputPrefix string
	// OutputFileName is the file name for fixed naming.
	OutputFileName string
	// Columns are the CSV columns.
	Columns []tsctlcsv.Column
	// Symbols maps trimmed trade descriptions to symbols.
	//
	// Nil if no mapping is configured, in which case descriptions are used as is.
	Symbols map[string]string
}

// NewConfig validates an ExternalConfig and returns a runtime Config.
func NewConfig(externalConfig ExternalConfig) (*Config, error) {
	if externalConfig.Version != "v1" {
		return nil, fmt.Errorf("unsupported config version %q, must be v1", externalConfig.Version)
	}
	endpoint := externalConfig.TradeStation.Endpoint
	if endpoint == "" {
		endpoint = tradestation.DefaultEndpoint
	}
	accountIDs, err := newAccountIDs(externalConfig.TradeStation.AccountIDs)
	if err != nil {
		return nil, fmt.Errorf("tradestation.account_ids: %w", err)
	}
	kinds, err := newKinds(externalConfig.Download.TransactionKinds)
	if err != nil {
		return nil, fmt.Errorf("download.transaction_kinds: %w", err)
	}
	chunkMonths := tsctlchunk.DefaultSpanMonths
	if externalConfig.Download.ChunkMonths != nil {
		chunkMonths = *externalConfig.Download.ChunkMonths
		if chunkMonths <= 0 {
			return nil, fmt.Errorf("download.chunk_months must be positive, got %d", chunkMonths)
		}
	}
	requestDelay := throttle.DefaultDelay
	if externalConfig.Download.RequestDelay != "" {
		requestDelay, err = time.ParseDuration(externalConfig.Download.RequestDelay)
		if err != nil {
			return nil, fmt.Errorf("download.request_delay: %w", err)
		}
		if requestDelay < 0 {
			return nil, fmt.Errorf("download.request_delay must not be negative, got %v", requestDelay)
		}
	}
	sortOrder, err := tsctlpipeline.ParseSortOrder(externalConfig.Download.SortOrder)
	if err != nil {
		return nil, fmt.Errorf("download.sort_order: %w", err)
	}
	unknownInstrumentPolicy, err := tsctlpipeline.ParseUnknownInstrumentPolicy(externalConfig.Download.UnknownInstruments)
	if err != nil {
		return nil, fmt.Errorf("download.unknown_instruments: %w", err)
	}
	outputNaming, err := parseOutputNaming(externalConfig.Output.Naming)
	if err != nil {
		return nil, fmt.Errorf("output.naming: %w", err)
	}
	outputPrefix := externalConfig.Output.Prefix
	if outputPrefix == "" {
		outputPrefix = tsctlpath.DefaultOutputPrefix(kinds.Contains(tsctlrecord.KindCash))
	}
	if outputNaming == OutputNamingFixed {
		if externalConfig.Output.FileName == "" {
			return nil, errors.New("output.file_name is required when output.naming is fixed")
		}
		if err := tsctlpath.ValidateOutputFileName(externalConfig.Output.FileName); err != nil {
			return nil, fmt.Errorf("output.file_name: %w", err)
		}
	}
	columns := tsctlcsv.DefaultColumns(kinds)
	if len(externalConfig.Output.Columns) > 0 {
		columns, err = tsctlcsv.ParseColumns(externalConfig.Output.Columns)
		if err != nil {
			return nil, fmt.Errorf("output.columns: %w", err)
		}
	}
	symbols, err := newSymbols(externalConfig.Symbols)
	if err != nil {
		return nil, fmt.Errorf("symbols: %w", err)
	}
	return &Config{
		Endpoint:                endpoint,
		AccountIDs:              accountIDs,
		Kinds:                   kinds,
		ChunkMonths:             chunkMonths,
		RequestDelay:            requestDelay,
		SortOrder:               sortOrder,
		UnknownInstrumentPolicy: unknownInstrumentPolicy,
		ExclusiveChunkEnd:       externalConfig.Download.ExclusiveChunkEnd,
		OutputNaming:            outputNaming,
		OutputPrefix:            outputPrefix,
		OutputFileName:          externalConfig.Output.FileName,
		Columns:                 columns,
		Symbols:                 symbols,
	}, nil
}

// ResolveAccountIDs returns the accounts to export.
//
// A non-empty envValue is a comma-separated list that takes precedence over
// the configured accounts. Returns an error if no accounts remain.
func (c *Config) ResolveAccountIDs(envValue string) ([]string, error) {
	if strings.TrimSpace(envValue) != "" {
		accountIDs, err := newAccountIDs(strings.Split(envValue, ","))
		if err != nil {
			return nil, fmt.Errorf("TRADESTATION_ACCOUNT_IDS: %w", err)
		}
		if len(accountIDs) > 0 {
			return accountIDs, nil
		}
	}
	if len(c.AccountIDs) == 0 {
		return nil, errors.New("no accounts configured, set tradestation.account_ids or TRADESTATION_ACCOUNT_IDS")
	}
	return c.AccountIDs, nil
}

// ReadConfig reads and validates the configuration file from the given base directory.
// Returns a clear error message directing users to run "tsctl config init" if the file is missing.
func ReadConfig(dirPath string) (*Config, error) {
	filePath := tsctlpath.ConfigFilePath(dirPath)
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found at %s, run \"tsctl config init\" to create one", filePath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var externalConfig ExternalConfig
	if err := unmarshalYAMLStrict(data, &externalConfig); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", filePath, err)
	}
	config, err := NewConfig(externalConfig)
	if err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", filePath, err)
	}
	return config, nil
}

// InitConfig creates a new configuration file with a documented template.
// Creates the base directory if it does not exist.
// Returns the path to the created file, or an error if the file already exists.
func InitConfig(dirPath string) (string, error) {
	filePath := tsctlpath.ConfigFilePath(dirPath)
	if _, err := os.Stat(filePath); err == nil {
		return "", fmt.Errorf("configuration file already exists: %s", filePath)
	}
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return "", fmt.Errorf("creating directory: %w", err)
	}
	if err := os.WriteFile(filePath, []byte(configTemplate), 0o644); err != nil {
		return "", err
	}
	return filePath, nil
}

// ValidateConfig reads and validates the configuration file from the given base directory.
func ValidateConfig(dirPath string) error {
	_, err := ReadConfig(dirPath)
	return err
}

// *** PRIVATE ***

func newAccountIDs(values []string) ([]string, error) {
	accountIDs := make([]string, 0, len(values))
	for _, value := range values {
		accountID := strings.TrimSpace(value)
		if accountID == "" {
			continue
		}
		if slices.Contains(accountIDs, accountID) {
			return nil, fmt.Errorf("duplicate account ID %q", accountID)
		}
		accountIDs = append(accountIDs, accountID)
	}
	return accountIDs, nil
}

func newKinds(values []string) (tsctlrecord.Kinds, error) {
	if len(values) == 0 {
		return tsctlrecord.TradeKinds, nil
	}
	kinds := make([]tsctlrecord.Kind, 0, len(values))
	for _, value := range values {
		kind, err := tsctlrecord.ParseKind(value)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}
	return tsctlrecord.NewKinds(kinds...)
}

func parseOutputNaming(s string) (OutputNaming, error) {
	switch OutputNaming(s) {
	case "", OutputNamingTimestamped:
		return OutputNamingTimestamped, nil
	case OutputNamingFixed:
		return OutputNamingFixed, nil
	default:
		return "", fmt.Errorf("unknown output naming %q, must be one of: %s, %s", s, OutputNamingTimestamped, OutputNamingFixed)
	}
}

func newSymbols(externalSymbolConfigs []ExternalSymbolConfig) (map[string]string, error) {
	if len(externalSymbolConfigs) == 0 {
		return nil, nil
	}
	symbols := make(map[string]string, len(externalSymbolConfigs))
	for _, externalSymbolConfig := range externalSymbolConfigs {
		description := strings.TrimSpace(externalSymbolConfig.Description)
		if description == "" {
			return nil, errors.New("symbol description is required")
		}
		symbol := strings.TrimSpace(externalSymbolConfig.Symbol)
		if symbol == "" {
			return nil, fmt.Errorf("symbol is required for description %q", description)
		}
		if _, ok := symbols[description]; ok {
			return nil, fmt.Errorf("duplicate symbol description %q", description)
		}
		symbols[description] = symbol
	}
	return symbols, nil
}

// unmarshalYAMLStrict unmarshals the data as YAML with strict field checking.
// If the data length is 0, this is a no-op.
func unmarshalYAMLStrict(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	yamlDecoder := yaml.NewDecoder(bytes.NewReader(data))
	// Reject unknown fields.
	yamlDecoder.KnownFields(true)
	if err := yamlDecoder.Decode(v); err != nil {
		return fmt.Errorf("could not unmarshal as YAML: %w", err)
	}
	return nil
}
