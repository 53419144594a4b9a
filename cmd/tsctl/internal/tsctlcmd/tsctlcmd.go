// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package tsctlcmd provides shared wiring for tsctl commands that talk to the
// TradeStation API (reading credentials, constructing clients and the pipeline).
package tsctlcmd

import (
	"errors"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/tsctl/internal/pkg/throttle"
	"github.com/bufdev/tsctl/internal/pkg/tradestation"
	"github.com/bufdev/tsctl/internal/standard/xtime"
	"github.com/bufdev/tsctl/internal/tsctl/tsctlconfig"
	"github.com/bufdev/tsctl/internal/tsctl/tsctlpipeline"
	"github.com/bufdev/tsctl/internal/tsctl/tsctlsymbol"
)

// DirFlagName is the flag name for the tsctl base directory.
const DirFlagName = "dir"

const (
	// tokenEnvVar is the environment variable name for the TradeStation API token.
	tokenEnvVar = "TRADESTATION_TOKEN"
	// accountIDsEnvVar is the environment variable name for the comma-separated account override.
	accountIDsEnvVar = "TRADESTATION_ACCOUNT_IDS"
)

// Token reads the TradeStation API token from the environment via the app container.
func Token(container appext.Container) (string, error) {
	token := container.Env(tokenEnvVar)
	if token == "" {
		return "", errors.New("TRADESTATION_TOKEN environment variable is required, set it to your TradeStation API access token")
	}
	return token, nil
}

// AccountIDs returns the accounts to export.
//
// The TRADESTATION_ACCOUNT_IDS environment variable takes precedence over the config file.
func AccountIDs(container appext.Container, config *tsctlconfig.Config) ([]string, error) {
	return config.ResolveAccountIDs(container.Env(accountIDsEnvVar))
}

// NewClient constructs a TradeStation client for the configured endpoint.
func NewClient(container appext.Container, config *tsctlconfig.Config) tradestation.Client {
	return tradestation.NewClient(container.Logger(), tradestation.ClientWithEndpoint(config.Endpoint))
}

// NewResolver returns the table resolver if symbols are configured, and the identity resolver otherwise.
func NewResolver(config *tsctlconfig.Config) tsctlsymbol.Resolver {
	if config.Symbols == nil {
		return tsctlsymbol.NewIdentityResolver()
	}
	return tsctlsymbol.NewTableResolver(config.Symbols)
}

// NewPipeline constructs a Pipeline from the app container and the config.
func NewPipeline(container appext.Container, config *tsctlconfig.Config) tsctlpipeline.Pipeline {
	return tsctlpipeline.NewPipeline(
		container.Logger(),
		NewClient(container, config),
		NewResolver(config),
		throttle.NewThrottler(config.RequestDelay),
		tsctlpipeline.PipelineWithKinds(config.Kinds),
		tsctlpipeline.PipelineWithSortOrder(config.SortOrder),
		tsctlpipeline.PipelineWithChunkMonths(config.ChunkMonths),
		tsctlpipeline.PipelineWithUnknownInstrumentPolicy(config.UnknownInstrumentPolicy),
		tsctlpipeline.PipelineWithExclusiveChunkEnd(config.ExclusiveChunkEnd),
	)
}

// ParseDateFlag parses a YYYYMMDD date flag value.
//
// Returns an invalid argument error naming the flag on failure.
func ParseDateFlag(flagName string, value string) (xtime.Date, error) {
	date, err := xtime.ParseCompactDate(value)
	if err != nil {
		return xtime.Date{}, appcmd.NewInvalidArgumentErrorf("invalid --%s date %q, expected YYYYMMDD format: %v", flagName, value, err)
	}
	return date, nil
}
