// Copyright 2026 Peter Edge
//
// All rights reserved.

package main

import (
	"context"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/tsctl/cmd/tsctl/internal/command/config"
	"github.com/bufdev/tsctl/cmd/tsctl/internal/command/debug"
	"github.com/bufdev/tsctl/cmd/tsctl/internal/command/download"
)

func main() {
	appcmd.Main(context.Background(), newRootCommand("tsctl"))
}

// newRootCommand creates the root tsctl command with all sub-commands.
func newRootCommand(name string) *appcmd.Command {
	builder := appext.NewBuilder(name)
	return &appcmd.Command{
		Use:   name,
		Short: "Export TradeStation futures transactions to CSV",
		Long: `Export TradeStation futures transactions to CSV.

The API token is read from the TRADESTATION_TOKEN environment variable.
Accounts are read from tsctl.yaml, or from the TRADESTATION_ACCOUNT_IDS
environment variable as a comma-separated list, which takes precedence.`,
		BindPersistentFlags: builder.BindRoot,
		SubCommands: []*appcmd.Command{
			config.NewCommand("config", builder),
			debug.NewCommand("debug", builder),
			download.NewCommand("download", builder),
		},
	}
}
