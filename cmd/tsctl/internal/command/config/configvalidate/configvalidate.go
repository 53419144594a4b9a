// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package configvalidate implements the "config validate" command.
package configvalidate

import (
	"context"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/tsctl/cmd/tsctl/internal/tsctlcmd"
	"github.com/bufdev/tsctl/internal/standard/xos"
	"github.com/bufdev/tsctl/internal/tsctl/tsctlconfig"
	"github.com/spf13/pflag"
)

// NewCommand returns a new config validate command that validates the configuration file.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name,
		Short: "Validate the configuration file",
		Args:  appcmd.NoArgs,
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
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.Dir, tsctlcmd.DirFlagName, ".", "The tsctl directory containing tsctl.yaml")
}

func run(_ context.Context, container appext.Container, flags *flags) error {
	dirPath, err := xos.ExpandHome(flags.Dir)
	if err != nil {
		return err
	}
	if err := tsctlconfig.ValidateConfig(dirPath); err != nil {
		return err
	}
	container.Logger().Info("configuration is valid", "dir", dirPath)
	return nil
}
