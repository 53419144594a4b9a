// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package download implements the "download" command.
package download

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/tsctl/cmd/tsctl/internal/tsctlcmd"
	"github.com/bufdev/tsctl/internal/standard/xos"
	"github.com/bufdev/tsctl/internal/standard/xtime"
	"github.com/bufdev/tsctl/internal/tsctl/tsctlconfig"
	"github.com/bufdev/tsctl/internal/tsctl/tsctlcsv"
	"github.com/bufdev/tsctl/internal/tsctl/tsctlpath"
	"github.com/bufdev/tsctl/internal/tsctl/tsctlpipeline"
	"github.com/spf13/pflag"
)

const (
	// fromFlagName is the flag name for the start date.
	fromFlagName = "from"
	// toFlagName is the flag name for the end date.
	toFlagName = "to"
	// outputDirFlagName is the flag name for the output directory.
	outputDirFlagName = "output-dir"
)

// NewCommand returns a new download command that exports transactions to CSV.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name,
		Short: "Download transactions for all configured accounts and write them to CSV",
		Long: `Download transactions for all configured accounts and write them to CSV.

The range from --from to --to is split into chunks of download.chunk_months
calendar months, and one API call is made per chunk and transaction kind,
with download.request_delay between calls. The merged rows are sorted and
written to a single CSV file in --output-dir, and the file path is printed.

No file is written if any call fails or a trade description cannot be mapped
to a symbol.`,
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
	// From is the start date (YYYYMMDD).
	From string
	// To is the end date (YYYYMMDD).
	To string
	// OutputDir is the directory to write the CSV file to.
	OutputDir string
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.Dir, tsctlcmd.DirFlagName, ".", "The tsctl directory containing tsctl.yaml")
	flagSet.StringVar(
		&f.From,
		fromFlagName,
		"",
		"Start date (YYYYMMDD, required)",
	)
	flagSet.StringVar(
		&f.To,
		toFlagName,
		"",
		"End date (YYYYMMDD, defaults to today in UTC)",
	)
	flagSet.StringVar(
		&f.OutputDir,
		outputDirFlagName,
		"",
		"The directory to write the CSV file to (defaults to the tsctl directory)",
	)
}

func run(ctx context.Context, container appext.Container, flags *flags) error {
	// Step 1: Parse and validate the date range.
	if flags.From == "" {
		return appcmd.NewInvalidArgumentErrorf("--%s is required", fromFlagName)
	}
	fromDate, err := tsctlcmd.ParseDateFlag(fromFlagName, flags.From)
	if err != nil {
		return err
	}
	toDate := xtime.TimeToDate(time.Now().UTC())
	if flags.To != "" {
		toDate, err = tsctlcmd.ParseDateFlag(toFlagName, flags.To)
		if err != nil {
			return err
		}
	}
	if !fromDate.Before(toDate) {
		return appcmd.NewInvalidArgumentErrorf("--%s %s must be before --%s %s", fromFlagName, fromDate, toFlagName, toDate)
	}

	// Step 2: Read the config and credentials.
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
	accountIDs, err := tsctlcmd.AccountIDs(container, config)
	if err != nil {
		return err
	}
	fileName := config.OutputFileName
	if config.OutputNaming == tsctlconfig.OutputNamingTimestamped {
		fileName = tsctlpath.TimestampedOutputFileName(config.OutputPrefix, fromDate, toDate)
	}

	// Step 3: Run the pipeline. Nothing is written unless every account succeeds.
	accountQueries := make([]tsctlpipeline.AccountQuery, 0, len(accountIDs))
	for _, accountID := range accountIDs {
		accountQueries = append(
			accountQueries,
			tsctlpipeline.AccountQuery{
				Token:     token,
				AccountID: accountID,
				From:      fromDate,
				To:        toDate,
			},
		)
	}
	outputDirPath := dirPath
	if flags.OutputDir != "" {
		outputDirPath = flags.OutputDir
	}
	filePath, err := export(
		ctx,
		container.Logger(),
		tsctlcmd.NewPipeline(container, config),
		accountQueries,
		config.Columns,
		outputDirPath,
		fileName,
	)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(container.Stdout(), "%s\n", filePath)
	return err
}

// export runs the pipeline and writes the records to fileName in outputDirPath.
//
// Nothing is written if the pipeline fails. Returns the path of the written file.
func export(
	ctx context.Context,
	logger *slog.Logger,
	pipeline tsctlpipeline.Pipeline,
	accountQueries []tsctlpipeline.AccountQuery,
	columns []tsctlcsv.Column,
	outputDirPath string,
	fileName string,
) (string, error) {
	records, err := pipeline.Run(ctx, accountQueries)
	if err != nil {
		return "", err
	}

	// Step 4: Write the CSV file.
	outputDirPath, err = xos.EnsureDir(outputDirPath)
	if err != nil {
		return "", err
	}
	filePath, err := tsctlpath.OutputFilePath(outputDirPath, fileName)
	if err != nil {
		return "", err
	}
	if _, err := tsctlcsv.WriteFile(logger, filePath, columns, records); err != nil {
		return "", fmt.Errorf("writing %s: %w", filePath, err)
	}
	return filePath, nil
}
