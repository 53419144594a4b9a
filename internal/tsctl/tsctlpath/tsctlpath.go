// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package tsctlpath derives file paths from the tsctl base directory.
// All file naming is defined here so callers don't duplicate path
// construction logic.
//
// The base directory (--dir flag) contains:
//
//	tsctl.yaml                                  Config file
//	<prefix>.<YYYYMMDD>.<YYYYMMDD>.csv          Exported transactions (timestamped naming)
//	<file_name>                                 Exported transactions (fixed naming)
//
// Exports go to the base directory unless --output-dir is given.
package tsctlpath

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bufdev/tsctl/internal/standard/xtime"
)

const (
	// ConfigFileName is the well-known config file name within the base directory.
	ConfigFileName = "tsctl.yaml"
	// ExecutionsOutputPrefix is the default prefix of timestamped export file names
	// when only trades are exported.
	ExecutionsOutputPrefix = "executions"
	// TransactionsOutputPrefix is the default prefix of timestamped export file names
	// when trades and cash transactions are exported.
	TransactionsOutputPrefix = "transactions"
	// outputExtension is the extension of export files.
	outputExtension = ".csv"
)

// ConfigFilePath returns the path to the config file within the base directory.
func ConfigFilePath(dirPath string) string {
	return filepath.Join(dirPath, ConfigFileName)
}

// DefaultOutputPrefix returns the default prefix of timestamped export file names.
func DefaultOutputPrefix(withCash bool) string {
	if withCash {
		return TransactionsOutputPrefix
	}
	return ExecutionsOutputPrefix
}

// TimestampedOutputFileName returns "<prefix>.<from>.<to>.csv" with compact dates.
//
// An empty prefix uses ExecutionsOutputPrefix.
func TimestampedOutputFileName(prefix string, from xtime.Date, to xtime.Date) string {
	if prefix == "" {
		prefix = ExecutionsOutputPrefix
	}
	return prefix + "." + from.CompactString() + "." + to.CompactString() + outputExtension
}

// OutputFilePath joins the output directory and a file name.
//
// The file name must be a base name.
func OutputFilePath(outputDirPath string, fileName string) (string, error) {
	if err := ValidateOutputFileName(fileName); err != nil {
		return "", err
	}
	return filepath.Join(outputDirPath, fileName), nil
}

// ValidateOutputFileName validates that the file name is a non-empty base name.
func ValidateOutputFileName(fileName string) error {
	if strings.TrimSpace(fileName) == "" {
		return errors.New("output file name is empty")
	}
	if filepath.Base(fileName) != fileName || fileName == "." || fileName == ".." {
		return fmt.Errorf("output file name %q must not contain a directory", fileName)
	}
	return nil
}
