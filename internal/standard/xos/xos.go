// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package xos provides extensions to the standard os package.
package xos

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome expands a leading ~ in a path to the user's home directory.
//
// Only "~" and "~/..." are expanded. "~user" forms are returned as is.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not get home directory: %w", err)
	}
	return filepath.Join(homeDir, path[1:]), nil
}

// EnsureDir expands a leading ~ in the path and creates the directory if needed.
//
// Returns the expanded path.
func EnsureDir(path string) (string, error) {
	expandedPath, err := ExpandHome(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(expandedPath, 0o755); err != nil {
		return "", fmt.Errorf("creating directory %s: %w", expandedPath, err)
	}
	return expandedPath, nil
}
