// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package tsctlsymbol resolves free-text instrument descriptions to canonical symbols.
//
// Two resolvers exist. The identity resolver returns the trimmed description
// as the symbol. The table resolver looks the trimmed description up in a
// static, case-sensitive table and fails with *UnknownInstrumentError on a
// miss. Which one is used depends on whether a table is configured.
package tsctlsymbol

import (
	"fmt"
	"strings"
)

// Resolver resolves instrument descriptions to canonical symbols.
type Resolver interface {
	// Resolve returns the canonical symbol for the raw description.
	//
	// The description is trimmed of surrounding whitespace before lookup.
	// Returns *UnknownInstrumentError if the description cannot be resolved.
	Resolve(rawDescription string) (string, error)
}

// UnknownInstrumentError is returned when a description has no mapping.
type UnknownInstrumentError struct {
	// Description is the raw description that was not found.
	Description string
}

// Error implements error.
func (e *UnknownInstrumentError) Error() string {
	return fmt.Sprintf("unknown instrument %q, add it to the symbols section of the configuration", e.Description)
}

// NewIdentityResolver returns a Resolver that uses the trimmed description as the symbol.
func NewIdentityResolver() Resolver {
	return identityResolver{}
}

// NewTableResolver returns a Resolver that looks descriptions up in the table.
//
// Table keys are trimmed. The table is copied.
func NewTableResolver(table map[string]string) Resolver {
	symbols := make(map[string]string, len(table))
	for description, symbol := range table {
		symbols[strings.TrimSpace(description)] = symbol
	}
	return &tableResolver{
		symbols: symbols,
	}
}

// *** PRIVATE ***

type identityResolver struct{}

func (identityResolver) Resolve(rawDescription string) (string, error) {
	return strings.TrimSpace(rawDescription), nil
}

type tableResolver struct {
	symbols map[string]string
}

func (r *tableResolver) Resolve(rawDescription string) (string, error) {
	symbol, ok := r.symbols[strings.TrimSpace(rawDescription)]
	if !ok {
		return "", &UnknownInstrumentError{Description: rawDescription}
	}
	return symbol, nil
}
