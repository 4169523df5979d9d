//go:build tools

package tools

// This file tracks versions of CLI tool dependencies.
// It is not compiled into the binary.
//
// - github.com/matryer/moq (test doubles, see //go:generate lines)
// - github.com/pressly/goose/v3/cmd/goose (migrations/)
