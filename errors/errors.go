// Package errors provides error handling for typegen.
//
// This package re-exports github.com/cockroachdb/errors so that every
// failure carries a stack trace and can be decorated with user-facing hints.
//
// Usage:
//
//	if err := discover(); err != nil {
//	    return errors.Wrap(err, "failed to discover packages")
//	}
//
//	return errors.WithHint(errors.Wrap(ErrCoreNotFound, path), "pass --core")
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Sentinel errors for the generator. Wrap them with context and test with
// errors.Is.
var (
	// ErrCoreNotFound is the only fatal condition: there is nothing to
	// generate without the core package tree.
	ErrCoreNotFound = New("core package not found")

	// ErrInvalidManifest marks a module manifest that could not be decoded
	ErrInvalidManifest = New("invalid manifest")

	// ErrIncompatiblePackage marks a package whose SDK constraint rejects this generator
	ErrIncompatiblePackage = New("incompatible package")

	// ErrRegistryUnavailable marks a package registry that could not be read
	ErrRegistryUnavailable = New("package registry unavailable")

	// ErrMetadataUnavailable marks a node whose processing metadata is missing or malformed
	ErrMetadataUnavailable = New("node metadata unavailable")
)

// IsFatal reports whether err must abort the run
func IsFatal(err error) bool {
	return err != nil && Is(err, ErrCoreNotFound)
}

// Recoverable reports whether err is a per-item failure that is logged and counted
func Recoverable(err error) bool {
	return err != nil && IsAny(err,
		ErrInvalidManifest,
		ErrIncompatiblePackage,
		ErrRegistryUnavailable,
		ErrMetadataUnavailable,
	)
}
