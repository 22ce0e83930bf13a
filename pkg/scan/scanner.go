package scan

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pantheon-systems/repo-guardian/pkg/errors"
)

type (

	// Scanner runs the external secret scanner against a single target.
	// Implementations must return a *ScanError so the orchestrator can
	// apply the retry policy.
	Scanner interface {
		Scan(ctx context.Context, target Target) (result []*Finding, err error)
	}

	// Finding is a single potential secret reported by the scanner.
	Finding struct {
		Target   Target
		Detector string
		Location string
		Raw      json.RawMessage
	}

	// ScanError is a classified scanner failure.
	ScanError struct {
		Kind  ErrorKind
		cause error
	}

	ErrorKind int
)

const (
	LaunchFailure ErrorKind = iota
	Timeout
	NonZeroExit
	MalformedOutput
	NotFound
)

func (k ErrorKind) String() (result string) {
	switch k {
	case LaunchFailure:
		result = "launch-failure"
	case Timeout:
		result = "timeout"
	case NonZeroExit:
		result = "nonzero-exit"
	case MalformedOutput:
		result = "malformed-output"
	case NotFound:
		result = "not-found"
	default:
		result = "unknown"
	}
	return
}

func NewScanError(kind ErrorKind, cause error) *ScanError {
	return &ScanError{Kind: kind, cause: cause}
}

func (e *ScanError) Error() string {
	if e.cause == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.cause)
}

func (e *ScanError) Cause() error {
	return e.cause
}

// Retryable reports whether the failure class is transient. Only process
// launch failures and timeouts qualify; structurally bad targets and
// malformed output would fail the same way again.
func (e *ScanError) Retryable() bool {
	return e.Kind == LaunchFailure || e.Kind == Timeout
}

// asScanError pulls a *ScanError out of an error chain. Anything
// unclassified is treated as a terminal scanner failure.
func asScanError(err error) (result *ScanError) {
	if scanErr, ok := err.(*ScanError); ok {
		return scanErr
	}
	if scanErr, ok := errors.Cause(err).(*ScanError); ok {
		return scanErr
	}
	return NewScanError(NonZeroExit, err)
}
