package common

import "errors"

// Error kinds shared across the store, upstream client and services.
// Callers test for them with errors.Is.
var (
	// ErrUpstreamUnavailable marks an NSE request that produced no usable data.
	// It never crosses the service boundary; services turn it into a nil result.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrStoreUnavailable marks a metadata store that cannot be reached or queried.
	ErrStoreUnavailable = errors.New("metadata store unavailable")

	// ErrRefreshInProgress is returned when a reconciliation is already running.
	ErrRefreshInProgress = errors.New("refresh already in progress")

	// ErrInvalidArgument marks caller input the operation cannot act on.
	ErrInvalidArgument = errors.New("invalid argument")
)
