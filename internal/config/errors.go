package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoTarget is returned when no target URL is specified.
	ErrNoTarget = errors.New("no target specified: provide at least one URL to crawl")

	// ErrInvalidTargetURL is returned when a target is not an absolute
	// http or https URL.
	ErrInvalidTargetURL = errors.New("invalid target URL: must be absolute http or https")

	// ErrInvalidMaxPages is returned when the page budget is not positive.
	// A budget of zero would mean no crawling at all.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be positive")

	// ErrInvalidMaxDepth is returned when the depth budget is negative.
	// Depth 0 is valid and crawls only the seeds.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be non-negative")

	// ErrInvalidConcurrency is returned when the worker-pool size is
	// outside [1, MaxConcurrency].
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be between 1 and 100")

	// ErrInvalidProfile is returned for an unknown output profile name.
	ErrInvalidProfile = errors.New("invalid profile: must be minimal, standard, or full")

	// ErrInvalidTimeout is returned when the render timeout is not
	// positive. A zero timeout would fail every navigation immediately.
	ErrInvalidTimeout = errors.New("invalid render timeout: must be positive")

	// ErrInvalidPacing is returned when the pacing bounds are negative or
	// inverted.
	ErrInvalidPacing = errors.New("invalid pacing: min must be non-negative and max >= min")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified. Only one output format can be used at a
	// time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
