// Package sortcha contains the process-wide constants for the sortcha
// challenge-response verification service.
package sortcha

import "time"

var (
	// Version is the version of sortcha, populated at build time with ldflags.
	Version = "devel"

	// BasePrefix is the URL prefix the API is mounted under, set once at startup.
	BasePrefix = ""
)

const (
	// APIPrefix is where the challenge endpoints live relative to BasePrefix.
	APIPrefix = "/challenge"

	// DefaultTTL is how long an issued challenge token stays usable.
	DefaultTTL = 30 * time.Minute

	// StoreGrace is how much longer than its TTL a token stays readable in the
	// backing store, so that a lazily expired token reports "expired" instead
	// of decaying straight to "not found".
	StoreGrace = 5 * time.Minute

	// DefaultStoreBackend is the storage backend used when none is configured.
	DefaultStoreBackend = "memory"
)
