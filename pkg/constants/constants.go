// Package constants provides shared constants used throughout stocksync:
// timeouts, the default retry schedule, limits and file permissions.
package constants

import "time"

// Timeouts
const (
	// DefaultHTTPTimeout bounds a single request to a vendor endpoint.
	DefaultHTTPTimeout = 2 * time.Second

	// DefaultTimeout is the standard timeout for general operations.
	DefaultTimeout = 10 * time.Second

	// SyncPassTimeout bounds one full scheduled pass (fetch and reconcile).
	SyncPassTimeout = 5 * time.Minute

	// ServerShutdownTimeout bounds graceful shutdown of the HTTP servers.
	ServerShutdownTimeout = 10 * time.Second

	// CommandTimeout is the default timeout for one-shot CLI commands.
	CommandTimeout = 10 * time.Minute
)

// Retry schedule for HTTP vendor fetches: 3 attempts, delays 1s then 2s.
const (
	// MaxRetries is the total number of attempts, including the first.
	MaxRetries = 3

	// RetryBackoff is the delay before the second attempt.
	RetryBackoff = 1 * time.Second

	// RetryMultiplier grows the delay between consecutive attempts.
	RetryMultiplier = 2.0

	// MaxRetryBackoff caps any single delay.
	MaxRetryBackoff = 4 * time.Second
)

// Scheduling
const (
	// DefaultCron runs a pass at second zero of every minute.
	DefaultCron = "0 */1 * * * *"
)

// File permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x).
	DirPermissions = 0o755

	// FilePermissions is the default permission for created files (rw-r--r--).
	FilePermissions = 0o644
)

// Limits
const (
	// MaxResponseBytes caps how much of a vendor response body is read.
	MaxResponseBytes = 32 << 20

	// MaxErrorBodyBytes caps how much of a non-2xx body is kept for logging.
	MaxErrorBodyBytes = 512
)

// Rate limiting for the read API.
const (
	// DefaultRateLimit is requests per minute per client IP.
	// The burst equals the limit.
	DefaultRateLimit = 120
)

// Cache
const (
	// CacheTTL is how long read API responses stay cached without a pass.
	CacheTTL = 1 * time.Minute

	// CacheCleanupInterval is how often expired cache entries are purged.
	CacheCleanupInterval = 5 * time.Minute
)

// Vendor source kinds.
const (
	KindREST = "rest"
	KindCSV  = "csv"
)

// CSVHeader is the exact header row a CSV vendor file must start with.
var CSVHeader = []string{"sku", "name", "stockQuantity"}

// Configuration
const (
	// EnvPrefix prefixes every configuration environment variable.
	EnvPrefix = "STOCKSYNC"

	// ConfigName is the config file base name searched for by default.
	ConfigName = "stocksync"
)
