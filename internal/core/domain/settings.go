package domain

import (
	"fmt"
	"time"
)

// Default setting values.
const (
	DefaultOrganization    = "axonivy-market"
	DefaultRepository      = "market"
	DefaultSyncInterval    = time.Hour
	DefaultSyncTimeout     = 10 * time.Minute
	DefaultVersionCacheTTL = time.Hour
	DefaultServeAddr       = "127.0.0.1:8787"
	DefaultMetricsAddr     = "127.0.0.1:9464"
)

// LogFormat selects the log encoder.
type LogFormat string

// Supported log formats.
const (
	LogFormatConsole LogFormat = "console"
	LogFormatJSON    LogFormat = "json"
)

// IsValid returns true if the format is recognised.
func (f LogFormat) IsValid() bool {
	return f == LogFormatConsole || f == LogFormatJSON
}

// GitHubSettings configures access to the remote repositories.
type GitHubSettings struct {
	// Organization owns every tracked repository.
	Organization string

	// Token is a personal access token. Empty means anonymous access.
	Token string

	// Repositories lists the tracked market repositories.
	Repositories []string
}

// StorageSettings configures the catalog database.
type StorageSettings struct {
	// DataDir holds the sqlite database. Empty means ~/.marketsync.
	DataDir string
}

// SyncSettings configures reconciliation.
type SyncSettings struct {
	// Interval between scheduled syncs in serve mode.
	Interval time.Duration

	// Timeout bounds a single sync run.
	Timeout time.Duration

	// OnRead checks the remote head before every product listing.
	OnRead bool
}

// VersionSettings configures artifact version lookups.
type VersionSettings struct {
	// CacheTTL is how long fetched versions are reused.
	CacheTTL time.Duration
}

// LogSettings configures the logger.
type LogSettings struct {
	Format  LogFormat
	Verbose bool
}

// ServeSettings configures the long running server.
type ServeSettings struct {
	// Addr is the MCP streamable HTTP listen address. Empty disables it.
	Addr string

	// MetricsAddr serves /metrics. Empty disables it.
	MetricsAddr string
}

// Settings holds all application settings.
type Settings struct {
	GitHub   GitHubSettings
	Storage  StorageSettings
	Sync     SyncSettings
	Versions VersionSettings
	Log      LogSettings
	Serve    ServeSettings
}

// DefaultSettings returns settings with sensible defaults.
func DefaultSettings() Settings {
	return Settings{
		GitHub: GitHubSettings{
			Organization: DefaultOrganization,
			Repositories: []string{DefaultRepository},
		},
		Sync: SyncSettings{
			Interval: DefaultSyncInterval,
			Timeout:  DefaultSyncTimeout,
		},
		Versions: VersionSettings{
			CacheTTL: DefaultVersionCacheTTL,
		},
		Log: LogSettings{
			Format: LogFormatConsole,
		},
		Serve: ServeSettings{
			Addr:        DefaultServeAddr,
			MetricsAddr: DefaultMetricsAddr,
		},
	}
}

// Validate checks the settings for values that cannot work.
func (s *Settings) Validate() error {
	if s.GitHub.Organization == "" {
		return fmt.Errorf("%w: github.organization is required", ErrInvalidInput)
	}
	if len(s.GitHub.Repositories) == 0 {
		return fmt.Errorf("%w: at least one repository must be tracked", ErrInvalidInput)
	}
	if s.Sync.Interval < time.Minute {
		return fmt.Errorf("%w: sync.interval must be at least 1m", ErrInvalidInput)
	}
	if s.Sync.Timeout <= 0 {
		return fmt.Errorf("%w: sync.timeout must be positive", ErrInvalidInput)
	}
	if s.Versions.CacheTTL < 0 {
		return fmt.Errorf("%w: versions.cache_ttl must not be negative", ErrInvalidInput)
	}
	if !s.Log.Format.IsValid() {
		return fmt.Errorf("%w: unknown log.format %q", ErrInvalidInput, s.Log.Format)
	}
	return nil
}
