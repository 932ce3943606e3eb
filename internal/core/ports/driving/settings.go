package driving

import "github.com/custodia-labs/marketsync/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current settings with defaults and environment
	// overrides applied.
	Get() (*domain.Settings, error)

	// Save validates and persists settings.
	Save(settings *domain.Settings) error

	// Set parses and stores a single setting by key (e.g. "sync.interval").
	Set(key, value string) error

	// Keys lists the supported setting keys.
	Keys() []string

	// Values returns the effective value of every key, formatted the way
	// Set accepts it.
	Values() (map[string]string, error)
}
