package github

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/ports/driven"
)

// Config holds the settings for a GitHub repository reader.
type Config struct {
	// Organization owns every repository read through the client.
	Organization string

	// Token is a personal access token. Empty means unauthenticated access,
	// which GitHub limits to 60 requests per hour.
	Token string

	// BaseURL overrides the API endpoint (GitHub Enterprise or tests).
	BaseURL string

	// Timeout bounds each HTTP request. Defaults to DefaultTimeout.
	Timeout time.Duration

	// HTTPClient replaces the default transport when set. Token is ignored.
	HTTPClient *http.Client

	// Metrics records remote call durations. Optional.
	Metrics driven.SyncMetrics
}

// ConfigFromSettings builds a Config from application settings.
func ConfigFromSettings(s domain.GitHubSettings) Config {
	return Config{
		Organization: s.Organization,
		Token:        s.Token,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Organization) == "" {
		return fmt.Errorf("%w: github organization is required", domain.ErrInvalidInput)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: github timeout must not be negative", domain.ErrInvalidInput)
	}
	return nil
}
