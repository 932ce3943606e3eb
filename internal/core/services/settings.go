package services

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/ports/driven"
	"github.com/custodia-labs/marketsync/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// TokenEnvVar overrides github.token when set.
//
//nolint:gosec // G101: environment variable name, not a credential.
const TokenEnvVar = "MARKETSYNC_GITHUB_TOKEN"

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyOrganization = "github.organization"
	keyToken        = "github.token"
	keyRepositories = "github.repositories"
	keyDataDir      = "storage.data_dir"
	keySyncInterval = "sync.interval"
	keySyncTimeout  = "sync.timeout"
	keySyncOnRead   = "sync.on_read"
	keyCacheTTL     = "versions.cache_ttl"
	keyLogFormat    = "log.format"
	keyLogVerbose   = "log.verbose"
	keyServeAddr    = "serve.addr"
	keyMetricsAddr  = "serve.metrics_addr"
)

var settingKeys = []string{
	keyOrganization, keyToken, keyRepositories, keyDataDir,
	keySyncInterval, keySyncTimeout, keySyncOnRead, keyCacheTTL,
	keyLogFormat, keyLogVerbose, keyServeAddr, keyMetricsAddr,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		lookupEnv:   os.LookupEnv,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.Settings, error) {
	defaults := domain.DefaultSettings()

	settings := &domain.Settings{
		GitHub: domain.GitHubSettings{
			Organization: s.getString(keyOrganization, defaults.GitHub.Organization),
			Token:        s.configStore.GetString(keyToken),
			Repositories: s.getStrings(keyRepositories, defaults.GitHub.Repositories),
		},
		Storage: domain.StorageSettings{
			DataDir: s.configStore.GetString(keyDataDir),
		},
		Sync: domain.SyncSettings{
			OnRead: s.configStore.GetBool(keySyncOnRead),
		},
		Log: domain.LogSettings{
			Format:  domain.LogFormat(s.getString(keyLogFormat, string(defaults.Log.Format))),
			Verbose: s.configStore.GetBool(keyLogVerbose),
		},
		Serve: domain.ServeSettings{
			Addr:        s.getString(keyServeAddr, defaults.Serve.Addr),
			MetricsAddr: s.getString(keyMetricsAddr, defaults.Serve.MetricsAddr),
		},
	}

	var err error
	if settings.Sync.Interval, err = s.getDuration(keySyncInterval, defaults.Sync.Interval); err != nil {
		return nil, err
	}
	if settings.Sync.Timeout, err = s.getDuration(keySyncTimeout, defaults.Sync.Timeout); err != nil {
		return nil, err
	}
	if settings.Versions.CacheTTL, err = s.getDuration(keyCacheTTL, defaults.Versions.CacheTTL); err != nil {
		return nil, err
	}

	if token, ok := s.lookupEnv(TokenEnvVar); ok && token != "" {
		settings.GitHub.Token = token
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.Settings) error {
	if settings == nil {
		return domain.ErrInvalidInput
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	values := []struct {
		key   string
		value any
	}{
		{keyOrganization, settings.GitHub.Organization},
		{keyRepositories, settings.GitHub.Repositories},
		{keyDataDir, settings.Storage.DataDir},
		{keySyncInterval, settings.Sync.Interval.String()},
		{keySyncTimeout, settings.Sync.Timeout.String()},
		{keySyncOnRead, settings.Sync.OnRead},
		{keyCacheTTL, settings.Versions.CacheTTL.String()},
		{keyLogFormat, string(settings.Log.Format)},
		{keyLogVerbose, settings.Log.Verbose},
		{keyServeAddr, settings.Serve.Addr},
		{keyMetricsAddr, settings.Serve.MetricsAddr},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// Never write a token picked up from the environment.
	if _, fromEnv := s.lookupEnv(TokenEnvVar); !fromEnv && settings.GitHub.Token != "" {
		if err := s.configStore.Set(keyToken, settings.GitHub.Token); err != nil {
			return fmt.Errorf("save %s: %w", keyToken, err)
		}
	}
	return nil
}

// Set parses and stores a single setting.
func (s *SettingsService) Set(key, value string) error {
	current, err := s.Get()
	if err != nil {
		return err
	}
	value = strings.TrimSpace(value)

	var stored any = value
	switch key {
	case keyOrganization:
		current.GitHub.Organization = value
	case keyToken:
		current.GitHub.Token = value
	case keyRepositories:
		repos := splitList(value)
		current.GitHub.Repositories = repos
		stored = repos
	case keyDataDir:
		current.Storage.DataDir = value
	case keySyncInterval, keySyncTimeout, keyCacheTTL:
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
		}
		switch key {
		case keySyncInterval:
			current.Sync.Interval = d
		case keySyncTimeout:
			current.Sync.Timeout = d
		default:
			current.Versions.CacheTTL = d
		}
		stored = d.String()
	case keySyncOnRead, keyLogVerbose:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
		}
		if key == keySyncOnRead {
			current.Sync.OnRead = b
		} else {
			current.Log.Verbose = b
		}
		stored = b
	case keyLogFormat:
		current.Log.Format = domain.LogFormat(value)
	case keyServeAddr:
		current.Serve.Addr = value
	case keyMetricsAddr:
		current.Serve.MetricsAddr = value
	default:
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	if err := current.Validate(); err != nil {
		return err
	}
	if err := s.configStore.Set(key, stored); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys lists the supported setting keys.
func (s *SettingsService) Keys() []string {
	return slices.Clone(settingKeys)
}

// Values returns the effective settings keyed by setting name.
func (s *SettingsService) Values() (map[string]string, error) {
	settings, err := s.Get()
	if err != nil {
		return nil, err
	}
	return map[string]string{
		keyOrganization: settings.GitHub.Organization,
		keyToken:        settings.GitHub.Token,
		keyRepositories: strings.Join(settings.GitHub.Repositories, ","),
		keyDataDir:      settings.Storage.DataDir,
		keySyncInterval: settings.Sync.Interval.String(),
		keySyncTimeout:  settings.Sync.Timeout.String(),
		keySyncOnRead:   strconv.FormatBool(settings.Sync.OnRead),
		keyCacheTTL:     settings.Versions.CacheTTL.String(),
		keyLogFormat:    string(settings.Log.Format),
		keyLogVerbose:   strconv.FormatBool(settings.Log.Verbose),
		keyServeAddr:    settings.Serve.Addr,
		keyMetricsAddr:  settings.Serve.MetricsAddr,
	}, nil
}

func (s *SettingsService) getString(key, def string) string {
	if v := s.configStore.GetString(key); v != "" {
		return v
	}
	return def
}

func (s *SettingsService) getStrings(key string, def []string) []string {
	if v := s.configStore.GetStringSlice(key); len(v) > 0 {
		return v
	}
	return slices.Clone(def)
}

// getDuration accepts Go duration strings or whole seconds.
func (s *SettingsService) getDuration(key string, def time.Duration) (time.Duration, error) {
	if raw := s.configStore.GetString(key); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
		}
		return d, nil
	}
	if secs := s.configStore.GetInt(key); secs > 0 {
		return time.Duration(secs) * time.Second, nil
	}
	return def, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" && !slices.Contains(out, part) {
			out = append(out, part)
		}
	}
	return out
}
