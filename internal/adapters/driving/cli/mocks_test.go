package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/ports/driving"
)

// mockCatalogService implements driving.CatalogService for testing.
type mockCatalogService struct {
	page    *domain.ProductPage
	product *domain.Product
	count   int
	merged  int
	readme  domain.ReadmeSections
	err     error

	filter     domain.ProductFilter
	deleted    []string
	mergeInput map[string]int
	readmeTag  string
}

func (m *mockCatalogService) ListProducts(_ context.Context, filter domain.ProductFilter) (*domain.ProductPage, error) {
	m.filter = filter
	if m.err != nil {
		return nil, m.err
	}
	if m.page == nil {
		return &domain.ProductPage{PageSize: domain.DefaultPageSize}, nil
	}
	return m.page, nil
}

func (m *mockCatalogService) GetProduct(_ context.Context, _ string) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.product, nil
}

func (m *mockCatalogService) DeleteProduct(_ context.Context, key string) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *mockCatalogService) IncrementInstallCount(_ context.Context, _ string) (int, error) {
	return m.count, m.err
}

func (m *mockCatalogService) MergeInstallationCounts(_ context.Context, counts map[string]int) (int, error) {
	m.mergeInput = counts
	return m.merged, m.err
}

func (m *mockCatalogService) GetReadme(_ context.Context, _, tag string) (domain.ReadmeSections, error) {
	m.readmeTag = tag
	return m.readme, m.err
}

// mockVersionService implements driving.VersionService for testing.
type mockVersionService struct {
	versions []driving.VersionArtifacts
	err      error
	showDev  bool
	designer string
}

func (m *mockVersionService) GetVersionsForProduct(
	_ context.Context,
	_ string,
	showDev bool,
	designerVersion string,
) ([]driving.VersionArtifacts, error) {
	m.showDev = showDev
	m.designer = designerVersion
	return m.versions, m.err
}

// mockSyncOrchestrator implements driving.SyncOrchestrator for testing.
type mockSyncOrchestrator struct {
	result  *domain.SyncResult
	results []domain.SyncResult
	status  map[string]*driving.SyncStatus
	err     error

	synced    []string
	opts      driving.SyncOptions
	syncedAll bool
}

func (m *mockSyncOrchestrator) Sync(_ context.Context, repository string, opts driving.SyncOptions) (*domain.SyncResult, error) {
	m.synced = append(m.synced, repository)
	m.opts = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &domain.SyncResult{Repository: repository, Mode: domain.SyncModeNoop}, nil
}

func (m *mockSyncOrchestrator) SyncAll(_ context.Context) ([]domain.SyncResult, error) {
	m.syncedAll = true
	return m.results, m.err
}

func (m *mockSyncOrchestrator) Status(_ context.Context, repository string) (*driving.SyncStatus, error) {
	if m.err != nil {
		return nil, m.err
	}
	if st, ok := m.status[repository]; ok {
		return st, nil
	}
	return &driving.SyncStatus{Repository: repository, Phase: domain.PhaseIdle}, nil
}

// mockCursorService implements driving.CursorService for testing.
type mockCursorService struct {
	cursors []domain.SyncCursor
	err     error
	reset   []string
}

func (m *mockCursorService) ListCursors(_ context.Context) ([]domain.SyncCursor, error) {
	return m.cursors, m.err
}

func (m *mockCursorService) ResetCursor(_ context.Context, repository string) error {
	if m.err != nil {
		return m.err
	}
	m.reset = append(m.reset, repository)
	return nil
}

// mockSettingsService implements driving.SettingsService for testing.
type mockSettingsService struct {
	settings domain.Settings
	values   map[string]string
	setErr   error
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{
		settings: domain.DefaultSettings(),
		values: map[string]string{
			"github.organization": domain.DefaultOrganization,
			"github.repositories": domain.DefaultRepository,
			"github.token":        "",
			"sync.interval":       "1h0m0s",
			"log.format":          "console",
		},
	}
}

func (m *mockSettingsService) Get() (*domain.Settings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.Settings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	return keys
}

func (m *mockSettingsService) Values() (map[string]string, error) {
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out, nil
}

// mockScheduler implements driving.Scheduler for testing.
type mockScheduler struct {
	started bool
	stopped bool
}

func (m *mockScheduler) Start(ctx context.Context) error {
	m.started = true
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockScheduler) Stop() error {
	m.stopped = true
	return nil
}

// withServices injects services for one test and restores the previous ones.
func withServices(t *testing.T, s Services) {
	t.Helper()
	old := Services{
		Catalog:  catalogService,
		Versions: versionService,
		Sync:     syncOrchestrator,
		Cursors:  cursorService,
		Settings: settingsService,
	}
	Configure(s)
	t.Cleanup(func() { Configure(old) })
}

// executeCommand runs the root command with args and returns its output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeCommandContext(t, context.Background(), "", args...)
}

func executeCommandContext(t *testing.T, ctx context.Context, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	setContext(rootCmd, ctx)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	})

	err := rootCmd.ExecuteContext(ctx)
	return buf.String(), err
}

// setContext hands ctx to every command. Cobra only copies the root context
// onto a subcommand whose context is still nil, so one left over from an
// earlier execution would otherwise win.
func setContext(c *cobra.Command, ctx context.Context) {
	c.SetContext(ctx)
	for _, sub := range c.Commands() {
		setContext(sub, ctx)
	}
}

// resetFlags restores flag defaults left over from earlier executions.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}
