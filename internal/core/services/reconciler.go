package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/marketsync/internal/catalog"
	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/ports/driven"
	"github.com/custodia-labs/marketsync/internal/core/ports/driving"
	"github.com/custodia-labs/marketsync/internal/logger"
)

// Ensure CatalogReconciler implements the interface.
var (
	_ driving.SyncOrchestrator = (*CatalogReconciler)(nil)
	_ driving.CursorService    = (*CatalogReconciler)(nil)
)

// maxParallelSyncs bounds SyncAll fan-out.
const maxParallelSyncs = 4

// ReconcilerConfig configures a CatalogReconciler.
type ReconcilerConfig struct {
	// Repositories are the tracked repositories synced by SyncAll.
	Repositories []string

	// Timeout bounds a single sync run. Zero disables the bound.
	Timeout time.Duration
}

// CatalogReconciler keeps the catalog in line with the tracked repositories.
// Runs for the same repository are serialised; different repositories sync
// independently.
type CatalogReconciler struct {
	remote   driven.RemoteRepository
	products driven.ProductStore
	cursors  driven.SyncCursorStore
	metrics  driven.SyncMetrics

	cfgMu sync.RWMutex
	cfg   ReconcilerConfig

	flights   singleflight.Group
	flightsMu sync.Mutex
	waiting   map[string]*flight

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	// Status tracking
	mu     sync.RWMutex
	states map[string]*repoState

	now func() time.Time
}

// flight is the context shared by every caller waiting on one run. It is
// cancelled once the last of them has gone.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

type repoState struct {
	running    bool
	phase      domain.SyncPhase
	lastResult *domain.SyncResult
	lastError  string
}

// NewCatalogReconciler creates a reconciler. metrics may be nil.
func NewCatalogReconciler(
	remote driven.RemoteRepository,
	products driven.ProductStore,
	cursors driven.SyncCursorStore,
	metrics driven.SyncMetrics,
	cfg ReconcilerConfig,
) *CatalogReconciler {
	return &CatalogReconciler{
		remote:   remote,
		products: products,
		cursors:  cursors,
		metrics:  metrics,
		cfg:      cfg,
		waiting:  make(map[string]*flight),
		locks:    make(map[string]*sync.Mutex),
		states:   make(map[string]*repoState),
		now:      time.Now,
	}
}

// Configure replaces the tracked repositories and run timeout. Runs already
// in flight keep their settings.
func (r *CatalogReconciler) Configure(cfg ReconcilerConfig) {
	r.cfgMu.Lock()
	defer r.cfgMu.Unlock()
	r.cfg = cfg
}

func (r *CatalogReconciler) config() ReconcilerConfig {
	r.cfgMu.RLock()
	defer r.cfgMu.RUnlock()
	return ReconcilerConfig{
		Repositories: slices.Clone(r.cfg.Repositories),
		Timeout:      r.cfg.Timeout,
	}
}

// Sync reconciles one repository. Concurrent callers for the same
// repository and mode share the in-flight run and observe its result.
// A caller whose context ends stops waiting; the run itself is cancelled
// only when no caller is left waiting on it.
func (r *CatalogReconciler) Sync(ctx context.Context, repository string, opts driving.SyncOptions) (*domain.SyncResult, error) {
	if repository == "" {
		return nil, fmt.Errorf("%w: repository is required", domain.ErrInvalidInput)
	}

	key := repository
	if opts.Force {
		key += "#force"
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f := r.joinFlight(ctx, key)
	ch := r.flights.DoChan(key, func() (any, error) {
		return r.run(f.ctx, repository, opts)
	})

	select {
	case res := <-ch:
		r.leaveFlight(key, f)
		if res.Err != nil {
			return nil, res.Err
		}
		result := *res.Val.(*domain.SyncResult)
		return &result, nil
	case <-ctx.Done():
		if r.leaveFlight(key, f) {
			// Nobody else wants the run; let it stop before returning.
			<-ch
		}
		return nil, ctx.Err()
	}
}

func (r *CatalogReconciler) joinFlight(ctx context.Context, key string) *flight {
	r.flightsMu.Lock()
	defer r.flightsMu.Unlock()

	f, ok := r.waiting[key]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: fctx, cancel: cancel}
		r.waiting[key] = f
	}
	f.waiters++
	return f
}

// leaveFlight reports whether f was cancelled because its last waiter left.
func (r *CatalogReconciler) leaveFlight(key string, f *flight) bool {
	r.flightsMu.Lock()
	defer r.flightsMu.Unlock()

	f.waiters--
	if f.waiters > 0 {
		return false
	}
	f.cancel()
	if r.waiting[key] == f {
		delete(r.waiting, key)
		// A run still winding down on the cancelled context must not be
		// joined by later callers.
		r.flights.Forget(key)
	}
	return true
}

// SyncAll reconciles every tracked repository. Errors are joined; results
// of successful runs are returned in configuration order.
func (r *CatalogReconciler) SyncAll(ctx context.Context) ([]domain.SyncResult, error) {
	repos := r.config().Repositories
	results := make([]*domain.SyncResult, len(repos))

	var errsMu sync.Mutex
	var errs []error

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelSyncs)
	for i, repo := range repos {
		g.Go(func() error {
			res, err := r.Sync(gctx, repo, driving.SyncOptions{})
			if err != nil {
				errsMu.Lock()
				errs = append(errs, fmt.Errorf("sync %s: %w", repo, err))
				errsMu.Unlock()
				return nil
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	out := make([]domain.SyncResult, 0, len(results))
	for _, res := range results {
		if res != nil {
			out = append(out, *res)
		}
	}
	return out, errors.Join(errs...)
}

// Status returns the current state of a repository.
func (r *CatalogReconciler) Status(ctx context.Context, repository string) (*driving.SyncStatus, error) {
	status := &driving.SyncStatus{
		Repository: repository,
		Phase:      domain.PhaseIdle,
	}

	r.mu.RLock()
	if st, ok := r.states[repository]; ok {
		status.Running = st.running
		status.Phase = st.phase
		status.LastError = st.lastError
		if st.lastResult != nil {
			res := *st.lastResult
			status.LastResult = &res
		}
	}
	r.mu.RUnlock()

	cursor, err := r.cursors.Get(ctx, repository)
	switch {
	case err == nil:
		status.Cursor = cursor
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("get sync cursor: %w", err)
	}
	return status, nil
}

// ListCursors returns every stored cursor.
func (r *CatalogReconciler) ListCursors(ctx context.Context) ([]domain.SyncCursor, error) {
	cursors, err := r.cursors.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sync cursors: %w", err)
	}
	return cursors, nil
}

// ResetCursor forgets the last processed commit of a repository.
func (r *CatalogReconciler) ResetCursor(ctx context.Context, repository string) error {
	if repository == "" {
		return fmt.Errorf("%w: repository is required", domain.ErrInvalidInput)
	}

	mu := r.lock(repository)
	mu.Lock()
	defer mu.Unlock()

	if err := r.cursors.Reset(ctx, repository); err != nil {
		return fmt.Errorf("reset sync cursor of %s: %w", repository, err)
	}
	logger.Info("reset sync cursor of %s", repository)
	return nil
}

func (r *CatalogReconciler) lock(repository string) *sync.Mutex {
	r.locksMu.Lock()
	defer r.locksMu.Unlock()
	mu, ok := r.locks[repository]
	if !ok {
		mu = &sync.Mutex{}
		r.locks[repository] = mu
	}
	return mu
}

// state returns the tracked state of a repository (caller must hold mu).
func (r *CatalogReconciler) state(repository string) *repoState {
	st, ok := r.states[repository]
	if !ok {
		st = &repoState{phase: domain.PhaseIdle}
		r.states[repository] = st
	}
	return st
}

func (r *CatalogReconciler) setPhase(repository string, phase domain.SyncPhase) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.state(repository)
	st.phase = phase
	st.running = phase != domain.PhaseIdle
}

func (r *CatalogReconciler) finish(result *domain.SyncResult, err error) {
	r.mu.Lock()
	st := r.state(result.Repository)
	st.running = false
	st.phase = domain.PhaseIdle
	if err != nil {
		st.lastError = err.Error()
	} else {
		res := *result
		st.lastResult = &res
		st.lastError = ""
	}
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.ObserveSync(*result, err)
	}
}

// run performs one sync: CHECKING, then FULL_SYNC, INCREMENTAL_SYNC or NOOP,
// then PERSISTING. The cursor is advanced only after the batch is stored.
func (r *CatalogReconciler) run(ctx context.Context, repository string, opts driving.SyncOptions) (result *domain.SyncResult, err error) {
	mu := r.lock(repository)
	mu.Lock()
	defer mu.Unlock()

	if timeout := r.config().Timeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result = &domain.SyncResult{
		RunID:      uuid.NewString(),
		Repository: repository,
		StartedAt:  r.now(),
	}
	defer func() {
		result.Duration = r.now().Sub(result.StartedAt)
		r.finish(result, err)
		if err != nil {
			logger.Warn("sync %s [%s] failed: %v", repository, result.RunID, err)
		}
	}()

	logger.Section("Sync " + repository)
	r.setPhase(repository, domain.PhaseChecking)

	head, err := r.remote.GetLatestCommit(ctx, repository)
	if err != nil {
		return result, fmt.Errorf("get latest commit: %w", err)
	}
	result.ToSHA = head.SHA

	cursor, err := r.cursors.Get(ctx, repository)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return result, fmt.Errorf("get sync cursor: %w", err)
	}
	if cursor != nil {
		result.FromSHA = cursor.SHA
	}

	var batch []domain.Product
	switch {
	case opts.Force || cursor == nil:
		batch, err = r.fullSync(ctx, repository, head.SHA, result)
	case cursor.SHA == head.SHA:
		r.setPhase(repository, domain.PhaseNoop)
		result.Mode = domain.SyncModeNoop
		logger.Info("sync %s: up to date at %s", repository, shortSHA(head.SHA))
		return result, nil
	default:
		batch, err = r.incrementalSync(ctx, repository, cursor.SHA, head.SHA, result)
		if errors.Is(err, domain.ErrChangeSetTruncated) || errors.Is(err, domain.ErrNotFound) {
			logger.Warn("sync %s: cannot diff %s...%s (%v), running full sync",
				repository, shortSHA(cursor.SHA), shortSHA(head.SHA), err)
			*result = domain.SyncResult{
				RunID:      result.RunID,
				Repository: result.Repository,
				FromSHA:    result.FromSHA,
				ToSHA:      result.ToSHA,
				StartedAt:  result.StartedAt,
			}
			batch, err = r.fullSync(ctx, repository, head.SHA, result)
		}
	}
	if err != nil {
		return result, err
	}

	// A cancelled run discards its batch.
	if err := ctx.Err(); err != nil {
		return result, err
	}

	r.setPhase(repository, domain.PhasePersisting)
	if err := r.products.UpsertBatch(ctx, batch); err != nil {
		return result, fmt.Errorf("persist products: %w", err)
	}
	result.Upserted = len(batch)

	next := domain.SyncCursor{Repository: repository, SHA: head.SHA, ProcessedAt: r.now()}
	if err := r.cursors.Advance(ctx, next); err != nil {
		return result, fmt.Errorf("advance sync cursor: %w", err)
	}

	logger.Info("sync %s: %s %s -> %s, %d upserted, %d unlisted, %d skipped, %d metadata errors",
		repository, result.Mode, shortSHA(result.FromSHA), shortSHA(result.ToSHA),
		result.Upserted, result.Unlisted, result.Skipped, result.MetadataErrors)
	return result, nil
}

// fullSync rebuilds every product directory found at head and unlists
// stored products whose directory disappeared.
func (r *CatalogReconciler) fullSync(ctx context.Context, repository, head string, result *domain.SyncResult) ([]domain.Product, error) {
	r.setPhase(repository, domain.PhaseFullSync)
	result.Mode = domain.SyncModeFull

	root, err := r.remote.GetDirectoryContent(ctx, repository, "", head)
	if err != nil {
		return nil, fmt.Errorf("list repository root: %w", err)
	}

	stored, err := r.products.ListByRepository(ctx, repository)
	if err != nil {
		return nil, fmt.Errorf("list stored products: %w", err)
	}
	existing := make(map[string]*domain.Product, len(stored))
	for i := range stored {
		existing[stored[i].Key] = &stored[i]
	}

	var batch []domain.Product
	seen := make(map[string]bool)
	for _, entry := range root {
		if !entry.IsDir() {
			continue
		}
		key, ok := catalog.ProductKey(entry.Name)
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		seen[key] = true

		old := existing[key]
		if old == nil {
			// The product may have been synced from another repository.
			if p, err := r.products.Get(ctx, key); err == nil {
				old = p
			} else if !errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("get product %s: %w", key, err)
			}
		}

		next, err := r.buildProduct(ctx, repository, entry.Path, key, head, old, result)
		if err != nil {
			return nil, err
		}
		if next == nil {
			continue
		}
		if old != nil && old.SameContent(next) {
			result.Skipped++
			continue
		}
		if old != nil && old.Listed && !next.Listed {
			result.Unlisted++
		}
		batch = append(batch, *next)
	}

	for _, p := range stored {
		if seen[p.Key] || !p.Listed {
			continue
		}
		gone := p.Clone()
		domain.ClearMetadata(gone)
		gone.UpdatedAt = r.now()
		result.Unlisted++
		batch = append(batch, *gone)
		logger.Debug("product %s no longer present in %s, unlisting", p.Key, repository)
	}

	return batch, nil
}

// buildProduct reads a product directory from scratch. It returns nil when
// nothing should be written for the directory.
func (r *CatalogReconciler) buildProduct(
	ctx context.Context,
	repository, dir, key, head string,
	old *domain.Product,
	result *domain.SyncResult,
) (*domain.Product, error) {
	files, err := r.remote.GetDirectoryContent(ctx, repository, dir, head)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			result.Skipped++
			return nil, nil
		}
		return nil, fmt.Errorf("list product directory %s: %w", dir, err)
	}

	var hasMeta bool
	var logoURL string
	for _, f := range files {
		switch {
		case f.IsDir():
		case f.Name == catalog.MetadataFile:
			hasMeta = true
		case f.Name == catalog.LogoFile:
			logoURL = f.DownloadURL
		}
	}

	next := &domain.Product{
		Key:              key,
		MarketDirectory:  dir,
		SourceRepository: repository,
		LogoURL:          logoURL,
		Listed:           true,
		UpdatedAt:        r.now(),
	}

	if !hasMeta {
		if old == nil {
			result.Skipped++
			return nil, nil
		}
		domain.ClearMetadata(next)
		return next, nil
	}

	partial, err := r.readMetadata(ctx, repository, dir, head)
	switch {
	case errors.Is(err, domain.ErrMalformedMetadata):
		result.MetadataErrors++
		logger.Warn("product %s: %v", key, err)
		if old == nil {
			return nil, nil
		}
		// Keep the stored metadata and refresh everything else.
		kept := old.Clone()
		kept.MarketDirectory = dir
		kept.SourceRepository = repository
		kept.LogoURL = logoURL
		kept.UpdatedAt = next.UpdatedAt
		return kept, nil
	case errors.Is(err, domain.ErrNotFound):
		if old == nil {
			result.Skipped++
			return nil, nil
		}
		domain.ClearMetadata(next)
		return next, nil
	case err != nil:
		return nil, err
	}

	partial.Apply(next)
	return next, nil
}

// incrementalSync applies the changes between two commits, one combined
// update per touched product.
func (r *CatalogReconciler) incrementalSync(
	ctx context.Context,
	repository, from, head string,
	result *domain.SyncResult,
) ([]domain.Product, error) {
	r.setPhase(repository, domain.PhaseIncremental)
	result.Mode = domain.SyncModeIncremental

	changes, err := r.remote.GetCommitRange(ctx, repository, from, head)
	if err != nil {
		return nil, fmt.Errorf("get commit range: %w", err)
	}
	classified := catalog.ClassifyChanges(changes)
	result.Changes = len(classified)
	keys, groups := catalog.GroupByProduct(classified)

	var batch []domain.Product
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var metaTouched, logoTouched bool
		for _, change := range groups[key] {
			switch change.ArtifactType {
			case domain.ArtifactMeta:
				metaTouched = true
			case domain.ArtifactLogo:
				logoTouched = true
			default:
				result.Skipped++
			}
		}
		if !metaTouched && !logoTouched {
			continue
		}

		next, err := r.applyChanges(ctx, repository, key, head, metaTouched, logoTouched, result)
		if err != nil {
			return nil, err
		}
		if next != nil {
			batch = append(batch, *next)
		}
	}
	return batch, nil
}

func (r *CatalogReconciler) applyChanges(
	ctx context.Context,
	repository, key, head string,
	metaTouched, logoTouched bool,
	result *domain.SyncResult,
) (*domain.Product, error) {
	old, err := r.products.Get(ctx, key)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get product %s: %w", key, err)
	}

	dir := catalog.ProductDir(key)
	var next *domain.Product
	if old != nil {
		next = old.Clone()
	} else {
		if !metaTouched {
			// Nothing to attach a logo to until metadata exists.
			result.Skipped++
			return nil, nil
		}
		next = &domain.Product{Key: key, Listed: true}
	}
	next.MarketDirectory = dir
	next.SourceRepository = repository

	if metaTouched {
		partial, err := r.readMetadata(ctx, repository, dir, head)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			if old == nil {
				result.Skipped++
				return nil, nil
			}
			domain.ClearMetadata(next)
			if old.Listed {
				result.Unlisted++
			}
		case errors.Is(err, domain.ErrMalformedMetadata):
			result.MetadataErrors++
			logger.Warn("product %s: %v", key, err)
			if old == nil {
				return nil, nil
			}
		case err != nil:
			return nil, err
		default:
			if old != nil && !old.Listed {
				next.Listed = true
			}
			partial.Apply(next)
		}
	}

	if logoTouched || old == nil {
		logoURL, err := r.logoURL(ctx, repository, dir, head)
		if err != nil {
			return nil, err
		}
		next.LogoURL = logoURL
	}

	if old != nil && old.SameContent(next) {
		result.Skipped++
		return nil, nil
	}
	next.UpdatedAt = r.now()
	return next, nil
}

// readMetadata fetches and parses the metadata file of a product directory.
func (r *CatalogReconciler) readMetadata(ctx context.Context, repository, dir, ref string) (domain.PartialProduct, error) {
	file, err := r.remote.GetFileContent(ctx, repository, catalog.MetadataPath(dir), ref)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.PartialProduct{}, err
		}
		return domain.PartialProduct{}, fmt.Errorf("read metadata of %s: %w", dir, err)
	}
	partial, err := catalog.ExtractMetadata(file.Content)
	if err != nil {
		return domain.PartialProduct{}, fmt.Errorf("%s: %w", file.Path, err)
	}
	return partial, nil
}

// logoURL returns the download URL of the product logo, empty when absent.
func (r *CatalogReconciler) logoURL(ctx context.Context, repository, dir, ref string) (string, error) {
	files, err := r.remote.GetDirectoryContent(ctx, repository, dir, ref)
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("list product directory %s: %w", dir, err)
	}
	for _, f := range files {
		if !f.IsDir() && f.Name == catalog.LogoFile {
			return f.DownloadURL, nil
		}
	}
	return "", nil
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	if sha == "" {
		return "-"
	}
	return sha
}
