package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"pop/internal/config"
	"pop/internal/indexer"
	"pop/internal/search"
	"pop/internal/storage"
	"pop/internal/storage/sqlite"
)

var (
	// ErrIndexInProgress is returned when an operation would overlap a running
	// index or clear in this process.
	ErrIndexInProgress = errors.New("index operation already in progress")
	// ErrIndexLocked is returned when another process holds the index write lock.
	ErrIndexLocked = errors.New("index is locked by another process")
)

// IndexStatus summarizes the current or most recent index run.
type IndexStatus struct {
	RunID      string    `json:"runId,omitempty"`
	Root       string    `json:"root,omitempty"`
	Running    bool      `json:"running"`
	Rebuild    bool      `json:"rebuild"`
	Entries    int64     `json:"entries"`
	Skipped    int64     `json:"skipped"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Error      string    `json:"error,omitempty"`
}

// App ties together configuration, the store, the scanner and the search engine.
type App struct {
	cfg     config.Config
	store   *sqlite.Store
	scanner *indexer.Scanner
	engine  *search.Engine
	lock    *flock.Flock

	// mu keeps searches from reading while the index is being written.
	mu sync.RWMutex

	statusMu sync.RWMutex
	status   IndexStatus
}

// New opens the store named by cfg and constructs an App around it.
func New(cfg config.Config) (*App, error) {
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	return &App{
		cfg:     cfg,
		store:   store,
		scanner: indexer.New(indexer.Options{BatchSize: cfg.BatchSize, QueueSize: cfg.QueueSize}),
		engine:  search.NewEngine(store, cfg.DefaultLimit),
		lock:    flock.New(cfg.DBPath + ".lock"),
	}, nil
}

// Close releases the store.
func (a *App) Close() error {
	return a.store.Close()
}

// Index scans root into the store, clearing the store first when rebuild is set.
func (a *App) Index(ctx context.Context, root string, rebuild bool) (indexer.Summary, error) {
	if !a.mu.TryLock() {
		return indexer.Summary{}, ErrIndexInProgress
	}
	defer a.mu.Unlock()

	return a.index(ctx, uuid.NewString(), root, rebuild)
}

// StartIndex runs Index in the background. Progress is reported by Status.
func (a *App) StartIndex(ctx context.Context, root string, rebuild bool) (string, error) {
	if !a.mu.TryLock() {
		return "", ErrIndexInProgress
	}

	runID := uuid.NewString()
	a.setStatus(IndexStatus{RunID: runID, Root: root, Rebuild: rebuild, Running: true, StartedAt: time.Now()})

	go func() {
		defer a.mu.Unlock()
		_, _ = a.index(context.WithoutCancel(ctx), runID, root, rebuild)
	}()
	return runID, nil
}

func (a *App) index(ctx context.Context, runID, root string, rebuild bool) (summary indexer.Summary, err error) {
	logger := log.With().Str("run_id", runID).Str("root", root).Logger()
	ctx = logger.WithContext(ctx)
	started := time.Now()

	a.setStatus(IndexStatus{RunID: runID, Root: root, Rebuild: rebuild, Running: true, StartedAt: started})
	defer func() {
		status := IndexStatus{
			RunID:      runID,
			Root:       root,
			Rebuild:    rebuild,
			Entries:    summary.Entries,
			Skipped:    summary.Skipped,
			StartedAt:  started,
			FinishedAt: time.Now(),
		}
		if err != nil {
			status.Error = err.Error()
		}
		a.setStatus(status)
	}()

	unlock, err := a.lockStore()
	if err != nil {
		return indexer.Summary{}, err
	}
	defer unlock()

	logger.Info().Bool("rebuild", rebuild).Msg("indexing started")

	if rebuild {
		if err := a.store.Clear(ctx); err != nil {
			return indexer.Summary{}, fmt.Errorf("clear index: %w", err)
		}
	}

	summary, err = a.scanner.Scan(ctx, root, a.store)
	if err != nil {
		logger.Error().Err(err).Int64("entries", summary.Entries).Msg("indexing failed")
		return summary, fmt.Errorf("index %s: %w", root, err)
	}

	logger.Info().
		Int64("entries", summary.Entries).
		Int("batches", summary.Batches).
		Int64("skipped", summary.Skipped).
		Dur("elapsed", summary.Elapsed).
		Msg("indexing finished")
	return summary, nil
}

// Clear removes every record from the store.
func (a *App) Clear(ctx context.Context) error {
	if !a.mu.TryLock() {
		return ErrIndexInProgress
	}
	defer a.mu.Unlock()

	unlock, err := a.lockStore()
	if err != nil {
		return err
	}
	defer unlock()

	if err := a.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}
	log.Ctx(ctx).Info().Str("db", a.cfg.DBPath).Msg("index cleared")
	return nil
}

// Search runs the criteria against the store.
func (a *App) Search(ctx context.Context, criteria search.Criteria) ([]storage.Record, error) {
	if !a.mu.TryRLock() {
		return nil, ErrIndexInProgress
	}
	defer a.mu.RUnlock()

	return a.engine.Search(ctx, criteria)
}

// Stats summarizes the stored index.
func (a *App) Stats(ctx context.Context) (storage.Stats, error) {
	if !a.mu.TryRLock() {
		return storage.Stats{}, ErrIndexInProgress
	}
	defer a.mu.RUnlock()

	return a.store.Stats(ctx)
}

// Status returns a snapshot of the current or most recent index run.
func (a *App) Status() IndexStatus {
	a.statusMu.RLock()
	defer a.statusMu.RUnlock()
	return a.status
}

// DBPath returns the store location.
func (a *App) DBPath() string {
	return a.cfg.DBPath
}

func (a *App) setStatus(status IndexStatus) {
	a.statusMu.Lock()
	a.status = status
	a.statusMu.Unlock()
}

// lockStore takes the advisory lock that keeps writers in other processes out.
func (a *App) lockStore() (func(), error) {
	locked, err := a.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock index: %w", err)
	}
	if !locked {
		return nil, ErrIndexLocked
	}
	return func() { _ = a.lock.Unlock() }, nil
}
