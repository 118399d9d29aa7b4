package indexer

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"pop/internal/storage"
)

const (
	// DefaultBatchSize is the number of records flushed per store transaction.
	DefaultBatchSize = 10000
	// DefaultQueueSize bounds the records buffered between walker and writer.
	DefaultQueueSize = 10000
)

// BatchWriter describes the persistence operation required by the scanner.
type BatchWriter interface {
	UpsertBatch(ctx context.Context, records []storage.Record) error
}

// Options configures a Scanner. Zero values select the defaults.
type Options struct {
	BatchSize int
	QueueSize int
}

// Scanner walks a directory tree and persists one record per entry.
type Scanner struct {
	batchSize int
	queueSize int
}

// Summary describes a finished scan.
type Summary struct {
	Root    string        `json:"root"`
	Entries int64         `json:"entries"`
	Batches int           `json:"batches"`
	Skipped int64         `json:"skipped"`
	Elapsed time.Duration `json:"elapsed"`
}

// New constructs a Scanner.
func New(opts Options) *Scanner {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	return &Scanner{batchSize: opts.BatchSize, queueSize: opts.QueueSize}
}

// Scan records root and every entry below it into store.
//
// One goroutine walks the tree and feeds a bounded queue, blocking while it is
// full; the calling goroutine drains the queue into batches and writes each
// full batch plus a final partial one. Entries whose metadata cannot be read
// are skipped. Symlinks are recorded as entries of their own and never
// followed, a symlinked root included.
//
// A failed write aborts the scan. Batches committed before the failure stay in
// the store.
func (s *Scanner) Scan(ctx context.Context, root string, store BatchWriter) (Summary, error) {
	start := time.Now()
	logger := log.Ctx(ctx)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	queue := make(chan storage.Record, s.queueSize)
	var skipped int64

	g, walkCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(queue)
		return walk(walkCtx, root, queue, &skipped)
	})

	summary := Summary{Root: root}
	batch := make([]storage.Record, 0, s.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := store.UpsertBatch(ctx, batch); err != nil {
			return err
		}
		summary.Entries += int64(len(batch))
		summary.Batches++
		logger.Debug().
			Int("batch", summary.Batches).
			Int("size", len(batch)).
			Int64("entries", summary.Entries).
			Msg("flushed batch")
		batch = batch[:0]
		return nil
	}

	var writeErr error
	for record := range queue {
		batch = append(batch, record)
		if len(batch) < s.batchSize {
			continue
		}
		if writeErr = flush(); writeErr != nil {
			break
		}
	}

	if writeErr != nil {
		cancel()
		for range queue {
		}
		_ = g.Wait()
		return summary, fmt.Errorf("write batch: %w", writeErr)
	}

	if err := g.Wait(); err != nil {
		return summary, fmt.Errorf("walk %s: %w", root, err)
	}
	if err := flush(); err != nil {
		return summary, fmt.Errorf("write final batch: %w", err)
	}

	summary.Skipped = skipped
	summary.Elapsed = time.Since(start)
	return summary, nil
}

func walk(ctx context.Context, root string, queue chan<- storage.Record, skipped *int64) error {
	logger := log.Ctx(ctx)

	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			*skipped++
			logger.Debug().Err(err).Str("path", path).Msg("skip unreadable entry")
			return nil
		}

		info, infoErr := entry.Info()
		if infoErr != nil {
			*skipped++
			logger.Debug().Err(infoErr).Str("path", path).Msg("skip entry without metadata")
			return nil
		}

		record := storage.NewRecord(filepath.Clean(path), info.Size(), info.ModTime(), info.IsDir())

		select {
		case queue <- record:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}
