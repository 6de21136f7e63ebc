// Package ingestbox watches a drop directory for finished NDJSON log
// dumps and ingests each one exactly once. Unlike the teacher's
// internal/watcher, which tails a growing file byte offset by byte
// offset, this package only ever sees whole files: live/streaming
// ingestion is an explicit non-goal, so fsnotify here means "a complete
// file has arrived", never "more bytes were appended".
package ingestbox

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"rankforge/internal/lines"
	"rankforge/internal/models"
	"rankforge/internal/parser"
	"rankforge/internal/processor"
	"rankforge/internal/rating"
	"rankforge/internal/storage"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Box watches one drop directory. Multiple files may ingest concurrently
// (§5: "no shared mutable state between files except the storage
// layer"); MaxInFlight bounds how many run at once.
type Box struct {
	dir         string
	store       storage.Driver
	rate        *rating.Engine
	logger      *slog.Logger
	maxInFlight int

	watcher *fsnotify.Watcher
	seen    sync.Map // path -> struct{}: ingested at least once this process lifetime
}

// New opens a watch on dir. maxInFlight <= 0 defaults to 4.
func New(dir string, store storage.Driver, rate *rating.Engine, logger *slog.Logger, maxInFlight int) (*Box, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("ingestbox: create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("ingestbox: watch %s: %w", dir, err)
	}
	if maxInFlight <= 0 {
		maxInFlight = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Box{
		dir:         dir,
		store:       store,
		rate:        rate,
		logger:      logger,
		watcher:     watcher,
		maxInFlight: maxInFlight,
	}, nil
}

// Run ingests whatever already sits in the drop directory, then watches
// for new arrivals until ctx is cancelled. It returns once every
// in-flight ingestion has finished.
func (b *Box) Run(ctx context.Context) error {
	defer b.watcher.Close()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.maxInFlight)

	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return fmt.Errorf("ingestbox: read drop dir %s: %w", b.dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(b.dir, e.Name())
		if isDropFile(path) {
			b.submit(ctx, g, path)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return g.Wait()
		case ev, ok := <-b.watcher.Events:
			if !ok {
				return g.Wait()
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if isDropFile(ev.Name) {
				b.submit(ctx, g, ev.Name)
			}
		case werr, ok := <-b.watcher.Errors:
			if !ok {
				return g.Wait()
			}
			b.logger.Error("ingestbox: watcher error", "error", werr)
		}
	}
}

// isDropFile recognizes the NDJSON dumps this box ingests; anything else
// landing in the directory (partial uploads, sidecar files) is ignored.
func isDropFile(path string) bool {
	name := filepath.Base(path)
	return strings.HasSuffix(name, ".ndjson") && !strings.HasPrefix(name, ".")
}

func (b *Box) submit(ctx context.Context, g *errgroup.Group, path string) {
	if _, already := b.seen.LoadOrStore(path, struct{}{}); already {
		return
	}
	g.Go(func() error {
		if err := b.Ingest(ctx, path); err != nil {
			b.logger.Error("ingestbox: ingest failed", "path", path, "error", err)
		}
		// A single file's failure never aborts the whole box: other
		// files keep ingesting independently (§5 has no cross-file
		// dependency to preserve).
		return nil
	})
}

// Ingest fully parses and commits one dropped file: a fresh Parser and
// Processor pair per call, sharing only the storage driver with any
// concurrently ingesting file. Each call gets its own correlation id so
// one file's progress can be picked out of interleaved concurrent logs.
func (b *Box) Ingest(ctx context.Context, path string) error {
	runID := uuid.NewString()
	log := b.logger.With("ingest_id", runID, "path", path)

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("ingestbox: open %s: %w", path, err)
	}
	defer f.Close()

	reader, err := lines.Load(f)
	if err != nil {
		return fmt.Errorf("ingestbox: load %s: %w", path, err)
	}
	log.Info("ingestbox: starting ingest", "lines", reader.Len())

	proc := processor.New(b.store, b.rate)
	p := parser.New(reader, b.store.FindGameEvent)

	err = p.Run(func(msg models.Message) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return proc.Handle(msg)
	})
	if err != nil {
		return fmt.Errorf("ingestbox: parse %s: %w", path, err)
	}

	log.Info("ingestbox: ingested file")
	return nil
}
