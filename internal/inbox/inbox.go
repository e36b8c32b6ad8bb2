// Package inbox ingests CSV files dropped into per-dataset directories.
//
// Layout under the configured root:
//
//	<root>/product/feed.csv      -> replaces the product catalog
//	<root>/ecommerce/feed.csv    -> replaces the eCommerce feed
//
// A file is read once it has stopped changing for the settle delay. It is
// then moved to Uploaded/ or, when ingestion fails, to Failed/ together with
// a "<name> - error.txt" note. A file that finds every upload slot taken
// stays put and is tried again after another settle delay.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/JonMunkholm/FeedStatus/internal/core"
	"github.com/fsnotify/fsnotify"
)

const (
	UploadedDir = "Uploaded"
	FailedDir   = "Failed"

	// AuditSource is recorded as the IP address of inbox ingestions.
	AuditSource = "inbox"
	userAgent   = "feedstatus-inbox"
)

// Ingester replaces a dataset from a CSV body.
type Ingester interface {
	Ingest(ctx context.Context, key core.DatasetKey, fileName string, r io.Reader) (*core.IngestResult, error)
}

// Watcher watches one directory per registered dataset.
type Watcher struct {
	root     string
	settle   time.Duration
	ingester Ingester
	watcher  *fsnotify.Watcher

	// pending maps a path to its last change; owned by Run.
	pending map[string]time.Time
	now     func() time.Time
}

// New creates the dataset directories under root and starts watching them.
// Call Run to process events and Close if Run is never called.
func New(root string, settle time.Duration, ingester Ingester) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	for _, ds := range core.Datasets() {
		dir := filepath.Join(root, string(ds.Key))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fw.Close()
			return nil, fmt.Errorf("create inbox dir %s: %w", dir, err)
		}
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	return &Watcher{
		root:     root,
		settle:   settle,
		ingester: ingester,
		watcher:  fw,
		pending:  make(map[string]time.Time),
		now:      time.Now,
	}, nil
}

// Close releases the underlying watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Run processes files until ctx is cancelled. Files already present when
// Run starts are ingested first. Run closes the watcher before returning.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.queueExisting(); err != nil {
		return err
	}

	logger := slog.With("component", "inbox", "root", w.root)
	logger.Info("inbox watching", "settle", w.settle)

	tick := w.settle / 5
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("inbox stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("inbox watch error", "error", err)

		case <-ticker.C:
			w.processSettled(ctx)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !isCSV(event.Name) {
		return
	}
	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		w.pending[event.Name] = w.now()
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		delete(w.pending, event.Name)
	}
}

// queueExisting marks files left over from a previous run as settled.
func (w *Watcher) queueExisting() error {
	for _, ds := range core.Datasets() {
		dir := filepath.Join(w.root, string(ds.Key))
		entries, err := os.ReadDir(dir)
		if err != nil {
			return fmt.Errorf("reading directory %s: %w", dir, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !isCSV(entry.Name()) {
				continue
			}
			w.pending[filepath.Join(dir, entry.Name())] = time.Time{}
		}
	}
	return nil
}

func (w *Watcher) processSettled(ctx context.Context) {
	cutoff := w.now().Add(-w.settle)
	for path, changed := range w.pending {
		if changed.After(cutoff) {
			continue
		}
		delete(w.pending, path)
		w.process(ctx, path)
	}
}

// process ingests one file and files it away.
func (w *Watcher) process(ctx context.Context, path string) {
	name := filepath.Base(path)
	dir := filepath.Dir(path)
	key := core.DatasetKey(filepath.Base(dir))
	logger := slog.With("component", "inbox", "dataset", key, "file", name)

	f, err := os.Open(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Error("inbox open failed", "error", err)
		}
		return
	}

	ctx = core.WithSource(ctx, core.Source{IP: AuditSource, UserAgent: userAgent})
	res, err := w.ingester.Ingest(ctx, key, name, f)
	f.Close()

	if err != nil {
		if ctx.Err() != nil {
			// Shutting down; the file is picked up again on the next start.
			return
		}
		if errors.Is(err, core.ErrTooManyUploads) {
			logger.Info("inbox ingestion busy, retrying")
			w.pending[path] = w.now()
			return
		}
		msg := core.MapError(err)
		logger.Warn("inbox ingestion failed", "code", msg.Code, "error", err)
		if err := w.fail(dir, name, err); err != nil {
			logger.Error("inbox could not move failed file", "error", err)
		}
		return
	}

	logger.Info("inbox ingestion complete", "accepted", res.Accepted, "skipped", res.Skipped)
	if err := moveInto(dir, UploadedDir, name); err != nil {
		logger.Error("inbox could not move uploaded file", "error", err)
	}
}

func (w *Watcher) fail(dir, name string, cause error) error {
	if err := moveInto(dir, FailedDir, name); err != nil {
		return err
	}
	msg := core.MapError(cause)
	note := fmt.Sprintf("%s\n%s\nError code: %s\n\n%v\n", msg.Message, msg.Action, msg.Code, cause)
	notePath := filepath.Join(dir, FailedDir, strings.TrimSuffix(name, filepath.Ext(name))+" - error.txt")
	return os.WriteFile(notePath, []byte(note), 0o644)
}

func moveInto(dir, sub, name string) error {
	target := filepath.Join(dir, sub)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", sub, err)
	}
	if err := os.Rename(filepath.Join(dir, name), filepath.Join(target, name)); err != nil {
		return fmt.Errorf("failed moving file %s: %w", name, err)
	}
	return nil
}

func isCSV(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".csv")
}
