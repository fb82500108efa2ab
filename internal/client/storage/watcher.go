package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher follows a FileBackend directory and refreshes the Store whenever
// another process replaces a document, so local subscribers see the change.
type Watcher struct {
	store   *Store
	backend *FileBackend
	log     *zap.Logger
	fs      *fsnotify.Watcher

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewWatcher prepares a watcher; call Start to begin delivering changes.
func NewWatcher(store *Store, backend *FileBackend, log *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{
		store:   store,
		backend: backend,
		log:     log,
		fs:      fw,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}, nil
}

// Start watches the backend directory until ctx is done or Close is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}
	if err := w.fs.Add(w.backend.Dir()); err != nil {
		return fmt.Errorf("watch %s: %w", w.backend.Dir(), err)
	}
	w.running = true
	go w.run(ctx)
	w.log.Debug("watching storage directory", zap.String("dir", w.backend.Dir()))
	return nil
}

// Close stops the event loop and releases the OS watch.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.running {
		w.running = false
		close(w.stopCh)
		w.mu.Unlock()
		<-w.doneCh
	} else {
		w.mu.Unlock()
	}
	return w.fs.Close()
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			key, ok := w.backend.KeyForPath(ev.Name)
			if !ok {
				continue
			}
			w.store.Refresh(ctx, key)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("storage watcher error", zap.Error(err))
		}
	}
}
