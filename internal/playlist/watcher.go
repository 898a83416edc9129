package playlist

import (
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher monitors the ads directory for file system events and emits
// a coalesced change signal so the scheduler can rebuild its playlist
// without operator input. Pending signals collapse into one; the
// scheduler rescans once regardless of how many files changed.
type Watcher struct {
	logger  *zap.Logger
	watcher *fsnotify.Watcher
	changes chan struct{}
	stopCh  chan struct{}
}

// NewWatcher creates a Watcher over dir. The directory must exist.
func NewWatcher(dir string, logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}

	logger.Info("monitoring ads directory", zap.String("dir", dir))

	return &Watcher{
		logger:  logger,
		watcher: fw,
		changes: make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
	}, nil
}

// Changes carries at most one pending change notification.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Start services file system events. It blocks until Stop() is called
// or the underlying watcher closes.
func (w *Watcher) Start() error {
	for {
		select {
		case <-w.stopCh:
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if isRelevantEvent(event) {
				w.logger.Debug("ads directory event",
					zap.String("op", event.Op.String()),
					zap.String("name", event.Name))
				select {
				case w.changes <- struct{}{}:
				default:
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

// Stop halts the watch loop and releases the fsnotify resources. Safe
// to call more than once.
func (w *Watcher) Stop() {
	select {
	case <-w.stopCh:
		return
	default:
		close(w.stopCh)
	}
	w.watcher.Close()
}

// isRelevantEvent filters for file create, remove, and rename events
// that would change the playlist contents.
func isRelevantEvent(e fsnotify.Event) bool {
	return e.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0
}
