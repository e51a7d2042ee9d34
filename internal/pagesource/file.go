package pagesource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"linkedlens/internal/util"
)

// FileSource loads an HTML snapshot of the feed and reloads it whenever the file is
// written, for example by a browser extension or a scraper saving the page.
type FileSource struct {
	path   string
	mirror *Mirror
}

func NewFileSource(path string, mirror *Mirror) *FileSource {
	return &FileSource{path: path, mirror: mirror}
}

// Load reads the file once and mirrors it.
func (s *FileSource) Load() (SyncResult, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return SyncResult{}, fmt.Errorf("read snapshot %s: %w", s.path, err)
	}
	return s.mirror.SyncHTML(util.CleanText(raw, s.path))
}

// Run loads the snapshot and then follows changes until ctx ends.
func (s *FileSource) Run(ctx context.Context) error {
	if _, err := s.Load(); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(s.path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", s.path, err)
	}
	// Watch the directory so editors that replace the file are followed too.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	log.Infof("Watching feed snapshot %s", abs)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			if res, err := s.Load(); err != nil {
				log.Warnf("Reload snapshot: %v", err)
			} else {
				log.Debugf("Snapshot reloaded: %d new, %d gone", res.Added, res.Removed)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warnf("Snapshot watcher error: %v", err)
		}
	}
}

var _ Source = (*FileSource)(nil)
