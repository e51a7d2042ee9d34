package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// ViperStore keeps the settings in a JSON file read through viper. Writes rewrite the
// whole file; edits made by other processes are picked up by Watch.
//
// viper lower-cases keys, so lookups are case-insensitive and the file ends up with
// lower-case keys.
type ViperStore struct {
	path      string
	mu        sync.Mutex
	v         *viper.Viper
	listeners *listenerSet
}

// NewViperStore opens (creating if needed) the settings file at path.
func NewViperStore(path string) (*ViperStore, error) {
	if path == "" {
		return nil, errors.New("settings path is empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve settings path %q: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o700); err != nil {
		return nil, fmt.Errorf("create settings directory: %w", err)
	}
	if _, err := os.Stat(abs); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(abs, []byte("{}\n"), 0o600); err != nil {
			return nil, fmt.Errorf("create settings file: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigFile(abs)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read settings file %s: %w", abs, err)
	}

	return &ViperStore{path: abs, v: v, listeners: newListenerSet()}, nil
}

// Path returns the absolute path of the backing file.
func (s *ViperStore) Path() string { return s.path }

func (s *ViperStore) Get(ctx context.Context, keys ...string) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		if s.v.IsSet(k) {
			out[k] = s.v.Get(k)
		}
	}
	return out, nil
}

func (s *ViperStore) Set(ctx context.Context, values map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	changed := make([]string, 0, len(values))

	s.mu.Lock()
	// Merge into what is on disk now so edits by other processes survive.
	external, err := s.readLocked()
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("read settings file: %w", err)
	}
	settings := s.v.AllSettings()
	for k, val := range values {
		settings[strings.ToLower(k)] = val
		changed = append(changed, k)
	}
	for _, k := range external {
		if !slices.Contains(changed, k) {
			changed = append(changed, k)
		}
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.WriteFile(s.path, append(data, '\n'), 0o600); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("write settings file: %w", err)
	}
	err = s.v.ReadInConfig()
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("reload settings file: %w", err)
	}

	s.listeners.notify(changed)
	return nil
}

func (s *ViperStore) OnChanged(listener ChangeListener) func() {
	return s.listeners.add(listener)
}

// Watch reloads the file whenever it is written or replaced and notifies listeners
// with the keys whose values differ from the last load. Writes made through Set are
// already loaded, so they produce no notification here. It returns when ctx is done.
func (s *ViperStore) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create settings watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors often replace the file instead of writing it.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("watch settings directory: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != s.path || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			changed, err := s.reload()
			if err != nil {
				log.Warnf("Settings file changed but could not be reloaded: %v", err)
				continue
			}
			log.Debugf("Settings file %s reloaded, %d keys changed", s.path, len(changed))
			s.listeners.notify(changed)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warnf("Settings watcher error: %v", err)
		}
	}
}

// reload re-reads the file and returns the known keys whose values changed.
func (s *ViperStore) reload() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked()
}

func (s *ViperStore) readLocked() ([]string, error) {
	before := make(map[string]any, len(allKeys))
	for _, k := range allKeys {
		before[k] = s.v.Get(k)
	}
	if err := s.v.ReadInConfig(); err != nil {
		return nil, err
	}
	var changed []string
	for _, k := range allKeys {
		if !reflect.DeepEqual(before[k], s.v.Get(k)) {
			changed = append(changed, k)
		}
	}
	return changed, nil
}

var _ KeyValueStore = (*ViperStore)(nil)
