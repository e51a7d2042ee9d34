package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-process KeyValueStore. Nothing survives the process.
type MemoryStore struct {
	mu        sync.RWMutex
	values    map[string]any
	listeners *listenerSet
}

// NewMemoryStore creates a store pre-populated with initial (may be nil).
func NewMemoryStore(initial map[string]any) *MemoryStore {
	values := make(map[string]any, len(initial))
	for k, v := range initial {
		values[k] = v
	}
	return &MemoryStore{values: values, listeners: newListenerSet()}
}

func (m *MemoryStore) Get(ctx context.Context, keys ...string) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		if v, ok := m.values[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *MemoryStore) Set(ctx context.Context, values map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	changed := make([]string, 0, len(values))
	m.mu.Lock()
	for k, v := range values {
		m.values[k] = v
		changed = append(changed, k)
	}
	m.mu.Unlock()

	m.listeners.notify(changed)
	return nil
}

func (m *MemoryStore) OnChanged(listener ChangeListener) func() {
	return m.listeners.add(listener)
}

// listenerSet is shared by the store implementations.
type listenerSet struct {
	mu     sync.Mutex
	nextID int
	fns    map[int]ChangeListener
}

func newListenerSet() *listenerSet {
	return &listenerSet{fns: make(map[int]ChangeListener)}
}

func (l *listenerSet) add(fn ChangeListener) func() {
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.fns[id] = fn
	l.mu.Unlock()
	return func() {
		l.mu.Lock()
		delete(l.fns, id)
		l.mu.Unlock()
	}
}

func (l *listenerSet) notify(keys []string) {
	if len(keys) == 0 {
		return
	}
	l.mu.Lock()
	fns := make([]ChangeListener, 0, len(l.fns))
	for _, fn := range l.fns {
		fns = append(fns, fn)
	}
	l.mu.Unlock()
	for _, fn := range fns {
		fn(keys)
	}
}

var _ KeyValueStore = (*MemoryStore)(nil)
