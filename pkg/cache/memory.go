package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// DefaultMemoryCapacity is the entry limit of the in-process tier.
const DefaultMemoryCapacity = 10_000

type memoryItem struct {
	key   string
	entry Entry
}

// MemoryTier is the in-process tier: a mutex-guarded map with LRU eviction.
// When the tier reaches its capacity, the least recently used entry is evicted.
type MemoryTier struct {
	capacity int
	items    map[string]*list.Element
	eviction *list.List
	mu       sync.Mutex
	onEvict  func(key string, e Entry) // Called when capacity forces an entry out
}

// NewMemoryTier creates a memory tier holding at most capacity entries.
// Non-positive capacity means DefaultMemoryCapacity.
func NewMemoryTier(capacity int) *MemoryTier {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryTier{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		eviction: list.New(),
	}
}

// SetEvictCallback sets a function called for every entry evicted by the
// capacity limit. Deletes, expiry and Clear do not trigger it.
func (m *MemoryTier) SetEvictCallback(fn func(key string, e Entry)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEvict = fn
}

func (m *MemoryTier) Name() string { return "memory" }

// Get returns the entry and marks it as recently used.
func (m *MemoryTier) Get(_ context.Context, key string) (Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if elem, ok := m.items[key]; ok {
		m.eviction.MoveToFront(elem)
		return elem.Value.(*memoryItem).entry, true, nil
	}
	return Entry{}, false, nil
}

// Set adds or replaces the entry under key.
func (m *MemoryTier) Set(_ context.Context, key string, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if elem, ok := m.items[key]; ok {
		m.eviction.MoveToFront(elem)
		elem.Value.(*memoryItem).entry = e
		return nil
	}

	m.items[key] = m.eviction.PushFront(&memoryItem{key: key, entry: e})
	if m.eviction.Len() > m.capacity {
		m.evictOldest()
	}
	return nil
}

func (m *MemoryTier) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if elem, ok := m.items[key]; ok {
		m.removeElement(elem)
	}
	return nil
}

// CompareAndDelete removes key only if its entry was created at createdAt.
// An entry replaced since the caller read it is left alone.
func (m *MemoryTier) CompareAndDelete(key string, createdAt time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	elem, ok := m.items[key]
	if !ok || !elem.Value.(*memoryItem).entry.CreatedAt.Equal(createdAt) {
		return false
	}
	m.removeElement(elem)
	return true
}

// RemoveExpired drops every entry expired at now and returns how many.
func (m *MemoryTier) RemoveExpired(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for elem := m.eviction.Back(); elem != nil; {
		prev := elem.Prev()
		if elem.Value.(*memoryItem).entry.Expired(now) {
			m.removeElement(elem)
			removed++
		}
		elem = prev
	}
	return removed, nil
}

func (m *MemoryTier) Len(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eviction.Len(), nil
}

// Clear removes all entries.
func (m *MemoryTier) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items = make(map[string]*list.Element)
	m.eviction.Init()
	return nil
}

// Must be called with lock held.
func (m *MemoryTier) evictOldest() {
	elem := m.eviction.Back()
	if elem == nil {
		return
	}
	m.removeElement(elem)
	if m.onEvict != nil {
		item := elem.Value.(*memoryItem)
		m.onEvict(item.key, item.entry)
	}
}

// Must be called with lock held.
func (m *MemoryTier) removeElement(elem *list.Element) {
	m.eviction.Remove(elem)
	delete(m.items, elem.Value.(*memoryItem).key)
}
