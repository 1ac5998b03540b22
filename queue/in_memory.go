package queue

import (
	"errors"
	"sync"
)

// ErrQueueFull is returned when adding to a full in-memory queue.
var ErrQueueFull = errors.New("queue MaxSize reached")

// MemoryStorage keeps encoded jobs in a FIFO slice. It is the storage used
// when New gets none.
type MemoryStorage struct {
	// MaxSize bounds the number of pending jobs, zero means unbounded.
	MaxSize int

	mu      sync.Mutex
	entries [][]byte
	head    int
}

func NewInMemory(size int) *MemoryStorage {
	return &MemoryStorage{MaxSize: size}
}

func (m *MemoryStorage) Init() error {
	return nil
}

func (m *MemoryStorage) AddRequest(entry []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.MaxSize > 0 && m.pending() >= m.MaxSize {
		return ErrQueueFull
	}

	m.entries = append(m.entries, entry)

	return nil
}

// GetRequest pops the oldest entry, nil when there is none.
func (m *MemoryStorage) GetRequest() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending() == 0 {
		return nil, nil
	}

	entry := m.entries[m.head]
	m.entries[m.head] = nil
	m.head++

	// drop the consumed prefix once it outweighs what is left
	if m.head > len(m.entries)/2 {
		m.entries = append(m.entries[:0:0], m.entries[m.head:]...)
		m.head = 0
	}

	return entry, nil
}

func (m *MemoryStorage) QueueSize() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.pending(), nil
}

// Clear drops every pending entry.
func (m *MemoryStorage) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = nil
	m.head = 0

	return nil
}

func (m *MemoryStorage) pending() int {
	return len(m.entries) - m.head
}
