package state

import (
	"fmt"
	"sync"
)

// Retention is the memory region that outlives a restart.
// Read reports ok=false when nothing has been retained yet (first boot).
type Retention interface {
	Read() (s Snapshot, ok bool, err error)
	Write(s Snapshot) error
}

// Store binds a live Node to its retention backend.
type Store struct {
	retention Retention
	node      *Node
	firstBoot bool
}

// Open loads the retained state, falling back to Defaults(bootTime) on first boot.
func Open(r Retention, bootTime int64) (*Store, error) {
	s, ok, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read retained state: %w", err)
	}
	if !ok {
		s = Defaults(bootTime)
	}
	return &Store{
		retention: r,
		node:      NewNode(s),
		firstBoot: !ok,
	}, nil
}

// Load returns the state as it stands, including any in-place mutations.
func (s *Store) Load() Snapshot { return s.node.Snapshot() }

func (s *Store) Node() *Node { return s.node }

func (s *Store) FirstBoot() bool { return s.firstBoot }

// Flush writes the live state into the retention region. The power executor
// calls it right before the process image is replaced.
func (s *Store) Flush() error {
	if err := s.retention.Write(s.node.Snapshot()); err != nil {
		return fmt.Errorf("write retained state: %w", err)
	}
	return nil
}

// Memory is a process-local retention region, used where no backing storage
// exists and to simulate restarts in tests.
type Memory struct {
	mu  sync.Mutex
	s   Snapshot
	set bool
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Read() (Snapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s, m.set, nil
}

func (m *Memory) Write(s Snapshot) error {
	m.mu.Lock()
	m.s = s
	m.set = true
	m.mu.Unlock()
	return nil
}
