package kv

import (
	"context"
	"sync"
)

// DefaultQuotaBytes matches the per-origin limit browsers apply to local storage.
const DefaultQuotaBytes = 5 << 20

// MemBackend is shared data that several MemStore instances open, the way
// several tabs share one browser profile.
type MemBackend struct {
	mu        sync.Mutex
	data      map[string]string
	used      int
	quota     int
	instances map[*MemStore]struct{}
}

// NewMemBackend returns an empty backend. quota <= 0 disables the size limit.
func NewMemBackend(quota int) *MemBackend {
	return &MemBackend{
		data:      make(map[string]string),
		quota:     quota,
		instances: make(map[*MemStore]struct{}),
	}
}

// Open attaches a new instance. Changes are delivered to its subscribers on
// a dedicated goroutine, in the order the backend applied them.
func (b *MemBackend) Open() *MemStore {
	s := &MemStore{b: b, done: make(chan struct{})}
	s.cond = sync.NewCond(&s.mu)

	b.mu.Lock()
	b.instances[s] = struct{}{}
	b.mu.Unlock()

	go s.run()
	return s
}

func entrySize(key, value string) int { return len(key) + len(value) }

func (b *MemBackend) set(from *MemStore, key, value string) error {
	b.mu.Lock()
	used := b.used
	if old, ok := b.data[key]; ok {
		used -= entrySize(key, old)
	}
	used += entrySize(key, value)
	if b.quota > 0 && used > b.quota {
		b.mu.Unlock()
		return ErrQuotaExceeded
	}
	b.data[key] = value
	b.used = used
	peers := b.peersLocked(from)
	b.mu.Unlock()

	for _, p := range peers {
		p.enqueue(Change{Key: key, Value: value})
	}
	return nil
}

func (b *MemBackend) delete(from *MemStore, key string) {
	b.mu.Lock()
	old, ok := b.data[key]
	if !ok {
		b.mu.Unlock()
		return
	}
	delete(b.data, key)
	b.used -= entrySize(key, old)
	peers := b.peersLocked(from)
	b.mu.Unlock()

	for _, p := range peers {
		p.enqueue(Change{Key: key, Deleted: true})
	}
}

func (b *MemBackend) get(key string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.data[key]
	return v, ok
}

func (b *MemBackend) peersLocked(from *MemStore) []*MemStore {
	out := make([]*MemStore, 0, len(b.instances))
	for s := range b.instances {
		if s != from {
			out = append(out, s)
		}
	}
	return out
}

// Used reports the bytes currently counted against the quota.
func (b *MemBackend) Used() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}

type MemStore struct {
	b *MemBackend

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Change
	subs   subscribers
	closed bool
	done   chan struct{}
}

// NewMemStore opens a single instance on a private backend.
func NewMemStore() *MemStore {
	return NewMemBackend(DefaultQuotaBytes).Open()
}

func (s *MemStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := s.check(ctx); err != nil {
		return "", false, err
	}
	v, ok := s.b.get(key)
	return v, ok, nil
}

func (s *MemStore) Set(ctx context.Context, key, value string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	return s.b.set(s, key, value)
}

func (s *MemStore) Delete(ctx context.Context, key string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	s.b.delete(s, key)
	return nil
}

func (s *MemStore) Subscribe(fn func(Change)) func() {
	s.mu.Lock()
	id := s.subs.add(fn)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		s.subs.remove(id)
		s.mu.Unlock()
	}
}

func (s *MemStore) Ping(ctx context.Context) error { return s.check(ctx) }

func (s *MemStore) Close() error {
	s.b.mu.Lock()
	delete(s.b.instances, s)
	s.b.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.queue = nil
	s.cond.Broadcast()
	return nil
}

func (s *MemStore) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *MemStore) enqueue(c Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.queue = append(s.queue, c)
	s.cond.Signal()
}

func (s *MemStore) run() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if s.closed {
			s.mu.Unlock()
			return
		}
		c := s.queue[0]
		s.queue = s.queue[1:]
		fns := s.subs.snapshot()
		s.mu.Unlock()

		for _, fn := range fns {
			fn(c)
		}
	}
}
