// Package kv is the durable key/value store the catalog persists into.
//
// Every backend shares one contract: writes made through one Store are
// announced to the subscribers of every other Store opened on the same
// backing data, and never to the writer's own subscribers.
package kv

import (
	"context"
	"errors"
	"time"
)

var (
	ErrQuotaExceeded = errors.New("kv: quota exceeded")
	ErrClosed        = errors.New("kv: store closed")
)

// Change describes a write made by another instance.
type Change struct {
	Key     string
	Value   string
	Deleted bool
}

type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Subscribe(fn func(Change)) (cancel func())
	Ping(ctx context.Context) error
	Close() error
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}

// subscribers is the fan-out list shared by the backends.
type subscribers struct {
	next int
	fns  map[int]func(Change)
}

func (s *subscribers) add(fn func(Change)) int {
	if s.fns == nil {
		s.fns = make(map[int]func(Change))
	}
	s.next++
	s.fns[s.next] = fn
	return s.next
}

func (s *subscribers) remove(id int) {
	delete(s.fns, id)
}

func (s *subscribers) snapshot() []func(Change) {
	out := make([]func(Change), 0, len(s.fns))
	for i := 1; i <= s.next; i++ {
		if fn, ok := s.fns[i]; ok {
			out = append(out, fn)
		}
	}
	return out
}
