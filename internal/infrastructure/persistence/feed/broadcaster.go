// Package feed fans task snapshots out to subscribers for backends that have
// no change stream of their own.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rezkam/todoline/internal/domain"
)

// ListFunc loads the current full task list.
type ListFunc func(ctx context.Context) ([]*domain.Task, error)

// Broadcaster delivers a fresh snapshot to every subscriber after each write.
// Each subscriber runs on its own goroutine and only ever sees the newest
// snapshot: a slow subscriber skips intermediate ones instead of blocking
// writers.
type Broadcaster struct {
	list ListFunc

	// publishMu orders list-then-offer so snapshots reach subscribers in
	// the order they were read.
	publishMu sync.Mutex

	mu     sync.Mutex
	nextID int
	subs   map[int]*subscriber
}

type subscriber struct {
	latest chan []*domain.Task
	done   chan struct{}
	once   sync.Once
}

// New creates a Broadcaster that reads snapshots with list.
func New(list ListFunc) *Broadcaster {
	return &Broadcaster{
		list: list,
		subs: make(map[int]*subscriber),
	}
}

// Subscribe registers fn and delivers the current list to it straight away.
// fn is called until unsubscribe is called or ctx ends.
func (b *Broadcaster) Subscribe(ctx context.Context, fn func([]*domain.Task)) (func(), error) {
	b.publishMu.Lock()
	defer b.publishMu.Unlock()

	initial, err := b.list(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load initial snapshot: %w", err)
	}

	sub := &subscriber{
		latest: make(chan []*domain.Task, 1),
		done:   make(chan struct{}),
	}
	sub.latest <- initial

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = sub
	b.mu.Unlock()

	unsubscribe := func() {
		sub.once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(sub.done)
		})
	}

	go func() {
		for {
			select {
			case tasks := <-sub.latest:
				fn(tasks)
			case <-sub.done:
				return
			case <-ctx.Done():
				unsubscribe()
				return
			}
		}
	}()

	return unsubscribe, nil
}

// Publish loads the list once and hands it to every subscriber. Failures are
// logged: a write that already succeeded is not failed by its notification.
// Cancellation of ctx is ignored so that a caller going away after its write
// does not starve the other subscribers.
func (b *Broadcaster) Publish(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)

	b.publishMu.Lock()
	defer b.publishMu.Unlock()

	b.mu.Lock()
	if len(b.subs) == 0 {
		b.mu.Unlock()
		return
	}
	subs := make([]*subscriber, 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	tasks, err := b.list(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load snapshot for subscribers", "error", err)
		return
	}

	for _, s := range subs {
		s.offer(clone(tasks))
	}
}

// Subscribers reports how many subscriptions are active.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// offer replaces any undelivered snapshot with tasks.
func (s *subscriber) offer(tasks []*domain.Task) {
	for {
		select {
		case s.latest <- tasks:
			return
		default:
		}
		select {
		case <-s.latest:
		default:
		}
	}
}

func clone(tasks []*domain.Task) []*domain.Task {
	out := make([]*domain.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
