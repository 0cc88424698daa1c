package services

import (
	"context"
	"sync"

	apperrors "github.com/yashrajoria/E-Commerce-storefront/services/common/errors"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/models"
)

type mutation struct {
	ctx  context.Context
	run  func(ctx context.Context) error
	done chan error
}

// mutationQueue runs cart mutations one at a time in submission order.
// A mutation, including any resync it performs, finishes before the next one starts.
type mutationQueue struct {
	jobs      chan *mutation
	stop      chan struct{}
	closeOnce sync.Once
}

func newMutationQueue() *mutationQueue {
	q := &mutationQueue{
		jobs: make(chan *mutation),
		stop: make(chan struct{}),
	}
	go q.loop()
	return q
}

func (q *mutationQueue) loop() {
	for {
		select {
		case m := <-q.jobs:
			select {
			case <-q.stop:
				m.done <- apperrors.IllegalState("cart is closed")
				continue
			default:
			}
			if err := m.ctx.Err(); err != nil {
				m.done <- err
				continue
			}
			m.done <- m.run(m.ctx)
		case <-q.stop:
			return
		}
	}
}

// Do enqueues run and waits for it. If ctx ends while the mutation is still
// queued, it is never started.
func (q *mutationQueue) Do(ctx context.Context, run func(ctx context.Context) error) error {
	select {
	case <-q.stop:
		return apperrors.IllegalState("cart is closed")
	default:
	}
	m := &mutation{ctx: ctx, run: run, done: make(chan error, 1)}
	select {
	case q.jobs <- m:
	case <-ctx.Done():
		return ctx.Err()
	case <-q.stop:
		return apperrors.IllegalState("cart is closed")
	}
	return <-m.done
}

func (q *mutationQueue) Close() {
	q.closeOnce.Do(func() { close(q.stop) })
}

// optimistic applies a local change, publishes it, then confirms it remotely.
// On failure the pre-call cart is restored exactly. A nil cart from remote keeps
// the optimistic state; a non-nil cart replaces it.
func (o *Orchestrator) optimistic(ctx context.Context, op string, apply func(cart *models.Cart), remote func(ctx context.Context) (*models.Cart, error)) error {
	snapshot := o.store.Cart()
	next := snapshot.Clone()
	apply(&next)
	o.store.SetCart(next)

	confirmed, err := remote(ctx)
	if err != nil {
		o.store.SetCart(snapshot)
		o.rolledBack(ctx, op, err)
		return o.session.Guard(ctx, err)
	}
	if confirmed != nil {
		o.store.SetCart(*confirmed)
	}
	o.mutated(ctx, op)
	return nil
}
