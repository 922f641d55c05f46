// Package pool implements the obfuscator's worker pool abstraction: one
// uniform Map surface over four execution strategies (serial, thread,
// process, green), plus a bounded-futures helper for heterogeneous
// tasks keyed by something other than a slice index.
//
// Go has no native process-pool or green-thread primitive distinct
// from a goroutine, so "process" and "thread" pools share the same
// bounded-goroutine implementation; "green" spawns one goroutine per
// item, unbounded, leaning on the runtime scheduler the way a
// green-thread pool would. The four-way split is kept at the type
// level purely so callers and config files written against the
// four-name surface keep meaning what they said.
package pool

import (
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/obsidian-labs/logobf/internal/config"
)

// Kind is the resolved execution strategy behind a Pool.
type Kind int

const (
	KindSerial Kind = iota
	KindThread
	KindProcess
	KindGreen
)

// Pool holds the resolved kind and worker count for a Map call.
type Pool struct {
	kind    Kind
	workers int
}

// New resolves poolType (one of config.PoolTypes) and workers into a
// Pool. serially, when true, overrides poolType to KindSerial
// regardless of what was requested — the --serially flag always wins.
func New(poolType string, workers int, serially bool) *Pool {
	if workers < 1 {
		workers = 1
	}
	if serially {
		return &Pool{kind: KindSerial, workers: 1}
	}
	switch poolType {
	case config.PoolSerial:
		return &Pool{kind: KindSerial, workers: 1}
	case config.PoolThread:
		return &Pool{kind: KindThread, workers: workers}
	case config.PoolGreen:
		return &Pool{kind: KindGreen, workers: workers}
	default:
		return &Pool{kind: KindProcess, workers: workers}
	}
}

// NewManagement returns a pool always backed by the bounded-goroutine
// implementation, independent of --pool-type and --serially. The split
// strategies use it to process one file's parts.
func NewManagement(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{kind: KindThread, workers: workers}
}

// Workers reports the pool's configured concurrency.
func (p *Pool) Workers() int { return p.workers }

// Kind reports the pool's resolved execution strategy.
func (p *Pool) Kind() Kind { return p.kind }

// Map applies fn to every item, preserving input order in the result
// and error slices. A panic in fn is not recovered — callers running
// fn on untrusted input should recover inside fn itself.
func Map[T any, R any](p *Pool, fn func(T) (R, error), items []T) ([]R, []error) {
	results := make([]R, len(items))
	errOut := make([]error, len(items))

	switch p.kind {
	case KindSerial:
		for i, item := range items {
			results[i], errOut[i] = fn(item)
		}
	case KindGreen:
		var wg sync.WaitGroup
		wg.Add(len(items))
		for i, item := range items {
			go func(i int, item T) {
				defer wg.Done()
				results[i], errOut[i] = fn(item)
			}(i, item)
		}
		wg.Wait()
	default: // KindThread, KindProcess
		var g errgroup.Group
		g.SetLimit(max(p.workers, 1))
		for i, item := range items {
			i, item := i, item
			g.Go(func() error {
				results[i], errOut[i] = fn(item)
				return nil
			})
		}
		_ = g.Wait() // fn's own errors are collected per-item in errOut
	}
	return results, errOut
}

// Future is one completed task from BoundedFutures.
type Future[K comparable, R any] struct {
	Key    K
	Result R
	Err    error
}

// BoundedFutures runs every job in jobs with at most workers running
// concurrently, and streams each Future on the returned channel as it
// completes — not in submission order. The channel is closed once
// every job has reported.
func BoundedFutures[K comparable, R any](workers int, jobs map[K]func() (R, error)) <-chan Future[K, R] {
	if workers < 1 {
		workers = 1
	}
	out := make(chan Future[K, R])
	go func() {
		defer close(out)
		var g errgroup.Group
		g.SetLimit(workers)
		for k, fn := range jobs {
			k, fn := k, fn
			g.Go(func() error {
				r, err := fn()
				out <- Future[K, R]{Key: k, Result: r, Err: err}
				return nil
			})
		}
		_ = g.Wait()
	}()
	return out
}
