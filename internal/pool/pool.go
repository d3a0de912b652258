// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package pool

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// DefaultWorkers is W in spec terms: the bounded pool size.
	DefaultWorkers = 4
	// DefaultResultTTL is how long a SpecialistResult stays servable from
	// cache after its Task completes.
	DefaultResultTTL = 300 * time.Second
	// defaultPrefetchQueueSize bounds the pre-fetch FIFO; once full, the
	// oldest unconsumed pre-fetch entry is dropped to admit a new one.
	defaultPrefetchQueueSize = 64
	// cacheCap is the LRU ceiling on the result cache (spec §4.9 open
	// question, resolved in DESIGN.md: 500 entries) so a burst of
	// distinct fingerprints can't grow the cache unboundedly between TTL
	// sweeps.
	cacheCap = 500
)

// Executor runs one Task end-to-end (agent loop, tool calls, LLM calls)
// and returns the resulting content and its cost. It is supplied by the
// caller so the pool has no direct dependency on the agent package's
// concrete loop implementation.
type Executor func(ctx context.Context, task Task) (content string, costUSD float64, err error)

// Future is a handle to a Task's eventual SpecialistResult.
type Future struct {
	fingerprint string

	mu        sync.Mutex
	done      chan struct{}
	result    SpecialistResult
	cancelled bool
	expiresAt time.Time
}

func newFuture(fingerprint string) *Future {
	return &Future{fingerprint: fingerprint, done: make(chan struct{})}
}

func (f *Future) complete(result SpecialistResult, ttl time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	select {
	case <-f.done:
		return // already completed or cancelled
	default:
	}
	f.result = result
	f.expiresAt = result.CreatedAt.Add(ttl)
	close(f.done)
}

func (f *Future) cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	select {
	case <-f.done:
		return
	default:
	}
	f.cancelled = true
	close(f.done)
}

// TryGet is the non-blocking form: timeout=0 returns immediately.
func (f *Future) TryGet(timeout time.Duration) (SpecialistResult, Status) {
	if timeout <= 0 {
		select {
		case <-f.done:
			return f.snapshot()
		default:
			return SpecialistResult{}, StatusPending
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-f.done:
		return f.snapshot()
	case <-timer.C:
		return SpecialistResult{}, StatusPending
	}
}

// Await blocks until the Future completes, ctx is cancelled, or timeout
// elapses, whichever comes first.
func (f *Future) Await(ctx context.Context, timeout time.Duration) (SpecialistResult, Status) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-f.done:
		return f.snapshot()
	case <-timer.C:
		return SpecialistResult{}, StatusPending
	case <-ctx.Done():
		return SpecialistResult{}, StatusPending
	}
}

func (f *Future) snapshot() (SpecialistResult, Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancelled {
		return SpecialistResult{}, StatusCancelled
	}
	if time.Now().After(f.expiresAt) {
		return SpecialistResult{}, StatusExpired
	}
	return f.result, StatusReady
}

type queuedTask struct {
	task        Task
	fingerprint string
	future      *Future
}

// Pool is the bounded-worker SpecialistPool.
//
// Thread Safety: Safe for concurrent use.
type Pool struct {
	executor Executor
	logger   *slog.Logger
	ttl      time.Duration
	workers  int

	mu             sync.Mutex
	inflight       map[string]*Future
	cache          *lru.Cache[string, SpecialistResult]
	immediateQueue []queuedTask
	prefetchQueue  []queuedTask
	queueNotify    chan struct{}

	shutdownOnce sync.Once
	shutdownCh   chan struct{}
	wg           sync.WaitGroup
}

// New constructs a Pool with workers goroutines and starts them. ttl is
// the result-cache lifetime; pass 0 to use DefaultResultTTL.
func New(workers int, ttl time.Duration, executor Executor, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if ttl <= 0 {
		ttl = DefaultResultTTL
	}
	cache, _ := lru.New[string, SpecialistResult](cacheCap)

	p := &Pool{
		executor:    executor,
		logger:      logger,
		ttl:         ttl,
		workers:     workers,
		inflight:    make(map[string]*Future),
		cache:       cache,
		queueNotify: make(chan struct{}, workers),
		shutdownCh:  make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.runWorker()
	}
	return p
}

func (p *Pool) log() *slog.Logger {
	if p.logger != nil {
		return p.logger
	}
	return slog.New(slog.NewTextHandler(discardWriter{}, nil))
}

type discardWriter struct{}

func (discardWriter) Write(b []byte) (int, error) { return len(b), nil }

// Submit enqueues task, or returns the existing in-flight/cached Future
// for its fingerprint. priority=true marks an immediate-specialist
// submission, which is never subject to pre-fetch eviction and is served
// ahead of queued pre-fetches.
func (p *Pool) Submit(task Task, priority bool) *Future {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	fingerprint := Fingerprint(task.Kind, task.FocusedBrief, task.SessionID)

	p.mu.Lock()
	select {
	case <-p.shutdownCh:
		p.mu.Unlock()
		f := newFuture(fingerprint)
		f.cancel()
		return f
	default:
	}
	if cached, ok := p.cache.Get(fingerprint); ok {
		if time.Now().Before(cached.CreatedAt.Add(p.ttl)) {
			f := newFuture(fingerprint)
			f.complete(cached, p.ttl)
			p.mu.Unlock()
			return f
		}
		p.cache.Remove(fingerprint)
	}
	if existing, ok := p.inflight[fingerprint]; ok {
		p.mu.Unlock()
		return existing
	}

	future := newFuture(fingerprint)
	p.inflight[fingerprint] = future
	qt := queuedTask{task: task, fingerprint: fingerprint, future: future}

	if priority {
		p.immediateQueue = append(p.immediateQueue, qt)
	} else {
		if len(p.prefetchQueue) >= defaultPrefetchQueueSize {
			dropped := p.prefetchQueue[0]
			p.prefetchQueue = p.prefetchQueue[1:]
			delete(p.inflight, dropped.fingerprint)
			dropped.future.cancel()
			p.log().Info("pool: dropped oldest pre-fetch future to admit new submission", "dropped_fingerprint", dropped.fingerprint)
		}
		p.prefetchQueue = append(p.prefetchQueue, qt)
	}
	p.mu.Unlock()

	select {
	case p.queueNotify <- struct{}{}:
	default:
	}
	return future
}

// TryGetFingerprint looks up an in-flight or cached Future by the
// fingerprint the caller would compute for a predicted follow-up, without
// submitting a new Task. Used by the Orchestrator's cache-consumption
// check on step 6 before it decides whether to submit at all.
func (p *Pool) TryGetFingerprint(fingerprint string) (SpecialistResult, Status) {
	p.mu.Lock()
	if cached, ok := p.cache.Get(fingerprint); ok {
		if time.Now().Before(cached.CreatedAt.Add(p.ttl)) {
			p.mu.Unlock()
			return cached, StatusReady
		}
		p.cache.Remove(fingerprint)
	}
	future, ok := p.inflight[fingerprint]
	p.mu.Unlock()
	if !ok {
		return SpecialistResult{}, StatusExpired
	}
	return future.TryGet(0)
}

func (p *Pool) runWorker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.shutdownCh:
			return
		case <-p.queueNotify:
		}

		for {
			qt, ok := p.dequeue()
			if !ok {
				break
			}
			p.execute(qt)
		}
	}
}

func (p *Pool) dequeue() (queuedTask, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.immediateQueue) > 0 {
		qt := p.immediateQueue[0]
		p.immediateQueue = p.immediateQueue[1:]
		return qt, true
	}
	if len(p.prefetchQueue) > 0 {
		qt := p.prefetchQueue[0]
		p.prefetchQueue = p.prefetchQueue[1:]
		return qt, true
	}
	return queuedTask{}, false
}

func (p *Pool) execute(qt queuedTask) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	content, cost, err := p.executor(ctx, qt.task)
	if err != nil {
		p.log().Warn("pool: specialist task failed", "task_id", qt.task.ID, "kind", qt.task.Kind, "error", err)
		p.mu.Lock()
		delete(p.inflight, qt.fingerprint)
		p.mu.Unlock()
		qt.future.cancel()
		return
	}

	result := SpecialistResult{
		Kind:            qt.task.Kind,
		Content:         content,
		CostUSD:         cost,
		CreatedAt:       time.Now(),
		TaskFingerprint: qt.fingerprint,
		TaskID:          qt.task.ID,
	}

	p.mu.Lock()
	p.cache.Add(qt.fingerprint, result)
	delete(p.inflight, qt.fingerprint)
	p.mu.Unlock()

	qt.future.complete(result, p.ttl)
}

// Shutdown stops accepting new work (a later Submit returns an already
// cancelled Future), drains queued tasks by cancelling their futures, and
// waits for in-flight workers to finish their current Task.
func (p *Pool) Shutdown() {
	p.shutdownOnce.Do(func() {
		p.mu.Lock()
		for _, qt := range p.immediateQueue {
			qt.future.cancel()
			delete(p.inflight, qt.fingerprint)
		}
		for _, qt := range p.prefetchQueue {
			qt.future.cancel()
			delete(p.inflight, qt.fingerprint)
		}
		p.immediateQueue = nil
		p.prefetchQueue = nil
		p.mu.Unlock()

		close(p.shutdownCh)
		p.wg.Wait()
	})
}
