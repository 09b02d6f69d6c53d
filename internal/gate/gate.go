// Package gate provides a bounded counting resource that limits how many
// scenario iterations run at once. Capacity can grow while the gate is in
// use; it only shrinks by attrition when released permits stop being
// reissued.
package gate

import (
	"context"
	"sync"
)

// Gate is a counting semaphore with growable capacity. One permit
// corresponds to one concurrently executing iteration.
type Gate struct {
	mu       sync.Mutex
	capacity int
	inUse    int
	waiters  []chan struct{}
}

// New creates a gate with the given initial capacity. Capacity below 1 is
// raised to 1.
func New(capacity int) *Gate {
	if capacity < 1 {
		capacity = 1
	}
	return &Gate{capacity: capacity}
}

// Acquire blocks until a permit is free or the context is cancelled.
func (g *Gate) Acquire(ctx context.Context) error {
	for {
		g.mu.Lock()
		if g.inUse < g.capacity {
			g.inUse++
			g.mu.Unlock()
			return nil
		}
		wait := make(chan struct{})
		g.waiters = append(g.waiters, wait)
		g.mu.Unlock()

		select {
		case <-wait:
			// A permit may have been claimed by another goroutine in the
			// meantime; loop and recheck.
		case <-ctx.Done():
			g.mu.Lock()
			if !g.removeWaiterLocked(wait) {
				// notifyLocked already woke this waiter; hand the wakeup
				// to the next one so the free slot is not lost.
				g.notifyLocked()
			}
			g.mu.Unlock()
			return ctx.Err()
		}
	}
}

// TryAcquire takes a permit without blocking. Returns false when none is
// free.
func (g *Gate) TryAcquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inUse >= g.capacity {
		return false
	}
	g.inUse++
	return true
}

// Release returns a permit to the gate.
func (g *Gate) Release() {
	g.mu.Lock()
	if g.inUse > 0 {
		g.inUse--
	}
	g.notifyLocked()
	g.mu.Unlock()
}

// Grow raises capacity by n. Held permits are never revoked; a smaller
// target only takes effect as in-flight iterations drain.
func (g *Gate) Grow(n int) {
	if n <= 0 {
		return
	}
	g.mu.Lock()
	g.capacity += n
	g.notifyLocked()
	g.mu.Unlock()
}

// Capacity returns the current permit capacity.
func (g *Gate) Capacity() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.capacity
}

// Available returns the number of permits that could be taken right now.
func (g *Gate) Available() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inUse >= g.capacity {
		return 0
	}
	return g.capacity - g.inUse
}

// InUse returns the number of permits currently held.
func (g *Gate) InUse() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inUse
}

func (g *Gate) notifyLocked() {
	// Wake one waiter per free slot. Woken goroutines recheck under the
	// lock and requeue if another claimed the permit first.
	free := g.capacity - g.inUse
	for free > 0 && len(g.waiters) > 0 {
		close(g.waiters[0])
		g.waiters = g.waiters[1:]
		free--
	}
}

func (g *Gate) removeWaiterLocked(target chan struct{}) bool {
	for i, wait := range g.waiters {
		if wait == target {
			g.waiters = append(g.waiters[:i], g.waiters[i+1:]...)
			return true
		}
	}
	return false
}
