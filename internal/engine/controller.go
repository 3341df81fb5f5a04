package engine

import (
	"context"
	"errors"
	"sync"
)

// ErrStopped is returned from checkpoints after Stop is requested.
var ErrStopped = errors.New("scan stopped")

type controlState int

const (
	stateRunning controlState = iota
	statePaused
	stateStopped
)

// Controller gates a run's forward progress. Workers call Checkpoint
// between units of work: it returns immediately while running, blocks
// while paused, and returns ErrStopped once stopped. Pausing never
// spins; blocked workers sleep on a condition variable until Resume or
// Stop wakes them.
type Controller struct {
	mu    sync.Mutex
	cond  *sync.Cond
	state controlState
}

func NewController() *Controller {
	c := &Controller{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Pause suspends progress at the next checkpoint. Returns false when
// the run is not in a pausable state.
func (c *Controller) Pause() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != stateRunning {
		return false
	}
	c.state = statePaused
	return true
}

// Resume wakes workers blocked on a pause. Returns false when the run
// is not paused.
func (c *Controller) Resume() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != statePaused {
		return false
	}
	c.state = stateRunning
	c.cond.Broadcast()
	return true
}

// Stop ends the run at the next checkpoint, waking any paused workers
// so they can observe the stop.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == stateStopped {
		return
	}
	c.state = stateStopped
	c.cond.Broadcast()
}

// Checkpoint blocks while paused and reports ErrStopped once stopped.
// Canceling ctx also releases a paused worker, so callers that never
// issue a Stop still unblock.
func (c *Controller) Checkpoint(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.state == statePaused {
		if err := ctx.Err(); err != nil {
			return err
		}
		wake := context.AfterFunc(ctx, func() {
			c.mu.Lock()
			c.cond.Broadcast()
			c.mu.Unlock()
		})
		c.cond.Wait()
		wake()
	}
	if c.state == stateStopped {
		return ErrStopped
	}
	return nil
}

// Paused reports whether the controller is currently pausing work.
func (c *Controller) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == statePaused
}

// Stopped reports whether Stop has been requested.
func (c *Controller) Stopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == stateStopped
}
