// Package mode broadcasts the two-state selection mode to its subscribers.
package mode

import (
	"fmt"
	"sync"

	appLog "weekslot/internal/log"
)

// Listener receives the new mode state. Listeners run synchronously on the
// goroutine that flipped the mode; a panicking listener is recovered and
// logged so the remaining listeners still get notified.
type Listener func(active bool)

// Controller is the selection-mode switch other components gate on.
// Initial state is inactive.
type Controller struct {
	mu        sync.Mutex
	active    bool
	nextID    int
	listeners map[int]Listener
}

func NewController() *Controller {
	return &Controller{listeners: make(map[int]Listener)}
}

// IsActive reports whether selection mode is on.
func (c *Controller) IsActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Toggle flips the mode and returns the new state.
func (c *Controller) Toggle() bool {
	c.mu.Lock()
	target := !c.active
	c.mu.Unlock()
	c.set(target)
	return target
}

// Activate turns selection mode on. Redundant calls log and return without
// re-notifying.
func (c *Controller) Activate() { c.set(true) }

// Deactivate turns selection mode off.
func (c *Controller) Deactivate() { c.set(false) }

func (c *Controller) set(active bool) {
	c.mu.Lock()
	if c.active == active {
		c.mu.Unlock()
		appLog.Debug("mode: redundant transition ignored", "active", active)
		return
	}
	c.active = active
	listeners := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.mu.Unlock()

	appLog.Info("mode: selection mode changed", "active", active)
	for _, l := range listeners {
		notify(l, active)
	}
}

// AddListener registers fn and returns a function that removes it again.
func (c *Controller) AddListener(fn Listener) (remove func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// notify isolates one listener's failure from the rest.
func notify(l Listener, active bool) {
	defer func() {
		if r := recover(); r != nil {
			appLog.Error("mode: listener panicked", fmt.Errorf("%v", r), "active", active)
		}
	}()
	l(active)
}
