package mode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitiallyInactive(t *testing.T) {
	c := NewController()
	assert.False(t, c.IsActive())
}

func TestToggleFlipsAndReturnsNewState(t *testing.T) {
	c := NewController()
	assert.True(t, c.Toggle())
	assert.True(t, c.IsActive())
	assert.False(t, c.Toggle())
	assert.False(t, c.IsActive())
}

func TestListenersSeeEveryTransition(t *testing.T) {
	c := NewController()
	var seen []bool
	c.AddListener(func(active bool) { seen = append(seen, active) })

	c.Activate()
	c.Deactivate()
	c.Toggle()

	assert.Equal(t, []bool{true, false, true}, seen)
}

func TestRedundantTransitionsDoNotRenotify(t *testing.T) {
	c := NewController()
	calls := 0
	c.AddListener(func(bool) { calls++ })

	c.Activate()
	c.Activate()
	c.Activate()
	assert.Equal(t, 1, calls)
	assert.True(t, c.IsActive())

	c.Deactivate()
	c.Deactivate()
	assert.Equal(t, 2, calls)
}

func TestDeactivateWhenAlreadyInactiveIsSilent(t *testing.T) {
	c := NewController()
	calls := 0
	c.AddListener(func(bool) { calls++ })

	c.Deactivate()
	assert.Zero(t, calls)
	assert.False(t, c.IsActive())
}

func TestPanickingListenerDoesNotStarveOthers(t *testing.T) {
	c := NewController()
	c.AddListener(func(bool) { panic("boom") })
	healthy := 0
	c.AddListener(func(bool) { healthy++ })

	assert.NotPanics(t, func() { c.Activate() })
	assert.Equal(t, 1, healthy)
}

func TestRemovedListenerStopsReceiving(t *testing.T) {
	c := NewController()
	calls := 0
	remove := c.AddListener(func(bool) { calls++ })

	c.Activate()
	remove()
	c.Deactivate()

	assert.Equal(t, 1, calls)
}
