package dispatch

import (
	"sync"

	"github.com/arclight-sim/elevator-traffic-sim/internal/constants"
	"github.com/arclight-sim/elevator-traffic-sim/internal/domain"
)

// Cooldown wraps an inner Policy with a per-vehicle "departed-at" map: a
// vehicle that departed pickup within the cooldown window is filtered out
// of the candidate set. If every vehicle would be filtered, the fallback
// is the full fleet (anti-starvation) — the controller must still get an
// assignment, just via the unfiltered inner policy.
//
// The controller must call SetNow each tick before selection; the
// decorator has no clock of its own.
type Cooldown struct {
	mu       sync.Mutex
	inner    Policy
	seconds  float64
	departed map[int]float64
	now      float64
}

// NewCooldown wraps inner with a cooldown of the given duration; a
// negative duration falls back to the default.
func NewCooldown(inner Policy, seconds float64) *Cooldown {
	if seconds < 0 {
		seconds = constants.DefaultCooldownSeconds
	}
	return &Cooldown{
		inner:    inner,
		seconds:  seconds,
		departed: make(map[int]float64),
	}
}

// SetNow updates the decorator's notion of current sim time. Must be
// called once per tick before SelectElevator.
func (c *Cooldown) SetNow(t float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// NotifyDeparted records that vehicleID just departed pickup, starting its
// cooldown window.
func (c *Cooldown) NotifyDeparted(vehicleID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.departed[vehicleID] = c.now
}

// SelectElevator implements Policy: filters out cooling vehicles, falling
// through to the unfiltered fleet if that would leave no candidates.
func (c *Cooldown) SelectElevator(fleet []VehicleView, call domain.CallRequest) (int, bool) {
	c.mu.Lock()
	now := c.now
	eligible := make([]VehicleView, 0, len(fleet))
	for _, v := range fleet {
		departedAt, cooling := c.departed[v.ID]
		if !cooling || departedAt+c.seconds <= now {
			eligible = append(eligible, v)
		}
	}
	c.mu.Unlock()

	if len(eligible) == 0 {
		return c.inner.SelectElevator(fleet, call)
	}
	return c.inner.SelectElevator(eligible, call)
}
