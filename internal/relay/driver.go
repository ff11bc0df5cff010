package relay

import (
	"errors"
	"fmt"

	"schedule_controller/internal/logger"
	"schedule_controller/internal/models"
)

// Count is the number of physical relays.
const Count = 2

// ErrUnknownSelector is returned for selectors outside Relay1, Relay2, Both.
var ErrUnknownSelector = errors.New("relay: unknown selector")

// Output drives one physical relay.
type Output interface {
	Set(on bool) error
}

// Driver mirrors and drives the two relay outputs. The mirror is the only
// source of truth for relay state; hardware is never read back.
// Driver is not safe for concurrent use; the device aggregate serializes access.
type Driver struct {
	outputs [Count]Output
	state   [Count]bool
	log     *logger.Logger
}

// NewDriver takes outputs for relay 1 and relay 2. Both start mirrored as off;
// call AllOff at boot to bring the hardware in line.
func NewDriver(relay1, relay2 Output, log *logger.Logger) *Driver {
	return &Driver{outputs: [Count]Output{relay1, relay2}, log: log}
}

// SetRelay drives the selected output(s) and updates the mirror. For Both the
// two relays are written in order; if relay 1 fails relay 2 is not touched.
// A failed write leaves that relay's mirror unchanged.
func (d *Driver) SetRelay(sel models.RelaySelector, on bool) error {
	if !sel.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownSelector, sel)
	}
	for i := 0; i < Count; i++ {
		if !sel.Includes(i + 1) {
			continue
		}
		if err := d.outputs[i].Set(on); err != nil {
			return fmt.Errorf("relay %d: %w", i+1, err)
		}
		d.state[i] = on
	}
	d.log.Debugw("relay_set", "selector", sel, "on", on)
	return nil
}

// State returns the mirrored value. For Both it reports whether both are on.
func (d *Driver) State(sel models.RelaySelector) bool {
	switch sel {
	case models.Relay1:
		return d.state[0]
	case models.Relay2:
		return d.state[1]
	case models.Both:
		return d.state[0] && d.state[1]
	}
	return false
}

// Snapshot returns both mirrored values.
func (d *Driver) Snapshot() (relay1, relay2 bool) {
	return d.state[0], d.state[1]
}

// AllOff drives both outputs off unconditionally.
func (d *Driver) AllOff() error {
	return d.SetRelay(models.Both, false)
}
