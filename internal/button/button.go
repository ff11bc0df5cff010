// Package button detects the factory-reset button being held.
package button

import (
	"context"
	"fmt"
	"time"

	"schedule_controller/internal/logger"
)

// Input reports whether the reset button is currently pressed.
type Input interface {
	Pressed() (bool, error)
}

// HoldTracker turns pressed/released samples into a single "held long
// enough" signal. Any released sample restarts the count.
type HoldTracker struct {
	threshold time.Duration
	since     time.Time
	down      bool
}

func NewHoldTracker(threshold time.Duration) *HoldTracker {
	return &HoldTracker{threshold: threshold}
}

// Observe records a sample and reports whether the button has now been
// held for longer than the threshold.
func (h *HoldTracker) Observe(pressed bool, now time.Time) bool {
	if !pressed {
		h.down = false
		return false
	}
	if !h.down {
		h.down = true
		h.since = now
		return false
	}
	return now.Sub(h.since) > h.threshold
}

// HeldAtBoot checks the button once, waits hold and checks again. Both
// samples must read pressed.
func HeldAtBoot(ctx context.Context, in Input, hold time.Duration, log *logger.Logger) bool {
	pressed, err := in.Pressed()
	if err != nil || !pressed {
		return false
	}
	log.Warnw("reset_button_pressed_at_boot", "hold", hold)

	select {
	case <-ctx.Done():
		return false
	case <-time.After(hold):
	}

	pressed, err = in.Pressed()
	return err == nil && pressed
}

// Watch polls in every poll interval and calls onHold when the button is
// held past hold. It returns when ctx is done or once onHold reports true.
// After a failed onHold the hold has to be timed again from scratch.
func Watch(ctx context.Context, in Input, hold, poll time.Duration, onHold func() bool, log *logger.Logger) {
	tracker := NewHoldTracker(hold)
	t := time.NewTicker(poll)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			pressed, err := in.Pressed()
			if err != nil {
				log.Debugw("reset_button_read_failed", "err", err)
				pressed = false
			}
			if tracker.Observe(pressed, now) {
				log.Warnw("reset_button_held", "hold", hold)
				if onHold() {
					return
				}
				log.Warnw("reset_button_action_failed", "retry_after", hold)
				tracker = NewHoldTracker(hold)
			}
		}
	}
}

// DigitalReader is satisfied by gobot platform adaptors (raspi.Adaptor).
type DigitalReader interface {
	DigitalRead(pin string) (int, error)
}

// PinInput reads an active-low button wired to a GPIO pin with pull-up.
type PinInput struct {
	r   DigitalReader
	pin string
}

func NewPinInput(r DigitalReader, pin string) *PinInput {
	return &PinInput{r: r, pin: pin}
}

func (p *PinInput) Pressed() (bool, error) {
	v, err := p.r.DigitalRead(p.pin)
	if err != nil {
		return false, fmt.Errorf("read reset pin %s: %w", p.pin, err)
	}
	return v == 0, nil
}

// Released is an Input that is never pressed, for hosts without a button.
type Released struct{}

func (Released) Pressed() (bool, error) { return false, nil }
