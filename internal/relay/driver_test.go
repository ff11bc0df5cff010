package relay

import (
	"errors"
	"testing"

	"schedule_controller/internal/logger"
	"schedule_controller/internal/models"
)

type fakeOutput struct {
	writes []bool
	err    error
}

func (f *fakeOutput) Set(on bool) error {
	if f.err != nil {
		return f.err
	}
	f.writes = append(f.writes, on)
	return nil
}

func newTestDriver() (*Driver, *fakeOutput, *fakeOutput) {
	o1, o2 := &fakeOutput{}, &fakeOutput{}
	return NewDriver(o1, o2, logger.Nop()), o1, o2
}

func TestSetRelay_Individual(t *testing.T) {
	d, o1, o2 := newTestDriver()

	if err := d.SetRelay(models.Relay2, true); err != nil {
		t.Fatalf("SetRelay: %v", err)
	}
	if len(o1.writes) != 0 || len(o2.writes) != 1 || !o2.writes[0] {
		t.Fatalf("writes: o1=%v o2=%v", o1.writes, o2.writes)
	}
	if d.State(models.Relay1) || !d.State(models.Relay2) {
		t.Fatalf("mirror = %v/%v", d.State(models.Relay1), d.State(models.Relay2))
	}
	if d.State(models.Both) {
		t.Fatalf("Both should be false with only relay 2 on")
	}
}

func TestSetRelay_BothUpdatesTogether(t *testing.T) {
	d, o1, o2 := newTestDriver()

	if err := d.SetRelay(models.Both, true); err != nil {
		t.Fatalf("SetRelay: %v", err)
	}
	r1, r2 := d.Snapshot()
	if !r1 || !r2 || !d.State(models.Both) {
		t.Fatalf("snapshot = %v/%v", r1, r2)
	}
	if len(o1.writes) != 1 || len(o2.writes) != 1 {
		t.Fatalf("each output should be written once: %v %v", o1.writes, o2.writes)
	}

	if err := d.AllOff(); err != nil {
		t.Fatalf("AllOff: %v", err)
	}
	if r1, r2 = d.Snapshot(); r1 || r2 {
		t.Fatalf("AllOff left %v/%v", r1, r2)
	}
}

func TestSetRelay_UnknownSelector(t *testing.T) {
	d, o1, o2 := newTestDriver()
	for _, sel := range []models.RelaySelector{0, 4, 255} {
		if err := d.SetRelay(sel, true); !errors.Is(err, ErrUnknownSelector) {
			t.Fatalf("selector %d: err = %v", sel, err)
		}
	}
	if len(o1.writes)+len(o2.writes) != 0 {
		t.Fatalf("no output should be written")
	}
	if d.State(0) {
		t.Fatalf("unknown selector state should be false")
	}
}

func TestSetRelay_WriteErrorKeepsMirror(t *testing.T) {
	o1, o2 := &fakeOutput{}, &fakeOutput{err: errors.New("gpio busy")}
	d := NewDriver(o1, o2, logger.Nop())

	err := d.SetRelay(models.Both, true)
	if err == nil {
		t.Fatalf("expected error")
	}
	r1, r2 := d.Snapshot()
	if !r1 || r2 {
		t.Fatalf("mirror = %v/%v, want relay 1 on, relay 2 unchanged", r1, r2)
	}
}

func TestSimOutput(t *testing.T) {
	o := NewSimOutput("relay1", logger.Nop())
	_ = o.Set(true)
	if !o.On() {
		t.Fatalf("sim output should be on")
	}
}
