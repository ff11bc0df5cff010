package relay

import (
	"fmt"

	"schedule_controller/internal/logger"

	"gobot.io/x/gobot/v2/drivers/gpio"
)

// GPIOOutput drives a relay module channel through gobot.
type GPIOOutput struct {
	drv *gpio.RelayDriver
}

// NewGPIOOutput starts a gobot relay driver on pin of the given writer
// (a platform adaptor such as raspi.Adaptor).
func NewGPIOOutput(w gpio.DigitalWriter, pin string) (*GPIOOutput, error) {
	drv := gpio.NewRelayDriver(w, pin)
	if err := drv.Start(); err != nil {
		return nil, fmt.Errorf("start relay on pin %s: %w", pin, err)
	}
	return &GPIOOutput{drv: drv}, nil
}

func (o *GPIOOutput) Set(on bool) error {
	if on {
		return o.drv.On()
	}
	return o.drv.Off()
}

// SimOutput stands in for a relay on hosts without GPIO; it only logs.
type SimOutput struct {
	name string
	on   bool
	log  *logger.Logger
}

func NewSimOutput(name string, log *logger.Logger) *SimOutput {
	return &SimOutput{name: name, log: log}
}

func (o *SimOutput) Set(on bool) error {
	o.on = on
	o.log.Infow("sim_relay_output", "relay", o.name, "on", on)
	return nil
}

// On reports the last written level.
func (o *SimOutput) On() bool { return o.on }
