package main

import (
	"fmt"

	"schedule_controller/internal/button"
	"schedule_controller/internal/config"
	"schedule_controller/internal/logger"
	"schedule_controller/internal/relay"

	"gobot.io/x/gobot/v2/platforms/raspi"
)

// hardware holds the relay outputs and the reset input for the chosen backend.
type hardware struct {
	relay1 relay.Output
	relay2 relay.Output
	reset  button.Input
	close  func()
}

func openHardware(cfg config.Hardware, log *logger.Logger) (*hardware, error) {
	switch cfg.Backend {
	case config.BackendRaspi:
		return openRaspi(cfg, log)
	default:
		log.Infow("using simulated hardware")
		return &hardware{
			relay1: relay.NewSimOutput("relay1", log),
			relay2: relay.NewSimOutput("relay2", log),
			reset:  button.Released{},
			close:  func() {},
		}, nil
	}
}

func openRaspi(cfg config.Hardware, log *logger.Logger) (*hardware, error) {
	a := raspi.NewAdaptor()
	if err := a.Connect(); err != nil {
		return nil, fmt.Errorf("connect raspi: %w", err)
	}
	r1, err := relay.NewGPIOOutput(a, cfg.Relay1Pin)
	if err != nil {
		_ = a.Finalize()
		return nil, err
	}
	r2, err := relay.NewGPIOOutput(a, cfg.Relay2Pin)
	if err != nil {
		_ = a.Finalize()
		return nil, err
	}
	log.Infow("raspi_gpio_ready", "relay1_pin", cfg.Relay1Pin, "relay2_pin", cfg.Relay2Pin, "reset_pin", cfg.ResetPin)
	return &hardware{
		relay1: r1,
		relay2: r2,
		reset:  button.NewPinInput(a, cfg.ResetPin),
		close: func() {
			if err := a.Finalize(); err != nil {
				log.Errorw("raspi_finalize_failed", "err", err)
			}
		},
	}, nil
}
