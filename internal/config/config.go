// Package config loads the device configuration from configs/config.yml,
// environment overrides (SCHEDULER_*) and compiled-in defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment override, e.g. SCHEDULER_PORT.
	EnvPrefix = "SCHEDULER"
	// PathEnv names an explicit config file path.
	PathEnv = "SCHEDULER_CONFIG"

	BackendSim   = "sim"
	BackendRaspi = "raspi"
)

type Hardware struct {
	Backend   string `mapstructure:"backend"`
	Relay1Pin string `mapstructure:"relay1_pin"`
	Relay2Pin string `mapstructure:"relay2_pin"`
	ResetPin  string `mapstructure:"reset_pin"`
}

type Network struct {
	APSSID       string        `mapstructure:"ap_ssid"`
	APPass       string        `mapstructure:"ap_pass"`
	APIP         string        `mapstructure:"ap_ip"`
	Iface        string        `mapstructure:"iface"`
	MDNSName     string        `mapstructure:"mdns_name"`
	DNSAddr      string        `mapstructure:"dns_addr"`
	JoinAttempts int           `mapstructure:"join_attempts"`
	JoinDelay    time.Duration `mapstructure:"join_delay"`
}

type Clock struct {
	Timezone string        `mapstructure:"timezone"`
	Servers  []string      `mapstructure:"servers"`
	Resync   time.Duration `mapstructure:"resync"`
	Retry    time.Duration `mapstructure:"retry"`
}

type Schedule struct {
	Tick time.Duration `mapstructure:"tick"`
}

type Reset struct {
	BootHold time.Duration `mapstructure:"boot_hold"`
	RunHold  time.Duration `mapstructure:"run_hold"`
	Poll     time.Duration `mapstructure:"poll"`
}

type API struct {
	RatePerSec float64 `mapstructure:"rate_per_sec"`
	Burst      int     `mapstructure:"burst"`
}

type DB struct {
	Path string `mapstructure:"path"`
}

// Config is the full device configuration.
type Config struct {
	Port     string   `mapstructure:"port"`
	LogLevel string   `mapstructure:"log_level"`
	DB       DB       `mapstructure:"db"`
	Hardware Hardware `mapstructure:"hardware"`
	Network  Network  `mapstructure:"network"`
	Clock    Clock    `mapstructure:"clock"`
	Schedule Schedule `mapstructure:"schedule"`
	Reset    Reset    `mapstructure:"reset"`
	API      API      `mapstructure:"api"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("db.path", "device.db")

	v.SetDefault("hardware.backend", BackendSim)
	v.SetDefault("hardware.relay1_pin", "11")
	v.SetDefault("hardware.relay2_pin", "13")
	v.SetDefault("hardware.reset_pin", "15")

	v.SetDefault("network.ap_ssid", "Harmonogram_Setup")
	v.SetDefault("network.ap_pass", "12345678")
	v.SetDefault("network.ap_ip", "192.168.4.1")
	v.SetDefault("network.iface", "")
	v.SetDefault("network.mdns_name", "harm")
	v.SetDefault("network.dns_addr", ":53")
	v.SetDefault("network.join_attempts", 40)
	v.SetDefault("network.join_delay", 500*time.Millisecond)

	v.SetDefault("clock.timezone", "Europe/Warsaw")
	v.SetDefault("clock.servers", []string{"pool.ntp.org", "time.google.com"})
	v.SetDefault("clock.resync", 10*time.Minute)
	v.SetDefault("clock.retry", 30*time.Second)

	v.SetDefault("schedule.tick", time.Second)

	v.SetDefault("reset.boot_hold", 3*time.Second)
	v.SetDefault("reset.run_hold", 5*time.Second)
	v.SetDefault("reset.poll", 50*time.Millisecond)

	v.SetDefault("api.rate_per_sec", 2.0)
	v.SetDefault("api.burst", 5)
}

// Load reads path (or configs/config.yml when empty). A missing file is not
// an error; defaults and environment overrides still apply.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("configs") // configs/config.yml
		v.SetConfigName("config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the device cannot run with.
func (c Config) Validate() error {
	switch c.Hardware.Backend {
	case BackendSim, BackendRaspi:
	default:
		return fmt.Errorf("hardware.backend: unknown backend %q", c.Hardware.Backend)
	}
	if c.Network.JoinAttempts <= 0 {
		return errors.New("network.join_attempts must be positive")
	}
	if c.Schedule.Tick <= 0 {
		return errors.New("schedule.tick must be positive")
	}
	if c.Reset.Poll <= 0 || c.Reset.BootHold <= 0 || c.Reset.RunHold <= 0 {
		return errors.New("reset durations must be positive")
	}
	if len(c.Clock.Servers) == 0 {
		return errors.New("clock.servers must not be empty")
	}
	if c.Clock.Resync <= 0 || c.Clock.Retry <= 0 {
		return errors.New("clock.resync and clock.retry must be positive")
	}
	return nil
}
