package main

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
	_ "time/tzdata"

	"schedule_controller/internal/button"
	"schedule_controller/internal/clock"
	"schedule_controller/internal/config"
	"schedule_controller/internal/handlers"
	"schedule_controller/internal/logger"
	"schedule_controller/internal/models"
	"schedule_controller/internal/netmode"
	"schedule_controller/internal/persist"
	"schedule_controller/internal/relay"
	"schedule_controller/internal/repository"
	"schedule_controller/internal/repository/db"
	"schedule_controller/internal/server"
	"schedule_controller/internal/service"

	"github.com/google/uuid"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// load config.yml
	cfg, err := config.Load(os.Getenv(config.PathEnv))
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	// init logger
	log := logger.Get(cfg.LogLevel)

	loc, err := time.LoadLocation(cfg.Clock.Timezone)
	if err != nil {
		log.Fatalw("unknown timezone", "timezone", cfg.Clock.Timezone, "err", err)
	}

	// open DB
	sqlDB, err := openDB(cfg, log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	hw, err := openHardware(cfg.Hardware, log.Named("hardware"))
	if err != nil {
		log.Fatalw("failed to init hardware", "backend", cfg.Hardware.Backend, "err", err)
	}
	defer hw.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Every restart re-enters the boot sequence from the persisted record.
	for {
		reason, err := boot(ctx, cfg, loc, sqlDB, hw, log)
		if err != nil {
			log.Fatalw("boot failed", "err", err)
		}
		if ctx.Err() != nil {
			log.Infow("shut down")
			return
		}
		log.Warnw("restarting", "reason", reason)
	}
}

// openDB initializes the SQLite database using configuration.
func openDB(cfg config.Config, log *logger.Logger) (*sql.DB, error) {
	dbPath := cfg.DB.Path
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "device.db")
		dbPath = "device.db"
	}
	return db.InitDB(dbPath)
}

// restarter turns a Restart call into a value the boot loop waits on.
type restarter struct {
	ch chan string
}

func newRestarter() *restarter {
	return &restarter{ch: make(chan string, 1)}
}

func (r *restarter) Restart(reason string) {
	select {
	case r.ch <- reason:
	default:
	}
}

// boot runs one device lifetime: reset check, load, mode selection, loops
// and the HTTP server. It returns the restart reason, or "" once ctx is done.
func boot(ctx context.Context, cfg config.Config, loc *time.Location, sqlDB *sql.DB, hw *hardware, log *logger.Logger) (string, error) {
	bootCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// wire dependencies
	repos := repository.NewRepository(sqlDB, persist.RegionSize)
	store := persist.NewStore(repos.Region, log.Named("persist"))

	relays := relay.NewDriver(hw.relay1, hw.relay2, log.Named("relay"))
	if err := relays.AllOff(); err != nil {
		log.Errorw("relays_off_failed", "err", err)
	}

	if button.HeldAtBoot(bootCtx, hw.reset, cfg.Reset.BootHold, log.Named("button")) {
		log.Warnw("factory_reset", "trigger", "button_at_boot")
		if err := store.FactoryReset(bootCtx); err != nil {
			log.Errorw("factory_reset_failed", "err", err)
		} else {
			appendEvent(bootCtx, repos.EventRepo, models.EventReset, "Factory reset (button at boot)", nil, log)
		}
	}

	rec, loadErr := store.Load(bootCtx)
	if loadErr != nil && !errors.Is(loadErr, persist.ErrNotProvisioned) {
		log.Errorw("record_load_failed", "err", loadErr)
	}

	clk := clock.NewNTPClock(cfg.Clock.Servers, loc, log.Named("clock"))
	netCfg := netmode.Config{
		APSSID:       cfg.Network.APSSID,
		APPassword:   cfg.Network.APPass,
		JoinAttempts: cfg.Network.JoinAttempts,
		JoinDelay:    cfg.Network.JoinDelay,
	}
	radio := netmode.NewHostRadio(net.ParseIP(cfg.Network.APIP), cfg.Network.Iface, log.Named("radio"))
	dns := netmode.NewCaptiveDNS(cfg.Network.DNSAddr, log.Named("dns"))
	modes := netmode.NewController(netCfg, radio, dns, clk, log.Named("mode"))
	modes.OnTransition(func(tr netmode.Transition) {
		appendEvent(bootCtx, repos.EventRepo, models.EventMode, "Mode "+tr.From.String()+" -> "+tr.To.String(),
			map[string]any{"from": tr.From.String(), "to": tr.To.String()}, log)
	})
	mode := modes.Boot(bootCtx, rec.Credentials, loadErr)

	restart := newRestarter()
	device := service.NewDevice(rec, relays, store, clk, repos.EventRepo, restart, log.Named("device"))
	device.AttachNetwork(modes)
	services := service.NewService(device, modes, repos.EventRepo, restart)

	// background loops only run while joined
	var loops sync.WaitGroup
	if modes.ScheduleActive() {
		background(&loops, func() { services.Run(bootCtx, cfg.Schedule.Tick) })
		background(&loops, func() { clk.Run(bootCtx, cfg.Clock.Resync, cfg.Clock.Retry) })
	}
	if mode == netmode.Provisioned {
		startMDNS(bootCtx, cfg, modes.Address(), device, log)
	}
	background(&loops, func() {
		button.Watch(bootCtx, hw.reset, cfg.Reset.RunHold, cfg.Reset.Poll, func() bool {
			if err := device.ResetToFactory(bootCtx); err != nil {
				log.Errorw("factory_reset_failed", "trigger", "button", "err", err)
				return false
			}
			return true
		}, log.Named("button"))
	})

	// start HTTP server
	apiHandler := handlers.NewHandler(services, log.Named("http"))
	apiHandler.SetRateLimit(cfg.API.RatePerSec, cfg.API.Burst)
	apiHandler.SetLifetime(bootCtx)
	srv := &server.Server{}
	errc := make(chan error, 1)
	go func() { errc <- srv.Run(cfg.Port, apiHandler.InitRoutes()) }()
	log.Infow("device_ready", "mode", mode, "port", cfg.Port, "ip", modes.Address())

	var (
		reason string
		runErr error
	)
	select {
	case <-ctx.Done():
		log.Infow("shutting down server...")
	case reason = <-restart.ch:
	case runErr = <-errc:
	}

	stopBoot(srv, cancel, &loops, device, log)
	return reason, runErr
}

// background runs fn on its own goroutine, tracked by wg.
func background(wg *sync.WaitGroup, fn func()) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		fn()
	}()
}

// startMDNS advertises the control page on the joined network. Failure only
// costs the .local name.
func startMDNS(ctx context.Context, cfg config.Config, ip net.IP, device *service.Device, log *logger.Logger) {
	if cfg.Network.MDNSName == "" {
		return
	}
	port, err := netmode.ParsePort(cfg.Port)
	if err != nil {
		log.Warnw("mdns_disabled", "err", err)
		return
	}
	adv := netmode.NewAdvertiser(cfg.Network.MDNSName, port, log.Named("mdns"))
	if err := adv.Start(ctx, ip); err != nil {
		log.Warnw("mdns_start_failed", "err", err)
		return
	}
	device.AttachMDNS(adv)
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

type stopper interface {
	Stop() error
}

// stopBoot ends one boot. The server stops accepting and drains in-flight
// requests, then the loops and streams are canceled and awaited, and only
// then are the relays driven off through the device lock.
func stopBoot(srv shutdowner, cancel context.CancelFunc, loops *sync.WaitGroup, dev stopper, log *logger.Logger) {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}

	cancel()
	loops.Wait()

	if err := dev.Stop(); err != nil {
		log.Errorw("relays_off_failed", "err", err)
	}
}

// appendEvent records a device event; failures are logged only.
func appendEvent(ctx context.Context, events repository.EventRepo, typ, desc string, meta map[string]any, log *logger.Logger) {
	ev := models.DeviceEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  time.Now().UTC(),
		Type:        typ,
		Description: desc,
	}
	if meta != nil {
		ev.Metadata = meta
	}
	if err := events.Append(ctx, ev); err != nil {
		log.Warnw("event_append_failed", "type", typ, "err", err)
	}
}
