// Package clock supplies wall-clock time that is only trusted after a
// network time sync.
package clock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"schedule_controller/internal/logger"

	"github.com/beevik/ntp"
)

// Source reports local wall-clock time and whether it has been synced.
type Source interface {
	Now() (time.Time, bool)
}

// queryFunc matches ntp.QueryWithOptions.
type queryFunc func(host string, opt ntp.QueryOptions) (*ntp.Response, error)

// NTPClock keeps an offset between the host clock and NTP time. Until the
// first successful Sync, Now reports unsynced.
type NTPClock struct {
	servers []string
	loc     *time.Location
	timeout time.Duration
	log     *logger.Logger

	query queryFunc
	local func() time.Time

	mu       sync.RWMutex
	offset   time.Duration
	synced   bool
	lastSync time.Time
}

// NewNTPClock builds a clock reporting time in loc, queried from servers in order.
func NewNTPClock(servers []string, loc *time.Location, log *logger.Logger) *NTPClock {
	return &NTPClock{
		servers: servers,
		loc:     loc,
		timeout: 5 * time.Second,
		log:     log,
		query:   ntp.QueryWithOptions,
		local:   time.Now,
	}
}

// Now returns the corrected local time, or false before the first sync.
func (c *NTPClock) Now() (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.synced {
		return time.Time{}, false
	}
	return c.local().Add(c.offset).In(c.loc), true
}

// Synced reports whether a sync has ever succeeded.
func (c *NTPClock) Synced() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.synced
}

// Sync queries the servers in order and adopts the first valid answer.
func (c *NTPClock) Sync(ctx context.Context) error {
	if len(c.servers) == 0 {
		return errors.New("clock: no ntp servers configured")
	}
	var errs []error
	for _, host := range c.servers {
		if err := ctx.Err(); err != nil {
			return err
		}
		resp, err := c.query(host, ntp.QueryOptions{Timeout: c.timeout})
		if err == nil {
			err = resp.Validate()
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", host, err))
			continue
		}

		c.mu.Lock()
		c.offset = resp.ClockOffset
		c.synced = true
		c.lastSync = c.local()
		c.mu.Unlock()

		c.log.Infow("clock_synced", "server", host, "offset", resp.ClockOffset)
		return nil
	}
	return fmt.Errorf("clock sync: %w", errors.Join(errs...))
}

// Run resyncs every interval until ctx is done. While no sync has
// succeeded it retries every retry instead.
func (c *NTPClock) Run(ctx context.Context, interval, retry time.Duration) {
	t := time.NewTimer(c.nextDelay(interval, retry))
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := c.Sync(ctx); err != nil {
				c.log.Warnw("clock_sync_failed", "err", err)
			}
			t.Reset(c.nextDelay(interval, retry))
		}
	}
}

func (c *NTPClock) nextDelay(interval, retry time.Duration) time.Duration {
	if c.Synced() {
		return interval
	}
	return retry
}
