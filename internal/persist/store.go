package persist

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"schedule_controller/internal/logger"
	"schedule_controller/internal/models"
	"schedule_controller/internal/repository"
)

// Store is the PersistentStore: whole-record load/save over a byte region.
type Store struct {
	region repository.RegionRepo
	log    *logger.Logger
}

func NewStore(region repository.RegionRepo, log *logger.Logger) *Store {
	return &Store{region: region, log: log}
}

// Load reads and decodes the region. ErrNotProvisioned comes back together
// with DefaultRecord so callers can keep running on compiled-in defaults.
func (s *Store) Load(ctx context.Context) (models.Record, error) {
	b, err := s.region.Read(ctx)
	if err != nil {
		return models.DefaultRecord(), fmt.Errorf("load record: %w", err)
	}

	rec, err := Decode(b)
	if errors.Is(err, ErrNotProvisioned) {
		s.log.Infow("persist_no_valid_record")
		return rec, err
	}

	s.log.Infow("persist_record_loaded",
		"ssid", rec.Credentials.SSID,
		"running", rec.Running,
	)
	return rec, nil
}

// Save rewrites the whole region from rec.
func (s *Store) Save(ctx context.Context, rec models.Record) error {
	if err := s.region.Write(ctx, Encode(rec)); err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	s.log.Debugw("persist_record_saved", "running", rec.Running)
	return nil
}

// FactoryReset overwrites the region with ResetFill so the next boot takes
// the unprovisioned path. Restarting is the caller's job.
func (s *Store) FactoryReset(ctx context.Context) error {
	s.log.Warnw("persist_factory_reset")
	if err := s.region.Write(ctx, bytes.Repeat([]byte{ResetFill}, RegionSize)); err != nil {
		return fmt.Errorf("factory reset: %w", err)
	}
	return nil
}
