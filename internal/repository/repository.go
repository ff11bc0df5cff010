package repository

import (
	"context"
	"database/sql"
	"time"

	"schedule_controller/internal/models"
)

// RegionRepo is a fixed-size non-volatile byte region.
type RegionRepo interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
}

type EventRepo interface {
	Append(ctx context.Context, e models.DeviceEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.DeviceEvent, error)
}

type Repository struct {
	Region    RegionRepo
	EventRepo EventRepo
}

func NewRepository(db *sql.DB, regionSize int) *Repository {
	return &Repository{
		Region:    NewRegionSQLite(db, regionSize),
		EventRepo: NewEventSQLite(db),
	}
}
