package repository

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErasedByte is what unwritten flash reads back as.
const ErasedByte = 0xFF

// RegionSQLite keeps the whole byte region as one BLOB row, the way an
// EEPROM emulation keeps one flash page.
type RegionSQLite struct {
	db   *sql.DB
	size int
}

func NewRegionSQLite(db *sql.DB, size int) *RegionSQLite {
	return &RegionSQLite{db: db, size: size}
}

const (
	regionRowID = 1

	upsertRegionSQL = `
		INSERT INTO eeprom (id, data, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			data=excluded.data,
			updated_at=excluded.updated_at
	`

	selectRegionSQL = `SELECT data FROM eeprom WHERE id=?`
)

// erased returns a region that was never written.
func erased(size int) []byte {
	return bytes.Repeat([]byte{ErasedByte}, size)
}

// Read returns exactly size bytes. A missing row reads as erased flash; a
// short blob is padded with erased bytes and a long one is cut.
func (r *RegionSQLite) Read(ctx context.Context) ([]byte, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx, selectRegionSQL, regionRowID).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return erased(r.size), nil
		}
		return nil, fmt.Errorf("read region: %w", err)
	}

	out := erased(r.size)
	copy(out, data)
	return out, nil
}

// Write replaces the whole region. The write is a single statement but the
// caller must not rely on it surviving power loss mid-write.
func (r *RegionSQLite) Write(ctx context.Context, data []byte) error {
	if len(data) != r.size {
		return fmt.Errorf("write region: got %d bytes, want %d", len(data), r.size)
	}
	if _, err := r.db.ExecContext(ctx, upsertRegionSQL, regionRowID, data, time.Now().UTC()); err != nil {
		return fmt.Errorf("write region: %w", err)
	}
	return nil
}
