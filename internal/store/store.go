package store

import (
	"errors"
	"time"

	"back_scan/internal/models"
)

var (
	// ErrConflict is returned by Insert when a record for the same
	// (awb, date) pair already exists. Callers treat it as a lost race and
	// re-read the winning row.
	ErrConflict = errors.New("parcel already exists for awb and date")

	// ErrNotFound is returned by operations addressing a missing record.
	ErrNotFound = errors.New("parcel not found")
)

// ParcelStore is the persistence contract for parcel records. GormStore is
// the durable implementation; MemStore backs tests and demo mode. Services
// are written against this interface only.
type ParcelStore interface {
	// FindByAwbAndDate returns (nil, nil) when no record exists.
	FindByAwbAndDate(awb, date string) (*models.Parcel, error)

	// Insert creates the record, failing with ErrConflict when the
	// (awb, date) pair is already present. The conflict check happens
	// inside the storage layer, never as a separate existence check.
	Insert(p *models.Parcel) error

	// UpdateStatus sets the status and updated_at of one record.
	UpdateStatus(id uint, status string, now time.Time) error

	// BulkInsertExpected inserts the given AWBs as expected records for the
	// date, skipping pairs that already exist. Returns the number inserted.
	BulkInsertExpected(awbs []string, date string) (int64, error)

	// ReconcileSurplus flips surplus records among the given AWBs for the
	// date to scanned. Returns the number updated.
	ReconcileSurplus(awbs []string, date string, now time.Time) (int64, error)

	CountByDateAndStatus(date, status string) (int64, error)

	// ListAwbsByDateAndStatus returns AWBs ordered most recently created
	// first, capped at limit.
	ListAwbsByDateAndStatus(date, status string, limit int) ([]string, error)

	// ListByDate returns records ordered most recently updated first,
	// optionally filtered by a case-insensitive substring of the AWB.
	// limit <= 0 means no cap.
	ListByDate(date, search string, limit int) ([]models.Parcel, error)

	// DeleteOldExpected removes expected records dated before or after
	// today, leaving scanned/surplus history and today's backlog intact.
	DeleteOldExpected(today string) (int64, error)

	DeleteByDate(date string) (int64, error)

	DeleteAll() (int64, error)

	// DeleteByID removes one record, failing with ErrNotFound when no row
	// matched.
	DeleteByID(id uint) error
}
