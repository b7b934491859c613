package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"back_scan/internal/models"
	"back_scan/internal/store"
)

// ErrEmptyAwb is returned by RecordScan when the AWB is empty after trimming.
var ErrEmptyAwb = errors.New("awb is required")

// ReconcileService owns the parcel status state machine. It is the only
// writer of parcel status; the aggregation and purge services never mutate
// records.
type ReconcileService struct {
	store store.ParcelStore
}

func NewReconcileService(st store.ParcelStore) *ReconcileService {
	return &ReconcileService{store: st}
}

// IngestManifest seeds expected records for the date from a raw AWB list and
// retroactively reconciles surplus scans that the manifest now covers.
// Duplicate AWBs within one upload are collapsed to their first occurrence;
// rows that trim to nothing are counted as errors. Safe to call concurrently
// with itself and with RecordScan: inserts are conflict-ignoring and the
// surplus flip is a single filtered update.
func (rs *ReconcileService) IngestManifest(awbs []string, date string) (*models.UploadResult, error) {
	unique := make([]string, 0, len(awbs))
	seen := make(map[string]struct{}, len(awbs))
	badRows := 0
	for _, raw := range awbs {
		awb := strings.TrimSpace(raw)
		if awb == "" {
			badRows++
			continue
		}
		if _, ok := seen[awb]; ok {
			continue
		}
		seen[awb] = struct{}{}
		unique = append(unique, awb)
	}

	result := &models.UploadResult{
		Message:           "File processed",
		Errors:            badRows,
		DuplicatesInBatch: len(awbs) - badRows - len(unique),
	}
	if len(unique) == 0 {
		return result, nil
	}

	inserted, err := rs.store.BulkInsertExpected(unique, date)
	if err != nil {
		return nil, err
	}
	result.Inserted = int(inserted)

	// The surplus flip runs only after every insert batch has landed, so a
	// scan racing this upload is never reconciled against a partial manifest.
	if _, err := rs.store.ReconcileSurplus(unique, date, time.Now()); err != nil {
		return nil, err
	}
	return result, nil
}

// RecordScan applies one scan event for the date and classifies it against
// the manifest: match (expected parcel, now scanned), duplicate (already
// scanned, or an earlier surplus scan), or surplus (not on the manifest,
// recorded as a new surplus row). Exactly one of insert, update or no-op
// happens per call.
func (rs *ReconcileService) RecordScan(awb, date string) (*models.ScanResult, error) {
	awb = strings.TrimSpace(awb)
	if awb == "" {
		return nil, ErrEmptyAwb
	}

	row, err := rs.store.FindByAwbAndDate(awb, date)
	if err != nil {
		return nil, err
	}
	if row == nil {
		err := rs.store.Insert(&models.Parcel{Awb: awb, Date: date, Status: models.StatusSurplus})
		if err == nil {
			return &models.ScanResult{Status: models.ScanSurplus, Message: "❌ Not in List (Surplus)", Awb: awb}, nil
		}
		if !errors.Is(err, store.ErrConflict) {
			return nil, err
		}
		// Lost an insert race; classify against the winner's row.
		row, err = rs.store.FindByAwbAndDate(awb, date)
		if err != nil {
			return nil, err
		}
		if row == nil {
			return nil, fmt.Errorf("parcel %s/%s missing after insert conflict", awb, date)
		}
	}

	switch row.Status {
	case models.StatusExpected:
		if err := rs.store.UpdateStatus(row.ID, models.StatusScanned, time.Now()); err != nil {
			return nil, err
		}
		return &models.ScanResult{Status: models.ScanMatch, Message: "✅ Match Found", Awb: awb}, nil
	case models.StatusScanned:
		return &models.ScanResult{Status: models.ScanDuplicate, Message: "⚠️ Duplicate Scan", Awb: awb}, nil
	case models.StatusSurplus:
		return &models.ScanResult{Status: models.ScanDuplicate, Message: "⚠️ Duplicate Scan (Surplus)", Awb: awb}, nil
	default:
		return &models.ScanResult{Status: "unknown", Message: "Unknown status", Awb: awb}, nil
	}
}
