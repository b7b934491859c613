package services

import (
	"errors"
	"path/filepath"
	"testing"

	"back_scan/internal/models"
	"back_scan/internal/store"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) *store.GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "parcels.db")), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if err := db.AutoMigrate(&models.Parcel{}); err != nil {
		t.Fatal(err)
	}
	return store.NewGormStore(db)
}

func TestRecordScan_Classification(t *testing.T) {
	st := newTestStore(t)
	rs := NewReconcileService(st)
	const date = "2024-01-01"

	// Never-seen AWB becomes surplus.
	res, err := rs.RecordScan("B9999", date)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != models.ScanSurplus {
		t.Fatalf("expected surplus, got %q", res.Status)
	}

	// Second scan of the same surplus AWB is a duplicate.
	res, err = rs.RecordScan("B9999", date)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != models.ScanDuplicate {
		t.Fatalf("expected duplicate, got %q", res.Status)
	}
	if res.Message != "⚠️ Duplicate Scan (Surplus)" {
		t.Fatalf("unexpected message %q", res.Message)
	}

	// Manifest entry matches on first scan, duplicates after.
	if _, err := rs.IngestManifest([]string{"A1001"}, date); err != nil {
		t.Fatal(err)
	}
	res, err = rs.RecordScan("A1001", date)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != models.ScanMatch {
		t.Fatalf("expected match, got %q", res.Status)
	}
	res, err = rs.RecordScan("A1001", date)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != models.ScanDuplicate {
		t.Fatalf("expected duplicate, got %q", res.Status)
	}
	if res.Message != "⚠️ Duplicate Scan" {
		t.Fatalf("unexpected message %q", res.Message)
	}
}

func TestRecordScan_TrimsAwbAndRejectsEmpty(t *testing.T) {
	st := newTestStore(t)
	rs := NewReconcileService(st)

	if _, err := rs.RecordScan("   ", "2024-01-01"); !errors.Is(err, ErrEmptyAwb) {
		t.Fatalf("expected ErrEmptyAwb, got %v", err)
	}

	res, err := rs.RecordScan("  X77  ", "2024-01-01")
	if err != nil {
		t.Fatal(err)
	}
	if res.Awb != "X77" {
		t.Fatalf("expected trimmed awb, got %q", res.Awb)
	}
	row, err := st.FindByAwbAndDate("X77", "2024-01-01")
	if err != nil {
		t.Fatal(err)
	}
	if row == nil {
		t.Fatal("expected record stored under trimmed awb")
	}
}

func TestIngestManifest_Idempotent(t *testing.T) {
	st := newTestStore(t)
	rs := NewReconcileService(st)
	const date = "2024-01-01"

	first, err := rs.IngestManifest([]string{"A", "B"}, date)
	if err != nil {
		t.Fatal(err)
	}
	if first.Inserted != 2 {
		t.Fatalf("expected 2 inserted, got %d", first.Inserted)
	}

	second, err := rs.IngestManifest([]string{"A", "B"}, date)
	if err != nil {
		t.Fatal(err)
	}
	if second.Inserted != 0 {
		t.Fatalf("expected 0 inserted on re-upload, got %d", second.Inserted)
	}

	rows, err := st.ListByDate(date, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 records after re-upload, got %d", len(rows))
	}
	for _, row := range rows {
		if row.Status != models.StatusExpected {
			t.Fatalf("expected status %q, got %q for %s", models.StatusExpected, row.Status, row.Awb)
		}
	}
}

func TestIngestManifest_ReconcilesEarlierSurplus(t *testing.T) {
	st := newTestStore(t)
	rs := NewReconcileService(st)
	const date = "2024-01-01"

	res, err := rs.RecordScan("X1", date)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != models.ScanSurplus {
		t.Fatalf("expected surplus, got %q", res.Status)
	}

	// The manifest catches up: the surplus scan is reconciled, not re-seeded.
	if _, err := rs.IngestManifest([]string{"X1"}, date); err != nil {
		t.Fatal(err)
	}
	row, err := st.FindByAwbAndDate("X1", date)
	if err != nil {
		t.Fatal(err)
	}
	if row == nil {
		t.Fatal("expected record for X1")
	}
	if row.Status != models.StatusScanned {
		t.Fatalf("expected %q after reconciliation, got %q", models.StatusScanned, row.Status)
	}
}

func TestIngestManifest_CountsBadRowsAndDuplicates(t *testing.T) {
	st := newTestStore(t)
	rs := NewReconcileService(st)

	res, err := rs.IngestManifest([]string{" A ", "", "A", "B", "   "}, "2024-01-01")
	if err != nil {
		t.Fatal(err)
	}
	if res.Inserted != 2 {
		t.Fatalf("expected 2 inserted, got %d", res.Inserted)
	}
	if res.Errors != 2 {
		t.Fatalf("expected 2 error rows, got %d", res.Errors)
	}
	if res.DuplicatesInBatch != 1 {
		t.Fatalf("expected 1 duplicate in batch, got %d", res.DuplicatesInBatch)
	}
}

func TestIngestManifest_EmptyInput(t *testing.T) {
	st := newTestStore(t)
	rs := NewReconcileService(st)

	res, err := rs.IngestManifest([]string{"", "  "}, "2024-01-01")
	if err != nil {
		t.Fatal(err)
	}
	if res.Inserted != 0 || res.Errors != 2 {
		t.Fatalf("expected 0 inserted / 2 errors, got %d / %d", res.Inserted, res.Errors)
	}
}

func TestIngestManifest_DoesNotDowngradeScanned(t *testing.T) {
	st := newTestStore(t)
	rs := NewReconcileService(st)
	const date = "2024-01-01"

	if _, err := rs.IngestManifest([]string{"A1"}, date); err != nil {
		t.Fatal(err)
	}
	if _, err := rs.RecordScan("A1", date); err != nil {
		t.Fatal(err)
	}

	// Re-uploading the manifest must not flip the scanned record back.
	if _, err := rs.IngestManifest([]string{"A1"}, date); err != nil {
		t.Fatal(err)
	}
	row, err := st.FindByAwbAndDate("A1", date)
	if err != nil {
		t.Fatal(err)
	}
	if row.Status != models.StatusScanned {
		t.Fatalf("expected %q, got %q", models.StatusScanned, row.Status)
	}
}

func TestIngestManifest_SameAwbAcrossDates(t *testing.T) {
	st := newTestStore(t)
	rs := NewReconcileService(st)

	if _, err := rs.IngestManifest([]string{"A1"}, "2024-01-01"); err != nil {
		t.Fatal(err)
	}
	res, err := rs.IngestManifest([]string{"A1"}, "2024-01-02")
	if err != nil {
		t.Fatal(err)
	}
	if res.Inserted != 1 {
		t.Fatalf("expected the same awb to insert on a new date, got %d inserted", res.Inserted)
	}
}

// racingStore makes RecordScan lose its first existence check, simulating a
// concurrent scan that inserts between the read and the insert.
type racingStore struct {
	store.ParcelStore
	missed bool
}

func (rs *racingStore) FindByAwbAndDate(awb, date string) (*models.Parcel, error) {
	if !rs.missed {
		rs.missed = true
		return nil, nil
	}
	return rs.ParcelStore.FindByAwbAndDate(awb, date)
}

func TestRecordScan_InsertRaceResolvesAsDuplicate(t *testing.T) {
	mem := store.NewMemStore()
	if err := mem.Insert(&models.Parcel{Awb: "R1", Date: "2024-01-01", Status: models.StatusSurplus}); err != nil {
		t.Fatal(err)
	}
	rs := NewReconcileService(&racingStore{ParcelStore: mem})

	res, err := rs.RecordScan("R1", "2024-01-01")
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != models.ScanDuplicate {
		t.Fatalf("expected duplicate after lost insert race, got %q", res.Status)
	}
}

func TestRecordScan_InsertRaceResolvesAsMatch(t *testing.T) {
	mem := store.NewMemStore()
	if err := mem.Insert(&models.Parcel{Awb: "R2", Date: "2024-01-01", Status: models.StatusExpected}); err != nil {
		t.Fatal(err)
	}
	rs := NewReconcileService(&racingStore{ParcelStore: mem})

	// A manifest upload landed between the read and the insert; the scan
	// must reconcile the expected record instead of erroring.
	res, err := rs.RecordScan("R2", "2024-01-01")
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != models.ScanMatch {
		t.Fatalf("expected match after lost insert race, got %q", res.Status)
	}
	row, err := mem.FindByAwbAndDate("R2", "2024-01-01")
	if err != nil {
		t.Fatal(err)
	}
	if row.Status != models.StatusScanned {
		t.Fatalf("expected %q, got %q", models.StatusScanned, row.Status)
	}
}
