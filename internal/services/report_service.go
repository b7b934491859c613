package services

import (
	"back_scan/internal/models"
	"back_scan/internal/store"
)

const (
	// dashboardListLimit caps the AWB display lists; the counts stay exact
	// even when the lists are truncated.
	dashboardListLimit = 200

	// historyLimit caps the history listing.
	historyLimit = 100
)

// Export report types.
const (
	ExportAll     = "all"
	ExportMissing = "missing"
	ExportSurplus = "surplus"
	ExportScanned = "scanned"
)

// ReportService derives summary statistics and listings from the record set.
// It is read-only; every call re-reads the store.
type ReportService struct {
	store store.ParcelStore
}

func NewReportService(st store.ParcelStore) *ReportService {
	return &ReportService{store: st}
}

// Dashboard computes the live counter view for one date. "Missing" are
// manifest entries not yet scanned; total_expected excludes surplus because
// surplus parcels were never on the manifest.
func (rs *ReportService) Dashboard(date string) (*models.DashboardStats, error) {
	pending, err := rs.store.CountByDateAndStatus(date, models.StatusExpected)
	if err != nil {
		return nil, err
	}
	scanned, err := rs.store.CountByDateAndStatus(date, models.StatusScanned)
	if err != nil {
		return nil, err
	}
	surplus, err := rs.store.CountByDateAndStatus(date, models.StatusSurplus)
	if err != nil {
		return nil, err
	}
	missingAwbs, err := rs.store.ListAwbsByDateAndStatus(date, models.StatusExpected, dashboardListLimit)
	if err != nil {
		return nil, err
	}
	surplusAwbs, err := rs.store.ListAwbsByDateAndStatus(date, models.StatusSurplus, dashboardListLimit)
	if err != nil {
		return nil, err
	}
	if missingAwbs == nil {
		missingAwbs = []string{}
	}
	if surplusAwbs == nil {
		surplusAwbs = []string{}
	}
	return &models.DashboardStats{
		TotalExpected: pending + scanned,
		Scanned:       scanned,
		Missing:       pending,
		Surplus:       surplus,
		MissingAwbs:   missingAwbs,
		SurplusAwbs:   surplusAwbs,
	}, nil
}

// History lists records for the date, most recently touched first, capped at
// 100. Search filters by case-insensitive substring of the AWB.
func (rs *ReportService) History(date, search string) ([]models.Parcel, error) {
	parcels, err := rs.store.ListByDate(date, search, historyLimit)
	if err != nil {
		return nil, err
	}
	if parcels == nil {
		parcels = []models.Parcel{}
	}
	return parcels, nil
}

// ExportRows returns every record for the date filtered by report type:
// missing, surplus, scanned, or all.
func (rs *ReportService) ExportRows(date, reportType string) ([]models.Parcel, error) {
	parcels, err := rs.store.ListByDate(date, "", 0)
	if err != nil {
		return nil, err
	}
	var want string
	switch reportType {
	case ExportMissing:
		want = models.StatusExpected
	case ExportSurplus:
		want = models.StatusSurplus
	case ExportScanned:
		want = models.StatusScanned
	default:
		return parcels, nil
	}
	filtered := make([]models.Parcel, 0, len(parcels))
	for _, p := range parcels {
		if p.Status == want {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}
