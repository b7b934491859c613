package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"back_scan/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// insertBatchSize caps the rows per bulk insert statement so large manifests
// stay within driver placeholder limits. The same size bounds IN clauses on
// the reconcile update.
const insertBatchSize = 500

// GormStore persists parcels through gorm. The (awb, date) uniqueness is
// enforced by the composite unique index; Insert and BulkInsertExpected use
// ON CONFLICT handling rather than check-then-insert.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) FindByAwbAndDate(awb, date string) (*models.Parcel, error) {
	var p models.Parcel
	err := s.db.Where("awb = ? AND date = ?", awb, date).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find parcel: %w", err)
	}
	return &p, nil
}

func (s *GormStore) Insert(p *models.Parcel) error {
	res := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "awb"}, {Name: "date"}},
		DoNothing: true,
	}).Create(p)
	if res.Error != nil {
		return fmt.Errorf("failed to insert parcel: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (s *GormStore) UpdateStatus(id uint, status string, now time.Time) error {
	res := s.db.Model(&models.Parcel{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     status,
		"updated_at": now,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update parcel status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) BulkInsertExpected(awbs []string, date string) (int64, error) {
	if len(awbs) == 0 {
		return 0, nil
	}
	records := make([]models.Parcel, 0, len(awbs))
	for _, awb := range awbs {
		records = append(records, models.Parcel{Awb: awb, Date: date, Status: models.StatusExpected})
	}
	res := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "awb"}, {Name: "date"}},
		DoNothing: true,
	}).CreateInBatches(records, insertBatchSize)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to bulk insert parcels: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *GormStore) ReconcileSurplus(awbs []string, date string, now time.Time) (int64, error) {
	var updated int64
	for start := 0; start < len(awbs); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(awbs) {
			end = len(awbs)
		}
		res := s.db.Model(&models.Parcel{}).
			Where("date = ? AND status = ? AND awb IN ?", date, models.StatusSurplus, awbs[start:end]).
			Updates(map[string]interface{}{
				"status":     models.StatusScanned,
				"updated_at": now,
			})
		if res.Error != nil {
			return updated, fmt.Errorf("failed to reconcile surplus parcels: %w", res.Error)
		}
		updated += res.RowsAffected
	}
	return updated, nil
}

func (s *GormStore) CountByDateAndStatus(date, status string) (int64, error) {
	var count int64
	err := s.db.Model(&models.Parcel{}).
		Where("date = ? AND status = ?", date, status).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count parcels: %w", err)
	}
	return count, nil
}

func (s *GormStore) ListAwbsByDateAndStatus(date, status string, limit int) ([]string, error) {
	var awbs []string
	err := s.db.Model(&models.Parcel{}).
		Where("date = ? AND status = ?", date, status).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Pluck("awb", &awbs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list awbs: %w", err)
	}
	return awbs, nil
}

func (s *GormStore) ListByDate(date, search string, limit int) ([]models.Parcel, error) {
	query := s.db.Where("date = ?", date)
	if search != "" {
		query = query.Where("LOWER(awb) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	query = query.Order("updated_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var parcels []models.Parcel
	if err := query.Find(&parcels).Error; err != nil {
		return nil, fmt.Errorf("failed to list parcels: %w", err)
	}
	return parcels, nil
}

func (s *GormStore) DeleteOldExpected(today string) (int64, error) {
	res := s.db.Where("status = ? AND date <> ?", models.StatusExpected, today).Delete(&models.Parcel{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete old parcels: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *GormStore) DeleteByDate(date string) (int64, error) {
	res := s.db.Where("date = ?", date).Delete(&models.Parcel{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete parcels by date: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *GormStore) DeleteAll() (int64, error) {
	res := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Parcel{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete all parcels: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *GormStore) DeleteByID(id uint) error {
	res := s.db.Delete(&models.Parcel{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete parcel: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
