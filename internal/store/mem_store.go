package store

import (
	"sort"
	"strings"
	"sync"
	"time"

	"back_scan/internal/models"
)

var _ ParcelStore = (*MemStore)(nil)

// MemStore is an in-memory ParcelStore used by tests and by demo mode when
// no database is configured. All methods copy records in and out, so callers
// never share memory with the store.
type MemStore struct {
	mu     sync.Mutex
	nextID uint
	byKey  map[string]*models.Parcel
	byID   map[uint]*models.Parcel
}

func NewMemStore() *MemStore {
	return &MemStore{
		nextID: 1,
		byKey:  make(map[string]*models.Parcel),
		byID:   make(map[uint]*models.Parcel),
	}
}

func memKey(awb, date string) string {
	return awb + "\x00" + date
}

func (s *MemStore) FindByAwbAndDate(awb, date string) (*models.Parcel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byKey[memKey(awb, date)]
	if !ok {
		return nil, nil
	}
	clone := *p
	return &clone, nil
}

func (s *MemStore) Insert(p *models.Parcel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memKey(p.Awb, p.Date)
	if _, ok := s.byKey[key]; ok {
		return ErrConflict
	}
	now := time.Now()
	stored := *p
	stored.ID = s.nextID
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.nextID++
	s.byKey[key] = &stored
	s.byID[stored.ID] = &stored
	*p = stored
	return nil
}

func (s *MemStore) UpdateStatus(id uint, status string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	p.Status = status
	p.UpdatedAt = now
	return nil
}

func (s *MemStore) BulkInsertExpected(awbs []string, date string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	var inserted int64
	for _, awb := range awbs {
		key := memKey(awb, date)
		if _, ok := s.byKey[key]; ok {
			continue
		}
		p := &models.Parcel{
			ID:        s.nextID,
			Awb:       awb,
			Date:      date,
			Status:    models.StatusExpected,
			CreatedAt: now,
			UpdatedAt: now,
		}
		s.nextID++
		s.byKey[key] = p
		s.byID[p.ID] = p
		inserted++
	}
	return inserted, nil
}

func (s *MemStore) ReconcileSurplus(awbs []string, date string, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var updated int64
	for _, awb := range awbs {
		p, ok := s.byKey[memKey(awb, date)]
		if !ok || p.Status != models.StatusSurplus {
			continue
		}
		p.Status = models.StatusScanned
		p.UpdatedAt = now
		updated++
	}
	return updated, nil
}

func (s *MemStore) CountByDateAndStatus(date, status string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, p := range s.byKey {
		if p.Date == date && p.Status == status {
			count++
		}
	}
	return count, nil
}

func (s *MemStore) ListAwbsByDateAndStatus(date, status string, limit int) ([]string, error) {
	s.mu.Lock()
	matched := make([]*models.Parcel, 0)
	for _, p := range s.byKey {
		if p.Date == date && p.Status == status {
			matched = append(matched, p)
		}
	}
	s.mu.Unlock()

	// Most recently created first; id breaks ties within one batch.
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	awbs := make([]string, 0, len(matched))
	for _, p := range matched {
		awbs = append(awbs, p.Awb)
	}
	return awbs, nil
}

func (s *MemStore) ListByDate(date, search string, limit int) ([]models.Parcel, error) {
	needle := strings.ToLower(search)
	s.mu.Lock()
	matched := make([]models.Parcel, 0)
	for _, p := range s.byKey {
		if p.Date != date {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(p.Awb), needle) {
			continue
		}
		matched = append(matched, *p)
	}
	s.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].UpdatedAt.Equal(matched[j].UpdatedAt) {
			return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
		}
		return matched[i].ID > matched[j].ID
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *MemStore) DeleteOldExpected(today string) (int64, error) {
	return s.deleteWhere(func(p *models.Parcel) bool {
		return p.Status == models.StatusExpected && p.Date != today
	})
}

func (s *MemStore) DeleteByDate(date string) (int64, error) {
	return s.deleteWhere(func(p *models.Parcel) bool {
		return p.Date == date
	})
}

func (s *MemStore) DeleteAll() (int64, error) {
	return s.deleteWhere(func(*models.Parcel) bool {
		return true
	})
}

func (s *MemStore) DeleteByID(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.byID, id)
	delete(s.byKey, memKey(p.Awb, p.Date))
	return nil
}

func (s *MemStore) deleteWhere(match func(*models.Parcel) bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for key, p := range s.byKey {
		if !match(p) {
			continue
		}
		delete(s.byKey, key)
		delete(s.byID, p.ID)
		deleted++
	}
	return deleted, nil
}
