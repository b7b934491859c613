package services

import (
	"back_scan/internal/store"
)

// Clear modes. Old removes un-reconciled backlog from previous days, today
// resets the current working day, all wipes every record.
const (
	ClearOld   = "old"
	ClearToday = "today"
	ClearAll   = "all"
)

// PurgeService bulk-deletes records under an explicit, named policy.
// Deletion is permanent; export-before-clear is the caller's concern.
type PurgeService struct {
	store store.ParcelStore
}

func NewPurgeService(st store.ParcelStore) *PurgeService {
	return &PurgeService{store: st}
}

// Clear deletes records under the named policy and returns the count.
// Unknown modes fall back to "old", the least destructive policy.
func (ps *PurgeService) Clear(mode, today string) (int64, error) {
	switch mode {
	case ClearToday:
		return ps.store.DeleteByDate(today)
	case ClearAll:
		return ps.store.DeleteAll()
	default:
		return ps.store.DeleteOldExpected(today)
	}
}

// DeleteByID removes a single record.
func (ps *PurgeService) DeleteByID(id uint) error {
	return ps.store.DeleteByID(id)
}
