package models

import (
	"time"
)

// Parcel statuses. A manifest upload seeds records as 'expected'; a physical
// scan reconciles them to 'scanned' or creates a 'surplus' record when the
// parcel was never on the manifest.
const (
	StatusExpected = "expected"
	StatusScanned  = "scanned"
	StatusSurplus  = "surplus"
)

// Scan outcomes returned to the scanner client.
const (
	ScanMatch     = "match"
	ScanDuplicate = "duplicate"
	ScanSurplus   = "surplus"
)

// Parcel represents one AWB on one business day. The (awb, date) pair is
// unique; status is the only mutable field after creation.
type Parcel struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Awb       string    `json:"awb" gorm:"size:100;not null;uniqueIndex:idx_awb_date"`
	Date      string    `json:"date" gorm:"size:10;not null;uniqueIndex:idx_awb_date;index:idx_date"`
	Status    string    `json:"status" gorm:"type:varchar(20);not null;check:status IN ('expected','scanned','surplus')"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for Parcel
func (Parcel) TableName() string {
	return "parcels"
}

// ScanRequest is the body of POST /api/scan
type ScanRequest struct {
	Awb string `json:"awb"`
}

// ScanResult is the outcome of one scan event
type ScanResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Awb     string `json:"awb"`
}

// UploadResult reports one manifest ingestion. Errors counts input rows that
// yielded no usable AWB after trimming; duplicate AWBs within the batch are
// collapsed to their first occurrence and reported separately.
type UploadResult struct {
	Message           string `json:"message"`
	Inserted          int    `json:"inserted"`
	Errors            int    `json:"errors"`
	DuplicatesInBatch int    `json:"duplicates_in_batch"`
}

// DashboardStats is the live counter view for one business day. The AWB
// lists are display lists capped by the aggregation layer; the counts are
// always exact.
type DashboardStats struct {
	TotalExpected int64    `json:"total_expected"`
	Scanned       int64    `json:"scanned"`
	Missing       int64    `json:"missing"`
	Surplus       int64    `json:"surplus"`
	MissingAwbs   []string `json:"missing_awbs"`
	SurplusAwbs   []string `json:"surplus_awbs"`
}

// ClearRequest is the body of POST /api/clear
type ClearRequest struct {
	Mode string `json:"mode"`
}
