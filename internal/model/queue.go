package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// OperationKind names a deferred write waiting in the offline queue.
type OperationKind string

const (
	// OpCacheProduct re-applies a product cache fill.
	OpCacheProduct OperationKind = "cache_product"
	// OpSaveProfile re-applies a profile upsert.
	OpSaveProfile OperationKind = "save_profile"
	// OpSaveScanHistory re-applies a scan history record.
	OpSaveScanHistory OperationKind = "save_scan_history"
)

// ParseOperationKind validates a stored kind string.
func ParseOperationKind(s string) (OperationKind, error) {
	switch OperationKind(s) {
	case OpCacheProduct, OpSaveProfile, OpSaveScanHistory:
		return OperationKind(s), nil
	default:
		return "", fmt.Errorf("unknown operation kind %q", s)
	}
}

// QueuedOperation is one deferred write. ID is assigned by the queue and is
// monotonic within it; replay order is strictly by ID.
type QueuedOperation struct {
	ID         int64
	Kind       OperationKind
	Payload    json.RawMessage
	EnqueuedAt time.Time
}

// CacheProductPayload is the queued form of a deferred product cache fill.
type CacheProductPayload struct {
	Product Product `json:"product"`
}

// SaveProfilePayload is the queued form of a deferred profile upsert.
type SaveProfilePayload struct {
	Profile UserProfile `json:"profile"`
}

// SaveScanHistoryPayload is the queued form of a deferred history write.
type SaveScanHistoryPayload struct {
	Record ScanRecord `json:"record"`
}

// ScanRecord is one entry in the user's scan history.
type ScanRecord struct {
	ID        string
	ProfileID string
	Barcode   string
	Product   string
	Analysis  DietaryAnalysis
	ScannedAt time.Time
}
