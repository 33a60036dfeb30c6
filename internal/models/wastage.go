package models

import "time"

// WastageReason categorizes why stock was written off.
type WastageReason string

const (
	WasteSpoiled        WastageReason = "spoiled"
	WasteBurnt          WastageReason = "burnt"
	WasteOverProduction WastageReason = "over-production"
	WasteDropped        WastageReason = "dropped"
	WasteExpired        WastageReason = "expired"
	WasteOther          WastageReason = "other"
)

// KnownWastageReason reports whether r is one of the recognized reasons.
func KnownWastageReason(r WastageReason) bool {
	switch r {
	case WasteSpoiled, WasteBurnt, WasteOverProduction, WasteDropped, WasteExpired, WasteOther:
		return true
	}
	return false
}

// WastageEntry is one logged write-off.
type WastageEntry struct {
	ID           string        `bson:"_id" json:"id"`
	ItemName     string        `bson:"itemName" json:"itemName"`
	Quantity     float64       `bson:"quantity" json:"quantity"`
	Unit         string        `bson:"unit" json:"unit"`
	Reason       WastageReason `bson:"reason" json:"reason"`
	CostEstimate float64       `bson:"costEstimate,omitempty" json:"costEstimate,omitempty"`
	RecordedBy   Actor         `bson:"recordedBy" json:"recordedBy"`
	RecordedAt   time.Time     `bson:"recordedAt" json:"recordedAt"`
}

// WastageSummary is one row of the grouped-by-reason report.
type WastageSummary struct {
	Reason   WastageReason `bson:"_id" json:"reason"`
	Count    int64         `bson:"count" json:"count"`
	Quantity float64       `bson:"quantity" json:"quantity"`
	Cost     float64       `bson:"cost" json:"cost"`
}
