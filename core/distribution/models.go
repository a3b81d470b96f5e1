package distribution

import (
	"encoding/json"
	"time"
)

// Kind discriminates the three distribution datasets.
type Kind string

const (
	Water Kind = "water"
	Rice  Kind = "rice"
	LPG   Kind = "lpg"
)

var AllKinds = []Kind{Water, Rice, LPG}

func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case Water, Rice, LPG:
		return Kind(s), true
	}
	return "", false
}

// metricFields lists the patchable numeric columns per kind, in canonical
// serialization order.
var metricFields = map[Kind][]string{
	Water: {"beneficiaries", "water", "week1", "week2", "week3", "week4", "week5", "total"},
	Rice:  {"rice"},
	LPG:   {"gasul"},
}

// MetricFields returns the allowed numeric fields for a kind.
func MetricFields(kind Kind) []string {
	return metricFields[kind]
}

// IsMetricField reports whether field is patchable for the kind.
func IsMetricField(kind Kind, field string) bool {
	for _, f := range metricFields[kind] {
		if f == field {
			return true
		}
	}
	return false
}

// Batch is one uploaded distribution dataset. Immutable once created;
// deleted only by explicit admin action, cascading to its rows.
type Batch struct {
	ID               string    `json:"id"`
	Kind             Kind      `json:"-"`
	Municipality     string    `json:"municipality"`
	KitchenName      string    `json:"bhssKitchenName"`
	ContentHash      string    `json:"contentHash,omitempty"`
	SheetName        string    `json:"sheetName"`
	SourceFileName   string    `json:"sourceFileName"`
	UploadedByUserID string    `json:"uploadedByUserId"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Row is one school-level line of a batch. Owned by exactly one batch;
// individually patchable by admins; removed with its batch.
type Row struct {
	ID           string
	BatchID      string
	Kind         Kind
	Municipality string
	KitchenName  string
	SchoolName   string
	Metrics      map[string]float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MarshalJSON flattens the kind's metrics next to the base fields so each
// kind keeps its own wire shape.
func (r Row) MarshalJSON() ([]byte, error) {
	obj := map[string]interface{}{
		"id":              r.ID,
		"batchId":         r.BatchID,
		"municipality":    r.Municipality,
		"bhssKitchenName": r.KitchenName,
		"schoolName":      r.SchoolName,
		"createdAt":       r.CreatedAt,
	}
	if !r.UpdatedAt.IsZero() {
		obj["updatedAt"] = r.UpdatedAt
	}
	for _, f := range metricFields[r.Kind] {
		obj[f] = r.Metrics[f]
	}
	return json.Marshal(obj)
}

// Metric returns the named metric, 0 when unset.
func (r Row) Metric(field string) float64 {
	return r.Metrics[field]
}

// NewBatch is the batch upload request body.
type NewBatch struct {
	KitchenName    string     `json:"bhssKitchenName"`
	SheetName      string     `json:"sheetName"`
	SourceFileName string     `json:"sourceFileName"`
	Items          []RowInput `json:"items"`
}

// RowInput is one uploaded line; only the metric fields matching the batch
// kind are read, the rest are ignored.
type RowInput struct {
	Municipality string `json:"municipality"`
	SchoolName   string `json:"schoolName"`

	Beneficiaries float64 `json:"beneficiaries"`
	Water         float64 `json:"water"`
	Week1         float64 `json:"week1"`
	Week2         float64 `json:"week2"`
	Week3         float64 `json:"week3"`
	Week4         float64 `json:"week4"`
	Week5         float64 `json:"week5"`
	Total         float64 `json:"total"`
	Rice          float64 `json:"rice"`
	Gasul         float64 `json:"gasul"`
}

func (ri RowInput) metric(field string) float64 {
	switch field {
	case "beneficiaries":
		return ri.Beneficiaries
	case "water":
		return ri.Water
	case "week1":
		return ri.Week1
	case "week2":
		return ri.Week2
	case "week3":
		return ri.Week3
	case "week4":
		return ri.Week4
	case "week5":
		return ri.Week5
	case "total":
		return ri.Total
	case "rice":
		return ri.Rice
	case "gasul":
		return ri.Gasul
	}
	return 0
}

// PatchRow is the row patch request body; field must be in the kind's
// metric allow-list.
type PatchRow struct {
	Field string  `json:"field"`
	Value float64 `json:"value"`
}
