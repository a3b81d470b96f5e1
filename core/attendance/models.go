package attendance

import (
	"math"
	"strings"
	"time"
)

// Record is one day's attendance count for a user and grade level. Unique
// per (userId, dateKey, grade); always upserted, never duplicated.
type Record struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	DateKey   string    `json:"dateKey"`
	Grade     string    `json:"grade"`
	Present   int       `json:"present"`
	Absent    int       `json:"absent"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AdminRecord is a Record joined with its owner's identity for the admin
// history view.
type AdminRecord struct {
	Record
	Municipality string `json:"municipality"`
	School       string `json:"school"`
	UserName     string `json:"userName"`
}

// SaveRecord is the single-save request body.
type SaveRecord struct {
	DateKey string  `json:"dateKey" validate:"required,datekey"`
	Grade   string  `json:"grade"`
	Present float64 `json:"present"`
	Absent  float64 `json:"absent"`
	Notes   string  `json:"notes"`
}

// BulkEntry is one grade line of a bulk save.
type BulkEntry struct {
	Grade   string  `json:"grade"`
	Present float64 `json:"present"`
	Absent  float64 `json:"absent"`
	Notes   string  `json:"notes"`
}

// SaveBulk is the bulk-save request body.
type SaveBulk struct {
	DateKey string      `json:"dateKey" validate:"required,datekey"`
	Entries []BulkEntry `json:"entries"`
}

// cleanEntry normalizes one bulk entry: required grade, negative or
// non-finite counts clamped to 0. Entries with no counts and no notes are
// dropped by the caller.
func (e BulkEntry) clean() (BulkEntry, bool) {
	e.Grade = strings.TrimSpace(e.Grade)
	if e.Grade == "" {
		return e, false
	}
	e.Present = clampCount(e.Present)
	e.Absent = clampCount(e.Absent)
	if e.Present+e.Absent <= 0 && strings.TrimSpace(e.Notes) == "" {
		return e, false
	}
	return e, true
}

func clampCount(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return math.Floor(v)
}

// QueryFilter narrows a history query; dateKeys compare lexicographically.
type QueryFilter struct {
	From   string `query:"from"`
	To     string `query:"to"`
	Search string `query:"search"`
	Sort   string `query:"sort"` // newest (default) | oldest
}

func (qf *QueryFilter) Clean() {
	qf.From = strings.TrimSpace(qf.From)
	qf.To = strings.TrimSpace(qf.To)
	qf.Search = strings.TrimSpace(qf.Search)
	if qf.Sort != "oldest" {
		qf.Sort = "newest"
	}
}
