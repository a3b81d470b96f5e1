package delivery

import (
	"encoding/json"
	"strings"
	"time"
)

// Statuses
const (
	StatusPending   = "Pending"
	StatusDelivered = "Delivered"
	StatusDelayed   = "Delayed"
	StatusCancelled = "Cancelled"
)

var AllStatuses = []string{StatusPending, StatusDelivered, StatusDelayed, StatusCancelled}

// Image is one stored delivery photo.
type Image struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	MimeType     string `json:"mimeType"`
	Size         int64  `json:"size"`
	URL          string `json:"url"`
}

// Record is one delivery report. Unique per (userId, dateKey, categoryKey);
// upserted; images accumulate unless a replace flag is set.
type Record struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	DateKey         string    `json:"dateKey"`
	CategoryKey     string    `json:"categoryKey"`
	CategoryLabel   string    `json:"categoryLabel"`
	Status          string    `json:"status"`
	StatusReason    string    `json:"statusReason"`
	StatusUpdatedAt time.Time `json:"statusUpdatedAt,omitempty"`
	UploadedAt      time.Time `json:"uploadedAt,omitempty"`
	Concerns        []string  `json:"concerns"`
	Remarks         string    `json:"remarks"`
	Images          []Image   `json:"images"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// AdminRecord is a Record joined with its owner's school and municipality
// for the admin history view.
type AdminRecord struct {
	Record
	Municipality string `json:"municipality"`
	School       string `json:"school"`
}

// SaveRecord carries the multipart form fields of a delivery save; images
// arrive separately as uploaded files.
type SaveRecord struct {
	DateKey         string `form:"dateKey" json:"dateKey"`
	CategoryKey     string `form:"categoryKey" json:"categoryKey"`
	CategoryLabel   string `form:"categoryLabel" json:"categoryLabel"`
	Status          string `form:"status" json:"status"`
	StatusReason    string `form:"statusReason" json:"statusReason"`
	StatusUpdatedAt string `form:"statusUpdatedAt" json:"statusUpdatedAt"`
	UploadedAt      string `form:"uploadedAt" json:"uploadedAt"`
	Concerns        string `form:"concerns" json:"concerns"`
	Remarks         string `form:"remarks" json:"remarks"`
	ReplaceImages   string `form:"replaceImages" json:"replaceImages"`
}

// Replace reports whether the submitted image set overwrites the stored one
// instead of being appended to it.
func (sr SaveRecord) Replace() bool {
	v := strings.ToLower(strings.TrimSpace(sr.ReplaceImages))
	return v == "true" || v == "1"
}

// DeleteRecord identifies a record by its natural key.
type DeleteRecord struct {
	DateKey     string `json:"dateKey"`
	CategoryKey string `json:"categoryKey"`
}

// QueryFilter narrows a delivery history query.
type QueryFilter struct {
	DateKey string `query:"dateKey"`
	From    string `query:"from"`
	To      string `query:"to"`
	Search  string `query:"search"`
	Sort    string `query:"sort"` // newest (default) | oldest
}

func (qf *QueryFilter) Clean() {
	qf.DateKey = strings.TrimSpace(qf.DateKey)
	qf.From = strings.TrimSpace(qf.From)
	qf.To = strings.TrimSpace(qf.To)
	qf.Search = strings.TrimSpace(qf.Search)
	if qf.Sort != "oldest" {
		qf.Sort = "newest"
	}
}

// ParseStringList accepts either a JSON array or a comma-separated string,
// the two shapes clients submit list fields in.
func ParseStringList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}
	var parsed []interface{}
	if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
		out := make([]string, 0, len(parsed))
		for _, v := range parsed {
			if s, ok := v.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if out == nil {
		out = []string{}
	}
	return out
}
