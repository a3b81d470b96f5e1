package event

import (
	"strings"
	"time"
)

// Statuses
const (
	StatusScheduled = "Scheduled"
	StatusCancelled = "Cancelled"
)

// Attachment is a stored upload linked to an event.
type Attachment struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	MimeType     string `json:"mimeType"`
	Size         int64  `json:"size"`
	URL          string `json:"url"`
}

// Event is a scheduled calendar entry. Cancelled events are immutable.
type Event struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	DateKey      string      `json:"dateKey"`   // yyyy-MM-dd
	StartTime    string      `json:"startTime"` // HH:mm
	EndTime      string      `json:"endTime"`   // HH:mm
	Status       string      `json:"status"`
	CancelReason string      `json:"cancelReason,omitempty"`
	CancelledAt  time.Time   `json:"cancelledAt,omitempty"`
	CancelledBy  string      `json:"cancelledBy,omitempty"`
	Attachment   *Attachment `json:"attachment,omitempty"`
	CreatedBy    string      `json:"createdBy"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// Summary is the trimmed shape served to regular users in listings.
type Summary struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	DateKey      string `json:"dateKey"`
	StartTime    string `json:"startTime"`
	EndTime      string `json:"endTime"`
	Status       string `json:"status"`
	CancelReason string `json:"cancelReason,omitempty"`
}

func (ev Event) Summary() Summary {
	return Summary{
		ID:           ev.ID,
		Title:        ev.Title,
		DateKey:      ev.DateKey,
		StartTime:    ev.StartTime,
		EndTime:      ev.EndTime,
		Status:       ev.Status,
		CancelReason: ev.CancelReason,
	}
}

// NewEvent carries the create/update form fields; on update, empty fields
// keep the stored values.
type NewEvent struct {
	Title       string `form:"title" json:"title" validate:"omitempty,max=120"`
	Description string `form:"description" json:"description" validate:"omitempty,max=2000"`
	DateKey     string `form:"dateKey" json:"dateKey"`
	StartTime   string `form:"startTime" json:"startTime"`
	EndTime     string `form:"endTime" json:"endTime"`
}

func (ne *NewEvent) Clean() {
	ne.Title = strings.TrimSpace(ne.Title)
	ne.Description = strings.TrimSpace(ne.Description)
	ne.DateKey = strings.TrimSpace(ne.DateKey)
	ne.StartTime = strings.TrimSpace(ne.StartTime)
	ne.EndTime = strings.TrimSpace(ne.EndTime)
}

// CancelEvent is the cancellation request body.
type CancelEvent struct {
	Reason string `json:"reason" validate:"max=500"`
}

// QueryFilter bounds an event listing by dateKey.
type QueryFilter struct {
	From string `query:"from"`
	To   string `query:"to"`
}

func (qf *QueryFilter) Clean() {
	qf.From = strings.TrimSpace(qf.From)
	qf.To = strings.TrimSpace(qf.To)
}
