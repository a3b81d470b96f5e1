package announcement

import (
	"strings"
	"time"
)

// Priorities
const (
	PriorityNormal    = "Normal"
	PriorityImportant = "Important"
	PriorityUrgent    = "Urgent"
)

// Audiences
const (
	AudienceAll   = "All"
	AudienceUsers = "Users"
)

// Attachment is a stored upload linked to an announcement.
type Attachment struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	MimeType     string `json:"mimeType"`
	Size         int64  `json:"size"`
	URL          string `json:"url"`
}

type Announcement struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Message     string       `json:"message"`
	Priority    string       `json:"priority"`
	Audience    string       `json:"audience"`
	Attachments []Attachment `json:"attachments"`
	CreatedBy   string       `json:"createdBy"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// NewAnnouncement carries the create form fields; unknown priority or
// audience values coerce to the defaults.
type NewAnnouncement struct {
	Title    string `form:"title" json:"title" validate:"omitempty,max=160"`
	Message  string `form:"message" json:"message" validate:"omitempty,max=5000"`
	Priority string `form:"priority" json:"priority"`
	Audience string `form:"audience" json:"audience"`
}

func (na *NewAnnouncement) Clean() {
	na.Title = strings.TrimSpace(na.Title)
	na.Message = strings.TrimSpace(na.Message)

	switch strings.TrimSpace(na.Priority) {
	case PriorityImportant:
		na.Priority = PriorityImportant
	case PriorityUrgent:
		na.Priority = PriorityUrgent
	default:
		na.Priority = PriorityNormal
	}
	switch strings.TrimSpace(na.Audience) {
	case AudienceUsers:
		na.Audience = AudienceUsers
	default:
		na.Audience = AudienceAll
	}
}
