package announcement

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/bataanhss/websystem/core"
)

const queryLimit = 200

var (
	ErrNotFound = errors.New("announcement not found")

	errTitleRequired   = errors.New("title is required")
	errMessageRequired = errors.New("message is required")
)

type (
	Repository interface {
		CreateAnnouncement(ctx context.Context, ann Announcement) (Announcement, error)
		GetAnnouncementByID(ctx context.Context, id string) (Announcement, error)
		// QueryAnnouncements returns the newest announcements first.
		QueryAnnouncements(ctx context.Context, limit int) ([]Announcement, error)
	}

	Service struct {
		repo Repository
	}
)

// UploadFolder is the per-feature subfolder for announcement attachments.
const UploadFolder = "announcements"

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, createdBy string, na NewAnnouncement, atts []Attachment) (Announcement, error) {
	na.Clean()
	if na.Title == "" {
		return Announcement{}, core.NewValidationError(errTitleRequired)
	}
	if na.Message == "" {
		return Announcement{}, core.NewValidationError(errMessageRequired)
	}
	if err := core.Validate.Struct(&na); err != nil {
		return Announcement{}, err
	}
	if atts == nil {
		atts = []Attachment{}
	}

	now := time.Now().UTC()
	return svc.repo.CreateAnnouncement(ctx, Announcement{
		Title:       na.Title,
		Message:     na.Message,
		Priority:    na.Priority,
		Audience:    na.Audience,
		Attachments: atts,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (svc *Service) QueryAll(ctx context.Context) ([]Announcement, error) {
	return svc.repo.QueryAnnouncements(ctx, queryLimit)
}

func (svc *Service) Get(ctx context.Context, id string) (Announcement, error) {
	return svc.repo.GetAnnouncementByID(ctx, id)
}
