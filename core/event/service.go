package event

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/bataanhss/websystem/core"
)

const (
	adminQueryLimit = 2000
	userQueryLimit  = 200

	// default user listing window around today
	defaultWindowBack    = 30 * 24 * time.Hour
	defaultWindowForward = 90 * 24 * time.Hour
)

var (
	ErrNotFound = errors.New("event not found")

	errTitleRequired    = errors.New("title is required")
	errBadDateKey       = errors.New("dateKey must be yyyy-MM-dd")
	errBadStartTime     = errors.New("startTime must be HH:mm")
	errBadEndTime       = errors.New("endTime must be HH:mm")
	errEndBeforeStart   = errors.New("endTime must be after startTime")
	errCancelledFrozen  = errors.New("cancelled events cannot be edited")
	errAlreadyCancelled = errors.New("event is already cancelled")
	errReasonRequired   = errors.New("cancellation reason is required")

	dateKeyRegex   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	clockTimeRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

type (
	Repository interface {
		CreateEvent(ctx context.Context, ev Event) (Event, error)
		GetEventByID(ctx context.Context, id string) (Event, error)
		UpdateEvent(ctx context.Context, ev Event) (Event, error)
		// QueryEvents returns events in (dateKey, startTime) order.
		QueryEvents(ctx context.Context, filter QueryFilter, limit int) ([]Event, error)
	}

	Service struct {
		repo Repository
	}
)

// UploadFolder is the per-feature subfolder for event attachments.
const UploadFolder = "events"

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func validateSchedule(ne NewEvent) error {
	if ne.Title == "" {
		return core.NewValidationError(errTitleRequired)
	}
	if !dateKeyRegex.MatchString(ne.DateKey) {
		return core.NewValidationError(errBadDateKey)
	}
	if !clockTimeRegex.MatchString(ne.StartTime) {
		return core.NewValidationError(errBadStartTime)
	}
	if !clockTimeRegex.MatchString(ne.EndTime) {
		return core.NewValidationError(errBadEndTime)
	}
	// HH:mm compares correctly as a string
	if ne.EndTime <= ne.StartTime {
		return core.NewValidationError(errEndBeforeStart)
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, createdBy string, ne NewEvent, att *Attachment) (Event, error) {
	ne.Clean()
	if err := validateSchedule(ne); err != nil {
		return Event{}, err
	}
	if err := core.Validate.Struct(&ne); err != nil {
		return Event{}, err
	}

	now := time.Now().UTC()
	return svc.repo.CreateEvent(ctx, Event{
		Title:       ne.Title,
		Description: ne.Description,
		DateKey:     ne.DateKey,
		StartTime:   ne.StartTime,
		EndTime:     ne.EndTime,
		Status:      StatusScheduled,
		Attachment:  att,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

// Update edits a scheduled event; empty fields keep the stored values and a
// new attachment replaces the old one. Cancelled events are immutable.
func (svc *Service) Update(ctx context.Context, id string, ne NewEvent, att *Attachment) (Event, error) {
	existing, err := svc.repo.GetEventByID(ctx, id)
	if err != nil {
		return Event{}, err
	}
	if existing.Status == StatusCancelled {
		return Event{}, core.NewValidationError(errCancelledFrozen)
	}

	ne.Clean()
	if ne.Title == "" {
		ne.Title = existing.Title
	}
	if ne.Description == "" {
		ne.Description = existing.Description
	}
	if ne.DateKey == "" {
		ne.DateKey = existing.DateKey
	}
	if ne.StartTime == "" {
		ne.StartTime = existing.StartTime
	}
	if ne.EndTime == "" {
		ne.EndTime = existing.EndTime
	}
	if err := validateSchedule(ne); err != nil {
		return Event{}, err
	}
	if err := core.Validate.Struct(&ne); err != nil {
		return Event{}, err
	}

	existing.Title = ne.Title
	existing.Description = ne.Description
	existing.DateKey = ne.DateKey
	existing.StartTime = ne.StartTime
	existing.EndTime = ne.EndTime
	if att != nil {
		existing.Attachment = att
	}
	existing.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateEvent(ctx, existing)
}

func (svc *Service) Cancel(ctx context.Context, id, cancelledBy, reason string) (Event, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Event{}, core.NewValidationError(errReasonRequired)
	}

	existing, err := svc.repo.GetEventByID(ctx, id)
	if err != nil {
		return Event{}, err
	}
	if existing.Status == StatusCancelled {
		return Event{}, core.NewValidationError(errAlreadyCancelled)
	}

	existing.Status = StatusCancelled
	existing.CancelReason = reason
	existing.CancelledAt = time.Now().UTC()
	existing.CancelledBy = cancelledBy
	existing.UpdatedAt = existing.CancelledAt
	return svc.repo.UpdateEvent(ctx, existing)
}

func (svc *Service) AdminQuery(ctx context.Context, filter QueryFilter) ([]Event, error) {
	filter.Clean()
	return svc.repo.QueryEvents(ctx, filter, adminQueryLimit)
}

// Query lists events for regular users; an absent or malformed bound falls
// back to the default window around today.
func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	filter.Clean()
	now := time.Now()
	if !dateKeyRegex.MatchString(filter.From) {
		filter.From = now.Add(-defaultWindowBack).Format("2006-01-02")
	}
	if !dateKeyRegex.MatchString(filter.To) {
		filter.To = now.Add(defaultWindowForward).Format("2006-01-02")
	}
	return svc.repo.QueryEvents(ctx, filter, userQueryLimit)
}

func (svc *Service) Get(ctx context.Context, id string) (Event, error) {
	return svc.repo.GetEventByID(ctx, id)
}
