package attendance

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/bataanhss/websystem/core"
)

const (
	historyLimit      = 1000
	adminHistoryLimit = 5000
)

var (
	errDateKeyRequired = errors.New("dateKey is required")
	errGradeRequired   = errors.New("grade is required")
	errBadCounts       = errors.New("present and absent must be non-negative numbers")
	errNoValidEntries  = errors.New("no valid entries to save")
)

type (
	Repository interface {
		// UpsertRecord updates-or-inserts on the exact natural key
		// (userId, dateKey, grade); the store's per-document atomicity is
		// the only serialization point. A duplicate-key rejection surfaces
		// as a core.ConflictError.
		UpsertRecord(ctx context.Context, rec Record) (Record, error)
		// GetRecord with an empty grade matches any grade for the date.
		GetRecord(ctx context.Context, userID, dateKey, grade string) (Record, error)
		QueryRecordsByDate(ctx context.Context, userID, dateKey string) ([]Record, error)
		FilterRecords(ctx context.Context, userID string, filter QueryFilter, limit int) ([]Record, error)
		// FilterAdminRecords joins each record with its owning user and
		// matches Search against record fields and the user's school,
		// municipality, name and username.
		FilterAdminRecords(ctx context.Context, filter QueryFilter, limit int) ([]AdminRecord, error)
	}

	Service struct {
		repo Repository
	}
)

var ErrNotFound = errors.New("attendance record not found")

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Save upserts a single day's record for the user.
func (svc *Service) Save(ctx context.Context, userID string, in SaveRecord) (Record, error) {
	dateKey := strings.TrimSpace(in.DateKey)
	if dateKey == "" {
		return Record{}, core.NewValidationError(errDateKeyRequired)
	}
	if !isCount(in.Present) || !isCount(in.Absent) {
		return Record{}, core.NewValidationError(errBadCounts)
	}
	grade := strings.TrimSpace(in.Grade)
	if grade == "" {
		return Record{}, core.NewValidationError(errGradeRequired)
	}

	now := time.Now().UTC()
	return svc.repo.UpsertRecord(ctx, Record{
		UserID:    userID,
		DateKey:   dateKey,
		Grade:     grade,
		Present:   int(math.Floor(in.Present)),
		Absent:    int(math.Floor(in.Absent)),
		Notes:     in.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// SaveBulk cleans and upserts a set of grade lines for one date. Lines
// without a grade, or with zero counts and no notes, are dropped.
func (svc *Service) SaveBulk(ctx context.Context, userID string, in SaveBulk) ([]Record, error) {
	dateKey := strings.TrimSpace(in.DateKey)
	if dateKey == "" {
		return nil, core.NewValidationError(errDateKeyRequired)
	}

	cleaned := make([]BulkEntry, 0, len(in.Entries))
	for _, e := range in.Entries {
		if ce, ok := e.clean(); ok {
			cleaned = append(cleaned, ce)
		}
	}
	if len(cleaned) == 0 {
		return nil, core.NewValidationError(errNoValidEntries)
	}

	now := time.Now().UTC()
	saved := make([]Record, 0, len(cleaned))
	for _, e := range cleaned {
		rec, err := svc.repo.UpsertRecord(ctx, Record{
			UserID:    userID,
			DateKey:   dateKey,
			Grade:     e.Grade,
			Present:   int(e.Present),
			Absent:    int(e.Absent),
			Notes:     e.Notes,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return nil, err
		}
		saved = append(saved, rec)
	}
	return saved, nil
}

// GetByDate returns the user's record for a date, optionally narrowed to a
// grade; a nil record means none saved yet.
func (svc *Service) GetByDate(ctx context.Context, userID, dateKey, grade string) (*Record, error) {
	rec, err := svc.repo.GetRecord(ctx, userID, strings.TrimSpace(dateKey), strings.TrimSpace(grade))
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (svc *Service) QueryByDate(ctx context.Context, userID, dateKey string) ([]Record, error) {
	return svc.repo.QueryRecordsByDate(ctx, userID, strings.TrimSpace(dateKey))
}

func (svc *Service) History(ctx context.Context, userID string, filter QueryFilter) ([]Record, error) {
	filter.Clean()
	return svc.repo.FilterRecords(ctx, userID, filter, historyLimit)
}

func (svc *Service) AdminHistory(ctx context.Context, filter QueryFilter) ([]AdminRecord, error) {
	filter.Clean()
	return svc.repo.FilterAdminRecords(ctx, filter, adminHistoryLimit)
}

func isCount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
