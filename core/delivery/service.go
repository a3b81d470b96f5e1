package delivery

import (
	"context"
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
	ErrNotFound = errors.New("record not found")

	errKeyFieldsRequired = errors.New("dateKey, categoryKey, categoryLabel are required")
	errDeleteKeyRequired = errors.New("dateKey and categoryKey are required")
)

type (
	Repository interface {
		GetRecord(ctx context.Context, userID, dateKey, categoryKey string) (Record, error)
		// UpsertRecord updates-or-inserts on the exact natural key
		// (userId, dateKey, categoryKey).
		UpsertRecord(ctx context.Context, rec Record) (Record, error)
		// QueryRecordsByDate returns the user's records sorted by category label.
		QueryRecordsByDate(ctx context.Context, userID, dateKey string) ([]Record, error)
		// FilterRecords matches any of the given user ids; Search applies to
		// category, status, reason, remarks and concerns.
		FilterRecords(ctx context.Context, userIDs []string, filter QueryFilter, limit int) ([]Record, error)
		// DeleteRecord removes by natural key and returns the deleted record
		// so the caller can clean up its stored images.
		DeleteRecord(ctx context.Context, userID, dateKey, categoryKey string) (Record, error)
		// FilterAdminRecords joins each record with its owning user.
		FilterAdminRecords(ctx context.Context, filter QueryFilter, limit int) ([]AdminRecord, error)
	}

	// FileRemover deletes a stored upload; failures are swallowed.
	FileRemover interface {
		Remove(folder, filename string) error
	}

	Service struct {
		repo  Repository
		files FileRemover
		log   core.Logger
	}
)

// UploadFolder is the per-feature subfolder for delivery images.
const UploadFolder = "delivery"

func NewService(repo Repository, files FileRemover, log core.Logger) *Service {
	return &Service{repo: repo, files: files, log: log}
}

// Save upserts a delivery report on its natural key. Submitted images are
// appended to the stored list unless the replace flag is set; the concern
// list is normalized before persisting.
func (svc *Service) Save(ctx context.Context, userID string, in SaveRecord, images []Image) (Record, error) {
	dateKey := strings.TrimSpace(in.DateKey)
	categoryKey := strings.TrimSpace(in.CategoryKey)
	categoryLabel := strings.TrimSpace(in.CategoryLabel)
	if dateKey == "" || categoryKey == "" || categoryLabel == "" {
		return Record{}, core.NewValidationError(errKeyFieldsRequired)
	}

	status := strings.TrimSpace(in.Status)
	if status == "" {
		status = StatusPending
	}
	concerns := NormalizeConcerns(ParseStringList(in.Concerns))

	rec := Record{
		UserID:        userID,
		DateKey:       dateKey,
		CategoryKey:   categoryKey,
		CategoryLabel: categoryLabel,
		Status:        status,
		StatusReason:  in.StatusReason,
		Concerns:      concerns,
		Remarks:       in.Remarks,
		Images:        images,
	}
	if t, err := time.Parse(time.RFC3339, in.StatusUpdatedAt); err == nil {
		rec.StatusUpdatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, in.UploadedAt); err == nil {
		rec.UploadedAt = t
	}

	if !in.Replace() {
		existing, err := svc.repo.GetRecord(ctx, userID, dateKey, categoryKey)
		if err == nil {
			rec.Images = append(append([]Image{}, existing.Images...), images...)
		} else if errors.Cause(err) != ErrNotFound {
			return Record{}, errors.Wrap(err, "loading existing record")
		}
	}
	if rec.Images == nil {
		rec.Images = []Image{}
	}

	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	return svc.repo.UpsertRecord(ctx, rec)
}

func (svc *Service) QueryByDate(ctx context.Context, userID, dateKey string) ([]Record, error) {
	return svc.repo.QueryRecordsByDate(ctx, userID, strings.TrimSpace(dateKey))
}

// History returns records for the given user ids; an HLA Coordinator's
// handler passes their school's manager ids so the coordinator sees those
// submissions instead of their own.
func (svc *Service) History(ctx context.Context, userIDs []string, filter QueryFilter) ([]Record, error) {
	filter.Clean()
	return svc.repo.FilterRecords(ctx, userIDs, filter, historyLimit)
}

func (svc *Service) AdminHistory(ctx context.Context, filter QueryFilter) ([]AdminRecord, error) {
	filter.Clean()
	return svc.repo.FilterAdminRecords(ctx, filter, adminHistoryLimit)
}

// Delete removes a record by natural key and best-effort deletes its stored
// image files.
func (svc *Service) Delete(ctx context.Context, userID string, in DeleteRecord) error {
	dateKey := strings.TrimSpace(in.DateKey)
	categoryKey := strings.TrimSpace(in.CategoryKey)
	if dateKey == "" || categoryKey == "" {
		return core.NewValidationError(errDeleteKeyRequired)
	}

	deleted, err := svc.repo.DeleteRecord(ctx, userID, dateKey, categoryKey)
	if err != nil {
		return err
	}
	for _, img := range deleted.Images {
		if img.Filename == "" {
			continue
		}
		if err := svc.files.Remove(UploadFolder, img.Filename); err != nil {
			svc.log.Warn("removing delivery image", err)
		}
	}
	return nil
}
