package filesub

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/bataanhss/websystem/core"
)

const (
	// UploadFolder is the subdirectory of the uploads root where
	// submitted files are stored.
	UploadFolder = "file-submissions"

	adminHistoryLimit = 5000

	// MaxFileCount and MaxFileSize bound a single upload request.
	MaxFileCount = 15
	MaxFileSize  = 10 << 20
)

var (
	ErrNotFound    = errors.New("file not found")
	ErrFileMissing = errors.New("file not found on server")
	ErrInvalidType = errors.New("invalid file type. Only JPEG/PNG images are allowed")

	errNoFiles       = core.NewValidationError(errors.New("no files uploaded"))
	errFolderMissing = core.NewValidationError(errors.New("folder is required"))
	errInvalidFolder = core.NewValidationError(errors.New("invalid folder"))
)

// AllowedMimeType reports whether a file of the given type may be uploaded
// into folder. The COA folder accepts any type; everything else is limited
// to JPEG and PNG images.
func AllowedMimeType(folder, mimeType string) bool {
	if folder == "COA" {
		return true
	}
	return mimeType == "image/jpeg" || mimeType == "image/png"
}

// DayRange is a half-open [Start, End) interval covering whole days.
type DayRange struct {
	Start time.Time
	End   time.Time
}

// ParseDayRange interprets from/to date keys as an inclusive day range.
// A single bound covers exactly that day. Returns nil when neither bound
// parses.
func ParseDayRange(from, to string) *DayRange {
	start, fromOK := parseDateKey(from)
	endDay, toOK := parseDateKey(to)
	switch {
	case fromOK && toOK:
		return &DayRange{Start: start, End: endDay.AddDate(0, 0, 1)}
	case fromOK:
		return &DayRange{Start: start, End: start.AddDate(0, 0, 1)}
	case toOK:
		return &DayRange{Start: endDay, End: endDay.AddDate(0, 0, 1)}
	}
	return nil
}

func parseDateKey(s string) (time.Time, bool) {
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Repository persists file submissions.
type Repository interface {
	CreateSubmissions(ctx context.Context, subs []Submission) ([]Submission, error)
	GetSubmission(ctx context.Context, userID, id string) (Submission, error)
	GetSubmissionByID(ctx context.Context, id string) (Submission, error)
	QuerySubmissions(ctx context.Context, userID string, folders []string, dateRange *DayRange) ([]Submission, error)
	DeleteSubmission(ctx context.Context, id string) error
	CountByFolder(ctx context.Context, userID string, dateRange *DayRange) (map[string]int, error)
	FilterAdminSubmissions(ctx context.Context, filter AdminFilter, dateRange *DayRange, limit int) ([]AdminSubmission, error)
}

type ServiceInterface interface {
	Upload(ctx context.Context, userID string, data Upload, files []UploadedFile) ([]Submission, error)
	Query(ctx context.Context, userID string, filter QueryFilter) ([]Submission, error)
	Get(ctx context.Context, userID, id string) (Submission, error)
	GetForAdmin(ctx context.Context, id string) (Submission, error)
	Delete(ctx context.Context, userID, id string) error
	FolderCounts(ctx context.Context, userID, date string) (map[string]int, error)
	AdminHistory(ctx context.Context, filter AdminFilter) ([]AdminSubmission, error)
}

// FileRemover deletes a stored upload from disk.
type FileRemover interface {
	Remove(folder, filename string) error
}

type Service struct {
	repo  Repository
	files FileRemover
	log   core.Logger
}

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, files FileRemover, log core.Logger) *Service {
	return &Service{repo: repo, files: files, log: log}
}

func (svc *Service) Upload(ctx context.Context, userID string, data Upload, files []UploadedFile) ([]Submission, error) {
	data.Clean()
	if len(files) == 0 {
		return nil, errNoFiles
	}
	if data.Folder == "" {
		return nil, errFolderMissing
	}
	if !IsValidFolder(data.Folder) {
		return nil, errInvalidFolder
	}

	uploadDate := time.Now()
	if data.UploadDate != "" {
		if t, err := time.Parse(time.RFC3339, data.UploadDate); err == nil {
			uploadDate = t
		} else if t, ok := parseDateKey(data.UploadDate); ok {
			uploadDate = t
		}
	}

	subs := make([]Submission, 0, len(files))
	for _, f := range files {
		subs = append(subs, Submission{
			UserID:       userID,
			Folder:       data.Folder,
			FileName:     f.FileName,
			OriginalName: f.OriginalName,
			FileSize:     f.Size,
			MimeType:     f.MimeType,
			Description:  data.Description,
			UploadDate:   uploadDate,
			Status:       StatusUploaded,
		})
	}
	return svc.repo.CreateSubmissions(ctx, subs)
}

func (svc *Service) Query(ctx context.Context, userID string, filter QueryFilter) ([]Submission, error) {
	var folders []string
	if f := NormalizeFolder(filter.Folder); f != "" {
		folders = LegacyFolderNames(f)
	}
	subs, err := svc.repo.QuerySubmissions(ctx, userID, folders, ParseDayRange(filter.Date, filter.Date))
	if err != nil {
		return nil, err
	}
	for i := range subs {
		subs[i].Folder = NormalizeFolder(subs[i].Folder)
	}
	return subs, nil
}

func (svc *Service) Get(ctx context.Context, userID, id string) (Submission, error) {
	return svc.repo.GetSubmission(ctx, userID, id)
}

func (svc *Service) GetForAdmin(ctx context.Context, id string) (Submission, error) {
	return svc.repo.GetSubmissionByID(ctx, id)
}

func (svc *Service) Delete(ctx context.Context, userID, id string) error {
	sub, err := svc.repo.GetSubmission(ctx, userID, id)
	if err != nil {
		return err
	}
	if err = svc.repo.DeleteSubmission(ctx, sub.ID); err != nil {
		return err
	}
	if err = svc.files.Remove(UploadFolder, sub.FileName); err != nil {
		svc.log.Warn("failed to remove submission file", "file", sub.FileName, "err", err)
	}
	return nil
}

// FolderCounts groups the user's submissions per folder, optionally within
// a single day. Legacy folder names collapse into their merged folder.
func (svc *Service) FolderCounts(ctx context.Context, userID, date string) (map[string]int, error) {
	raw, err := svc.repo.CountByFolder(ctx, userID, ParseDayRange(date, date))
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(raw))
	for folder, n := range raw {
		counts[NormalizeFolder(folder)] += n
	}
	return counts, nil
}

func (svc *Service) AdminHistory(ctx context.Context, filter AdminFilter) ([]AdminSubmission, error) {
	filter.Clean()
	subs, err := svc.repo.FilterAdminSubmissions(ctx, filter, ParseDayRange(filter.From, filter.To), adminHistoryLimit)
	if err != nil {
		return nil, err
	}
	for i := range subs {
		subs[i].Folder = NormalizeFolder(subs[i].Folder)
	}
	return subs, nil
}
