package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/bataanhss/websystem/core/filesub"
	"github.com/bataanhss/websystem/core/user"
)

type fileSubRepository struct {
	db *DB
}

var _ filesub.Repository = (*fileSubRepository)(nil) // interface compliance check

func NewFileSubmissionRepository(db *DB) *fileSubRepository {
	return &fileSubRepository{db: db}
}

func (repo *fileSubRepository) query() []filesub.Submission {
	subs := make([]filesub.Submission, 0, len(repo.db.fileSubs))
	for _, sub := range repo.db.fileSubs {
		subs = append(subs, *sub)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].ID > subs[j].ID })
	return subs
}

func (repo *fileSubRepository) CreateSubmissions(ctx context.Context, subs []filesub.Submission) ([]filesub.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	now := time.Now().UTC()
	created := make([]filesub.Submission, 0, len(subs))
	for _, sub := range subs {
		sub.ID = repo.db.nextID()
		sub.CreatedAt = now
		sub.UpdatedAt = now
		repo.db.fileSubs[sub.ID] = &sub
		created = append(created, sub)
	}
	return created, nil
}

func (repo *fileSubRepository) GetSubmission(ctx context.Context, userID, id string) (filesub.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sub, ok := repo.db.fileSubs[id]; ok && sub.UserID == userID {
		return *sub, nil
	}
	return filesub.Submission{}, filesub.ErrNotFound
}

func (repo *fileSubRepository) GetSubmissionByID(ctx context.Context, id string) (filesub.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sub, ok := repo.db.fileSubs[id]; ok {
		return *sub, nil
	}
	return filesub.Submission{}, filesub.ErrNotFound
}

func (repo *fileSubRepository) QuerySubmissions(ctx context.Context, userID string, folders []string, dateRange *filesub.DayRange) ([]filesub.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	subs := make([]filesub.Submission, 0)
	for _, sub := range repo.query() {
		if sub.UserID != userID {
			continue
		}
		if len(folders) > 0 && !containsString(folders, sub.Folder) {
			continue
		}
		if !inDayRange(sub.UploadDate, dateRange) {
			continue
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func (repo *fileSubRepository) DeleteSubmission(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.fileSubs[id]; !ok {
		return filesub.ErrNotFound
	}
	delete(repo.db.fileSubs, id)
	return nil
}

func (repo *fileSubRepository) CountByFolder(ctx context.Context, userID string, dateRange *filesub.DayRange) (map[string]int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	counts := make(map[string]int)
	for _, sub := range repo.db.fileSubs {
		if sub.UserID == userID && inDayRange(sub.UploadDate, dateRange) {
			counts[sub.Folder]++
		}
	}
	return counts, nil
}

func (repo *fileSubRepository) FilterAdminSubmissions(ctx context.Context, filter filesub.AdminFilter, dateRange *filesub.DayRange, limit int) ([]filesub.AdminSubmission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	folders := []string(nil)
	if filter.Folder != "" {
		folders = filesub.LegacyFolderNames(filesub.NormalizeFolder(filter.Folder))
	}

	subs := make([]filesub.AdminSubmission, 0)
	for _, sub := range repo.query() {
		if folders != nil && !containsString(folders, sub.Folder) {
			continue
		}
		if filter.CoordinatorID != "" && sub.UserID != filter.CoordinatorID {
			continue
		}
		if !inDayRange(sub.UploadDate, dateRange) {
			continue
		}
		usr, ok := repo.db.users[sub.UserID]
		if !ok || usr.HLARoleType != user.HLACoordinator {
			continue
		}
		if filter.Municipality != "" && usr.Municipality != filter.Municipality {
			continue
		}
		if filter.School != "" && usr.School != filter.School {
			continue
		}
		if filter.Search != "" && !matchesAny(filter.Search,
			sub.Folder, sub.OriginalName, sub.FileName, sub.Description, sub.Status, sub.MimeType,
			usr.Name, usr.Username, usr.School, usr.Municipality, usr.HLARoleType) {
			continue
		}
		subs = append(subs, filesub.AdminSubmission{
			Submission: sub,
			Coordinator: filesub.Coordinator{
				ID:           usr.ID,
				Name:         usr.Name,
				Username:     usr.Username,
				Municipality: usr.Municipality,
				School:       usr.School,
				HLARoleType:  usr.HLARoleType,
			},
		})
	}

	sort.Slice(subs, func(i, j int) bool { return subs[i].UploadDate.After(subs[j].UploadDate) })
	if len(subs) > limit {
		subs = subs[:limit]
	}
	return subs, nil
}

func inDayRange(t time.Time, rng *filesub.DayRange) bool {
	if rng == nil {
		return true
	}
	return !t.Before(rng.Start) && t.Before(rng.End)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
