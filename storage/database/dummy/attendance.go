package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/bataanhss/websystem/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) UpsertRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.attendance {
		if existing.UserID == rec.UserID && existing.DateKey == rec.DateKey && existing.Grade == rec.Grade {
			existing.Present = rec.Present
			existing.Absent = rec.Absent
			existing.Notes = rec.Notes
			existing.UpdatedAt = rec.UpdatedAt
			return *existing, nil
		}
	}
	rec.ID = repo.db.nextID()
	repo.db.attendance[rec.ID] = &rec
	return rec, nil
}

func (repo *attendanceRepository) GetRecord(ctx context.Context, userID, dateKey, grade string) (attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, rec := range repo.query() {
		if rec.UserID == userID && rec.DateKey == dateKey && (grade == "" || rec.Grade == grade) {
			return rec, nil
		}
	}
	return attendance.Record{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) QueryRecordsByDate(ctx context.Context, userID, dateKey string) ([]attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	records := make([]attendance.Record, 0)
	for _, rec := range repo.query() {
		if rec.UserID == userID && rec.DateKey == dateKey {
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Grade < records[j].Grade })
	return records, nil
}

func (repo *attendanceRepository) FilterRecords(ctx context.Context, userID string, filter attendance.QueryFilter, limit int) ([]attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	records := make([]attendance.Record, 0)
	for _, rec := range repo.query() {
		if rec.UserID != userID || !inDateKeyRange(rec.DateKey, filter.From, filter.To) {
			continue
		}
		if filter.Search != "" && !matchesAny(filter.Search, rec.DateKey, rec.Grade, rec.Notes) {
			continue
		}
		records = append(records, rec)
	}
	sortRecords(records, filter.Sort)
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (repo *attendanceRepository) FilterAdminRecords(ctx context.Context, filter attendance.QueryFilter, limit int) ([]attendance.AdminRecord, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	records := make([]attendance.AdminRecord, 0)
	for _, rec := range repo.query() {
		if !inDateKeyRange(rec.DateKey, filter.From, filter.To) {
			continue
		}
		adminRec := attendance.AdminRecord{Record: rec}
		if usr, ok := repo.db.users[rec.UserID]; ok {
			adminRec.Municipality = usr.Municipality
			adminRec.School = usr.School
			adminRec.UserName = usr.Name
		}
		if filter.Search != "" && !matchesAny(filter.Search,
			rec.DateKey, rec.Grade, rec.Notes,
			adminRec.School, adminRec.Municipality, adminRec.UserName) {
			continue
		}
		records = append(records, adminRec)
	}

	sort.Slice(records, func(i, j int) bool {
		if filter.Sort == "oldest" {
			return records[i].DateKey < records[j].DateKey
		}
		return records[i].DateKey > records[j].DateKey
	})
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (repo *attendanceRepository) query() []attendance.Record {
	records := make([]attendance.Record, 0, len(repo.db.attendance))
	for _, rec := range repo.db.attendance {
		records = append(records, *rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records
}

func sortRecords(records []attendance.Record, order string) {
	sort.Slice(records, func(i, j int) bool {
		if order == "oldest" {
			return records[i].DateKey < records[j].DateKey
		}
		return records[i].DateKey > records[j].DateKey
	})
}

func inDateKeyRange(dateKey, from, to string) bool {
	if from != "" && dateKey < from {
		return false
	}
	if to != "" && dateKey > to {
		return false
	}
	return true
}

func matchesAny(search string, fields ...string) bool {
	search = strings.ToLower(search)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}
