package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/bataanhss/websystem/core/delivery"
)

type deliveryRepository struct {
	db *DB
}

var _ delivery.Repository = (*deliveryRepository)(nil) // interface compliance check

func NewDeliveryRepository(db *DB) *deliveryRepository {
	return &deliveryRepository{db: db}
}

func (repo *deliveryRepository) query() []delivery.Record {
	records := make([]delivery.Record, 0, len(repo.db.deliveries))
	for _, rec := range repo.db.deliveries {
		records = append(records, *rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records
}

func (repo *deliveryRepository) GetRecord(ctx context.Context, userID, dateKey, categoryKey string) (delivery.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, rec := range repo.query() {
		if rec.UserID == userID && rec.DateKey == dateKey && rec.CategoryKey == categoryKey {
			return rec, nil
		}
	}
	return delivery.Record{}, delivery.ErrNotFound
}

func (repo *deliveryRepository) UpsertRecord(ctx context.Context, rec delivery.Record) (delivery.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.deliveries {
		if existing.UserID == rec.UserID && existing.DateKey == rec.DateKey && existing.CategoryKey == rec.CategoryKey {
			rec.ID = existing.ID
			rec.CreatedAt = existing.CreatedAt
			repo.db.deliveries[rec.ID] = &rec
			return rec, nil
		}
	}
	rec.ID = repo.db.nextID()
	repo.db.deliveries[rec.ID] = &rec
	return rec, nil
}

func (repo *deliveryRepository) QueryRecordsByDate(ctx context.Context, userID, dateKey string) ([]delivery.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	records := make([]delivery.Record, 0)
	for _, rec := range repo.query() {
		if rec.UserID == userID && rec.DateKey == dateKey {
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].CategoryLabel < records[j].CategoryLabel })
	return records, nil
}

func (repo *deliveryRepository) FilterRecords(ctx context.Context, userIDs []string, filter delivery.QueryFilter, limit int) ([]delivery.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	idSet := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		idSet[id] = true
	}

	records := make([]delivery.Record, 0)
	for _, rec := range repo.query() {
		if !idSet[rec.UserID] || !matchesDeliveryFilter(rec, filter) {
			continue
		}
		records = append(records, rec)
	}
	sortDeliveries(records, filter.Sort)
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (repo *deliveryRepository) DeleteRecord(ctx context.Context, userID, dateKey, categoryKey string) (delivery.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for id, rec := range repo.db.deliveries {
		if rec.UserID == userID && rec.DateKey == dateKey && rec.CategoryKey == categoryKey {
			deleted := *rec
			delete(repo.db.deliveries, id)
			return deleted, nil
		}
	}
	return delivery.Record{}, delivery.ErrNotFound
}

func (repo *deliveryRepository) FilterAdminRecords(ctx context.Context, filter delivery.QueryFilter, limit int) ([]delivery.AdminRecord, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	records := make([]delivery.AdminRecord, 0)
	for _, rec := range repo.query() {
		if filter.DateKey != "" && rec.DateKey != filter.DateKey {
			continue
		}
		if filter.DateKey == "" && !inDateKeyRange(rec.DateKey, filter.From, filter.To) {
			continue
		}
		adminRec := delivery.AdminRecord{Record: rec}
		if usr, ok := repo.db.users[rec.UserID]; ok {
			adminRec.Municipality = usr.Municipality
			adminRec.School = usr.School
		}
		if filter.Search != "" && !matchesAny(filter.Search,
			rec.CategoryLabel, rec.Status, rec.StatusReason, rec.Remarks, strings.Join(rec.Concerns, " "),
			adminRec.School, adminRec.Municipality) {
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

func matchesDeliveryFilter(rec delivery.Record, filter delivery.QueryFilter) bool {
	if filter.DateKey != "" {
		if rec.DateKey != filter.DateKey {
			return false
		}
	} else if !inDateKeyRange(rec.DateKey, filter.From, filter.To) {
		return false
	}
	if filter.Search != "" && !matchesAny(filter.Search,
		rec.CategoryLabel, rec.Status, rec.StatusReason, rec.Remarks, strings.Join(rec.Concerns, " ")) {
		return false
	}
	return true
}

func sortDeliveries(records []delivery.Record, order string) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].DateKey == records[j].DateKey {
			return records[i].CategoryLabel < records[j].CategoryLabel
		}
		if order == "oldest" {
			return records[i].DateKey < records[j].DateKey
		}
		return records[i].DateKey > records[j].DateKey
	})
}
