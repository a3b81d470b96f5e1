package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/bataanhss/websystem/core"
	"github.com/bataanhss/websystem/core/distribution"
)

type distributionRepository struct {
	db *DB
}

var _ distribution.Repository = (*distributionRepository)(nil) // interface compliance check

func NewDistributionRepository(db *DB) *distributionRepository {
	return &distributionRepository{db: db}
}

func (repo *distributionRepository) GetBatchByHash(ctx context.Context, kind distribution.Kind, contentHash string) (distribution.Batch, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, b := range repo.db.batches[kind] {
		if b.ContentHash == contentHash {
			return *b, nil
		}
	}
	return distribution.Batch{}, distribution.ErrBatchNotFound
}

func (repo *distributionRepository) CreateBatch(ctx context.Context, batch distribution.Batch) (distribution.Batch, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, b := range repo.db.batches[batch.Kind] {
		if b.ContentHash == batch.ContentHash {
			return distribution.Batch{}, core.NewConflictError("a batch with this content already exists")
		}
	}
	batch.ID = repo.db.nextID()
	repo.db.batches[batch.Kind][batch.ID] = &batch
	return batch, nil
}

func (repo *distributionRepository) CreateRows(ctx context.Context, rows []distribution.Row) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for i := range rows {
		row := rows[i]
		row.ID = repo.db.nextID()
		repo.db.rows[row.Kind][row.ID] = &row
	}
	return nil
}

func (repo *distributionRepository) queryBatches(kind distribution.Kind) []distribution.Batch {
	batches := make([]distribution.Batch, 0, len(repo.db.batches[kind]))
	for _, b := range repo.db.batches[kind] {
		batches = append(batches, *b)
	}
	sort.Slice(batches, func(i, j int) bool {
		if batches[i].CreatedAt.Equal(batches[j].CreatedAt) {
			return batches[i].ID > batches[j].ID
		}
		return batches[i].CreatedAt.After(batches[j].CreatedAt)
	})
	return batches
}

func (repo *distributionRepository) QueryBatches(ctx context.Context, kind distribution.Kind, limit int) ([]distribution.Batch, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	batches := repo.queryBatches(kind)
	if len(batches) > limit {
		batches = batches[:limit]
	}
	return batches, nil
}

func (repo *distributionRepository) GetLatestBatch(ctx context.Context, kind distribution.Kind) (distribution.Batch, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	batches := repo.queryBatches(kind)
	if len(batches) == 0 {
		return distribution.Batch{}, distribution.ErrBatchNotFound
	}
	return batches[0], nil
}

func (repo *distributionRepository) GetBatchByID(ctx context.Context, kind distribution.Kind, id string) (distribution.Batch, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if b, ok := repo.db.batches[kind][id]; ok {
		return *b, nil
	}
	return distribution.Batch{}, distribution.ErrBatchNotFound
}

func (repo *distributionRepository) QueryRowsByBatch(ctx context.Context, kind distribution.Kind, batchID string) ([]distribution.Row, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	rows := make([]distribution.Row, 0)
	for _, row := range repo.db.rows[kind] {
		if row.BatchID == batchID {
			rows = append(rows, *row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Municipality != rows[j].Municipality {
			return rows[i].Municipality < rows[j].Municipality
		}
		return rows[i].SchoolName < rows[j].SchoolName
	})
	return rows, nil
}

func (repo *distributionRepository) DeleteBatch(ctx context.Context, kind distribution.Kind, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.batches[kind][id]; !ok {
		return distribution.ErrBatchNotFound
	}
	delete(repo.db.batches[kind], id)
	for rowID, row := range repo.db.rows[kind] {
		if row.BatchID == id {
			delete(repo.db.rows[kind], rowID)
		}
	}
	return nil
}

func (repo *distributionRepository) UpdateRowMetric(ctx context.Context, kind distribution.Kind, rowID, field string, value float64) (distribution.Row, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	row, ok := repo.db.rows[kind][rowID]
	if !ok {
		return distribution.Row{}, distribution.ErrRowNotFound
	}
	row.Metrics[field] = value
	row.UpdatedAt = time.Now().UTC()
	return *row, nil
}
