package distribution

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/bataanhss/websystem/core"
)

const (
	defaultKitchenName = "BHSS Kitchen"
	batchQueryLimit    = 200
)

var (
	// errors
	ErrBatchNotFound = errors.New("batch not found")
	ErrRowNotFound   = errors.New("row not found")

	errItemsRequired = errors.New("items is required")
	errItemFields    = errors.New("each item requires municipality and schoolName")
	errInvalidField  = errors.New("invalid field")
)

type (
	Repository interface {
		GetBatchByHash(ctx context.Context, kind Kind, contentHash string) (Batch, error)
		// CreateBatch returns a core.ConflictError when another batch with
		// the same content hash was committed concurrently.
		CreateBatch(ctx context.Context, batch Batch) (Batch, error)
		// CreateRows is an ordered bulk insert; rows keep submission order.
		CreateRows(ctx context.Context, rows []Row) error
		QueryBatches(ctx context.Context, kind Kind, limit int) ([]Batch, error)
		GetLatestBatch(ctx context.Context, kind Kind) (Batch, error)
		GetBatchByID(ctx context.Context, kind Kind, id string) (Batch, error)
		// QueryRowsByBatch returns rows sorted by (municipality, schoolName).
		QueryRowsByBatch(ctx context.Context, kind Kind, batchID string) ([]Row, error)
		// DeleteBatch removes the batch and all its rows.
		DeleteBatch(ctx context.Context, kind Kind, id string) error
		UpdateRowMetric(ctx context.Context, kind Kind, rowID, field string, value float64) (Row, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// BatchResult is the outcome of a batch submission.
type BatchResult struct {
	Unchanged bool  `json:"unchanged"`
	Batch     Batch `json:"batch"`
}

/// SubmitBatch runs the content-hash dedup gate: identical re-uploads return
// the existing batch with Unchanged=true and write nothing; new content
// creates the batch and bulk-inserts its rows.
func (svc *Service) SubmitBatch(ctx context.Context, kind Kind, nb NewBatch, uploaderID string) (BatchResult, error) {
	kitchenName := strings.TrimSpace(nb.KitchenName)
	if kitchenName == "" {
		kitchenName = defaultKitchenName
	}
	sheetName := strings.TrimSpace(nb.SheetName)
	sourceFileName := strings.TrimSpace(nb.SourceFileName)

	if len(nb.Items) == 0 {
		return BatchResult{}, core.NewValidationError(errItemsRequired)
	}

	normalized := make([]normalizedRow, 0, len(nb.Items))
	for _, it := range nb.Items {
		nr := normalizeRow(kind, kitchenName, it)
		if nr.Municipality == "" || nr.SchoolName == "" {
			return BatchResult{}, core.NewValidationError(errItemFields)
		}
		normalized = append(normalized, nr)
	}

	contentHash := ContentHash(kind, kitchenName, sheetName, normalized)

	existing, err := svc.repo.GetBatchByHash(ctx, kind, contentHash)
	if err == nil {
		return BatchResult{Unchanged: true, Batch: existing}, nil
	}
	if errors.Cause(err) != ErrBatchNotFound {
		return BatchResult{}, errors.Wrap(err, "looking up content hash")
	}

	batch, err := svc.repo.CreateBatch(ctx, Batch{
		Kind:             kind,
		Municipality:     "ALL",
		KitchenName:      kitchenName,
		ContentHash:      contentHash,
		SheetName:        sheetName,
		SourceFileName:   sourceFileName,
		UploadedByUserID: uploaderID,
		CreatedAt:        time.Now().UTC(),
	})
	if err != nil {
		return BatchResult{}, err
	}

	rows := make([]Row, 0, len(normalized))
	for _, nr := range normalized {
		row := Row{
			BatchID:      batch.ID,
			Kind:         kind,
			Municipality: nr.Municipality,
			KitchenName:  nr.KitchenName,
			SchoolName:   nr.SchoolName,
			Metrics:      nr.Metrics,
			CreatedAt:    batch.CreatedAt,
		}
		if kind == Water && row.Metrics["total"] == 0 {
			row.Metrics["total"] = row.Metrics["water"]
		}
		rows = append(rows, row)
	}
	if err := svc.repo.CreateRows(ctx, rows); err != nil {
		return BatchResult{}, errors.Wrap(err, "inserting batch rows")
	}

	return BatchResult{Unchanged: false, Batch: batch}, nil
}

func (svc *Service) QueryBatches(ctx context.Context, kind Kind) ([]Batch, error) {
	return svc.repo.QueryBatches(ctx, kind, batchQueryLimit)
}

// Latest returns the most recent batch and its rows; a nil batch means no
// uploads yet.
func (svc *Service) Latest(ctx context.Context, kind Kind) (*Batch, []Row, error) {
	batch, err := svc.repo.GetLatestBatch(ctx, kind)
	if err != nil {
		if errors.Cause(err) == ErrBatchNotFound {
			return nil, []Row{}, nil
		}
		return nil, nil, err
	}
	rows, err := svc.repo.QueryRowsByBatch(ctx, kind, batch.ID)
	if err != nil {
		return nil, nil, err
	}
	return &batch, rows, nil
}

func (svc *Service) GetBatch(ctx context.Context, kind Kind, id string) (Batch, []Row, error) {
	batch, err := svc.repo.GetBatchByID(ctx, kind, id)
	if err != nil {
		return Batch{}, nil, err
	}
	rows, err := svc.repo.QueryRowsByBatch(ctx, kind, batch.ID)
	if err != nil {
		return Batch{}, nil, err
	}
	return batch, rows, nil
}

func (svc *Service) DeleteBatch(ctx context.Context, kind Kind, id string) error {
	return svc.repo.DeleteBatch(ctx, kind, id)
}

func (svc *Service) PatchRow(ctx context.Context, kind Kind, rowID string, patch PatchRow) (Row, error) {
	field := strings.TrimSpace(patch.Field)
	if !IsMetricField(kind, field) {
		return Row{}, core.NewValidationError(errInvalidField)
	}
	return svc.repo.UpdateRowMetric(ctx, kind, rowID, field, normalizeNumber(patch.Value))
}
