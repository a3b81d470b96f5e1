package mongorepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bataanhss/websystem/core"
	"github.com/bataanhss/websystem/core/distribution"
)

type batchDoc struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	Municipality     string             `bson:"municipality"`
	KitchenName      string             `bson:"bhssKitchenName"`
	ContentHash      string             `bson:"contentHash,omitempty"`
	SheetName        string             `bson:"sheetName,omitempty"`
	SourceFileName   string             `bson:"sourceFileName,omitempty"`
	UploadedByUserID primitive.ObjectID `bson:"uploadedBy,omitempty"`
	CreatedAt        time.Time          `bson:"createdAt"`
}

func (d batchDoc) toBatch(kind distribution.Kind) distribution.Batch {
	b := distribution.Batch{
		ID:             d.ID.Hex(),
		Kind:           kind,
		Municipality:   d.Municipality,
		KitchenName:    d.KitchenName,
		ContentHash:    d.ContentHash,
		SheetName:      d.SheetName,
		SourceFileName: d.SourceFileName,
		CreatedAt:      d.CreatedAt,
	}
	if !d.UploadedByUserID.IsZero() {
		b.UploadedByUserID = d.UploadedByUserID.Hex()
	}
	return b
}

// rowDoc stores the base columns plus the kind's metrics inlined, matching
// the per-kind collections' flat shape.
type rowDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	BatchID      primitive.ObjectID `bson:"batchId"`
	Municipality string             `bson:"municipality"`
	KitchenName  string             `bson:"bhssKitchenName"`
	SchoolName   string             `bson:"schoolName"`
	Metrics      bson.M             `bson:",inline"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt,omitempty"`
}

func (d rowDoc) toRow(kind distribution.Kind) distribution.Row {
	metrics := make(map[string]float64, len(d.Metrics))
	for _, f := range distribution.MetricFields(kind) {
		switch v := d.Metrics[f].(type) {
		case float64:
			metrics[f] = v
		case int32:
			metrics[f] = float64(v)
		case int64:
			metrics[f] = float64(v)
		}
	}
	return distribution.Row{
		ID:           d.ID.Hex(),
		BatchID:      d.BatchID.Hex(),
		Kind:         kind,
		Municipality: d.Municipality,
		KitchenName:  d.KitchenName,
		SchoolName:   d.SchoolName,
		Metrics:      metrics,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func newRowDoc(row distribution.Row) rowDoc {
	metrics := make(bson.M, len(row.Metrics))
	for _, f := range distribution.MetricFields(row.Kind) {
		metrics[f] = row.Metrics[f]
	}
	return rowDoc{
		ID:           newObjectID(),
		BatchID:      parseID(row.BatchID),
		Municipality: row.Municipality,
		KitchenName:  row.KitchenName,
		SchoolName:   row.SchoolName,
		Metrics:      metrics,
		CreatedAt:    row.CreatedAt,
	}
}

type distributionRepository struct {
	db *mongo.Database
}

var _ distribution.Repository = (*distributionRepository)(nil) // interface compliance check

func NewDistributionRepository(db *mongo.Database) *distributionRepository {
	return &distributionRepository{db: db}
}

func (repo distributionRepository) batches(kind distribution.Kind) *mongo.Collection {
	switch kind {
	case distribution.Rice:
		return repo.db.Collection(riceBatchesColl)
	case distribution.LPG:
		return repo.db.Collection(lpgBatchesColl)
	}
	return repo.db.Collection(waterBatchesColl)
}

func (repo distributionRepository) rows(kind distribution.Kind) *mongo.Collection {
	switch kind {
	case distribution.Rice:
		return repo.db.Collection(riceRowsColl)
	case distribution.LPG:
		return repo.db.Collection(lpgRowsColl)
	}
	return repo.db.Collection(waterRowsColl)
}

func (repo distributionRepository) getBatch(ctx context.Context, kind distribution.Kind, filter bson.M) (distribution.Batch, error) {
	var doc batchDoc
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if err := repo.batches(kind).FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return distribution.Batch{}, distribution.ErrBatchNotFound
		}
		return distribution.Batch{}, errors.Wrap(err, "getting batch")
	}
	return doc.toBatch(kind), nil
}

func (repo distributionRepository) GetBatchByHash(ctx context.Context, kind distribution.Kind, contentHash string) (distribution.Batch, error) {
	return repo.getBatch(ctx, kind, bson.M{"contentHash": contentHash})
}

func (repo distributionRepository) CreateBatch(ctx context.Context, batch distribution.Batch) (distribution.Batch, error) {
	doc := batchDoc{
		ID:               newObjectID(),
		Municipality:     batch.Municipality,
		KitchenName:      batch.KitchenName,
		ContentHash:      batch.ContentHash,
		SheetName:        batch.SheetName,
		SourceFileName:   batch.SourceFileName,
		UploadedByUserID: parseID(batch.UploadedByUserID),
		CreatedAt:        batch.CreatedAt,
	}
	if _, err := repo.batches(batch.Kind).InsertOne(ctx, doc); err != nil {
		if isDuplicateKeyErr(err) {
			return distribution.Batch{}, core.NewConflictError("a batch with this content already exists")
		}
		return distribution.Batch{}, errors.Wrap(err, "inserting batch")
	}
	return doc.toBatch(batch.Kind), nil
}

func (repo distributionRepository) CreateRows(ctx context.Context, rows []distribution.Row) error {
	if len(rows) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, newRowDoc(row))
	}
	opts := options.InsertMany().SetOrdered(true)
	_, err := repo.rows(rows[0].Kind).InsertMany(ctx, docs, opts)
	return errors.Wrap(err, "inserting rows")
}

func (repo distributionRepository) QueryBatches(ctx context.Context, kind distribution.Kind, limit int) ([]distribution.Batch, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := repo.batches(kind).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying batches")
	}
	defer cur.Close(ctx)

	batches := make([]distribution.Batch, 0)
	for cur.Next(ctx) {
		var doc batchDoc
		if err = cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decoding batch")
		}
		batches = append(batches, doc.toBatch(kind))
	}
	return batches, errors.Wrap(cur.Err(), "querying batches")
}

func (repo distributionRepository) GetLatestBatch(ctx context.Context, kind distribution.Kind) (distribution.Batch, error) {
	return repo.getBatch(ctx, kind, bson.M{})
}

func (repo distributionRepository) GetBatchByID(ctx context.Context, kind distribution.Kind, id string) (distribution.Batch, error) {
	return repo.getBatch(ctx, kind, bson.M{"_id": parseID(id)})
}

func (repo distributionRepository) QueryRowsByBatch(ctx context.Context, kind distribution.Kind, batchID string) ([]distribution.Row, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "municipality", Value: 1},
		{Key: "schoolName", Value: 1},
	})
	cur, err := repo.rows(kind).Find(ctx, bson.M{"batchId": parseID(batchID)}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying rows")
	}
	defer cur.Close(ctx)

	rows := make([]distribution.Row, 0)
	for cur.Next(ctx) {
		var doc rowDoc
		if err = cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decoding row")
		}
		rows = append(rows, doc.toRow(kind))
	}
	return rows, errors.Wrap(cur.Err(), "querying rows")
}

func (repo distributionRepository) DeleteBatch(ctx context.Context, kind distribution.Kind, id string) error {
	oid := parseID(id)
	res, err := repo.batches(kind).DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return errors.Wrap(err, "deleting batch")
	}
	if res.DeletedCount == 0 {
		return distribution.ErrBatchNotFound
	}
	_, err = repo.rows(kind).DeleteMany(ctx, bson.M{"batchId": oid})
	return errors.Wrap(err, "deleting batch rows")
}

func (repo distributionRepository) UpdateRowMetric(ctx context.Context, kind distribution.Kind, rowID, field string, value float64) (distribution.Row, error) {
	update := bson.M{"$set": bson.M{field: value, "updatedAt": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc rowDoc
	err := repo.rows(kind).FindOneAndUpdate(ctx, bson.M{"_id": parseID(rowID)}, update, opts).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return distribution.Row{}, distribution.ErrRowNotFound
		}
		return distribution.Row{}, errors.Wrap(err, "updating row")
	}
	return doc.toRow(kind), nil
}
