package mongorepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bataanhss/websystem/core/delivery"
)

type deliveryImageDoc struct {
	Filename     string `bson:"filename"`
	OriginalName string `bson:"originalName"`
	MimeType     string `bson:"mimeType"`
	Size         int64  `bson:"size"`
	URL          string `bson:"url"`
}

type deliveryDoc struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	UserID          primitive.ObjectID `bson:"userId"`
	DateKey         string             `bson:"dateKey"`
	CategoryKey     string             `bson:"categoryKey"`
	CategoryLabel   string             `bson:"categoryLabel"`
	Status          string             `bson:"status"`
	StatusReason    string             `bson:"statusReason,omitempty"`
	StatusUpdatedAt time.Time          `bson:"statusUpdatedAt,omitempty"`
	UploadedAt      time.Time          `bson:"uploadedAt,omitempty"`
	Concerns        []string           `bson:"concerns"`
	Remarks         string             `bson:"remarks,omitempty"`
	Images          []deliveryImageDoc `bson:"images"`
	CreatedAt       time.Time          `bson:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt"`
}

func (d deliveryDoc) toRecord() delivery.Record {
	images := make([]delivery.Image, 0, len(d.Images))
	for _, img := range d.Images {
		images = append(images, delivery.Image(img))
	}
	concerns := d.Concerns
	if concerns == nil {
		concerns = []string{}
	}
	return delivery.Record{
		ID:              d.ID.Hex(),
		UserID:          d.UserID.Hex(),
		DateKey:         d.DateKey,
		CategoryKey:     d.CategoryKey,
		CategoryLabel:   d.CategoryLabel,
		Status:          d.Status,
		StatusReason:    d.StatusReason,
		StatusUpdatedAt: d.StatusUpdatedAt,
		UploadedAt:      d.UploadedAt,
		Concerns:        concerns,
		Remarks:         d.Remarks,
		Images:          images,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func newDeliveryImageDocs(images []delivery.Image) []deliveryImageDoc {
	docs := make([]deliveryImageDoc, 0, len(images))
	for _, img := range images {
		docs = append(docs, deliveryImageDoc(img))
	}
	return docs
}

type deliveryRepository struct {
	db   *mongo.Database
	coll *mongo.Collection
}

var _ delivery.Repository = (*deliveryRepository)(nil) // interface compliance check

func NewDeliveryRepository(db *mongo.Database) *deliveryRepository {
	return &deliveryRepository{db: db, coll: db.Collection(deliveryColl)}
}

func (repo deliveryRepository) naturalKey(userID, dateKey, categoryKey string) bson.M {
	return bson.M{
		"userId":      parseID(userID),
		"dateKey":     dateKey,
		"categoryKey": categoryKey,
	}
}

func (repo deliveryRepository) GetRecord(ctx context.Context, userID, dateKey, categoryKey string) (delivery.Record, error) {
	var doc deliveryDoc
	if err := repo.coll.FindOne(ctx, repo.naturalKey(userID, dateKey, categoryKey)).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return delivery.Record{}, delivery.ErrNotFound
		}
		return delivery.Record{}, errors.Wrap(err, "getting delivery record")
	}
	return doc.toRecord(), nil
}

func (repo deliveryRepository) UpsertRecord(ctx context.Context, rec delivery.Record) (delivery.Record, error) {
	set := bson.M{
		"categoryLabel": rec.CategoryLabel,
		"status":        rec.Status,
		"statusReason":  rec.StatusReason,
		"concerns":      rec.Concerns,
		"remarks":       rec.Remarks,
		"images":        newDeliveryImageDocs(rec.Images),
		"updatedAt":     rec.UpdatedAt,
	}
	if !rec.StatusUpdatedAt.IsZero() {
		set["statusUpdatedAt"] = rec.StatusUpdatedAt
	}
	if !rec.UploadedAt.IsZero() {
		set["uploadedAt"] = rec.UploadedAt
	}
	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"userId":      parseID(rec.UserID),
			"dateKey":     rec.DateKey,
			"categoryKey": rec.CategoryKey,
			"createdAt":   rec.CreatedAt,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc deliveryDoc
	err := repo.coll.FindOneAndUpdate(ctx, repo.naturalKey(rec.UserID, rec.DateKey, rec.CategoryKey), update, opts).Decode(&doc)
	if err != nil {
		return delivery.Record{}, errors.Wrap(err, "upserting delivery record")
	}
	return doc.toRecord(), nil
}

func (repo deliveryRepository) QueryRecordsByDate(ctx context.Context, userID, dateKey string) ([]delivery.Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "categoryLabel", Value: 1}})
	cur, err := repo.coll.Find(ctx, bson.M{"userId": parseID(userID), "dateKey": dateKey}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying delivery records")
	}
	return repo.decodeAll(ctx, cur)
}

func (repo deliveryRepository) FilterRecords(ctx context.Context, userIDs []string, filter delivery.QueryFilter, limit int) ([]delivery.Record, error) {
	ids := make([]primitive.ObjectID, 0, len(userIDs))
	for _, id := range userIDs {
		ids = append(ids, parseID(id))
	}
	match := bson.M{"userId": bson.M{"$in": ids}}
	applyDeliveryFilter(match, filter)

	opts := options.Find().
		SetSort(bson.D{{Key: "dateKey", Value: sortDir(filter.Sort)}, {Key: "categoryLabel", Value: 1}}).
		SetLimit(int64(limit))
	cur, err := repo.coll.Find(ctx, match, opts)
	if err != nil {
		return nil, errors.Wrap(err, "filtering delivery records")
	}
	return repo.decodeAll(ctx, cur)
}

func (repo deliveryRepository) DeleteRecord(ctx context.Context, userID, dateKey, categoryKey string) (delivery.Record, error) {
	var doc deliveryDoc
	if err := repo.coll.FindOneAndDelete(ctx, repo.naturalKey(userID, dateKey, categoryKey)).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return delivery.Record{}, delivery.ErrNotFound
		}
		return delivery.Record{}, errors.Wrap(err, "deleting delivery record")
	}
	return doc.toRecord(), nil
}

func (repo deliveryRepository) FilterAdminRecords(ctx context.Context, filter delivery.QueryFilter, limit int) ([]delivery.AdminRecord, error) {
	// search is applied after the user lookup so it can match user fields
	match := bson.M{}
	if filter.DateKey != "" {
		match["dateKey"] = filter.DateKey
	} else if rng := dateKeyRange(filter.From, filter.To); rng != nil {
		match["dateKey"] = rng
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$lookup", Value: bson.M{
			"from":         usersColl,
			"localField":   "userId",
			"foreignField": "_id",
			"as":           "user",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$user", "preserveNullAndEmptyArrays": true}}},
	}
	if filter.Search != "" {
		rx := searchRegex(filter.Search)
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{"$or": bson.A{
			bson.M{"categoryLabel": rx},
			bson.M{"status": rx},
			bson.M{"statusReason": rx},
			bson.M{"remarks": rx},
			bson.M{"concerns": rx},
			bson.M{"user.school": rx},
			bson.M{"user.municipality": rx},
			bson.M{"user.name": rx},
			bson.M{"user.username": rx},
		}}}})
	}
	pipeline = append(pipeline,
		bson.D{{Key: "$sort", Value: bson.D{{Key: "dateKey", Value: sortDir(filter.Sort)}, {Key: "updatedAt", Value: -1}}}},
		bson.D{{Key: "$limit", Value: limit}},
	)

	cur, err := repo.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errors.Wrap(err, "filtering admin delivery records")
	}
	defer cur.Close(ctx)

	records := make([]delivery.AdminRecord, 0)
	for cur.Next(ctx) {
		var doc struct {
			deliveryDoc `bson:",inline"`
			User        struct {
				Municipality string `bson:"municipality"`
				School       string `bson:"school"`
			} `bson:"user"`
		}
		if err = cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decoding admin delivery record")
		}
		records = append(records, delivery.AdminRecord{
			Record:       doc.toRecord(),
			Municipality: doc.User.Municipality,
			School:       doc.User.School,
		})
	}
	return records, errors.Wrap(cur.Err(), "filtering admin delivery records")
}

func (repo deliveryRepository) decodeAll(ctx context.Context, cur *mongo.Cursor) ([]delivery.Record, error) {
	defer cur.Close(ctx)
	records := make([]delivery.Record, 0)
	for cur.Next(ctx) {
		var doc deliveryDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decoding delivery record")
		}
		records = append(records, doc.toRecord())
	}
	return records, errors.Wrap(cur.Err(), "decoding delivery records")
}

func applyDeliveryFilter(match bson.M, filter delivery.QueryFilter) {
	if filter.DateKey != "" {
		match["dateKey"] = filter.DateKey
	} else if rng := dateKeyRange(filter.From, filter.To); rng != nil {
		match["dateKey"] = rng
	}
	if filter.Search != "" {
		rx := searchRegex(filter.Search)
		match["$or"] = bson.A{
			bson.M{"categoryLabel": rx},
			bson.M{"status": rx},
			bson.M{"statusReason": rx},
			bson.M{"remarks": rx},
			bson.M{"concerns": rx},
		}
	}
}
