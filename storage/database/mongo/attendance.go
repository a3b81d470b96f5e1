package mongorepos

import (
	"context"
	"regexp"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bataanhss/websystem/core"
	"github.com/bataanhss/websystem/core/attendance"
)

type attendanceDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    primitive.ObjectID `bson:"userId"`
	DateKey   string             `bson:"dateKey"`
	Grade     string             `bson:"grade"`
	Present   int                `bson:"present"`
	Absent    int                `bson:"absent"`
	Notes     string             `bson:"notes"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d attendanceDoc) toRecord() attendance.Record {
	return attendance.Record{
		ID:        d.ID.Hex(),
		UserID:    d.UserID.Hex(),
		DateKey:   d.DateKey,
		Grade:     d.Grade,
		Present:   d.Present,
		Absent:    d.Absent,
		Notes:     d.Notes,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type attendanceRepository struct {
	db   *mongo.Database
	coll *mongo.Collection
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *mongo.Database) *attendanceRepository {
	return &attendanceRepository{db: db, coll: db.Collection(attendanceColl)}
}

func (repo attendanceRepository) UpsertRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	filter := bson.M{
		"userId":  parseID(rec.UserID),
		"dateKey": rec.DateKey,
		"grade":   rec.Grade,
	}
	update := bson.M{
		"$set": bson.M{
			"present":   rec.Present,
			"absent":    rec.Absent,
			"notes":     rec.Notes,
			"updatedAt": rec.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"userId":    parseID(rec.UserID),
			"dateKey":   rec.DateKey,
			"grade":     rec.Grade,
			"createdAt": rec.CreatedAt,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc attendanceDoc
	if err := repo.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if isDuplicateKeyErr(err) {
			return attendance.Record{}, core.NewConflictError("attendance record already exists")
		}
		return attendance.Record{}, errors.Wrap(err, "upserting attendance record")
	}
	return doc.toRecord(), nil
}

func (repo attendanceRepository) GetRecord(ctx context.Context, userID, dateKey, grade string) (attendance.Record, error) {
	filter := bson.M{"userId": parseID(userID), "dateKey": dateKey}
	if grade != "" {
		filter["grade"] = grade
	}
	var doc attendanceDoc
	if err := repo.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return attendance.Record{}, attendance.ErrNotFound
		}
		return attendance.Record{}, errors.Wrap(err, "getting attendance record")
	}
	return doc.toRecord(), nil
}

func (repo attendanceRepository) QueryRecordsByDate(ctx context.Context, userID, dateKey string) ([]attendance.Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "grade", Value: 1}})
	cur, err := repo.coll.Find(ctx, bson.M{"userId": parseID(userID), "dateKey": dateKey}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance records")
	}
	return repo.decodeAll(ctx, cur)
}

func (repo attendanceRepository) FilterRecords(ctx context.Context, userID string, filter attendance.QueryFilter, limit int) ([]attendance.Record, error) {
	match := bson.M{"userId": parseID(userID)}
	if rng := dateKeyRange(filter.From, filter.To); rng != nil {
		match["dateKey"] = rng
	}
	if filter.Search != "" {
		rx := searchRegex(filter.Search)
		match["$or"] = bson.A{
			bson.M{"dateKey": rx},
			bson.M{"grade": rx},
			bson.M{"notes": rx},
		}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "dateKey", Value: sortDir(filter.Sort)}, {Key: "grade", Value: 1}}).
		SetLimit(int64(limit))
	cur, err := repo.coll.Find(ctx, match, opts)
	if err != nil {
		return nil, errors.Wrap(err, "filtering attendance records")
	}
	return repo.decodeAll(ctx, cur)
}

func (repo attendanceRepository) FilterAdminRecords(ctx context.Context, filter attendance.QueryFilter, limit int) ([]attendance.AdminRecord, error) {
	match := bson.M{}
	if rng := dateKeyRange(filter.From, filter.To); rng != nil {
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
			bson.M{"dateKey": rx},
			bson.M{"grade": rx},
			bson.M{"notes": rx},
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
		return nil, errors.Wrap(err, "filtering admin attendance records")
	}
	defer cur.Close(ctx)

	records := make([]attendance.AdminRecord, 0)
	for cur.Next(ctx) {
		var doc struct {
			attendanceDoc `bson:",inline"`
			User          struct {
				Municipality string `bson:"municipality"`
				School       string `bson:"school"`
				Name         string `bson:"name"`
			} `bson:"user"`
		}
		if err = cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decoding admin attendance record")
		}
		records = append(records, attendance.AdminRecord{
			Record:       doc.toRecord(),
			Municipality: doc.User.Municipality,
			School:       doc.User.School,
			UserName:     doc.User.Name,
		})
	}
	return records, errors.Wrap(cur.Err(), "filtering admin attendance records")
}

func (repo attendanceRepository) decodeAll(ctx context.Context, cur *mongo.Cursor) ([]attendance.Record, error) {
	defer cur.Close(ctx)
	records := make([]attendance.Record, 0)
	for cur.Next(ctx) {
		var doc attendanceDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decoding attendance record")
		}
		records = append(records, doc.toRecord())
	}
	return records, errors.Wrap(cur.Err(), "decoding attendance records")
}

// dateKeyRange builds an inclusive filter; dateKeys order lexicographically.
func dateKeyRange(from, to string) bson.M {
	rng := bson.M{}
	if from != "" {
		rng["$gte"] = from
	}
	if to != "" {
		rng["$lte"] = to
	}
	if len(rng) == 0 {
		return nil
	}
	return rng
}

func sortDir(sort string) int {
	if sort == "oldest" {
		return 1
	}
	return -1
}

var regexEscaper = regexp.MustCompile(`[.*+?^${}()|[\]\\]`)

func searchRegex(search string) primitive.Regex {
	return primitive.Regex{
		Pattern: regexEscaper.ReplaceAllString(search, `\$0`),
		Options: "i",
	}
}
