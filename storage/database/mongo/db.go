// Package mongorepos implements the domain repositories on MongoDB.
package mongorepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/bataanhss/websystem/core"
)

// collection names
const (
	usersColl             = "users"
	attendanceColl        = "attendancerecords"
	deliveryColl          = "deliveryrecords"
	eventsColl            = "events"
	announcementsColl     = "announcements"
	pushSubsColl          = "pushsubscriptions"
	fileSubmissionsColl   = "filesubmissions"
	schoolBensColl        = "schoolbeneficiaries"
	schoolDetailsColl     = "schooldetails"
	waterBatchesColl      = "waterdistributionbatches"
	waterRowsColl         = "waterdistributionrows"
	riceBatchesColl       = "ricedistributionbatches"
	riceRowsColl          = "ricedistributionrows"
	lpgBatchesColl        = "lpgdistributionbatches"
	lpgRowsColl           = "lpgdistributionrows"
)

func Open(conf *core.Config) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(conf.Database.URI))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongodb")
	}
	if err = ping(client); err != nil {
		return nil, err
	}
	return client.Database(conf.Database.Name), nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(client *mongo.Client) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		err = client.Ping(ctx, readpref.Primary())
		cancel()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

// EnsureIndexes creates the unique and lookup indexes the repositories rely
// on. Safe to call on every startup.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)
	sparseUnique := options.Index().SetUnique(true).SetSparse(true)

	specs := map[string][]mongo.IndexModel{
		usersColl: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: sparseUnique},
		},
		attendanceColl: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "dateKey", Value: 1}, {Key: "grade", Value: 1}}, Options: unique},
		},
		deliveryColl: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "dateKey", Value: 1}, {Key: "categoryKey", Value: 1}}, Options: unique},
		},
		pushSubsColl: {
			{Keys: bson.D{{Key: "endpoint", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "userId", Value: 1}}},
		},
		fileSubmissionsColl: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "folder", Value: 1}}},
			{Keys: bson.D{{Key: "uploadDate", Value: 1}}},
		},
		schoolBensColl: {
			{Keys: bson.D{{Key: "municipality", Value: 1}, {Key: "schoolYear", Value: 1}}},
		},
		schoolDetailsColl: {
			{Keys: bson.D{{Key: "municipality", Value: 1}, {Key: "schoolYear", Value: 1}}},
		},
		eventsColl: {
			{Keys: bson.D{{Key: "dateKey", Value: 1}, {Key: "startTime", Value: 1}}},
		},
	}
	for _, coll := range []string{waterBatchesColl, riceBatchesColl, lpgBatchesColl} {
		specs[coll] = []mongo.IndexModel{
			{Keys: bson.D{{Key: "contentHash", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		}
	}
	for _, coll := range []string{waterRowsColl, riceRowsColl, lpgRowsColl} {
		specs[coll] = []mongo.IndexModel{
			{Keys: bson.D{{Key: "batchId", Value: 1}}},
		}
	}

	for coll, models := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return errors.Wrapf(err, "creating %s indexes", coll)
		}
	}
	return nil
}

// isDuplicateKeyErr reports whether err is a unique index violation.
func isDuplicateKeyErr(err error) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) {
		for _, e := range bwe.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	return errors.As(err, &ce) && ce.Code == 11000
}

func newObjectID() primitive.ObjectID { return primitive.NewObjectID() }

// parseID converts a string ID to an ObjectID; the zero ObjectID is
// returned for malformed input so lookups simply miss.
func parseID(id string) primitive.ObjectID {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.ObjectID{}
	}
	return oid
}
