package mongorepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bataanhss/websystem/core/filesub"
	"github.com/bataanhss/websystem/core/user"
)

type fileSubDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	UserID       primitive.ObjectID `bson:"userId"`
	Folder       string             `bson:"folder"`
	FileName     string             `bson:"fileName"`
	OriginalName string             `bson:"originalName"`
	FileSize     int64              `bson:"fileSize"`
	MimeType     string             `bson:"mimeType"`
	Description  string             `bson:"description"`
	UploadDate   time.Time          `bson:"uploadDate"`
	Status       string             `bson:"status"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func (d fileSubDoc) toSubmission() filesub.Submission {
	return filesub.Submission{
		ID:           d.ID.Hex(),
		UserID:       d.UserID.Hex(),
		Folder:       d.Folder,
		FileName:     d.FileName,
		OriginalName: d.OriginalName,
		FileSize:     d.FileSize,
		MimeType:     d.MimeType,
		Description:  d.Description,
		UploadDate:   d.UploadDate,
		Status:       d.Status,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type fileSubRepository struct {
	coll *mongo.Collection
}

var _ filesub.Repository = (*fileSubRepository)(nil) // interface compliance check

func NewFileSubmissionRepository(db *mongo.Database) *fileSubRepository {
	return &fileSubRepository{coll: db.Collection(fileSubmissionsColl)}
}

func (repo fileSubRepository) CreateSubmissions(ctx context.Context, subs []filesub.Submission) ([]filesub.Submission, error) {
	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(subs))
	created := make([]filesub.Submission, 0, len(subs))
	for _, sub := range subs {
		doc := fileSubDoc{
			ID:           newObjectID(),
			UserID:       parseID(sub.UserID),
			Folder:       sub.Folder,
			FileName:     sub.FileName,
			OriginalName: sub.OriginalName,
			FileSize:     sub.FileSize,
			MimeType:     sub.MimeType,
			Description:  sub.Description,
			UploadDate:   sub.UploadDate,
			Status:       sub.Status,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		docs = append(docs, doc)
		created = append(created, doc.toSubmission())
	}
	opts := options.InsertMany().SetOrdered(true)
	if _, err := repo.coll.InsertMany(ctx, docs, opts); err != nil {
		return nil, errors.Wrap(err, "inserting file submissions")
	}
	return created, nil
}

func (repo fileSubRepository) GetSubmission(ctx context.Context, userID, id string) (filesub.Submission, error) {
	return repo.getOne(ctx, bson.M{"_id": parseID(id), "userId": parseID(userID)})
}

func (repo fileSubRepository) GetSubmissionByID(ctx context.Context, id string) (filesub.Submission, error) {
	return repo.getOne(ctx, bson.M{"_id": parseID(id)})
}

func (repo fileSubRepository) getOne(ctx context.Context, filter bson.M) (filesub.Submission, error) {
	var doc fileSubDoc
	if err := repo.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return filesub.Submission{}, filesub.ErrNotFound
		}
		return filesub.Submission{}, errors.Wrap(err, "getting file submission")
	}
	return doc.toSubmission(), nil
}

func (repo fileSubRepository) QuerySubmissions(ctx context.Context, userID string, folders []string, dateRange *filesub.DayRange) ([]filesub.Submission, error) {
	match := bson.M{"userId": parseID(userID)}
	if len(folders) > 0 {
		match["folder"] = bson.M{"$in": folders}
	}
	if dateRange != nil {
		match["uploadDate"] = bson.M{"$gte": dateRange.Start, "$lt": dateRange.End}
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := repo.coll.Find(ctx, match, opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying file submissions")
	}
	defer cur.Close(ctx)

	subs := make([]filesub.Submission, 0)
	for cur.Next(ctx) {
		var doc fileSubDoc
		if err = cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decoding file submission")
		}
		subs = append(subs, doc.toSubmission())
	}
	return subs, errors.Wrap(cur.Err(), "querying file submissions")
}

func (repo fileSubRepository) DeleteSubmission(ctx context.Context, id string) error {
	res, err := repo.coll.DeleteOne(ctx, bson.M{"_id": parseID(id)})
	if err != nil {
		return errors.Wrap(err, "deleting file submission")
	}
	if res.DeletedCount == 0 {
		return filesub.ErrNotFound
	}
	return nil
}

func (repo fileSubRepository) CountByFolder(ctx context.Context, userID string, dateRange *filesub.DayRange) (map[string]int, error) {
	match := bson.M{"userId": parseID(userID)}
	if dateRange != nil {
		match["uploadDate"] = bson.M{"$gte": dateRange.Start, "$lt": dateRange.End}
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": "$folder", "count": bson.M{"$sum": 1}}}},
	}
	cur, err := repo.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errors.Wrap(err, "counting file submissions")
	}
	defer cur.Close(ctx)

	counts := make(map[string]int)
	for cur.Next(ctx) {
		var doc struct {
			Folder string `bson:"_id"`
			Count  int    `bson:"count"`
		}
		if err = cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decoding folder count")
		}
		counts[doc.Folder] = doc.Count
	}
	return counts, errors.Wrap(cur.Err(), "counting file submissions")
}

func (repo fileSubRepository) FilterAdminSubmissions(ctx context.Context, filter filesub.AdminFilter, dateRange *filesub.DayRange, limit int) ([]filesub.AdminSubmission, error) {
	match := bson.M{}
	if filter.Folder != "" {
		match["folder"] = bson.M{"$in": filesub.LegacyFolderNames(filesub.NormalizeFolder(filter.Folder))}
	}
	if filter.CoordinatorID != "" {
		match["userId"] = parseID(filter.CoordinatorID)
	}
	if dateRange != nil {
		match["uploadDate"] = bson.M{"$gte": dateRange.Start, "$lt": dateRange.End}
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
		{{Key: "$match", Value: bson.M{"user.hlaRoleType": user.HLACoordinator}}},
	}
	if filter.Municipality != "" {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{"user.municipality": filter.Municipality}}})
	}
	if filter.School != "" {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{"user.school": filter.School}}})
	}
	if filter.Search != "" {
		rx := searchRegex(filter.Search)
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{"$or": bson.A{
			bson.M{"folder": rx},
			bson.M{"originalName": rx},
			bson.M{"fileName": rx},
			bson.M{"description": rx},
			bson.M{"status": rx},
			bson.M{"mimeType": rx},
			bson.M{"user.name": rx},
			bson.M{"user.username": rx},
			bson.M{"user.school": rx},
			bson.M{"user.municipality": rx},
			bson.M{"user.hlaRoleType": rx},
		}}}})
	}
	pipeline = append(pipeline,
		bson.D{{Key: "$sort", Value: bson.D{{Key: "uploadDate", Value: -1}, {Key: "createdAt", Value: -1}}}},
		bson.D{{Key: "$limit", Value: limit}},
	)

	cur, err := repo.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errors.Wrap(err, "filtering admin file submissions")
	}
	defer cur.Close(ctx)

	subs := make([]filesub.AdminSubmission, 0)
	for cur.Next(ctx) {
		var doc struct {
			fileSubDoc `bson:",inline"`
			User       struct {
				ID           primitive.ObjectID `bson:"_id"`
				Name         string             `bson:"name"`
				Username     string             `bson:"username"`
				Municipality string             `bson:"municipality"`
				School       string             `bson:"school"`
				HLARoleType  string             `bson:"hlaRoleType"`
			} `bson:"user"`
		}
		if err = cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decoding admin file submission")
		}
		subs = append(subs, filesub.AdminSubmission{
			Submission: doc.toSubmission(),
			Coordinator: filesub.Coordinator{
				ID:           doc.User.ID.Hex(),
				Name:         doc.User.Name,
				Username:     doc.User.Username,
				Municipality: doc.User.Municipality,
				School:       doc.User.School,
				HLARoleType:  doc.User.HLARoleType,
			},
		})
	}
	return subs, errors.Wrap(cur.Err(), "filtering admin file submissions")
}
