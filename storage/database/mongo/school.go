package mongorepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bataanhss/websystem/core/school"
)

type beneficiaryDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Municipality string             `bson:"municipality"`
	SchoolYear   string             `bson:"schoolYear"`
	KitchenName  string             `bson:"bhssKitchenName"`
	SchoolName   string             `bson:"schoolName"`
	Grade2       float64            `bson:"grade2"`
	Grade3       float64            `bson:"grade3"`
	Grade4       float64            `bson:"grade4"`
	Total        float64            `bson:"total"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func (d beneficiaryDoc) toBeneficiary() school.Beneficiary {
	return school.Beneficiary{
		ID:           d.ID.Hex(),
		Municipality: d.Municipality,
		SchoolYear:   d.SchoolYear,
		KitchenName:  d.KitchenName,
		SchoolName:   d.SchoolName,
		Grade2:       d.Grade2,
		Grade3:       d.Grade3,
		Grade4:       d.Grade4,
		Total:        d.Total,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type detailsDoc struct {
	ID                     primitive.ObjectID `bson:"_id,omitempty"`
	Municipality           string             `bson:"municipality"`
	SchoolYear             string             `bson:"schoolYear"`
	CompleteName           string             `bson:"completeName"`
	PrincipalName          string             `bson:"principalName"`
	PrincipalContact       string             `bson:"principalContact"`
	HLACoordinatorName     string             `bson:"hlaCoordinatorName"`
	HLACoordinatorContact  string             `bson:"hlaCoordinatorContact"`
	HLACoordinatorFacebook string             `bson:"hlaCoordinatorFacebook"`
	HLAManagerName         string             `bson:"hlaManagerName"`
	HLAManagerContact      string             `bson:"hlaManagerContact"`
	HLAManagerFacebook     string             `bson:"hlaManagerFacebook"`
	ChiefCookName          string             `bson:"chiefCookName"`
	ChiefCookContact       string             `bson:"chiefCookContact"`
	ChiefCookFacebook      string             `bson:"chiefCookFacebook"`
	AssistantCookName      string             `bson:"assistantCookName"`
	AssistantCookContact   string             `bson:"assistantCookContact"`
	AssistantCookFacebook  string             `bson:"assistantCookFacebook"`
	NurseName              string             `bson:"nurseName"`
	NurseContact           string             `bson:"nurseContact"`
	NurseFacebook          string             `bson:"nurseFacebook"`
	CreatedAt              time.Time          `bson:"createdAt"`
	UpdatedAt              time.Time          `bson:"updatedAt"`
}

func (d detailsDoc) toDetails() school.Details {
	return school.Details{
		ID:                     d.ID.Hex(),
		Municipality:           d.Municipality,
		SchoolYear:             d.SchoolYear,
		CompleteName:           d.CompleteName,
		PrincipalName:          d.PrincipalName,
		PrincipalContact:       d.PrincipalContact,
		HLACoordinatorName:     d.HLACoordinatorName,
		HLACoordinatorContact:  d.HLACoordinatorContact,
		HLACoordinatorFacebook: d.HLACoordinatorFacebook,
		HLAManagerName:         d.HLAManagerName,
		HLAManagerContact:      d.HLAManagerContact,
		HLAManagerFacebook:     d.HLAManagerFacebook,
		ChiefCookName:          d.ChiefCookName,
		ChiefCookContact:       d.ChiefCookContact,
		ChiefCookFacebook:      d.ChiefCookFacebook,
		AssistantCookName:      d.AssistantCookName,
		AssistantCookContact:   d.AssistantCookContact,
		AssistantCookFacebook:  d.AssistantCookFacebook,
		NurseName:              d.NurseName,
		NurseContact:           d.NurseContact,
		NurseFacebook:          d.NurseFacebook,
		CreatedAt:              d.CreatedAt,
		UpdatedAt:              d.UpdatedAt,
	}
}

func newDetailsDoc(row school.Details) detailsDoc {
	return detailsDoc{
		ID:                     parseID(row.ID),
		Municipality:           row.Municipality,
		SchoolYear:             row.SchoolYear,
		CompleteName:           row.CompleteName,
		PrincipalName:          row.PrincipalName,
		PrincipalContact:       row.PrincipalContact,
		HLACoordinatorName:     row.HLACoordinatorName,
		HLACoordinatorContact:  row.HLACoordinatorContact,
		HLACoordinatorFacebook: row.HLACoordinatorFacebook,
		HLAManagerName:         row.HLAManagerName,
		HLAManagerContact:      row.HLAManagerContact,
		HLAManagerFacebook:     row.HLAManagerFacebook,
		ChiefCookName:          row.ChiefCookName,
		ChiefCookContact:       row.ChiefCookContact,
		ChiefCookFacebook:      row.ChiefCookFacebook,
		AssistantCookName:      row.AssistantCookName,
		AssistantCookContact:   row.AssistantCookContact,
		AssistantCookFacebook:  row.AssistantCookFacebook,
		NurseName:              row.NurseName,
		NurseContact:           row.NurseContact,
		NurseFacebook:          row.NurseFacebook,
		CreatedAt:              row.CreatedAt,
		UpdatedAt:              row.UpdatedAt,
	}
}

type schoolRepository struct {
	bens    *mongo.Collection
	details *mongo.Collection
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *mongo.Database) *schoolRepository {
	return &schoolRepository{
		bens:    db.Collection(schoolBensColl),
		details: db.Collection(schoolDetailsColl),
	}
}

func (repo schoolRepository) QueryBeneficiaries(ctx context.Context, municipality, schoolYear string) ([]school.Beneficiary, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "bhssKitchenName", Value: 1},
		{Key: "schoolName", Value: 1},
		{Key: "createdAt", Value: -1},
	})
	cur, err := repo.bens.Find(ctx, bson.M{"municipality": municipality, "schoolYear": schoolYear}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying beneficiaries")
	}
	defer cur.Close(ctx)

	rows := make([]school.Beneficiary, 0)
	for cur.Next(ctx) {
		var doc beneficiaryDoc
		if err = cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decoding beneficiary")
		}
		rows = append(rows, doc.toBeneficiary())
	}
	return rows, errors.Wrap(cur.Err(), "querying beneficiaries")
}

func (repo schoolRepository) CreateBeneficiaries(ctx context.Context, rows []school.Beneficiary) ([]school.Beneficiary, error) {
	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(rows))
	created := make([]school.Beneficiary, 0, len(rows))
	for _, row := range rows {
		doc := beneficiaryDoc{
			ID:           newObjectID(),
			Municipality: row.Municipality,
			SchoolYear:   row.SchoolYear,
			KitchenName:  row.KitchenName,
			SchoolName:   row.SchoolName,
			Grade2:       row.Grade2,
			Grade3:       row.Grade3,
			Grade4:       row.Grade4,
			Total:        row.Total,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		docs = append(docs, doc)
		created = append(created, doc.toBeneficiary())
	}
	opts := options.InsertMany().SetOrdered(true)
	if _, err := repo.bens.InsertMany(ctx, docs, opts); err != nil {
		return nil, errors.Wrap(err, "inserting beneficiaries")
	}
	return created, nil
}

func (repo schoolRepository) GetBeneficiaryByID(ctx context.Context, id string) (school.Beneficiary, error) {
	var doc beneficiaryDoc
	if err := repo.bens.FindOne(ctx, bson.M{"_id": parseID(id)}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return school.Beneficiary{}, school.ErrNotFound
		}
		return school.Beneficiary{}, errors.Wrap(err, "getting beneficiary")
	}
	return doc.toBeneficiary(), nil
}

func (repo schoolRepository) UpdateBeneficiary(ctx context.Context, row school.Beneficiary) (school.Beneficiary, error) {
	update := bson.M{"$set": bson.M{
		"bhssKitchenName": row.KitchenName,
		"schoolName":      row.SchoolName,
		"grade2":          row.Grade2,
		"grade3":          row.Grade3,
		"grade4":          row.Grade4,
		"total":           row.Total,
		"updatedAt":       time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc beneficiaryDoc
	if err := repo.bens.FindOneAndUpdate(ctx, bson.M{"_id": parseID(row.ID)}, update, opts).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return school.Beneficiary{}, school.ErrNotFound
		}
		return school.Beneficiary{}, errors.Wrap(err, "updating beneficiary")
	}
	return doc.toBeneficiary(), nil
}

func (repo schoolRepository) DeleteBeneficiary(ctx context.Context, id string) error {
	res, err := repo.bens.DeleteOne(ctx, bson.M{"_id": parseID(id)})
	if err != nil {
		return errors.Wrap(err, "deleting beneficiary")
	}
	if res.DeletedCount == 0 {
		return school.ErrNotFound
	}
	return nil
}

func (repo schoolRepository) QueryDetails(ctx context.Context, municipality, schoolYear string) ([]school.Details, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "completeName", Value: 1},
		{Key: "createdAt", Value: -1},
	})
	cur, err := repo.details.Find(ctx, bson.M{"municipality": municipality, "schoolYear": schoolYear}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying school details")
	}
	defer cur.Close(ctx)

	rows := make([]school.Details, 0)
	for cur.Next(ctx) {
		var doc detailsDoc
		if err = cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decoding school details")
		}
		rows = append(rows, doc.toDetails())
	}
	return rows, errors.Wrap(cur.Err(), "querying school details")
}

func (repo schoolRepository) CreateDetails(ctx context.Context, row school.Details) (school.Details, error) {
	now := time.Now().UTC()
	row.CreatedAt, row.UpdatedAt = now, now
	doc := newDetailsDoc(row)
	doc.ID = newObjectID()
	if _, err := repo.details.InsertOne(ctx, doc); err != nil {
		return school.Details{}, errors.Wrap(err, "inserting school details")
	}
	return doc.toDetails(), nil
}

func (repo schoolRepository) GetDetailsByID(ctx context.Context, id string) (school.Details, error) {
	var doc detailsDoc
	if err := repo.details.FindOne(ctx, bson.M{"_id": parseID(id)}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return school.Details{}, school.ErrNotFound
		}
		return school.Details{}, errors.Wrap(err, "getting school details")
	}
	return doc.toDetails(), nil
}

func (repo schoolRepository) UpdateDetails(ctx context.Context, row school.Details) (school.Details, error) {
	row.UpdatedAt = time.Now().UTC()
	doc := newDetailsDoc(row)
	res, err := repo.details.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		return school.Details{}, errors.Wrap(err, "updating school details")
	}
	if res.MatchedCount == 0 {
		return school.Details{}, school.ErrNotFound
	}
	return doc.toDetails(), nil
}

func (repo schoolRepository) DeleteDetails(ctx context.Context, id string) error {
	res, err := repo.details.DeleteOne(ctx, bson.M{"_id": parseID(id)})
	if err != nil {
		return errors.Wrap(err, "deleting school details")
	}
	if res.DeletedCount == 0 {
		return school.ErrNotFound
	}
	return nil
}
