package mongorepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bataanhss/websystem/core/announcement"
)

type announcementDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Message     string             `bson:"message"`
	Priority    string             `bson:"priority"`
	Audience    string             `bson:"audience"`
	Attachments []attachmentDoc    `bson:"attachments"`
	CreatedBy   primitive.ObjectID `bson:"createdBy,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d announcementDoc) toAnnouncement() announcement.Announcement {
	atts := make([]announcement.Attachment, 0, len(d.Attachments))
	for _, att := range d.Attachments {
		atts = append(atts, announcement.Attachment(att))
	}
	ann := announcement.Announcement{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Message:     d.Message,
		Priority:    d.Priority,
		Audience:    d.Audience,
		Attachments: atts,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if !d.CreatedBy.IsZero() {
		ann.CreatedBy = d.CreatedBy.Hex()
	}
	return ann
}

type announcementRepository struct {
	coll *mongo.Collection
}

var _ announcement.Repository = (*announcementRepository)(nil) // interface compliance check

func NewAnnouncementRepository(db *mongo.Database) *announcementRepository {
	return &announcementRepository{coll: db.Collection(announcementsColl)}
}

func (repo announcementRepository) CreateAnnouncement(ctx context.Context, ann announcement.Announcement) (announcement.Announcement, error) {
	atts := make([]attachmentDoc, 0, len(ann.Attachments))
	for _, att := range ann.Attachments {
		atts = append(atts, attachmentDoc(att))
	}
	doc := announcementDoc{
		ID:          newObjectID(),
		Title:       ann.Title,
		Message:     ann.Message,
		Priority:    ann.Priority,
		Audience:    ann.Audience,
		Attachments: atts,
		CreatedBy:   parseID(ann.CreatedBy),
		CreatedAt:   ann.CreatedAt,
		UpdatedAt:   ann.UpdatedAt,
	}
	if _, err := repo.coll.InsertOne(ctx, doc); err != nil {
		return announcement.Announcement{}, errors.Wrap(err, "inserting announcement")
	}
	return doc.toAnnouncement(), nil
}

func (repo announcementRepository) GetAnnouncementByID(ctx context.Context, id string) (announcement.Announcement, error) {
	var doc announcementDoc
	if err := repo.coll.FindOne(ctx, bson.M{"_id": parseID(id)}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return announcement.Announcement{}, announcement.ErrNotFound
		}
		return announcement.Announcement{}, errors.Wrap(err, "getting announcement")
	}
	return doc.toAnnouncement(), nil
}

func (repo announcementRepository) QueryAnnouncements(ctx context.Context, limit int) ([]announcement.Announcement, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := repo.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying announcements")
	}
	defer cur.Close(ctx)

	anns := make([]announcement.Announcement, 0)
	for cur.Next(ctx) {
		var doc announcementDoc
		if err = cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decoding announcement")
		}
		anns = append(anns, doc.toAnnouncement())
	}
	return anns, errors.Wrap(cur.Err(), "querying announcements")
}
