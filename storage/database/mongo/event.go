package mongorepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bataanhss/websystem/core/event"
)

type attachmentDoc struct {
	Filename     string `bson:"filename"`
	OriginalName string `bson:"originalName"`
	MimeType     string `bson:"mimeType"`
	Size         int64  `bson:"size"`
	URL          string `bson:"url"`
}

type eventDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Title        string             `bson:"title"`
	Description  string             `bson:"description,omitempty"`
	DateKey      string             `bson:"dateKey"`
	StartTime    string             `bson:"startTime"`
	EndTime      string             `bson:"endTime"`
	Status       string             `bson:"status"`
	CancelReason string             `bson:"cancelReason,omitempty"`
	CancelledAt  time.Time          `bson:"cancelledAt,omitempty"`
	CancelledBy  primitive.ObjectID `bson:"cancelledBy,omitempty"`
	Attachment   *attachmentDoc     `bson:"attachment,omitempty"`
	CreatedBy    primitive.ObjectID `bson:"createdBy,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func (d eventDoc) toEvent() event.Event {
	ev := event.Event{
		ID:           d.ID.Hex(),
		Title:        d.Title,
		Description:  d.Description,
		DateKey:      d.DateKey,
		StartTime:    d.StartTime,
		EndTime:      d.EndTime,
		Status:       d.Status,
		CancelReason: d.CancelReason,
		CancelledAt:  d.CancelledAt,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
	if !d.CancelledBy.IsZero() {
		ev.CancelledBy = d.CancelledBy.Hex()
	}
	if !d.CreatedBy.IsZero() {
		ev.CreatedBy = d.CreatedBy.Hex()
	}
	if d.Attachment != nil {
		att := event.Attachment(*d.Attachment)
		ev.Attachment = &att
	}
	return ev
}

func newEventDoc(ev event.Event) eventDoc {
	doc := eventDoc{
		ID:           parseID(ev.ID),
		Title:        ev.Title,
		Description:  ev.Description,
		DateKey:      ev.DateKey,
		StartTime:    ev.StartTime,
		EndTime:      ev.EndTime,
		Status:       ev.Status,
		CancelReason: ev.CancelReason,
		CancelledAt:  ev.CancelledAt,
		CancelledBy:  parseID(ev.CancelledBy),
		CreatedBy:    parseID(ev.CreatedBy),
		CreatedAt:    ev.CreatedAt,
		UpdatedAt:    ev.UpdatedAt,
	}
	if ev.Attachment != nil {
		att := attachmentDoc(*ev.Attachment)
		doc.Attachment = &att
	}
	return doc
}

type eventRepository struct {
	coll *mongo.Collection
}

var _ event.Repository = (*eventRepository)(nil) // interface compliance check

func NewEventRepository(db *mongo.Database) *eventRepository {
	return &eventRepository{coll: db.Collection(eventsColl)}
}

func (repo eventRepository) CreateEvent(ctx context.Context, ev event.Event) (event.Event, error) {
	doc := newEventDoc(ev)
	doc.ID = newObjectID()
	if _, err := repo.coll.InsertOne(ctx, doc); err != nil {
		return event.Event{}, errors.Wrap(err, "inserting event")
	}
	return doc.toEvent(), nil
}

func (repo eventRepository) GetEventByID(ctx context.Context, id string) (event.Event, error) {
	var doc eventDoc
	if err := repo.coll.FindOne(ctx, bson.M{"_id": parseID(id)}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return event.Event{}, event.ErrNotFound
		}
		return event.Event{}, errors.Wrap(err, "getting event")
	}
	return doc.toEvent(), nil
}

func (repo eventRepository) UpdateEvent(ctx context.Context, ev event.Event) (event.Event, error) {
	doc := newEventDoc(ev)
	res, err := repo.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		return event.Event{}, errors.Wrap(err, "updating event")
	}
	if res.MatchedCount == 0 {
		return event.Event{}, event.ErrNotFound
	}
	return doc.toEvent(), nil
}

func (repo eventRepository) QueryEvents(ctx context.Context, filter event.QueryFilter, limit int) ([]event.Event, error) {
	match := bson.M{}
	if rng := dateKeyRange(filter.From, filter.To); rng != nil {
		match["dateKey"] = rng
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "dateKey", Value: 1}, {Key: "startTime", Value: 1}}).
		SetLimit(int64(limit))
	cur, err := repo.coll.Find(ctx, match, opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying events")
	}
	defer cur.Close(ctx)

	events := make([]event.Event, 0)
	for cur.Next(ctx) {
		var doc eventDoc
		if err = cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decoding event")
		}
		events = append(events, doc.toEvent())
	}
	return events, errors.Wrap(cur.Err(), "querying events")
}
