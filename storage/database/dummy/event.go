package dummydb

import (
	"context"
	"sort"

	"github.com/bataanhss/websystem/core/announcement"
	"github.com/bataanhss/websystem/core/event"
)

type eventRepository struct {
	db *DB
}

var _ event.Repository = (*eventRepository)(nil) // interface compliance check

func NewEventRepository(db *DB) *eventRepository {
	return &eventRepository{db: db}
}

func (repo *eventRepository) CreateEvent(ctx context.Context, ev event.Event) (event.Event, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	ev.ID = repo.db.nextID()
	repo.db.events[ev.ID] = &ev
	return ev, nil
}

func (repo *eventRepository) GetEventByID(ctx context.Context, id string) (event.Event, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if ev, ok := repo.db.events[id]; ok {
		return *ev, nil
	}
	return event.Event{}, event.ErrNotFound
}

func (repo *eventRepository) UpdateEvent(ctx context.Context, ev event.Event) (event.Event, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.events[ev.ID]; !ok {
		return event.Event{}, event.ErrNotFound
	}
	repo.db.events[ev.ID] = &ev
	return ev, nil
}

func (repo *eventRepository) QueryEvents(ctx context.Context, filter event.QueryFilter, limit int) ([]event.Event, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	events := make([]event.Event, 0)
	for _, ev := range repo.db.events {
		if inDateKeyRange(ev.DateKey, filter.From, filter.To) {
			events = append(events, *ev)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].DateKey == events[j].DateKey {
			return events[i].StartTime < events[j].StartTime
		}
		return events[i].DateKey < events[j].DateKey
	})
	if len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

type announcementRepository struct {
	db *DB
}

var _ announcement.Repository = (*announcementRepository)(nil) // interface compliance check

func NewAnnouncementRepository(db *DB) *announcementRepository {
	return &announcementRepository{db: db}
}

func (repo *announcementRepository) CreateAnnouncement(ctx context.Context, ann announcement.Announcement) (announcement.Announcement, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	ann.ID = repo.db.nextID()
	repo.db.announcements[ann.ID] = &ann
	return ann, nil
}

func (repo *announcementRepository) GetAnnouncementByID(ctx context.Context, id string) (announcement.Announcement, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if ann, ok := repo.db.announcements[id]; ok {
		return *ann, nil
	}
	return announcement.Announcement{}, announcement.ErrNotFound
}

func (repo *announcementRepository) QueryAnnouncements(ctx context.Context, limit int) ([]announcement.Announcement, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	anns := make([]announcement.Announcement, 0, len(repo.db.announcements))
	for _, ann := range repo.db.announcements {
		anns = append(anns, *ann)
	}
	sort.Slice(anns, func(i, j int) bool {
		if anns[i].CreatedAt.Equal(anns[j].CreatedAt) {
			return anns[i].ID > anns[j].ID
		}
		return anns[i].CreatedAt.After(anns[j].CreatedAt)
	})
	if len(anns) > limit {
		anns = anns[:limit]
	}
	return anns, nil
}
