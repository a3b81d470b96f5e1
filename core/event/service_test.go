package event_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bataanhss/websystem/core"
	"github.com/bataanhss/websystem/core/event"
	dummydb "github.com/bataanhss/websystem/storage/database/dummy"
)

func setup(t *testing.T) *event.Service {
	t.Helper()
	db, err := dummydb.Open()
	require.NoError(t, err)
	return event.NewService(dummydb.NewEventRepository(db))
}

func assertValidationErr(t *testing.T, err error) {
	t.Helper()
	assert.IsType(t, &core.ValidationError{}, errors.Cause(err))
}

func TestService_Create(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	ev, err := svc.Create(ctx, "admin1", event.NewEvent{
		Title:     "  Nutrition Month Kickoff ",
		DateKey:   "2026-07-01",
		StartTime: "08:00",
		EndTime:   "11:30",
	}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, "Nutrition Month Kickoff", ev.Title)
	assert.Equal(t, event.StatusScheduled, ev.Status)
	assert.Equal(t, "admin1", ev.CreatedBy)
	assert.Nil(t, ev.Attachment)
}

func TestService_Create_validation(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	valid := event.NewEvent{Title: "X", DateKey: "2026-07-01", StartTime: "08:00", EndTime: "09:00"}

	tests := []struct {
		name   string
		mutate func(*event.NewEvent)
	}{
		{"missing title", func(ne *event.NewEvent) { ne.Title = " " }},
		{"bad dateKey", func(ne *event.NewEvent) { ne.DateKey = "07/01/2026" }},
		{"bad startTime", func(ne *event.NewEvent) { ne.StartTime = "8am" }},
		{"bad endTime", func(ne *event.NewEvent) { ne.EndTime = "25:00" }},
		{"end before start", func(ne *event.NewEvent) { ne.StartTime = "10:00"; ne.EndTime = "09:00" }},
		{"end equals start", func(ne *event.NewEvent) { ne.EndTime = ne.StartTime }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ne := valid
			tt.mutate(&ne)
			_, err := svc.Create(ctx, "admin1", ne, nil)
			assertValidationErr(t, err)
		})
	}
}

func TestService_Update(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	ev, err := svc.Create(ctx, "admin1", event.NewEvent{
		Title: "Feeding Day", Description: "orig", DateKey: "2026-07-02", StartTime: "08:00", EndTime: "10:00",
	}, nil)
	require.NoError(t, err)

	// empty fields keep stored values
	updated, err := svc.Update(ctx, ev.ID, event.NewEvent{EndTime: "11:00"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Feeding Day", updated.Title)
	assert.Equal(t, "orig", updated.Description)
	assert.Equal(t, "11:00", updated.EndTime)

	// a new attachment replaces the old one
	att := &event.Attachment{Filename: "memo.pdf", URL: "/uploads/events/memo.pdf"}
	updated, err = svc.Update(ctx, ev.ID, event.NewEvent{}, att)
	require.NoError(t, err)
	require.NotNil(t, updated.Attachment)
	assert.Equal(t, "memo.pdf", updated.Attachment.Filename)

	_, err = svc.Update(ctx, "000000000000000000000099", event.NewEvent{}, nil)
	assert.Equal(t, event.ErrNotFound, errors.Cause(err))
}

func TestService_Cancel(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	ev, err := svc.Create(ctx, "admin1", event.NewEvent{
		Title: "Gulayan Visit", DateKey: "2026-07-03", StartTime: "08:00", EndTime: "10:00",
	}, nil)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, ev.ID, "admin1", "  ")
	assertValidationErr(t, err)

	cancelled, err := svc.Cancel(ctx, ev.ID, "admin1", "typhoon signal #3")
	require.NoError(t, err)
	assert.Equal(t, event.StatusCancelled, cancelled.Status)
	assert.Equal(t, "typhoon signal #3", cancelled.CancelReason)
	assert.Equal(t, "admin1", cancelled.CancelledBy)
	assert.False(t, cancelled.CancelledAt.IsZero())

	// cancelled events are frozen
	_, err = svc.Cancel(ctx, ev.ID, "admin1", "again")
	assertValidationErr(t, err)
	_, err = svc.Update(ctx, ev.ID, event.NewEvent{Title: "New Title"}, nil)
	assertValidationErr(t, err)
}

func TestService_Query(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	today := time.Now().Format("2006-01-02")
	longAgo := time.Now().AddDate(-1, 0, 0).Format("2006-01-02")

	for _, e := range []event.NewEvent{
		{Title: "Today A", DateKey: today, StartTime: "13:00", EndTime: "14:00"},
		{Title: "Today B", DateKey: today, StartTime: "08:00", EndTime: "09:00"},
		{Title: "Old", DateKey: longAgo, StartTime: "08:00", EndTime: "09:00"},
	} {
		_, err := svc.Create(ctx, "admin1", e, nil)
		require.NoError(t, err)
	}

	// default window hides year-old events and orders by date then start time
	events, err := svc.Query(ctx, event.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Today B", events[0].Title)
	assert.Equal(t, "Today A", events[1].Title)

	// admin listing is unbounded
	events, err = svc.AdminQuery(ctx, event.QueryFilter{})
	require.NoError(t, err)
	assert.Len(t, events, 3)

	events, err = svc.Query(ctx, event.QueryFilter{From: longAgo, To: longAgo})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Old", events[0].Title)
}
