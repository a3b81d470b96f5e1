package announcement_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bataanhss/websystem/core"
	"github.com/bataanhss/websystem/core/announcement"
	dummydb "github.com/bataanhss/websystem/storage/database/dummy"
)

func setup(t *testing.T) *announcement.Service {
	t.Helper()
	db, err := dummydb.Open()
	require.NoError(t, err)
	return announcement.NewService(dummydb.NewAnnouncementRepository(db))
}

func TestService_Create(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	ann, err := svc.Create(ctx, "admin1", announcement.NewAnnouncement{
		Title:    " Supply advisory ",
		Message:  "Rice delivery moves to Thursday.",
		Priority: announcement.PriorityUrgent,
		Audience: announcement.AudienceUsers,
	}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, ann.ID)
	assert.Equal(t, "Supply advisory", ann.Title)
	assert.Equal(t, announcement.PriorityUrgent, ann.Priority)
	assert.Equal(t, announcement.AudienceUsers, ann.Audience)
	assert.Equal(t, []announcement.Attachment{}, ann.Attachments)
	assert.Equal(t, "admin1", ann.CreatedBy)
}

func TestService_Create_coercesUnknowns(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	ann, err := svc.Create(ctx, "admin1", announcement.NewAnnouncement{
		Title:    "T",
		Message:  "M",
		Priority: "CRITICAL",
		Audience: "everyone",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, announcement.PriorityNormal, ann.Priority)
	assert.Equal(t, announcement.AudienceAll, ann.Audience)
}

func TestService_Create_validation(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "admin1", announcement.NewAnnouncement{Message: "M"}, nil)
	assert.IsType(t, &core.ValidationError{}, errors.Cause(err))

	_, err = svc.Create(ctx, "admin1", announcement.NewAnnouncement{Title: "T", Message: "  "}, nil)
	assert.IsType(t, &core.ValidationError{}, errors.Cause(err))
}

func TestService_QueryAll_newestFirst(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	for _, title := range []string{"first", "second", "third"} {
		_, err := svc.Create(ctx, "admin1", announcement.NewAnnouncement{Title: title, Message: "M"}, nil)
		require.NoError(t, err)
	}

	anns, err := svc.QueryAll(ctx)
	require.NoError(t, err)
	require.Len(t, anns, 3)
	assert.Equal(t, "third", anns[0].Title)
	assert.Equal(t, "first", anns[2].Title)
}

func TestService_Get(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "admin1", announcement.NewAnnouncement{Title: "T", Message: "M"}, []announcement.Attachment{
		{Filename: "memo.pdf", URL: "/uploads/announcements/memo.pdf"},
	})
	require.NoError(t, err)

	ann, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, ann.ID)
	require.Len(t, ann.Attachments, 1)

	_, err = svc.Get(ctx, "000000000000000000000099")
	assert.Equal(t, announcement.ErrNotFound, errors.Cause(err))
}
