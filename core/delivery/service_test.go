package delivery_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bataanhss/websystem/core"
	"github.com/bataanhss/websystem/core/delivery"
	dummydb "github.com/bataanhss/websystem/storage/database/dummy"
)

type fakeFileRemover struct {
	removed []string
}

func (f *fakeFileRemover) Remove(folder, filename string) error {
	f.removed = append(f.removed, folder+"/"+filename)
	return nil
}

func setup(t *testing.T) (*delivery.Service, *fakeFileRemover) {
	t.Helper()
	db, err := dummydb.Open()
	require.NoError(t, err)
	files := &fakeFileRemover{}
	svc := delivery.NewService(dummydb.NewDeliveryRepository(db), files, core.NopLogger{})
	return svc, files
}

func assertValidationErr(t *testing.T, err error) {
	t.Helper()
	assert.IsType(t, &core.ValidationError{}, errors.Cause(err))
}

func TestService_Save(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	rec, err := svc.Save(ctx, "u1", delivery.SaveRecord{
		DateKey:       "2026-01-05",
		CategoryKey:   "water",
		CategoryLabel: "Water",
		Concerns:      `["No Concerns","leaky box"]`,
	}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, delivery.StatusPending, rec.Status) // default
	assert.Equal(t, []string{}, rec.Concerns)           // synonym empties the list
	assert.Equal(t, []delivery.Image{}, rec.Images)

	// same natural key updates in place
	rec2, err := svc.Save(ctx, "u1", delivery.SaveRecord{
		DateKey:       "2026-01-05",
		CategoryKey:   "water",
		CategoryLabel: "Water",
		Status:        delivery.StatusDelivered,
		Concerns:      "leaky box, late truck, leaky box",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, rec2.ID)
	assert.Equal(t, delivery.StatusDelivered, rec2.Status)
	assert.Equal(t, []string{"leaky box", "late truck"}, rec2.Concerns)

	// a different category on the same day is a separate record
	rec3, err := svc.Save(ctx, "u1", delivery.SaveRecord{
		DateKey:       "2026-01-05",
		CategoryKey:   "rice",
		CategoryLabel: "Rice",
	}, nil)
	require.NoError(t, err)
	assert.NotEqual(t, rec.ID, rec3.ID)

	recs, err := svc.QueryByDate(ctx, "u1", "2026-01-05")
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestService_Save_validation(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   delivery.SaveRecord
	}{
		{"missing dateKey", delivery.SaveRecord{CategoryKey: "water", CategoryLabel: "Water"}},
		{"missing categoryKey", delivery.SaveRecord{DateKey: "2026-01-05", CategoryLabel: "Water"}},
		{"missing categoryLabel", delivery.SaveRecord{DateKey: "2026-01-05", CategoryKey: "water"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Save(ctx, "u1", tt.in, nil)
			assertValidationErr(t, err)
		})
	}
}

func TestService_Save_images(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	in := delivery.SaveRecord{DateKey: "2026-01-06", CategoryKey: "lpg", CategoryLabel: "LPG"}
	img1 := delivery.Image{Filename: "a.jpg", URL: "/uploads/delivery/a.jpg"}
	img2 := delivery.Image{Filename: "b.jpg", URL: "/uploads/delivery/b.jpg"}

	rec, err := svc.Save(ctx, "u1", in, []delivery.Image{img1})
	require.NoError(t, err)
	require.Len(t, rec.Images, 1)

	// images accumulate on re-save
	rec, err = svc.Save(ctx, "u1", in, []delivery.Image{img2})
	require.NoError(t, err)
	require.Len(t, rec.Images, 2)
	assert.Equal(t, "a.jpg", rec.Images[0].Filename)
	assert.Equal(t, "b.jpg", rec.Images[1].Filename)

	// replace flag overwrites the stored set
	in.ReplaceImages = "true"
	rec, err = svc.Save(ctx, "u1", in, []delivery.Image{img2})
	require.NoError(t, err)
	require.Len(t, rec.Images, 1)
	assert.Equal(t, "b.jpg", rec.Images[0].Filename)
}

func TestService_Delete(t *testing.T) {
	svc, files := setup(t)
	ctx := context.Background()

	in := delivery.SaveRecord{DateKey: "2026-01-07", CategoryKey: "water", CategoryLabel: "Water"}
	_, err := svc.Save(ctx, "u1", in, []delivery.Image{
		{Filename: "a.jpg"},
		{Filename: "b.jpg"},
		{URL: "https://elsewhere.example/c.jpg"}, // not stored locally, skipped
	})
	require.NoError(t, err)

	err = svc.Delete(ctx, "u1", delivery.DeleteRecord{DateKey: "2026-01-07", CategoryKey: "water"})
	require.NoError(t, err)
	assert.Equal(t, []string{"delivery/a.jpg", "delivery/b.jpg"}, files.removed)

	recs, err := svc.QueryByDate(ctx, "u1", "2026-01-07")
	require.NoError(t, err)
	assert.Empty(t, recs)

	// missing key fields
	err = svc.Delete(ctx, "u1", delivery.DeleteRecord{DateKey: "2026-01-07"})
	assertValidationErr(t, err)

	// already gone
	err = svc.Delete(ctx, "u1", delivery.DeleteRecord{DateKey: "2026-01-07", CategoryKey: "water"})
	assert.Equal(t, delivery.ErrNotFound, errors.Cause(err))
}

func TestService_History(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	for _, save := range []struct {
		userID string
		in     delivery.SaveRecord
	}{
		{"u1", delivery.SaveRecord{DateKey: "2026-01-05", CategoryKey: "water", CategoryLabel: "Water"}},
		{"u1", delivery.SaveRecord{DateKey: "2026-01-06", CategoryKey: "water", CategoryLabel: "Water"}},
		{"u2", delivery.SaveRecord{DateKey: "2026-01-06", CategoryKey: "rice", CategoryLabel: "Rice"}},
		{"u3", delivery.SaveRecord{DateKey: "2026-01-06", CategoryKey: "lpg", CategoryLabel: "LPG"}},
	} {
		_, err := svc.Save(ctx, save.userID, save.in, nil)
		require.NoError(t, err)
	}

	// a coordinator's history spans their managers' ids
	recs, err := svc.History(ctx, []string{"u1", "u2"}, delivery.QueryFilter{})
	require.NoError(t, err)
	assert.Len(t, recs, 3)

	recs, err = svc.History(ctx, []string{"u1"}, delivery.QueryFilter{From: "2026-01-06"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "2026-01-06", recs[0].DateKey)

	recs, err = svc.History(ctx, []string{"u1", "u2"}, delivery.QueryFilter{Search: "rice"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "rice", recs[0].CategoryKey)
}
