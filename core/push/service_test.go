package push_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bataanhss/websystem/core"
	"github.com/bataanhss/websystem/core/push"
	dummydb "github.com/bataanhss/websystem/storage/database/dummy"
)

func setup(t *testing.T) *push.Service {
	t.Helper()
	db, err := dummydb.Open()
	require.NoError(t, err)
	return push.NewService(dummydb.NewPushRepository(db))
}

func TestService_Subscribe(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	sub, err := svc.Subscribe(ctx, "u1", push.Subscribe{
		Endpoint: " https://fcm.example/send/abc ",
		Keys:     push.Keys{P256dh: "pk", Auth: "ak"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, sub.ID)
	assert.Equal(t, "u1", sub.UserID)
	assert.Equal(t, "https://fcm.example/send/abc", sub.Endpoint)

	// re-subscribing the same endpoint refreshes owner and keys
	sub2, err := svc.Subscribe(ctx, "u2", push.Subscribe{
		Endpoint: "https://fcm.example/send/abc",
		Keys:     push.Keys{P256dh: "pk2", Auth: "ak2"},
	})
	require.NoError(t, err)
	assert.Equal(t, sub.ID, sub2.ID)
	assert.Equal(t, "u2", sub2.UserID)
	assert.Equal(t, "pk2", sub2.Keys.P256dh)

	subs, err := svc.All(ctx)
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

func TestService_Subscribe_validation(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   push.Subscribe
	}{
		{"missing endpoint", push.Subscribe{Keys: push.Keys{P256dh: "pk", Auth: "ak"}}},
		{"missing p256dh", push.Subscribe{Endpoint: "https://e", Keys: push.Keys{Auth: "ak"}}},
		{"missing auth", push.Subscribe{Endpoint: "https://e", Keys: push.Keys{P256dh: "pk"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Subscribe(ctx, "u1", tt.in)
			assert.IsType(t, &core.ValidationError{}, errors.Cause(err))
		})
	}
}

func TestService_Unsubscribe(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	_, err := svc.Subscribe(ctx, "u1", push.Subscribe{
		Endpoint: "https://fcm.example/send/abc",
		Keys:     push.Keys{P256dh: "pk", Auth: "ak"},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Unsubscribe(ctx, push.Unsubscribe{Endpoint: "https://fcm.example/send/abc"}))

	subs, err := svc.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, subs)

	// unsubscribing an unknown endpoint is not an error
	assert.NoError(t, svc.Unsubscribe(ctx, push.Unsubscribe{Endpoint: "https://fcm.example/send/gone"}))

	err = svc.Unsubscribe(ctx, push.Unsubscribe{})
	assert.IsType(t, &core.ValidationError{}, errors.Cause(err))
}
