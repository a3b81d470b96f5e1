package user_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bataanhss/websystem/core"
	"github.com/bataanhss/websystem/core/user"
	emailsvc "github.com/bataanhss/websystem/services/email"
	dummydb "github.com/bataanhss/websystem/storage/database/dummy"
)

func setup(t *testing.T) *user.Service {
	t.Helper()
	db, err := dummydb.Open()
	require.NoError(t, err)
	return user.NewService(dummydb.NewUserRepository(db), emailsvc.NewConsoleServiceMock())
}

func TestService_Register(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	usr, err := svc.Register(ctx, user.NewUser{
		Username: "jdoe",
		Email:    "jdoe@test.test",
		Password: "Secr3t!pwd",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, usr.ID)
	assert.Equal(t, user.RoleStudent, usr.Role) // self-service default
	assert.Equal(t, "jdoe", usr.Name)           // falls back to username
	assert.Equal(t, user.DefaultProvince, usr.Province)
	assert.True(t, usr.IsActive)
	assert.NoError(t, usr.CheckPassword("Secr3t!pwd"))
	assert.Error(t, usr.CheckPassword("wrong"))
}

func TestService_Create(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	usr, err := svc.Create(ctx, user.NewUser{Username: "coord", Password: "Secr3t!pwd"})
	require.NoError(t, err)
	assert.Equal(t, user.RoleUser, usr.Role) // admin-created default

	usr, err = svc.Create(ctx, user.NewUser{Username: "boss", Password: "Secr3t!pwd", Role: user.RoleAdmin})
	require.NoError(t, err)
	assert.True(t, usr.IsAdmin())
}

func TestService_CheckUniqueness(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	existing, err := svc.Create(ctx, user.NewUser{Username: "jdoe", Email: "jdoe@test.test", Password: "Secr3t!pwd"})
	require.NoError(t, err)

	err = svc.CheckUniqueness("jdoe", "other@test.test")
	var vErr *core.ValidationError
	require.IsType(t, vErr, errors.Cause(err))
	vErr = errors.Cause(err).(*core.ValidationError)
	require.Len(t, vErr.Fields, 1)
	assert.Equal(t, "username", vErr.Fields[0].Field)

	err = svc.CheckUniqueness("other", "jdoe@test.test")
	vErr = errors.Cause(err).(*core.ValidationError)
	require.Len(t, vErr.Fields, 1)
	assert.Equal(t, "email", vErr.Fields[0].Field)

	// the user themselves is excluded when editing
	assert.NoError(t, svc.CheckUniqueness("jdoe", "jdoe@test.test", existing))
	assert.NoError(t, svc.CheckUniqueness("fresh", "fresh@test.test"))
}

func TestService_GetByUsernameOrEmail(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, user.NewUser{Username: "jdoe", Email: "jdoe@test.test", Password: "Secr3t!pwd"})
	require.NoError(t, err)

	usr, err := svc.GetByUsernameOrEmail(ctx, "  JDoe ")
	require.NoError(t, err)
	assert.Equal(t, "jdoe", usr.Username)

	usr, err = svc.GetByUsernameOrEmail(ctx, "JDOE@test.test")
	require.NoError(t, err)
	assert.Equal(t, "jdoe", usr.Username)

	_, err = svc.GetByUsernameOrEmail(ctx, "nobody")
	assert.Equal(t, user.ErrNotFound, errors.Cause(err))
}

func TestService_SetActive(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	usr, err := svc.Create(ctx, user.NewUser{Username: "jdoe", Password: "Secr3t!pwd"})
	require.NoError(t, err)
	require.True(t, usr.IsActive)

	usr, err = svc.SetActive(ctx, usr.ID, false)
	require.NoError(t, err)
	assert.False(t, usr.IsActive)

	// plain updates leave the flag alone
	usr.Name = "Jane Doe"
	usr, err = svc.Update(ctx, usr)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", usr.Name)
	assert.False(t, usr.IsActive)
}

func TestService_QueryIDsBySchoolRole(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	mgr, err := svc.Create(ctx, user.NewUser{
		Username: "mgr", Password: "Secr3t!pwd",
		School: "Central ES", HLARoleType: user.HLAManager,
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, user.NewUser{
		Username: "coord", Password: "Secr3t!pwd",
		School: "Central ES", HLARoleType: user.HLACoordinator,
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, user.NewUser{
		Username: "othermgr", Password: "Secr3t!pwd",
		School: "East ES", HLARoleType: user.HLAManager,
	})
	require.NoError(t, err)

	ids, err := svc.QueryIDsBySchoolRole(ctx, "Central ES", user.HLAManager)
	require.NoError(t, err)
	assert.Equal(t, []string{mgr.ID}, ids)
}

func TestService_ResetPassword(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	usr, err := svc.Create(ctx, user.NewUser{Username: "jdoe", Email: "jdoe@test.test", Password: "Secr3t!pwd"})
	require.NoError(t, err)

	token, err := user.MakeToken(usr)
	require.NoError(t, err)

	err = svc.ResetPassword(ctx, user.ResetUserPassword{
		UID:             user.EncodeUID(usr),
		Token:           token,
		Password:        "N3w!password",
		PasswordConfirm: "N3w!password",
	})
	require.NoError(t, err)

	usr, err = svc.GetByID(ctx, usr.ID)
	require.NoError(t, err)
	assert.NoError(t, usr.CheckPassword("N3w!password"))

	// a token is single-use: the password change invalidates it
	err = svc.ResetPassword(ctx, user.ResetUserPassword{
		UID:             user.EncodeUID(usr),
		Token:           token,
		Password:        "An0ther!pwd",
		PasswordConfirm: "An0ther!pwd",
	})
	assert.IsType(t, &core.ValidationError{}, errors.Cause(err))

	// garbage uid
	err = svc.ResetPassword(ctx, user.ResetUserPassword{UID: "!!!", Token: token, Password: "N3w!password", PasswordConfirm: "N3w!password"})
	assert.IsType(t, &core.ValidationError{}, errors.Cause(err))
}

func TestService_RequestPasswordReset(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	usr, err := svc.Create(ctx, user.NewUser{Username: "jdoe", Email: "jdoe@test.test", Password: "Secr3t!pwd"})
	require.NoError(t, err)

	assert.NoError(t, svc.RequestPasswordReset(ctx, "JDOE@test.test"))

	_, err = svc.SetActive(ctx, usr.ID, false)
	require.NoError(t, err)
	err = svc.RequestPasswordReset(ctx, "jdoe@test.test")
	assert.Equal(t, user.ErrNotFound, errors.Cause(err))

	err = svc.RequestPasswordReset(ctx, "nobody@test.test")
	assert.Equal(t, user.ErrNotFound, errors.Cause(err))
}
