package echoapi

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bataanhss/websystem/core/user"
)

func TestAuth_register(t *testing.T) {
	env := setup(t)

	rec := env.do(t, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"username": "JSantos",
		"email":    "jsantos@test.test",
		"password": "Secr3t!pwd",
	})
	checkCode(t, rec, http.StatusCreated)

	var res LoginResponse
	decodeBody(t, rec, &res)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "jsantos", res.User.Username) // cleaned and lowered
	assert.Equal(t, user.RoleStudent, res.User.Role)
	assert.True(t, res.User.IsActive)

	// duplicate username is a field error
	rec = env.do(t, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"username": "jsantos",
		"password": "Secr3t!pwd",
	})
	checkCode(t, rec, http.StatusBadRequest)
	var fields map[string]string
	decodeBody(t, rec, &fields)
	assert.Contains(t, fields, "username")

	// missing password is a field error too
	rec = env.do(t, http.MethodPost, "/v1/auth/register", "", map[string]string{"username": "another"})
	checkCode(t, rec, http.StatusBadRequest)
	decodeBody(t, rec, &fields)
	assert.Contains(t, fields, "password")
}

func TestAuth_login(t *testing.T) {
	env := setup(t)
	env.createUser(t, "Jane", "jane", "jane@test.test", "Secr3t!pwd", user.RoleUser, true)
	env.createUser(t, "Gone", "gone", "gone@test.test", "Secr3t!pwd", user.RoleUser, false)

	tests := []struct {
		name     string
		body     map[string]string
		wantCode int
		wantMsg  string
	}{
		{"by username", map[string]string{"username": "jane", "password": "Secr3t!pwd"}, http.StatusOK, ""},
		{"by email", map[string]string{"username": "jane@test.test", "password": "Secr3t!pwd"}, http.StatusOK, ""},
		{"case insensitive", map[string]string{"username": " JANE ", "password": "Secr3t!pwd"}, http.StatusOK, ""},
		{"wrong password", map[string]string{"username": "jane", "password": "nope"}, http.StatusBadRequest, "authentication failed"},
		{"unknown user", map[string]string{"username": "nobody", "password": "Secr3t!pwd"}, http.StatusBadRequest, "authentication failed"},
		{"deactivated", map[string]string{"username": "gone", "password": "Secr3t!pwd"}, http.StatusForbidden, "account deactivated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/v1/auth/login", "", tt.body)
			checkCode(t, rec, tt.wantCode)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, errMessage(t, rec))
				return
			}
			var res LoginResponse
			decodeBody(t, rec, &res)
			assert.NotEmpty(t, res.Token)
			assert.Equal(t, "jane", res.User.Username)
			assert.False(t, res.User.LastLogin.IsZero())
		})
	}
}

func TestAuth_tokenRefresh(t *testing.T) {
	env := setup(t)
	usr := env.createUser(t, "Jane", "jane", "jane@test.test", "Secr3t!pwd", user.RoleUser, true)

	rec := env.do(t, http.MethodPost, "/v1/users/token-refresh", getToken(t, usr), nil)
	checkCode(t, rec, http.StatusOK)
	var res TokenResponse
	decodeBody(t, rec, &res)
	assert.NotEmpty(t, res.Token)

	// no token at all
	rec = env.do(t, http.MethodPost, "/v1/users/token-refresh", "", nil)
	checkCode(t, rec, http.StatusUnauthorized)
}

func TestUsers_adminOnlyListing(t *testing.T) {
	env := setup(t)
	admin := env.createUser(t, "Admin", "admin", "admin@test.test", "Secr3t!pwd", user.RoleAdmin, true)
	plain := env.createUser(t, "Jane", "jane", "jane@test.test", "Secr3t!pwd", user.RoleUser, true)

	rec := env.do(t, http.MethodGet, "/v1/users", getToken(t, admin), nil)
	checkCode(t, rec, http.StatusOK)
	var users []user.User
	decodeBody(t, rec, &users)
	assert.Len(t, users, 2)

	rec = env.do(t, http.MethodGet, "/v1/users", getToken(t, plain), nil)
	checkCode(t, rec, http.StatusForbidden)
	assert.Equal(t, "permission denied", errMessage(t, rec))

	rec = env.do(t, http.MethodGet, "/v1/users", "", nil)
	checkCode(t, rec, http.StatusUnauthorized)
}

func TestUsers_retrieve(t *testing.T) {
	env := setup(t)
	admin := env.createUser(t, "Admin", "admin", "admin@test.test", "Secr3t!pwd", user.RoleAdmin, true)
	jane := env.createUser(t, "Jane", "jane", "jane@test.test", "Secr3t!pwd", user.RoleUser, true)
	mark := env.createUser(t, "Mark", "mark", "mark@test.test", "Secr3t!pwd", user.RoleUser, true)

	// self
	rec := env.do(t, http.MethodGet, "/v1/users/"+jane.ID, getToken(t, jane), nil)
	checkCode(t, rec, http.StatusOK)
	var got user.User
	decodeBody(t, rec, &got)
	assert.Equal(t, "jane", got.Username)

	// admins see anyone
	rec = env.do(t, http.MethodGet, "/v1/users/"+jane.ID, getToken(t, admin), nil)
	checkCode(t, rec, http.StatusOK)

	// a foreign id reads as not found, same as an unknown one
	rec = env.do(t, http.MethodGet, "/v1/users/"+mark.ID, getToken(t, jane), nil)
	checkCode(t, rec, http.StatusNotFound)
	rec = env.do(t, http.MethodGet, "/v1/users/000000000000000000000099", getToken(t, jane), nil)
	checkCode(t, rec, http.StatusNotFound)
}

func TestUsers_update(t *testing.T) {
	env := setup(t)
	admin := env.createUser(t, "Admin", "admin", "admin@test.test", "Secr3t!pwd", user.RoleAdmin, true)
	jane := env.createUser(t, "Jane", "jane", "jane@test.test", "Secr3t!pwd", user.RoleUser, true)

	// self-update of profile fields
	rec := env.do(t, http.MethodPatch, "/v1/users/"+jane.ID, getToken(t, jane), map[string]interface{}{
		"name":          "Jane D. Santos",
		"contactNumber": "0917 000 0000",
	})
	checkCode(t, rec, http.StatusOK)
	var got user.User
	decodeBody(t, rec, &got)
	assert.Equal(t, "Jane D. Santos", got.Name)

	// admin-only fields are forbidden for regular users
	rec = env.do(t, http.MethodPatch, "/v1/users/"+jane.ID, getToken(t, jane), map[string]interface{}{
		"role": user.RoleAdmin,
	})
	checkCode(t, rec, http.StatusForbidden)

	// but fine for admins
	rec = env.do(t, http.MethodPatch, "/v1/users/"+jane.ID, getToken(t, admin), map[string]interface{}{
		"school":       "Central ES",
		"municipality": "Hermosa",
	})
	checkCode(t, rec, http.StatusOK)
	decodeBody(t, rec, &got)
	assert.Equal(t, "Central ES", got.School)
	assert.Equal(t, "Hermosa", got.Municipality)

	// empty patch echoes the current user
	rec = env.do(t, http.MethodPatch, "/v1/users/"+jane.ID, getToken(t, jane), map[string]interface{}{})
	checkCode(t, rec, http.StatusOK)

	// taken username is a field error
	rec = env.do(t, http.MethodPatch, "/v1/users/"+jane.ID, getToken(t, jane), map[string]interface{}{
		"username": "admin",
	})
	checkCode(t, rec, http.StatusBadRequest)
	var fields map[string]string
	decodeBody(t, rec, &fields)
	assert.Contains(t, fields, "username")
}

func TestUsers_setActive(t *testing.T) {
	env := setup(t)
	admin := env.createUser(t, "Admin", "admin", "admin@test.test", "Secr3t!pwd", user.RoleAdmin, true)
	jane := env.createUser(t, "Jane", "jane", "jane@test.test", "Secr3t!pwd", user.RoleUser, true)

	rec := env.do(t, http.MethodPatch, "/v1/users/"+jane.ID+"/active", getToken(t, admin), map[string]interface{}{
		"isActive": false,
	})
	checkCode(t, rec, http.StatusOK)
	var got user.User
	decodeBody(t, rec, &got)
	assert.False(t, got.IsActive)

	// missing flag
	rec = env.do(t, http.MethodPatch, "/v1/users/"+jane.ID+"/active", getToken(t, admin), map[string]interface{}{})
	checkCode(t, rec, http.StatusBadRequest)

	// not an admin endpoint for regular users
	rec = env.do(t, http.MethodPatch, "/v1/users/"+jane.ID+"/active", getToken(t, jane), map[string]interface{}{
		"isActive": true,
	})
	checkCode(t, rec, http.StatusForbidden)
}

func TestUsers_changePassword(t *testing.T) {
	env := setup(t)
	admin := env.createUser(t, "Admin", "admin", "admin@test.test", "Secr3t!pwd", user.RoleAdmin, true)
	jane := env.createUser(t, "Jane", "jane", "jane@test.test", "Secr3t!pwd", user.RoleUser, true)

	// self change needs the current password
	rec := env.do(t, http.MethodPatch, "/v1/users/"+jane.ID+"/password", getToken(t, jane), map[string]string{
		"currentPassword": "wrong",
		"newPassword":     "N3w!password",
	})
	checkCode(t, rec, http.StatusBadRequest)
	assert.Equal(t, "current password is incorrect", errMessage(t, rec))

	rec = env.do(t, http.MethodPatch, "/v1/users/"+jane.ID+"/password", getToken(t, jane), map[string]string{
		"currentPassword": "Secr3t!pwd",
		"newPassword":     "N3w!password",
	})
	checkCode(t, rec, http.StatusOK)

	// an admin sets another user's password directly
	rec = env.do(t, http.MethodPatch, "/v1/users/"+jane.ID+"/password", getToken(t, admin), map[string]string{
		"password": "Adm1n!set",
	})
	checkCode(t, rec, http.StatusOK)

	rec = env.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"username": "jane", "password": "Adm1n!set",
	})
	checkCode(t, rec, http.StatusOK)
}

func TestUsers_destroy(t *testing.T) {
	env := setup(t)
	admin := env.createUser(t, "Admin", "admin", "admin@test.test", "Secr3t!pwd", user.RoleAdmin, true)
	jane := env.createUser(t, "Jane", "jane", "jane@test.test", "Secr3t!pwd", user.RoleUser, true)

	// admins cannot delete themselves
	rec := env.do(t, http.MethodDelete, "/v1/users/"+admin.ID, getToken(t, admin), nil)
	checkCode(t, rec, http.StatusForbidden)

	rec = env.do(t, http.MethodDelete, "/v1/users/"+jane.ID, getToken(t, admin), nil)
	checkCode(t, rec, http.StatusNoContent)

	rec = env.do(t, http.MethodGet, "/v1/users/"+jane.ID, getToken(t, admin), nil)
	checkCode(t, rec, http.StatusNotFound)
}

func TestUsers_uploadAvatar(t *testing.T) {
	env := setup(t)
	usr := env.createUser(t, "Jane", "jane", "jane@test.test", "Secr3t!pwd", user.RoleUser, true)

	post := func(contentType string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="avatar"; filename="me.jpg"`)
		hdr.Set("Content-Type", contentType)
		part, err := mw.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write([]byte("jpeg-bytes"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/v1/users/"+usr.ID+"/avatar", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+getToken(t, usr))
		rec := httptest.NewRecorder()
		env.server.ServeHTTP(rec, req)
		return rec
	}

	rec := post("image/jpeg")
	checkCode(t, rec, http.StatusOK)
	var got user.User
	decodeBody(t, rec, &got)
	assert.True(t, strings.HasPrefix(got.AvatarURL, "/uploads/avatars/"))

	// the stored file is reachable through the static route
	rec2 := env.do(t, http.MethodGet, got.AvatarURL, "", nil)
	checkCode(t, rec2, http.StatusOK)

	rec = post("application/pdf")
	checkCode(t, rec, http.StatusBadRequest)
}

func TestUsers_passwordReset(t *testing.T) {
	env := setup(t)
	usr := env.createUser(t, "Jane", "jane", "jane@test.test", "Secr3t!pwd", user.RoleUser, true)

	// always the same neutral answer, known address or not
	for _, email := range []string{"jane@test.test", "nobody@test.test"} {
		rec := env.do(t, http.MethodPost, "/v1/users/password-reset", "", map[string]string{"email": email})
		checkCode(t, rec, http.StatusOK)
	}

	token, err := user.MakeToken(usr)
	require.NoError(t, err)
	rec := env.do(t, http.MethodPost, "/v1/users/password-reset-confirm", "", map[string]string{
		"uid":             user.EncodeUID(usr),
		"token":           token,
		"password":        "N3w!password",
		"passwordConfirm": "N3w!password",
	})
	checkCode(t, rec, http.StatusOK)

	rec = env.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"username": "jane", "password": "N3w!password",
	})
	checkCode(t, rec, http.StatusOK)
}
