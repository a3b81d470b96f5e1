package echoapi

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bataanhss/websystem/core/filesub"
	"github.com/bataanhss/websystem/core/user"
)

// doUpload posts a multipart file-submission request with the given form
// fields and one JPEG file per name in files.
func (env *testEnv) doUpload(t *testing.T, token string, fields map[string]string, files ...string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, name := range files {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="files"; filename="`+name+`"`)
		hdr.Set("Content-Type", "image/jpeg")
		part, err := mw.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write([]byte("jpeg-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/file-submissions/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)
	return rec
}

func TestFileSubmissions_upload(t *testing.T) {
	env := setup(t)
	usr := env.createUser(t, "Jane", "jane", "jane@test.test", "Secr3t!pwd", user.RoleUser, true)
	token := getToken(t, usr)

	rec := env.doUpload(t, token, map[string]string{
		"folder":      "Fruits", // legacy name, normalized on write
		"description": "week 1 produce",
	}, "receipt.jpg", "produce.jpg")
	checkCode(t, rec, http.StatusCreated)

	var subs []filesub.Submission
	decodeBody(t, rec, &subs)
	require.Len(t, subs, 2)
	assert.Equal(t, filesub.FolderFruitsVeg, subs[0].Folder)
	assert.Equal(t, filesub.StatusUploaded, subs[0].Status)
	assert.Equal(t, usr.ID, subs[0].UserID)
	assert.Equal(t, "receipt.jpg", subs[0].OriginalName)
}

func TestFileSubmissions_uploadValidation(t *testing.T) {
	env := setup(t)
	usr := env.createUser(t, "Jane", "jane", "jane@test.test", "Secr3t!pwd", user.RoleUser, true)
	token := getToken(t, usr)

	// JSON body carries no files
	rec := env.do(t, http.MethodPost, "/v1/file-submissions/upload", token, map[string]string{
		"folder": "Rice",
	})
	checkCode(t, rec, http.StatusBadRequest)

	// unknown folder
	rec = env.doUpload(t, token, map[string]string{"folder": "Snacks"}, "a.jpg")
	checkCode(t, rec, http.StatusBadRequest)

	// multipart with no files at all
	rec = env.doUpload(t, token, map[string]string{"folder": "Rice"})
	checkCode(t, rec, http.StatusBadRequest)
}

func TestFileSubmissions_queryAndCounts(t *testing.T) {
	env := setup(t)
	usr := env.createUser(t, "Jane", "jane", "jane@test.test", "Secr3t!pwd", user.RoleUser, true)
	other := env.createUser(t, "Mark", "mark", "mark@test.test", "Secr3t!pwd", user.RoleUser, true)
	token := getToken(t, usr)

	rec := env.doUpload(t, token, map[string]string{"folder": "Rice"}, "a.jpg", "b.jpg")
	checkCode(t, rec, http.StatusCreated)
	rec = env.doUpload(t, token, map[string]string{"folder": "Meat"}, "c.jpg")
	checkCode(t, rec, http.StatusCreated)

	rec = env.do(t, http.MethodGet, "/v1/file-submissions?folder=Rice", token, nil)
	checkCode(t, rec, http.StatusOK)
	var subs []filesub.Submission
	decodeBody(t, rec, &subs)
	assert.Len(t, subs, 2)

	// submissions are scoped per user
	rec = env.do(t, http.MethodGet, "/v1/file-submissions", getToken(t, other), nil)
	checkCode(t, rec, http.StatusOK)
	decodeBody(t, rec, &subs)
	assert.Empty(t, subs)

	rec = env.do(t, http.MethodGet, "/v1/file-submissions/stats/counts", token, nil)
	checkCode(t, rec, http.StatusOK)
	var counts map[string]int
	decodeBody(t, rec, &counts)
	assert.Equal(t, 2, counts["Rice"])
	assert.Equal(t, 1, counts["Meat"])
}

func TestFileSubmissions_destroy(t *testing.T) {
	env := setup(t)
	usr := env.createUser(t, "Jane", "jane", "jane@test.test", "Secr3t!pwd", user.RoleUser, true)
	other := env.createUser(t, "Mark", "mark", "mark@test.test", "Secr3t!pwd", user.RoleUser, true)
	token := getToken(t, usr)

	rec := env.doUpload(t, token, map[string]string{"folder": "Rice"}, "a.jpg")
	checkCode(t, rec, http.StatusCreated)
	var subs []filesub.Submission
	decodeBody(t, rec, &subs)
	require.Len(t, subs, 1)

	// someone else's submission reads as not found
	rec = env.do(t, http.MethodDelete, "/v1/file-submissions/"+subs[0].ID, getToken(t, other), nil)
	checkCode(t, rec, http.StatusNotFound)

	rec = env.do(t, http.MethodDelete, "/v1/file-submissions/"+subs[0].ID, token, nil)
	checkCode(t, rec, http.StatusNoContent)

	rec = env.do(t, http.MethodGet, "/v1/file-submissions", token, nil)
	checkCode(t, rec, http.StatusOK)
	decodeBody(t, rec, &subs)
	assert.Empty(t, subs)
}

func TestFileSubmissions_adminHistory(t *testing.T) {
	env := setup(t)
	admin := env.createUser(t, "Admin", "admin", "admin@test.test", "Secr3t!pwd", user.RoleAdmin, true)
	jane := env.createUser(t, "Jane", "jane", "jane@test.test", "Secr3t!pwd", user.RoleUser, true)

	rec := env.doUpload(t, getToken(t, jane), map[string]string{"folder": "Rice"}, "a.jpg")
	checkCode(t, rec, http.StatusCreated)

	rec = env.do(t, http.MethodGet, "/v1/admin/file-submissions/history", getToken(t, admin), nil)
	checkCode(t, rec, http.StatusOK)
	var subs []filesub.AdminSubmission
	decodeBody(t, rec, &subs)
	require.Len(t, subs, 1)
	assert.Equal(t, "Jane", subs[0].Coordinator.Name)

	rec = env.do(t, http.MethodGet, "/v1/admin/file-submissions/history", getToken(t, jane), nil)
	checkCode(t, rec, http.StatusForbidden)
}
