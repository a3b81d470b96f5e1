package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bataanhss/websystem/core/attendance"
	"github.com/bataanhss/websystem/core/user"
)

func TestAttendance_save(t *testing.T) {
	env := setup(t)
	usr := env.createUser(t, "Jane", "jane", "jane@test.test", "Secr3t!pwd", user.RoleUser, true)
	token := getToken(t, usr)

	rec := env.do(t, http.MethodPost, "/v1/attendance/record", token, map[string]interface{}{
		"dateKey": "2026-09-01",
		"grade":   "Grade 1",
		"present": 28.7,
		"absent":  2,
		"notes":   "two sick",
	})
	checkCode(t, rec, http.StatusOK)

	var got attendance.Record
	decodeBody(t, rec, &got)
	assert.Equal(t, usr.ID, got.UserID)
	assert.Equal(t, 28, got.Present) // counts are whole children
	assert.Equal(t, 2, got.Absent)

	// same (date, grade) updates in place
	rec = env.do(t, http.MethodPost, "/v1/attendance/record", token, map[string]interface{}{
		"dateKey": "2026-09-01",
		"grade":   "Grade 1",
		"present": 30,
	})
	checkCode(t, rec, http.StatusOK)
	var updated attendance.Record
	decodeBody(t, rec, &updated)
	assert.Equal(t, got.ID, updated.ID)
	assert.Equal(t, 30, updated.Present)
	assert.Equal(t, 0, updated.Absent)

	// a bad date key is a validation error
	rec = env.do(t, http.MethodPost, "/v1/attendance/record", token, map[string]interface{}{
		"dateKey": "09/01/2026",
		"grade":   "Grade 1",
		"present": 10,
	})
	checkCode(t, rec, http.StatusBadRequest)
}

func TestAttendance_saveBulk(t *testing.T) {
	env := setup(t)
	usr := env.createUser(t, "Jane", "jane", "jane@test.test", "Secr3t!pwd", user.RoleUser, true)
	token := getToken(t, usr)

	rec := env.do(t, http.MethodPost, "/v1/attendance/record/bulk", token, map[string]interface{}{
		"dateKey": "2026-09-01",
		"entries": []map[string]interface{}{
			{"grade": "Grade 1", "present": 25, "absent": 3},
			{"grade": "Grade 2", "present": 0, "absent": 0}, // nothing to report, dropped
			{"grade": "Grade 3", "present": 0, "absent": 0, "notes": "field trip"},
		},
	})
	checkCode(t, rec, http.StatusOK)

	var recs []attendance.Record
	decodeBody(t, rec, &recs)
	require.Len(t, recs, 2)

	rec = env.do(t, http.MethodGet, "/v1/attendance/by-date/2026-09-01/all", token, nil)
	checkCode(t, rec, http.StatusOK)
	decodeBody(t, rec, &recs)
	assert.Len(t, recs, 2)
}

func TestAttendance_getByDate(t *testing.T) {
	env := setup(t)
	jane := env.createUser(t, "Jane", "jane", "jane@test.test", "Secr3t!pwd", user.RoleUser, true)
	mark := env.createUser(t, "Mark", "mark", "mark@test.test", "Secr3t!pwd", user.RoleUser, true)

	rec := env.do(t, http.MethodPost, "/v1/attendance/record", getToken(t, jane), map[string]interface{}{
		"dateKey": "2026-09-01", "grade": "Grade 1", "present": 20,
	})
	checkCode(t, rec, http.StatusOK)

	rec = env.do(t, http.MethodGet, "/v1/attendance/by-date/2026-09-01?grade=Grade+1", getToken(t, jane), nil)
	checkCode(t, rec, http.StatusOK)
	var got *attendance.Record
	decodeBody(t, rec, &got)
	require.NotNil(t, got)
	assert.Equal(t, 20, got.Present)

	// records are scoped per user: mark sees nothing on the same date
	rec = env.do(t, http.MethodGet, "/v1/attendance/by-date/2026-09-01?grade=Grade+1", getToken(t, mark), nil)
	checkCode(t, rec, http.StatusOK)
	got = nil
	decodeBody(t, rec, &got)
	assert.Nil(t, got)
}

func TestAttendance_history(t *testing.T) {
	env := setup(t)
	usr := env.createUser(t, "Jane", "jane", "jane@test.test", "Secr3t!pwd", user.RoleUser, true)
	token := getToken(t, usr)

	for _, day := range []string{"2026-08-30", "2026-08-31", "2026-09-01"} {
		rec := env.do(t, http.MethodPost, "/v1/attendance/record", token, map[string]interface{}{
			"dateKey": day, "grade": "Grade 1", "present": 20,
		})
		checkCode(t, rec, http.StatusOK)
	}

	rec := env.do(t, http.MethodGet, "/v1/attendance/history", token, nil)
	checkCode(t, rec, http.StatusOK)
	var recs []attendance.Record
	decodeBody(t, rec, &recs)
	require.Len(t, recs, 3)
	assert.Equal(t, "2026-09-01", recs[0].DateKey) // newest first

	rec = env.do(t, http.MethodGet, "/v1/attendance/history?from=2026-08-31&to=2026-08-31", token, nil)
	checkCode(t, rec, http.StatusOK)
	decodeBody(t, rec, &recs)
	require.Len(t, recs, 1)
	assert.Equal(t, "2026-08-31", recs[0].DateKey)
}

func TestAttendance_adminHistory(t *testing.T) {
	env := setup(t)
	admin := env.createUser(t, "Admin", "admin", "admin@test.test", "Secr3t!pwd", user.RoleAdmin, true)
	jane := env.createUser(t, "Jane", "jane", "jane@test.test", "Secr3t!pwd", user.RoleUser, true)

	rec := env.do(t, http.MethodPost, "/v1/attendance/record", getToken(t, jane), map[string]interface{}{
		"dateKey": "2026-09-01", "grade": "Grade 1", "present": 20,
	})
	checkCode(t, rec, http.StatusOK)

	rec = env.do(t, http.MethodGet, "/v1/admin/attendance/history", getToken(t, admin), nil)
	checkCode(t, rec, http.StatusOK)
	var recs []attendance.AdminRecord
	decodeBody(t, rec, &recs)
	require.Len(t, recs, 1)
	assert.Equal(t, "Jane", recs[0].UserName)

	rec = env.do(t, http.MethodGet, "/v1/admin/attendance/history", getToken(t, jane), nil)
	checkCode(t, rec, http.StatusForbidden)
}
