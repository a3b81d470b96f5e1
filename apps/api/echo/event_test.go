package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bataanhss/websystem/core/event"
	"github.com/bataanhss/websystem/core/user"
)

func TestEvents_create(t *testing.T) {
	env := setup(t)
	admin := env.createUser(t, "Admin", "admin", "admin@test.test", "Secr3t!pwd", user.RoleAdmin, true)
	plain := env.createUser(t, "Jane", "jane", "jane@test.test", "Secr3t!pwd", user.RoleUser, true)

	body := map[string]string{
		"title":     "Feeding Day",
		"dateKey":   "2026-09-15",
		"startTime": "08:00",
		"endTime":   "11:30",
	}

	rec := env.do(t, http.MethodPost, "/v1/admin/events", getToken(t, admin), body)
	checkCode(t, rec, http.StatusCreated)
	var ev event.Event
	decodeBody(t, rec, &ev)
	assert.Equal(t, "Feeding Day", ev.Title)
	assert.Equal(t, event.StatusScheduled, ev.Status)
	assert.Equal(t, admin.ID, ev.CreatedBy)

	// not for regular users
	rec = env.do(t, http.MethodPost, "/v1/admin/events", getToken(t, plain), body)
	checkCode(t, rec, http.StatusForbidden)

	// end before start
	body["endTime"] = "07:00"
	rec = env.do(t, http.MethodPost, "/v1/admin/events", getToken(t, admin), body)
	checkCode(t, rec, http.StatusBadRequest)
}

func TestEvents_cancel(t *testing.T) {
	env := setup(t)
	admin := env.createUser(t, "Admin", "admin", "admin@test.test", "Secr3t!pwd", user.RoleAdmin, true)
	token := getToken(t, admin)

	rec := env.do(t, http.MethodPost, "/v1/admin/events", token, map[string]string{
		"title": "Feeding Day", "dateKey": "2026-09-15", "startTime": "08:00", "endTime": "11:30",
	})
	checkCode(t, rec, http.StatusCreated)
	var ev event.Event
	decodeBody(t, rec, &ev)

	rec = env.do(t, http.MethodPost, "/v1/admin/events/"+ev.ID+"/cancel", token, map[string]string{
		"reason": "typhoon signal",
	})
	checkCode(t, rec, http.StatusOK)
	decodeBody(t, rec, &ev)
	assert.Equal(t, event.StatusCancelled, ev.Status)
	assert.Equal(t, "typhoon signal", ev.CancelReason)
	assert.Equal(t, admin.ID, ev.CancelledBy)

	// a blank reason is rejected
	rec = env.do(t, http.MethodPost, "/v1/admin/events/"+ev.ID+"/cancel", token, map[string]string{
		"reason": "  ",
	})
	checkCode(t, rec, http.StatusBadRequest)
}

func TestEvents_userListing(t *testing.T) {
	env := setup(t)
	admin := env.createUser(t, "Admin", "admin", "admin@test.test", "Secr3t!pwd", user.RoleAdmin, true)
	plain := env.createUser(t, "Jane", "jane", "jane@test.test", "Secr3t!pwd", user.RoleUser, true)

	rec := env.do(t, http.MethodPost, "/v1/admin/events", getToken(t, admin), map[string]string{
		"title": "Feeding Day", "dateKey": "2026-09-15", "startTime": "08:00", "endTime": "11:30",
	})
	checkCode(t, rec, http.StatusCreated)
	var ev event.Event
	decodeBody(t, rec, &ev)

	// users get the summary shape: no description or creator fields
	rec = env.do(t, http.MethodGet, "/v1/events", getToken(t, plain), nil)
	checkCode(t, rec, http.StatusOK)
	var raw []map[string]interface{}
	decodeBody(t, rec, &raw)
	require.Len(t, raw, 1)
	assert.Equal(t, "Feeding Day", raw[0]["title"])
	assert.NotContains(t, raw[0], "createdBy")

	// detail endpoint has the whole thing
	rec = env.do(t, http.MethodGet, "/v1/events/"+ev.ID, getToken(t, plain), nil)
	checkCode(t, rec, http.StatusOK)
	var detail event.Event
	decodeBody(t, rec, &detail)
	assert.Equal(t, admin.ID, detail.CreatedBy)

	rec = env.do(t, http.MethodGet, "/v1/events/000000000000000000000099", getToken(t, plain), nil)
	checkCode(t, rec, http.StatusNotFound)
}
