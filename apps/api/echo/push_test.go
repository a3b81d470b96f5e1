package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bataanhss/websystem/core"
	"github.com/bataanhss/websystem/core/push"
	"github.com/bataanhss/websystem/core/user"
)

func TestPush_vapidPublicKey(t *testing.T) {
	env := setup(t)

	orig := core.Conf.Push.VAPIDPublicKey
	core.Conf.Push.VAPIDPublicKey = "test-public-key"
	defer func() { core.Conf.Push.VAPIDPublicKey = orig }()

	// open endpoint, no token needed
	rec := env.do(t, http.MethodGet, "/v1/push/vapid-public-key", "", nil)
	checkCode(t, rec, http.StatusOK)
	var res map[string]string
	decodeBody(t, rec, &res)
	assert.Equal(t, "test-public-key", res["publicKey"])
}

func TestPush_subscribe(t *testing.T) {
	env := setup(t)
	usr := env.createUser(t, "Jane", "jane", "jane@test.test", "Secr3t!pwd", user.RoleUser, true)
	token := getToken(t, usr)

	body := map[string]interface{}{
		"endpoint": "https://push.example.test/send/abc",
		"keys":     map[string]string{"p256dh": "p-key", "auth": "a-key"},
	}
	rec := env.do(t, http.MethodPost, "/v1/push/subscribe", token, body)
	checkCode(t, rec, http.StatusCreated)
	var sub push.Subscription
	decodeBody(t, rec, &sub)
	assert.Equal(t, usr.ID, sub.UserID)
	assert.Equal(t, "https://push.example.test/send/abc", sub.Endpoint)

	// incomplete keys
	rec = env.do(t, http.MethodPost, "/v1/push/subscribe", token, map[string]interface{}{
		"endpoint": "https://push.example.test/send/def",
	})
	checkCode(t, rec, http.StatusBadRequest)

	rec = env.do(t, http.MethodPost, "/v1/push/subscribe", "", body)
	checkCode(t, rec, http.StatusUnauthorized)
}

func TestPush_unsubscribe(t *testing.T) {
	env := setup(t)
	usr := env.createUser(t, "Jane", "jane", "jane@test.test", "Secr3t!pwd", user.RoleUser, true)
	token := getToken(t, usr)

	rec := env.do(t, http.MethodPost, "/v1/push/subscribe", token, map[string]interface{}{
		"endpoint": "https://push.example.test/send/abc",
		"keys":     map[string]string{"p256dh": "p-key", "auth": "a-key"},
	})
	checkCode(t, rec, http.StatusCreated)

	rec = env.do(t, http.MethodPost, "/v1/push/unsubscribe", token, map[string]string{
		"endpoint": "https://push.example.test/send/abc",
	})
	checkCode(t, rec, http.StatusOK)
	var res SuccessResponse
	decodeBody(t, rec, &res)
	assert.Equal(t, "Unsubscribed.", res.Success)

	// unsubscribing an unknown endpoint is quietly fine
	rec = env.do(t, http.MethodPost, "/v1/push/unsubscribe", token, map[string]string{
		"endpoint": "https://push.example.test/send/gone",
	})
	checkCode(t, rec, http.StatusOK)
}
