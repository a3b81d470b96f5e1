package echoapi

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bataanhss/websystem/core/user"
)

func TestServer_home(t *testing.T) {
	env := setup(t)

	rec := env.do(t, http.MethodGet, "/", "", nil)
	checkCode(t, rec, http.StatusOK)
	assert.Contains(t, rec.Body.String(), "BHSS Websystem")
}

func TestServer_unknownRoute(t *testing.T) {
	env := setup(t)

	rec := env.do(t, http.MethodGet, "/v1/nope", "", nil)
	checkCode(t, rec, http.StatusNotFound)
}

func TestServer_uploadsStatic(t *testing.T) {
	env := setup(t)

	dir := filepath.Join(env.files.Root(), "avatars")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pic.jpg"), []byte("jpeg-bytes"), 0o644))

	rec := env.do(t, http.MethodGet, "/uploads/avatars/pic.jpg", "", nil)
	checkCode(t, rec, http.StatusOK)
	assert.Equal(t, "jpeg-bytes", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Cache-Control"), "max-age")
}

func TestServer_liveFeed(t *testing.T) {
	env := setup(t)
	admin := env.createUser(t, "Admin", "admin", "admin@test.test", "Secr3t!pwd", user.RoleAdmin, true)
	plain := env.createUser(t, "Jane", "jane", "jane@test.test", "Secr3t!pwd", user.RoleUser, true)

	srv := httptest.NewServer(env.server)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/admin/live"

	// token travels as a query param on the websocket handshake
	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+getToken(t, admin), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return env.hub.ClientCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	env.hub.Broadcast("attendance:saved", map[string]string{"id": "abc"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"attendance:saved"`)

	// no token, and non-admin tokens, are turned away at the handshake
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(wsURL+"?token="+getToken(t, plain), nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
