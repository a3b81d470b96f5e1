package echoapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/bataanhss/websystem/core"
	"github.com/bataanhss/websystem/core/announcement"
	"github.com/bataanhss/websystem/core/attendance"
	"github.com/bataanhss/websystem/core/delivery"
	"github.com/bataanhss/websystem/core/distribution"
	"github.com/bataanhss/websystem/core/event"
	"github.com/bataanhss/websystem/core/filesub"
	"github.com/bataanhss/websystem/core/push"
	"github.com/bataanhss/websystem/core/school"
	"github.com/bataanhss/websystem/core/user"
	broadcastsvc "github.com/bataanhss/websystem/services/broadcast"
	emailsvc "github.com/bataanhss/websystem/services/email"
	dummydb "github.com/bataanhss/websystem/storage/database/dummy"
	"github.com/bataanhss/websystem/storage/files"
	testutil "github.com/bataanhss/websystem/tests"
)

func TestMain(m *testing.M) {
	core.Conf.Debug = false
	core.Conf.TestMode = true
	os.Exit(m.Run())
}

type testEnv struct {
	server *Server
	db     *dummydb.DB
	files  *files.Store
	hub    *broadcastsvc.Hub
}

func setup(t *testing.T) *testEnv {
	t.Helper()

	db, err := dummydb.Open()
	require.NoError(t, err)
	store, err := files.NewStore(t.TempDir())
	require.NoError(t, err)
	hub := broadcastsvc.NewHub(core.NopLogger{})

	usrSvc := user.NewServiceMock(dummydb.NewUserRepository(db), emailsvc.NewConsoleServiceMock())
	server := NewServer(ServerDeps{
		Logger:          core.NopLogger{},
		UserSvc:         usrSvc,
		AttendanceSvc:   attendance.NewService(dummydb.NewAttendanceRepository(db)),
		DeliverySvc:     delivery.NewService(dummydb.NewDeliveryRepository(db), store, core.NopLogger{}),
		DistributionSvc: distribution.NewService(dummydb.NewDistributionRepository(db)),
		EventSvc:        event.NewService(dummydb.NewEventRepository(db)),
		AnnouncementSvc: announcement.NewService(dummydb.NewAnnouncementRepository(db)),
		PushSvc:         push.NewService(dummydb.NewPushRepository(db)),
		FileSubSvc:      filesub.NewService(dummydb.NewFileSubmissionRepository(db), store, core.NopLogger{}),
		SchoolSvc:       school.NewService(dummydb.NewSchoolRepository(db)),
		Files:           store,
		Live:            hub,
	})
	return &testEnv{server: server, db: db, files: store, hub: hub}
}

func (env *testEnv) createUser(t *testing.T, name, uname, email, pwd, role string, isActive bool) user.User {
	return testutil.CreateUser(t, dummydb.NewUserRepository(env.db), name, uname, email, pwd, role, isActive)
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := GenerateToken(GetUserClaims(usr))
	require.NoError(t, err)
	return token
}

// do runs a JSON request through the full server stack.
func (env *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), "body: %s", rec.Body.String())
}

// httpErr is the non-debug error body shape.
type httpErr struct {
	Message string `json:"message"`
}

func errMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var e httpErr
	decodeBody(t, rec, &e)
	return e.Message
}

func checkCode(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, rec.Code, "body: %s", rec.Body.String())
}
