package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

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
	"github.com/bataanhss/websystem/storage/files"
)

type (
	// LiveFeed upgrades a request to a websocket client of the admin live
	// feed.
	LiveFeed interface {
		Serve(w http.ResponseWriter, r *http.Request) error
	}

	// ServerDeps carries everything the API server needs.
	ServerDeps struct {
		Logger          core.Logger
		UserSvc         user.ServiceInterface
		AttendanceSvc   *attendance.Service
		DeliverySvc     *delivery.Service
		DistributionSvc *distribution.Service
		EventSvc        *event.Service
		AnnouncementSvc *announcement.Service
		PushSvc         push.ServiceInterface
		FileSubSvc      filesub.ServiceInterface
		SchoolSvc       school.ServiceInterface
		Notifier        core.Notifier
		Files           *files.Store
		Live            LiveFeed
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errs     chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	if deps.Notifier == nil {
		deps.Notifier = core.NopNotifier{}
	}
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errs:     make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	debug := core.Conf.Debug

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !core.Conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.SignalShutdown)
	s.app.Debug = debug
	s.app.HideBanner = true

	s.app.GET("/", home)

	// uploaded files are immutable; cache them hard
	ug := s.app.Group("/uploads", cacheForeverMiddleware())
	ug.Static("/", s.deps.Files.Root())

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	// websockets cannot set an Authorization header; the token rides the
	// query string instead
	wsJWTConfig := appJWTConfig
	wsJWTConfig.TokenLookup = "query:token"
	wsJWT := middleware.JWTWithConfig(wsJWTConfig)

	registerAuthAPI(v1, jwt, s.deps.UserSvc)
	registerUserAPI(v1, jwt, s.deps.UserSvc, s.deps.Files)
	registerDistributionAPI(v1, jwt, s.deps.DistributionSvc)
	registerAttendanceAPI(v1, jwt, s.deps.AttendanceSvc, s.deps.Notifier)
	registerDeliveryAPI(v1, jwt, s.deps.DeliverySvc, s.deps.UserSvc, s.deps.Files, s.deps.Notifier)
	registerEventAPI(v1, jwt, s.deps.EventSvc, s.deps.Files, s.deps.Notifier)
	registerAnnouncementAPI(v1, jwt, s.deps.AnnouncementSvc, s.deps.Files, s.deps.Notifier)
	registerPushAPI(v1, jwt, s.deps.PushSvc)
	registerFileSubmissionAPI(v1, jwt, s.deps.FileSubSvc, s.deps.Files, s.deps.Notifier)
	registerSchoolDirectoryAPI(v1, jwt, s.deps.SchoolSvc)

	if s.deps.Live != nil {
		v1.GET("/admin/live", s.serveLiveFeed, wsJWT, adminMiddleware())
	}
}

func (s *Server) serveLiveFeed(ctx echo.Context) error {
	return s.deps.Live.Serve(ctx.Response(), ctx.Request())
}

// Start runs the listener; startup failures land on Errors().
func (s *Server) Start() {
	signal.Notify(s.shutdown, syscall.SIGINT, syscall.SIGTERM)
	if err := s.app.Start(core.Conf.Server.Address()); err != nil && err != http.ErrServerClosed {
		s.errs <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errs
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// SignalShutdown triggers a graceful shutdown from inside the app.
func (s *Server) SignalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to the BHSS Websystem API!")
}

func cacheForeverMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ctx.Response().Header().Set("Cache-Control", "public, max-age=604800, immutable")
			return next(ctx)
		}
	}
}
