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

	"github.com/hansei/chulseok/core"
	"github.com/hansei/chulseok/core/attendance"
	"github.com/hansei/chulseok/core/period"
	"github.com/hansei/chulseok/core/school"
	"github.com/hansei/chulseok/core/seating"
	"github.com/hansei/chulseok/core/user"
)

type (
	ServerDeps struct {
		Address        string
		DisableReqLogs bool
		Logger         core.Logger

		UserSvc       *user.Service
		SchoolSvc     *school.Service
		PeriodSvc     *period.Service
		AttendanceSvc *attendance.Service
		SeatingSvc    *seating.Service
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.signalShutdown)
	s.app.Debug = core.Conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerAuthAPI(s.app, v1, jwt, s.deps.UserSvc)
	registerUserAPI(v1, jwt, s.deps.UserSvc)
	registerSchoolAPI(v1, jwt, s.deps.SchoolSvc)
	registerAttendanceAPI(v1, jwt, s.deps.AttendanceSvc, s.deps.UserSvc, s.deps.SchoolSvc)
	registerSeatingAPI(v1, jwt, s.deps.SeatingSvc, s.deps.AttendanceSvc, s.deps.PeriodSvc, s.deps.UserSvc)
	registerPeriodAPI(v1, jwt, s.deps.PeriodSvc)
}

func (s *server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	if err := s.app.Start(s.deps.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) Errors() <-chan error {
	return s.errors
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Chulseok API!")
}
