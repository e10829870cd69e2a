package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	echoapi "github.com/hansei/chulseok/api/echo"
	"github.com/hansei/chulseok/core"
	"github.com/hansei/chulseok/core/attendance"
	"github.com/hansei/chulseok/core/period"
	"github.com/hansei/chulseok/core/school"
	"github.com/hansei/chulseok/core/seating"
	"github.com/hansei/chulseok/core/user"
	emailsvc "github.com/hansei/chulseok/services/email"
	logsvc "github.com/hansei/chulseok/services/logger"
	"github.com/hansei/chulseok/storage/supabase"
)

const shutdownTimeout = 20 * time.Second

func main() {
	conf := core.Conf

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	gwLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "GW : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	gwLogger.Enable(!conf.Debug)

	// set up the Supabase gateway and repositories
	client := supabase.NewClient(conf.Supabase.URL, conf.Supabase.AnonKey, conf.Supabase.ServiceRoleKey, gwLogger)
	userRepo := supabase.NewUserRepository(client)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	usrSvc := user.NewService(userRepo)
	schSvc := school.NewService(supabase.NewSchoolRepository(client))
	prdSvc := period.NewService(supabase.NewPeriodRepository(client), core.NewBoundedCache(conf.CacheCapacity))
	attSvc := attendance.NewService(supabase.NewAttendanceRepository(client), usrSvc, prdSvc, mailSvc, logger)
	seatSvc := seating.NewService(supabase.NewSeatingRepository(client), userRepo, attSvc)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Address:       conf.Server.Host + ":" + conf.Server.Port,
		Logger:        logger,
		UserSvc:       usrSvc,
		SchoolSvc:     schSvc,
		PeriodSvc:     prdSvc,
		AttendanceSvc: attSvc,
		SeatingSvc:    seatSvc,
	})

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
