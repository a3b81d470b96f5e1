package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/bataanhss/websystem/apps/api/echo"
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
	"github.com/bataanhss/websystem/services/broadcast"
	"github.com/bataanhss/websystem/services/email"
	"github.com/bataanhss/websystem/services/logger"
	"github.com/bataanhss/websystem/services/notify"
	"github.com/bataanhss/websystem/services/push"
	"github.com/bataanhss/websystem/storage/database/mongo"
	"github.com/bataanhss/websystem/storage/files"
)

const shutdownTimeout = 20 * time.Second

func main() {
	// =========================================================================
	// Set up Dependencies

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		core.Conf,
	)
	logger.Enable(!core.Conf.Debug)

	// set up DB
	db, err := mongorepos.Open(core.Conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	defer func() {
		if err := db.Client().Disconnect(context.Background()); err != nil {
			logger.Error("closing database", err)
		}
	}()
	if err = mongorepos.EnsureIndexes(context.Background(), db); err != nil {
		logger.Fatal(fmt.Sprintf("ensuring indexes: %v", err), err)
	}

	// upload store
	fileStore, err := files.NewStore(core.Conf.Uploads.Dir)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening upload store: %v", err), err)
	}

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	pushRepo := mongorepos.NewPushRepository(db)
	webPush := pushsvc.NewWebPushService(pushRepo, core.Conf, logger)
	hub := broadcastsvc.NewHub(logger)
	notifier := notifysvc.NewNotifier(hub, webPush)

	usrSvc := user.NewService(mongorepos.NewUserRepository(db), mailSvc)
	attSvc := attendance.NewService(mongorepos.NewAttendanceRepository(db))
	delSvc := delivery.NewService(mongorepos.NewDeliveryRepository(db), fileStore, logger)
	distSvc := distribution.NewService(mongorepos.NewDistributionRepository(db))
	evtSvc := event.NewService(mongorepos.NewEventRepository(db))
	annSvc := announcement.NewService(mongorepos.NewAnnouncementRepository(db))
	pushSvc := push.NewService(pushRepo)
	fsubSvc := filesub.NewService(mongorepos.NewFileSubmissionRepository(db), fileStore, logger)
	schSvc := school.NewService(mongorepos.NewSchoolRepository(db))

	// =========================================================================
	// Start API Service

	logger.Info(fmt.Sprintf("Application initializing : version %q", core.Conf.Build))
	defer logger.Info("Application stopped")

	server := echoapi.NewServer(echoapi.ServerDeps{
		Logger:          logger,
		UserSvc:         usrSvc,
		AttendanceSvc:   attSvc,
		DeliverySvc:     delSvc,
		DistributionSvc: distSvc,
		EventSvc:        evtSvc,
		AnnouncementSvc: annSvc,
		PushSvc:         pushSvc,
		FileSubSvc:      fsubSvc,
		SchoolSvc:       schSvc,
		Notifier:        notifier,
		Files:           fileStore,
		Live:            hub,
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
