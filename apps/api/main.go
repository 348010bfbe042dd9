package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/trezcool/swimschool/apps/api/echo"
	"github.com/trezcool/swimschool/apps/shared"
	"github.com/trezcool/swimschool/core"
	"github.com/trezcool/swimschool/core/user"
	logsvc "github.com/trezcool/swimschool/services/logger"
	"github.com/trezcool/swimschool/services/metrics"
	"github.com/trezcool/swimschool/services/scheduler"
	"github.com/trezcool/swimschool/storage/database"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.Conf

	// set up loggers
	reporters, err := logsvc.NewReporters(conf)
	if err != nil {
		log.Fatalf("setting up error reporters: %v", err)
	}
	logger, err := logsvc.NewLogger("API", conf, reporters...)
	if err != nil {
		log.Fatalf("setting up logger: %v", err)
	}
	defer logger.Sync()

	dbLogger, err := logsvc.NewLogger("DB", conf, reporters...)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up DB logger: %v", err), err)
	}

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Error(fmt.Sprintf("failed to close: %v", err), err)
		}
	}()

	// set up services
	svcs := shared.NewServices(conf, logger, db, shared.NewMailService(conf, logger))

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate, translator := shared.NewValidator()

	if err = core.ParseEmailTemplates(logger); err != nil {
		logger.Fatal(fmt.Sprintf("parsing email templates: %v", err), err)
	}

	user.LoadCommonPasswords(logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.
	// /metrics - prometheus collectors.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	http.Handle("/metrics", metrics.Handler())

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugAddress, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start Jobs

	jobs := scheduler.New(conf.Location, logger)
	if err = jobs.Add(conf.AttendanceCron, scheduler.AttendanceJob, scheduler.AttendancePass(svcs.Attendance, logger)); err != nil {
		logger.Fatal(err.Error(), err)
	}
	if err = jobs.Add(conf.TokenPurgeCron, scheduler.TokenPurgeJob, scheduler.TokenPurge(svcs.Session, logger)); err != nil {
		logger.Fatal(err.Error(), err)
	}
	jobs.Start()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			Validate:      validate,
			Translator:    translator,
			UserSvc:       svcs.User,
			SessionSvc:    svcs.Session,
			LevelSvc:      svcs.Level,
			ScheduleSvc:   svcs.Schedule,
			AttendanceSvc: svcs.Attendance,
			ResetSvc:      svcs.Reset,
			ContentSvc:    svcs.Content,
			ProfileSvc:    svcs.Profile,
			ChatSvc:       svcs.Chat,
			Storage:       svcs.Storage,
			Broadcaster:   svcs.Broadcaster,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))
	}

	// give outstanding requests and jobs a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()

	svcs.Broadcaster.Close()

	// asking listener to shutdown and shed load
	if err = server.Shutdown(ctx); err != nil {
		logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

		if err = server.Close(); err != nil {
			logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
		}
	}
	if err = jobs.Stop(ctx); err != nil {
		logger.Error(fmt.Sprintf("could not stop jobs gracefully: %v", err), err)
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout*6)
	defer cancel()

	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if err = database.Ping(ctx, db); err != nil {
		return nil, err
	}
	if err = database.Migrate(ctx, db.DB); err != nil {
		return nil, err
	}
	return db, nil
}
