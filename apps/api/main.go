package main

import (
	"context"
	"database/sql"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	echoapi "github.com/trezcool/ontrack/apps/api/echo"
	"github.com/trezcool/ontrack/apps/shared"
	"github.com/trezcool/ontrack/core"
	"github.com/trezcool/ontrack/core/inference"
	"github.com/trezcool/ontrack/core/risk"
	logsvc "github.com/trezcool/ontrack/services/logger"
	"github.com/trezcool/ontrack/storage/database"
	boiledrepos "github.com/trezcool/ontrack/storage/database/sqlboiler"
	"github.com/trezcool/ontrack/storage/snapshot"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(logsvc.NewConsole(os.Stdout, "API", conf.Debug), conf)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(logsvc.NewConsole(os.Stdout, "DB", conf.Debug), conf)
	dbLogger.Enable(!conf.Debug)

	translator := shared.NewTranslator()
	validate := shared.NewValidator(translator)
	if err := validate.Struct(conf.Risk); err != nil {
		logger.Fatal(fmt.Sprintf("invalid risk configuration: %v", err), err)
	}

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	mc := inference.LoadModelContext(shared.ModelContextOptions(conf, db, logger))
	engine := inference.NewEngine(mc, registry)
	snap := snapshot.Load(conf.Resolve(conf.ML.SnapshotPath), logger)

	riskSvc := risk.NewService(risk.ServiceDeps{
		Snapshot:   snap,
		Repo:       boiledrepos.NewStudentRepository(db, conf.Database.Engine),
		Predictor:  engine,
		Thresholds: risk.NewThresholds(conf.Risk),
		Logger:     logger,
		Registerer: registry,
	})

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("model").Set(mc.ModelName())
	expvar.NewInt("snapshot_students").Set(int64(snap.Len()))

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			RiskSvc:    riskSvc,
			Model:      mc,
			Snapshot:   snap,
			Registry:   registry,
			Validate:   validate,
			Translator: translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
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

func setUpDB(conf *core.Config) (*sql.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db, conf.Database.Engine); err != nil {
		return nil, err
	}
	return db, nil
}
