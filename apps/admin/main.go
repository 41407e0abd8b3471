package main

import (
	"os"

	"github.com/trezcool/ontrack/apps/shared"
	"github.com/trezcool/ontrack/core"
	"github.com/trezcool/ontrack/core/inference"
	"github.com/trezcool/ontrack/core/risk"
	logsvc "github.com/trezcool/ontrack/services/logger"
	"github.com/trezcool/ontrack/storage/database"
	boiledrepos "github.com/trezcool/ontrack/storage/database/sqlboiler"
	"github.com/trezcool/ontrack/storage/snapshot"
)

var logger core.Logger

func main() {
	conf := core.NewConfig()

	rl := logsvc.NewRollbarLogger(logsvc.NewConsole(os.Stderr, "ADMIN", conf.Debug), conf)
	rl.Enable(!conf.Debug)
	logger = rl

	// set up DB
	errAndDie(database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	errAndDie(err)
	defer func() { _ = db.Close() }()

	// start CLI
	cli := commandLine{
		conf: conf,
		db:   db,
		out:  os.Stdout,
		loadModel: func() *inference.ModelContext {
			return inference.LoadModelContext(shared.ModelContextOptions(conf, db, logger))
		},
	}
	cli.newRiskService = func(mc *inference.ModelContext) risk.Service {
		return risk.NewService(risk.ServiceDeps{
			Snapshot:   snapshot.Load(conf.Resolve(conf.ML.SnapshotPath), logger),
			Repo:       boiledrepos.NewStudentRepository(db, conf.Database.Engine),
			Predictor:  inference.NewEngine(mc, nil),
			Thresholds: risk.NewThresholds(conf.Risk),
			Logger:     logger,
		})
	}

	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("admin command failed", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
