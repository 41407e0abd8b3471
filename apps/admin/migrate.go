package main

import (
	"path/filepath"

	"github.com/pressly/goose/v3"

	"github.com/trezcool/ontrack/storage/database"
)

var gooseRunFunc = goose.Run // mockable

func (cli *commandLine) migrate(args []string) error {
	if err := database.UseMigrations(cli.conf.Database.Engine); err != nil {
		return err
	}

	dir := database.MigrationsDir
	switch args[0] {
	case "create", "fix":
		// these write files, so they work on the source tree
		goose.SetBaseFS(nil)
		dir = filepath.Join(cli.conf.WorkDir, "fs", database.MigrationsDir)
	}

	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(args[0], cli.db, dir, arguments...)
}
