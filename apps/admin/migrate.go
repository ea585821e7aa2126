package main

import (
	"database/sql"

	"github.com/edumanage/backend/storage/database"
)

var migrateFunc = func(db *sql.DB) error { return database.Migrate(db) } // mockable

func (cli *commandLine) migrate() error {
	if cli.db == nil {
		return errNoDB
	}
	return migrateFunc(cli.db.DB)
}
