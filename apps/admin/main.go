package main

import (
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/edumanage/backend/core"
	"github.com/edumanage/backend/core/fee"
	"github.com/edumanage/backend/core/registration"
	"github.com/edumanage/backend/core/staff"
	"github.com/edumanage/backend/core/student"
	"github.com/edumanage/backend/core/user"
	emailsvc "github.com/edumanage/backend/services/email"
	logsvc "github.com/edumanage/backend/services/logger"
	"github.com/edumanage/backend/storage/database"
	dummydb "github.com/edumanage/backend/storage/database/dummy"
	sqlxrepos "github.com/edumanage/backend/storage/database/sqlx"
)

var logger core.Logger

func main() {
	defer os.Exit(0)

	conf := core.NewConfig()
	logger = logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	core.ParseEmailTemplates(logger)

	cli, cleanup, err := newCommandLine(conf)
	errAndDie(err)
	defer cleanup()

	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(err.Error(), err)
		}
		os.Exit(1)
	}
}

// newCommandLine wires the CLI against the configured storage backend, either
// the in-memory store or Postgres.
func newCommandLine(conf *core.Config) (*commandLine, func(), error) {
	var (
		db       *sqlx.DB
		usrRepo  user.Repository
		stdRepo  student.Repository
		stfRepo  staff.Repository
		feeRepo  fee.Repository
		cleanup  = func() {}
		seedFunc func() error
	)

	if conf.Storage.UseMemory {
		mem, err := dummydb.Open(conf.Storage.SnapshotPath)
		if err != nil {
			return nil, nil, err
		}
		usrRepo = dummydb.NewUserRepository(mem)
		stdRepo = dummydb.NewStudentRepository(mem)
		stfRepo = dummydb.NewStaffRepository(mem)
		feeRepo = dummydb.NewFeeRepository(mem)
		seedFunc = func() error { return dummydb.Seed(mem) }
	} else {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, nil, err
		}
		var err error
		if db, err = database.Open(conf); err != nil {
			return nil, nil, err
		}
		cleanup = func() { _ = db.Close() }
		usrRepo = sqlxrepos.NewUserRepository(db)
		stdRepo = sqlxrepos.NewStudentRepository(db)
		stfRepo = sqlxrepos.NewStaffRepository(db)
		feeRepo = sqlxrepos.NewFeeRepository(db)
	}

	mailSvc := emailsvc.NewConsoleService(conf)
	usrSvc := user.NewService(usrRepo, mailSvc, conf)
	stdSvc := student.NewService(stdRepo, conf)
	stfSvc := staff.NewService(stfRepo)
	feeSvc, err := fee.NewService(feeRepo, stdRepo, usrRepo, mailSvc, conf)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return &commandLine{
		db:       db,
		usrRepo:  usrRepo,
		regSvc:   registration.NewService(usrSvc, stdSvc, stfSvc),
		feeSvc:   feeSvc,
		seedFunc: seedFunc,
	}, cleanup, nil
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
