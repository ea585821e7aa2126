package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/edumanage/backend/apps/api/echo"
	"github.com/edumanage/backend/core"
	"github.com/edumanage/backend/core/academic"
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

type repositories struct {
	user     user.Repository
	student  student.Repository
	staff    staff.Repository
	fee      fee.Repository
	academic academic.Repository
}

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up storage
	repos, closeDB, err := setUpStorage(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up storage: %v", err), err)
	}
	defer closeDB()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(logger, conf)
	}
	usrSvc := user.NewService(repos.user, mailSvc, conf)
	stdSvc := student.NewService(repos.student, conf)
	stfSvc := staff.NewService(repos.staff)
	feeSvc, err := fee.NewService(repos.fee, repos.student, repos.user, mailSvc, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up fee service: %v", err), err)
	}
	acdSvc := academic.NewService(repos.academic)
	regSvc := registration.NewService(usrSvc, stdSvc, stfSvc)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	core.ParseEmailTemplates(logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:            conf,
			Logger:          logger,
			UserSvc:         usrSvc,
			RegistrationSvc: regSvc,
			StudentSvc:      stdSvc,
			StaffSvc:        stfSvc,
			FeeSvc:          feeSvc,
			AcademicSvc:     acdSvc,
			Validate:        validate,
			Translator:      translator,
		},
	)

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
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
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

// setUpStorage opens either the in-memory store (seeded with sample data) or
// Postgres, depending on configuration.
func setUpStorage(conf *core.Config) (repositories, func(), error) {
	if conf.Storage.UseMemory {
		db, err := dummydb.Open(conf.Storage.SnapshotPath)
		if err != nil {
			return repositories{}, nil, err
		}
		if err = dummydb.Seed(db); err != nil {
			return repositories{}, nil, err
		}
		return repositories{
			user:     dummydb.NewUserRepository(db),
			student:  dummydb.NewStudentRepository(db),
			staff:    dummydb.NewStaffRepository(db),
			fee:      dummydb.NewFeeRepository(db),
			academic: dummydb.NewAcademicRepository(db),
		}, func() {}, nil
	}

	db, err := setUpDB(conf)
	if err != nil {
		return repositories{}, nil, err
	}
	return repositories{
		user:     sqlxrepos.NewUserRepository(db),
		student:  sqlxrepos.NewStudentRepository(db),
		staff:    sqlxrepos.NewStaffRepository(db),
		fee:      sqlxrepos.NewFeeRepository(db),
		academic: sqlxrepos.NewAcademicRepository(db),
	}, func() { _ = db.Close() }, nil
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
