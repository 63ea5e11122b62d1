package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	echoapi "github.com/trezcool/ecolage/apps/api/echo"
	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/fee"
	"github.com/trezcool/ecolage/core/school"
	emailsvc "github.com/trezcool/ecolage/services/email"
	logsvc "github.com/trezcool/ecolage/services/logger"
	"github.com/trezcool/ecolage/storage/database"
	dummydb "github.com/trezcool/ecolage/storage/database/dummy"
	sqlxrepos "github.com/trezcool/ecolage/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	clock := core.NewClock()

	// set up storage; in-memory in DEV mode, postgres otherwise
	var (
		db         core.DB
		schoolRepo school.Repository
		feeRepo    fee.Repository
	)
	if conf.Debug {
		ddb, err := dummydb.Open()
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
		}
		schoolRepo = dummydb.NewSchoolRepository(ddb)
		feeRepo = dummydb.NewFeeRepository(ddb)
	} else {
		sdb, err := setUpDB(conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
		}
		defer func() {
			if err = sdb.Close(); err != nil {
				logger.Error("closing database", err)
			}
		}()
		db = sdb
		schoolRepo = sqlxrepos.NewSchoolRepository(sdb)
		feeRepo = sqlxrepos.NewFeeRepository(sdb)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}
	schoolSvc := school.NewService(schoolRepo, clock)
	feeSvc := fee.NewService(db, feeRepo, schoolSvc, clock)
	ledger := fee.NewLedger(db, feeRepo, schoolSvc, mailSvc, clock)

	// =========================================================================
	// Start API Service

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	server := echoapi.NewServer(
		&echoapi.Options{
			Addr:      conf.Server.Addr,
			Logger:    logger,
			SchoolSvc: schoolSvc,
			FeeSvc:    feeSvc,
			Ledger:    ledger,
		},
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
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

func setUpDB(conf *core.Config) (*sql.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
