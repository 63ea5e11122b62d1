package main

import (
	"log"
	"os"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/fee"
	"github.com/trezcool/ecolage/core/school"
	emailsvc "github.com/trezcool/ecolage/services/email"
	logsvc "github.com/trezcool/ecolage/services/logger"
	"github.com/trezcool/ecolage/storage/database"
	sqlxrepos "github.com/trezcool/ecolage/storage/database/sqlx"
)

var logger *log.Logger // todo: logger service

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// set up DB
	errAndDie(database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())

	// set up services
	clock := core.NewClock()
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		rollbar := logsvc.NewRollbarLogger(logger, conf)
		rollbar.Enable(true)
		mailSvc = emailsvc.NewSendgridService(rollbar)
	}
	schoolRepo := sqlxrepos.NewSchoolRepository(db)
	feeRepo := sqlxrepos.NewFeeRepository(db)
	schoolSvc := school.NewService(schoolRepo, clock)

	// start CLI
	cli := commandLine{
		db:        db,
		schoolSvc: schoolSvc,
		feeSvc:    fee.NewService(db, feeRepo, schoolSvc, clock),
		ledger:    fee.NewLedger(db, feeRepo, schoolSvc, mailSvc, clock),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
