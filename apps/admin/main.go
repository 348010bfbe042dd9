package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/trezcool/swimschool/apps/shared"
	"github.com/trezcool/swimschool/core"
	logsvc "github.com/trezcool/swimschool/services/logger"
	"github.com/trezcool/swimschool/storage/database"
)

func main() {
	conf := core.Conf

	logger, err := logsvc.NewLogger("ADMIN", conf)
	if err != nil {
		log.Fatalf("setting up logger: %v", err)
	}

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	if err = database.Ping(context.Background(), db); err != nil {
		logger.Fatal(fmt.Sprintf("pinging database: %v", err), err)
	}

	// start CLI
	svcs := shared.NewServices(conf, logger, db, shared.NewMailService(conf, logger))
	cli := commandLine{
		db:     db.DB,
		usrSvc: svcs.User,
		attSvc: svcs.Attendance,
		out:    os.Stdout,
	}
	err = cli.run(os.Args)
	if err != nil && err != errHelp {
		logger.Error(fmt.Sprintf("error: %v", err), err)
	}

	_ = db.Close()
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}
