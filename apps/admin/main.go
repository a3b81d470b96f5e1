package main

import (
	"context"
	"log"
	"os"

	"github.com/bataanhss/websystem/core"
	"github.com/bataanhss/websystem/core/user"
	"github.com/bataanhss/websystem/services/email"
	"github.com/bataanhss/websystem/storage/database/mongo"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	// set up DB
	db, err := mongorepos.Open(core.Conf)
	errAndDie(err)
	defer func() {
		errAndDie(db.Client().Disconnect(context.Background()))
	}()

	// start CLI
	cli := commandLine{
		db:     db,
		usrSvc: user.NewService(mongorepos.NewUserRepository(db), emailsvc.NewConsoleService()),
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
