package main

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/lucafab/magazzino/catalog"
	"github.com/lucafab/magazzino/internal/config"
	"github.com/lucafab/magazzino/session"
	"github.com/lucafab/magazzino/session/filerepo"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("magazzino exited with error")
	}
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	cfg := config.New()
	displayAppname(cfg.GetAppName())

	app := newApp(cfg)
	return app.Run(os.Args)
}

func newApp(cfg config.Config) *cli.App {
	return &cli.App{
		Name:  "magazzino",
		Usage: "inventory client: scan barcodes, import invoices, export spreadsheets",
		Commands: []*cli.Command{
			loginCommand(cfg),
			logoutCommand(cfg),
			whoamiCommand(cfg),
			productsCommand(cfg),
			scanCommand(cfg),
			invoiceCommand(cfg),
		},
	}
}

// gatewayClient builds the catalog client from config.
func gatewayClient(cfg config.Config) *catalog.Client {
	return catalog.NewClient(cfg.GetGatewayBaseURL(), catalog.WithTimeout(config.RequestTimeout(cfg)))
}

// restoredStore builds the session store and resolves its loading state
// before anything gated runs.
func restoredStore(cfg config.Config) (*session.Store, error) {
	store, err := session.NewStore(filerepo.New(cfg.GetDataFolder()))
	if err != nil {
		return nil, err
	}
	store.Restore()
	return store, nil
}

// requireSession is the command-level gate: no active session means the
// user is told to log in, the request is never dispatched.
func requireSession(cfg config.Config) (*session.Store, *session.Session, error) {
	store, err := restoredStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	sess, err := store.Current()
	if err != nil {
		return nil, nil, cli.Exit("effettua il login per accedere all'applicazione (magazzino login)", 1)
	}
	return store, sess, nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
