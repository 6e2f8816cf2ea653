package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof" // register the /debug/pprof handlers

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	container "github.com/trezcool/crewdesk/apps/api/di/dig"
	echoapi "github.com/trezcool/crewdesk/apps/api/echo"
	"github.com/trezcool/crewdesk/core"
)

func main() {
	c := container.New()

	must(c.Invoke(func(
		conf *core.Config,
		logger core.Logger,
		dbLoggerParam container.DBLoggerParam,
		db *sqlx.DB,
		server *echoapi.Server,
	) {
		logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
		core.ParseEmailTemplates(logger)

		defer func() {
			if err := db.Close(); err != nil {
				dbLoggerParam.Logger.Error("Failed to close", err)
			}
		}()
		defer logger.Info("Application stopped")

		if err := run(conf, logger, server); err != nil {
			logger.Error(fmt.Sprintf("application error: %v", err), err)
		}
	}))
}

// run serves the API and the debug endpoints until a signal or a server failure, then
// shuts both down within conf.Server.ShutdownTimeout.
func run(conf *core.Config, logger core.Logger, server *echoapi.Server) error {
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	debug := &http.Server{Addr: conf.Server.DebugHost, Handler: http.DefaultServeMux}

	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		if err := debug.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, "debug server")
		}
		return nil
	})

	g.Go(func() error {
		server.Start()
		return nil
	})

	g.Go(func() error {
		var runErr error
		select {
		case err := <-server.Errors():
			runErr = errors.Wrap(err, "api server")
		case sig := <-server.ShutdownSignal():
			logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))
		case <-ctx.Done():
			logger.Info("Start shutdown...")
		}

		// give outstanding requests a deadline for completion
		sctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(sctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
		if err := debug.Shutdown(sctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop debug server: %v", err), err)
		}
		return runErr
	})

	return g.Wait()
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
