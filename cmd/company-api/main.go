// Command company-api serves the company and employee REST API.
//
// Configuration is read from COMPANYAPI_* environment variables (a .env file
// in the working directory is loaded first). The schema is migrated on
// startup, then the HTTP server runs until SIGINT or SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deppfellow/company-api/internal/config"
	"github.com/deppfellow/company-api/internal/database"
	"github.com/deppfellow/company-api/internal/handler"
	"github.com/deppfellow/company-api/internal/logger"
	"github.com/deppfellow/company-api/internal/repository"
	"github.com/deppfellow/company-api/internal/router"
	"github.com/deppfellow/company-api/internal/server"
	"github.com/deppfellow/company-api/internal/service"
)

// DefaultContextTimeout bounds startup migrations and graceful shutdown.
const DefaultContextTimeout = 30 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	loggerService := logger.NewLoggerService(cfg.Observability)
	defer loggerService.Shutdown()

	log := logger.NewLoggerWithService(cfg.Observability, loggerService)

	migrateCtx, cancel := context.WithTimeout(context.Background(), DefaultContextTimeout)
	err = database.Migrate(migrateCtx, &log, cfg)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	srv, err := server.New(cfg, &log, loggerService)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize server")
	}

	repos := repository.NewRepositories(srv)

	services, err := service.NewServices(srv, repos)
	if err != nil {
		log.Fatal().Err(err).Msg("could not create services")
	}

	if srv.Job != nil {
		srv.Job.InitHandlers(services.Company)
		if err := srv.Job.Start(); err != nil {
			log.Fatal().Err(err).Msg("failed to start background jobs")
		}
	}

	handlers := handler.NewHandlers(srv, services)
	r := router.NewRouter(srv, handlers)

	srv.SetupHTTPServer(r)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultContextTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
