package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"

	"github.com/ammar1510/leasehub/internal/api"
	"github.com/ammar1510/leasehub/internal/auth"
	"github.com/ammar1510/leasehub/internal/config"
	"github.com/ammar1510/leasehub/internal/database"
	"github.com/ammar1510/leasehub/internal/logger"
)

var log = logger.New("server")

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
	log.Info("Server exited properly")
}

// run owns every resource the server opens, so its defers always execute
// before main decides the exit code
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return pkgerrors.Wrap(err, "invalid configuration")
	}

	// Configure log to write to both file and console
	if cfg.LogFile != "" {
		logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return pkgerrors.Wrap(err, "failed to open log file")
		}
		defer logFile.Close()

		multiWriter := io.MultiWriter(os.Stdout, logFile)
		logger.SetOutput(multiWriter)
		gin.DefaultWriter = multiWriter
		gin.DefaultErrorWriter = multiWriter
	}
	logger.SetMinLevel(logger.ParseLevel(cfg.LogLevel))
	log.Info("Logging at %s level", cfg.LogLevel)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := database.NewDatabase(ctx, database.DatabaseType(cfg.DBType), cfg.DatabaseURL, cfg.AutoMigrate)
	cancel()
	if err != nil {
		return pkgerrors.Wrap(err, "failed to connect to database")
	}
	defer db.Close()
	log.Info("Connected to %s database successfully", cfg.DBType)

	tokens := auth.NewTokenService([]byte(cfg.JWTSecret), cfg.JWTTTL)

	// Initialize router with default middleware (logger and recovery)
	router := gin.Default()

	if len(cfg.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	api.RegisterRoutes(router, db, tokens, cfg.CookieSecure)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	return serve(server, quit, shutdownTimeout)
}

// serve runs the server until it fails to listen or a signal arrives on
// quit, then shuts it down within timeout. A listen failure is returned
// instead of exiting so the caller's cleanup still runs.
func serve(server *http.Server, quit <-chan os.Signal, timeout time.Duration) error {
	listenErr := make(chan error, 1)
	go func() {
		log.Info("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
		close(listenErr)
	}()

	select {
	case err := <-listenErr:
		if err != nil {
			return pkgerrors.Wrap(err, "failed to start server")
		}
		return nil
	case sig := <-quit:
		log.Info("Shutting down server (%s)...", sig)
	}

	// Give the server a few seconds to finish processing remaining requests
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return pkgerrors.Wrap(err, "server forced to shutdown")
	}
	return nil
}
