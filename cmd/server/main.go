package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/amos-netizen/MotoTrack/internal/config"
	"github.com/amos-netizen/MotoTrack/internal/db"
	"github.com/amos-netizen/MotoTrack/internal/scheduler"
	"github.com/amos-netizen/MotoTrack/internal/server"
)

var migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")

func main() {
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	log := logrus.New()
	if cfg.Env == "production" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	if cfg.Debug {
		log.SetLevel(logrus.DebugLevel)
	}

	conn, err := db.ConnectAndMigrate(cfg.DatabaseDSN)
	if err != nil {
		log.WithError(err).Fatal("database setup failed")
	}
	if *migrateOnlyFlag {
		log.Info("migrations completed")
		return
	}

	app := server.NewApp(conn, cfg, log)

	sweeper := scheduler.New(cfg.SweepInterval, app.Reminders().Sweep, log)
	sweeper.Start(context.Background())
	defer sweeper.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("shutdown incomplete")
	}
}
