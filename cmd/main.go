package main

import (
	"context"
	"errors"
	"flag"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"homenest/internal/auth"
	"homenest/internal/config"
	"homenest/internal/logger"
	"homenest/internal/repositories"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Debugf("no .env file loaded: %v", err)
	}

	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to a YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logrus.Fatal(err)
	}
	if err := logger.Init(cfg.LogLevel); err != nil {
		logrus.Fatalf("log level: %v", err)
	}
	log := logger.Default()

	client, err := openDB(cfg.Database.URL, cfg.Database.Timeout)
	if err != nil {
		log.Fatal(err)
	}
	log.WithField("database", cfg.Database.Name).Info("connected to MongoDB")

	verifier, err := newVerifier(context.Background(), cfg)
	if err != nil {
		log.Fatal(err)
	}

	store := repositories.NewPropertyRepository(client.Database(cfg.Database.Name), cfg.Database.Collection, cfg.Database.Timeout)
	app := initializeApp(cfg, store, verifier, clock.New())

	errorLog := log.WriterLevel(logrus.ErrorLevel)
	defer errorLog.Close()

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		ErrorLog:     stdlog.New(errorLog, "", 0),
		Handler:      newCORS(cfg).Handler(app.routes()),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10*time.Second + cfg.Database.Timeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Infof("Starting server on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown")
	}
	if err := client.Disconnect(shutdownCtx); err != nil {
		log.WithError(err).Error("mongo disconnect")
	}
}

func openDB(uri string, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

func newVerifier(ctx context.Context, cfg config.Config) (auth.Verifier, error) {
	switch cfg.Auth.Provider {
	case config.ProviderJWT:
		logger.Default().Warn("using shared-secret JWT verification; do not run this in production")
		return auth.NewJWTVerifier(cfg.Auth.JWTSecret)
	default:
		credentials, err := cfg.ServiceAccountJSON()
		if err != nil {
			return nil, err
		}
		return auth.NewFirebaseVerifier(ctx, credentials)
	}
}
