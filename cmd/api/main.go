package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"medvault.org/internal/ai"
	"medvault.org/internal/audit"
	"medvault.org/internal/auth"
	"medvault.org/internal/config"
	"medvault.org/internal/emergency"
	"medvault.org/internal/httpapi"
	"medvault.org/internal/obs"
	"medvault.org/internal/records"
	"medvault.org/internal/token"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		obs.Init("info", "json")
		logger := obs.Logger()
		logger.Fatal().Err(err).Msg("load config")
	}

	obs.Init(cfg.LogLevel, cfg.LogFormat)
	obs.InitMetrics()
	obs.InitBuildInfo(version, commit)
	log := obs.Logger()

	if cfg.DatabaseDSN == "" {
		log.Fatal().Msg("MEDVAULT_PG_DSN is required")
	}
	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("open db")
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	codec, err := token.NewCodec(cfg.TokenSecret, token.WithIssuer(cfg.TokenIssuer))
	if err != nil {
		log.Fatal().Err(err).Msg("build token codec")
	}

	sink := audit.NewLogSink()
	authSvc := auth.NewService(auth.NewPGStore(db))
	recSvc := records.NewService(records.NewPGStore(db))
	engine := emergency.NewEngine(emergency.NewPGStore(db), recSvc, recSvc, sink)
	aiClient := ai.NewClient(cfg.AIBaseURL, ai.NewPGStore(db), ai.WithTimeout(cfg.AITimeout))

	api := httpapi.New(httpapi.Config{
		Auth:     authSvc,
		Codec:    codec,
		Engine:   engine,
		Records:  recSvc,
		AI:       aiClient,
		Sink:     sink,
		Probe:    httpapi.ReadyProbe{DB: db},
		Version:  version,
		TokenTTL: cfg.TokenTTL,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Info().Str("version", version).Str("addr", srv.Addr).Msg("starting medvault-api")

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	_ = db.Close()
	log.Info().Msg("stopped")
}
