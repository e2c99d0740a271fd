package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/mediaupload/internal/assets"
	"github.com/dmitrijs2005/mediaupload/internal/client/client"
	"github.com/dmitrijs2005/mediaupload/internal/client/transport"
	"github.com/dmitrijs2005/mediaupload/internal/client/uploader"
	"github.com/dmitrijs2005/mediaupload/internal/logging"
	"github.com/dmitrijs2005/mediaupload/internal/reconciler"
	"github.com/dmitrijs2005/mediaupload/internal/reconciler/config"
	"github.com/dmitrijs2005/mediaupload/internal/server/repositories/repomanager"
)

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	logger := logging.NewJSONLogger(os.Stderr, slog.LevelInfo)

	db, err := repomanager.OpenPostgres(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	defer db.Close()

	opts := []reconciler.Option{
		reconciler.WithBatchLimit(cfg.BatchLimit),
		reconciler.WithLogger(logger),
	}

	if cfg.BackendURL != "" {
		api := client.NewHTTPClient(cfg.BackendURL)
		defer api.Close()
		if err := api.Login(ctx, cfg.Username, []byte(cfg.Password)); err != nil {
			log.Fatalf("backend login: %v", err)
		}
		u := uploader.New(transport.Chain(api, transport.ChainConfig{
			UploadURL:    cfg.UploadURL,
			UploadPreset: cfg.UploadPreset,
			Timeout:      cfg.RequestTimeout,
		}), uploader.WithLogger(logger))
		opts = append(opts, reconciler.WithUploader(u))
	}

	rec := reconciler.New(
		repomanager.NewPostgresRepositoryManager().Products(db),
		assets.Recognizer{
			CloudName:             cfg.CloudName,
			DeliveryHost:          cfg.DeliveryHost,
			OriginBaseURL:         cfg.OriginBaseURL,
			PreviewTransformation: cfg.PreviewTransformation,
		},
		opts...,
	)

	if err := rec.Execute(ctx, reconciler.Mode(cfg.Mode), cfg.RecordID, os.Stdout); err != nil {
		if !errors.Is(err, reconciler.ErrIncomplete) {
			logger.Error(ctx, "reconciler failed", "error", err)
		}
		db.Close()
		os.Exit(1)
	}

}
