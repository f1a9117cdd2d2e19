package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	config "github.com/voxnote/backend/config/notes"
	"github.com/voxnote/backend/pkg/gen"
	"github.com/voxnote/backend/pkg/logger"
	"github.com/voxnote/backend/services/notes/capture"
	"github.com/voxnote/backend/services/notes/clients/gemini"
	"github.com/voxnote/backend/services/notes/clients/gladia"
	"github.com/voxnote/backend/services/notes/extract"
	"github.com/voxnote/backend/services/notes/server"
	"github.com/voxnote/backend/services/notes/storage"
	"github.com/voxnote/backend/services/notes/storage/cache"
	mongostore "github.com/voxnote/backend/services/notes/storage/mongo"
	"github.com/voxnote/backend/services/notes/usecase"
)

func main() {
	_ = godotenv.Load()

	log := logger.New(logger.Config{
		Level:      slog.LevelDebug,
		Output:     os.Stderr,
		AddSource:  true,
		JSONFormat: false,
	})
	logger.SetDefault(log)

	cfg := config.MustLoad()

	ctx := logger.WithContext(context.Background(), log)

	rootCtx, cancel := signal.NotifyContext(ctx, syscall.SIGTERM)
	defer cancel()

	if err := run(rootCtx, cfg, log); err != nil {
		log.Error("failed to run()", slog.String("error", err.Error()))
		return
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	store, err := newNoteStore(ctx, cfg, log)
	if err != nil {
		return err
	}

	fileCache, err := cache.NewFileCache(cfg.CachePath)
	if err != nil {
		return err
	}

	repo := storage.NewRepository(store, fileCache)

	geminiClient := gemini.New(cfg.Gemini.APIKey, cfg.Gemini.URL)
	gladiaClient := gladia.New(cfg.Gladia.APIKey, cfg.Gladia.URL)

	orchestrator := extract.NewOrchestrator(time.Duration(cfg.ProviderTimeout) * time.Second)
	sessions := capture.NewManager(gen.UUID(), log)

	usc := usecase.New(
		orchestrator,
		extract.NewKeyPointProvider(geminiClient),
		extract.NewStructuringProvider(geminiClient),
		gladiaClient,
		repo,
		sessions,
	)

	srv := server.New(cfg, usc, log)
	return srv.Start(ctx)
}

func newNoteStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (storage.NoteStore, error) {
	if cfg.Mongo.URI == "" {
		log.Warn("MONGO_URI not set, using in-memory note store")
		return storage.NewMemoryStore(gen.UUID()), nil
	}

	store, err := mongostore.New(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		return nil, err
	}
	log.Info("connected to mongo", slog.String("database", cfg.Mongo.Database))
	return store, nil
}
