package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"sanctuary/internal/chat"
	"sanctuary/internal/config"
	"sanctuary/internal/embedding"
	"sanctuary/internal/logging"
	"sanctuary/internal/store"
	"sanctuary/internal/weights"
)

// app holds the components shared by the commands.
type app struct {
	ws       string
	cfg      *config.Config
	store    *store.Store
	registry *weights.Registry
	closers  []func()
}

func resolveWorkspace() (string, error) {
	if workspace != "" {
		return filepath.Abs(workspace)
	}
	return os.Getwd()
}

// loadConfig reads the dotenv file and the YAML config of the workspace and
// starts the file loggers.
func loadConfig() (*config.Config, string, error) {
	ws, err := resolveWorkspace()
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve workspace: %w", err)
	}

	env := envFile
	if env == "" {
		env = filepath.Join(ws, config.DefaultEnvFile)
	}
	loaded, err := config.LoadEnvFile(env)
	if err != nil {
		return nil, "", err
	}
	if loaded {
		logger.Debug("Loaded env file", zap.String("path", env))
	}

	path := configPath
	if path == "" {
		path = filepath.Join(ws, ".sanctuary", "config.yaml")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid config: %w", err)
	}

	if err := logging.Initialize(ws); err != nil {
		logger.Warn("File logging disabled", zap.Error(err))
	}
	if err := logging.InitAudit(); err != nil {
		logger.Warn("Audit logging disabled", zap.Error(err))
	}
	logging.Boot("Config %s loaded (env file loaded: %v)", path, loaded)
	return cfg, ws, nil
}

// openApp loads the config and opens the document store and the weights
// backend. withWeights=false skips the weights backend.
func openApp(ctx context.Context, withWeights bool) (*app, error) {
	cfg, ws, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a := &app{ws: ws, cfg: cfg}

	engine, err := embedding.NewEngine(embedding.Config{
		Provider:    cfg.Embedding.Provider,
		Dimensions:  cfg.Embedding.Dimensions,
		GenAIAPIKey: cfg.Embedding.GenAIAPIKey,
		GenAIModel:  cfg.Embedding.GenAIModel,
		TaskType:    cfg.Embedding.TaskType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding engine: %w", err)
	}

	dbPath := cfg.Store.DatabasePath
	if dbPath != ":memory:" && !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(ws, dbPath)
	}
	st, err := store.Open(dbPath, engine)
	if err != nil {
		return nil, err
	}
	a.store = st
	a.closers = append(a.closers, func() { _ = st.Close() })
	logger.Info("Document store open",
		zap.String("path", dbPath),
		zap.String("engine", engine.Name()),
		zap.Bool("sqlite_vec", st.VectorExtension()))

	if withWeights {
		backend, err := a.openWeights(ctx)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.registry = weights.NewRegistry(backend)
	}
	return a, nil
}

func (a *app) openWeights(ctx context.Context) (weights.Store, error) {
	switch a.cfg.Weights.Backend {
	case "mongo":
		cctx, cancel := context.WithTimeout(ctx, a.cfg.GetWeightsTimeout())
		defer cancel()
		ms, err := weights.NewMongoStore(cctx, a.cfg.Weights.MongoURI, a.cfg.Weights.Database, a.cfg.Weights.Collection)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() {
			dctx, cancel := context.WithTimeout(context.Background(), a.cfg.GetWeightsTimeout())
			defer cancel()
			_ = ms.Close(dctx)
		})
		logger.Info("Weights backend: mongo", zap.String("database", a.cfg.Weights.Database))
		return ms, nil
	default:
		logger.Info("Weights backend: sqlite")
		return weights.NewSQLiteStore(a.store), nil
	}
}

func (a *app) openChatHistory(ctx context.Context) (chat.History, error) {
	switch a.cfg.Chat.Backend {
	case "mongo":
		cctx, cancel := context.WithTimeout(ctx, a.cfg.GetWeightsTimeout())
		defer cancel()
		mh, err := chat.NewMongoHistory(cctx, a.cfg.Weights.MongoURI, a.cfg.Weights.Database)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() {
			dctx, cancel := context.WithTimeout(context.Background(), a.cfg.GetWeightsTimeout())
			defer cancel()
			_ = mh.Close(dctx)
		})
		logger.Info("Chat history: mongo", zap.String("database", a.cfg.Weights.Database))
		return mh, nil
	default:
		logger.Info("Chat history: sqlite")
		return chat.NewSQLiteHistory(a.store), nil
	}
}

// Close releases everything opened by openApp, newest first.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
	logging.CloseAudit()
	logging.CloseAll()
}
