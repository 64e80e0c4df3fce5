package main

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sanctuary/internal/assistant"
	"sanctuary/internal/chat"
	"sanctuary/internal/mindmap"
	"sanctuary/internal/perception"
	"sanctuary/internal/seo"
	"sanctuary/internal/server"
	"sanctuary/internal/simulator"
	"sanctuary/internal/sphere"
	"sanctuary/internal/usage"
)

// storeCheckInterval is how often serve pings the document store and
// writes token usage.
const storeCheckInterval = time.Minute

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()
	cfg := a.cfg

	if cfg.Store.SeedOnStart {
		n, err := a.store.SeedDefaults(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info("Seeded document store", zap.Int("documents", n))
		}
	}

	bctx, cancel := context.WithTimeout(ctx, cfg.GetWeightsTimeout())
	a.registry.Bootstrap(bctx)
	cancel()

	tracker, err := usage.NewTracker(filepath.Join(a.ws, ".sanctuary"))
	if err != nil {
		return err
	}
	defer func() {
		if err := tracker.Flush(); err != nil {
			logger.Warn("Failed to write usage", zap.Error(err))
		}
	}()

	// The server starts without a key; model-backed requests then fail individually.
	var (
		llm     perception.LLMClient
		chatLLM perception.ChatClient
		model   string
	)
	tracing, err := perception.NewClient(ctx, cfg.LLM, cfg.GetLLMTimeout(), tracker)
	switch {
	case errors.Is(err, perception.ErrNoAPIKey):
		logger.Warn("No LLM API key configured; mind maps, chat and assistants are disabled")
	case err != nil:
		return err
	default:
		llm = tracing
		chatLLM = tracing
		model = tracing.Model()
	}

	history, err := a.openChatHistory(ctx)
	if err != nil {
		return err
	}

	var market *sphere.MarketData
	dataFile := cfg.Sphere.DataFile
	if dataFile != "" {
		if !filepath.IsAbs(dataFile) {
			dataFile = filepath.Join(a.ws, dataFile)
		}
		if market, err = sphere.LoadMarketData(dataFile); err != nil {
			return err
		}
	}

	srv, err := server.New(server.Options{
		Addr:            cfg.Server.Addr,
		Mode:            cfg.Server.Mode,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		ReadTimeout:     cfg.Server.GetReadTimeout(),
		WriteTimeout:    cfg.Server.GetWriteTimeout(),
		ShutdownTimeout: cfg.Server.GetShutdownTimeout(),
		MaxBodyBytes:    cfg.Server.MaxBodyBytes,
		SEO:             seo.NewAnalyzer(a.store, cfg.Store.TopK),
		MindMap:         mindmap.NewGenerator(llm, a.registry),
		Weights:         a.registry,
		Status:          a.store,
		Backend:         simulator.NewMockBackend(cfg.GetSimulatorLatency()),
		Market:          market,
		Usage:           tracker,
		Chat:            chat.NewService(chatLLM, history, cfg.Chat.HistoryLimit),
		Assistant:       assistant.New(llm),
		Rand:            rand.New(rand.NewSource(time.Now().UnixNano())),
		Model:           model,
	})
	if err != nil {
		return err
	}

	var mw *sphere.Watcher
	if dataFile != "" {
		if mw, err = sphere.NewWatcher(dataFile, srv.SetMarket); err != nil {
			return err
		}
	}

	logger.Info("Starting server",
		zap.String("addr", cfg.Server.Addr),
		zap.String("weights", a.registry.Backend()),
		zap.String("chat", history.Name()),
		zap.String("model", model))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	g.Go(func() error {
		watch(gctx, a, tracker)
		return nil
	})
	if mw != nil {
		g.Go(func() error {
			return mw.Run(gctx)
		})
	}
	err = g.Wait()

	if tracing != nil {
		stats := tracing.Stats()
		logger.Info("LLM usage",
			zap.Int("calls", stats.Calls),
			zap.Int("failures", stats.Failures),
			zap.Duration("total_time", stats.TotalTime))
	}
	logger.Info("Server stopped")
	return err
}

// watch pings the document store and writes token usage until ctx is done.
func watch(ctx context.Context, a *app, tracker *usage.Tracker) {
	t := time.NewTicker(storeCheckInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := a.store.Ping(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("Document store ping failed", zap.Error(err))
			}
			if err := tracker.Flush(); err != nil {
				logger.Warn("Failed to write usage", zap.Error(err))
			}
		}
	}
}
