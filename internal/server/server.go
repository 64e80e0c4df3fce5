// Package server exposes the Sanctuary dashboard backend over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"sanctuary/internal/logging"
	"sanctuary/internal/mindmap"
	"sanctuary/internal/sections"
	"sanctuary/internal/seo"
	"sanctuary/internal/simulator"
	"sanctuary/internal/sphere"
	"sanctuary/internal/usage"
	"sanctuary/internal/weights"
)

// SEOAnalyzer runs SEO analyses.
type SEOAnalyzer interface {
	Analyze(ctx context.Context, content string) (*seo.Report, error)
}

// MindMapGenerator builds mind maps.
type MindMapGenerator interface {
	Generate(ctx context.Context, content string) (*mindmap.Node, error)
}

// StatusSource reports document store health.
type StatusSource interface {
	Ping(ctx context.Context) error
	CountDocuments(ctx context.Context) (int, error)
	VectorExtension() bool
}

// UsageSource reports model token usage.
type UsageSource interface {
	Stats() usage.Stats
}

// Options configures a Server. SEO, MindMap and Weights are required.
type Options struct {
	Addr            string
	Mode            string // gin mode; empty keeps the current one
	AllowedOrigins  []string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64

	SEO     SEOAnalyzer
	MindMap MindMapGenerator
	Weights *weights.Registry
	Status  StatusSource
	Backend *simulator.MockBackend
	Market  *sphere.MarketData
	Usage   UsageSource
	// Chat and Assistant are optional; their routes answer 503 without them.
	Chat      ChatService
	Assistant ContentAssistant
	Rand      *rand.Rand
	Model     string // generative model name reported by /api/status
}

// Server is the REST API.
type Server struct {
	opts    Options
	engine  *gin.Engine
	started time.Time

	marketMu sync.RWMutex
	market   *sphere.MarketData

	randMu sync.Mutex
	rng    *rand.Rand

	sections *sections.Selector
}

// New builds the router.
func New(opts Options) (*Server, error) {
	if opts.SEO == nil || opts.MindMap == nil || opts.Weights == nil {
		return nil, errors.New("server: SEO, MindMap and Weights are required")
	}
	if opts.Market == nil {
		opts.Market = sphere.DefaultMarketData()
	}
	if err := opts.Market.Validate(); err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	if opts.Backend == nil {
		opts.Backend = simulator.NewMockBackend(simulator.DefaultLatency)
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}

	s := &Server{
		opts:     opts,
		started:  time.Now(),
		market:   opts.Market,
		rng:      opts.Rand,
		sections: sections.NewSelector(),
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestID(), crossOrigin(opts.AllowedOrigins), maxBody(opts.MaxBodyBytes))
	s.attach(r.Group("/api"))
	s.engine = r
	return s, nil
}

func (s *Server) attach(api *gin.RouterGroup) {
	api.GET("/status", s.getStatus)
	api.GET("/sections", s.getSections)
	api.POST("/sections/active", s.postActiveSection)

	api.POST("/analisar-seo", s.postSEO)
	api.POST("/gerar-mapa-mental", s.postMindMap)
	api.POST("/analisar-video", s.postVideo)
	api.POST("/gerar-ideias-video", s.postVideoIdeas)

	api.POST("/salvar-logica", s.postWeights)
	api.GET("/carregar-logica", s.getWeights)

	api.GET("/market-sphere", s.getMarketSphere)
	api.PUT("/market-sphere", s.putMarketSphere)
	api.POST("/market-sphere/pick", s.postPick)

	api.POST("/simular-codigo", s.postSimulate)
	api.POST("/control-zone/request", s.postBackendRequest)

	api.POST("/chat", s.postChat)
	api.GET("/chat/historico", s.getChatHistory)
	api.POST("/chat/feedback", s.postChatFeedback)

	api.POST("/gerar-conteudo", s.postContent)
	api.POST("/planejar-workflow", s.postWorkflow)
	api.POST("/analisar-dados", s.postAnalyzeData)
	api.POST("/preparar-llm", s.postPrepareLLM)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.engine,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	logging.Get(logging.CategoryHTTP).Info("Listening on %s", ln.Addr())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	logging.Get(logging.CategoryHTTP).Info("Shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) currentMarket() *sphere.MarketData {
	s.marketMu.RLock()
	defer s.marketMu.RUnlock()
	return s.market
}
