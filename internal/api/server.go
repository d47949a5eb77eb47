package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"edu-arcade/internal/game"
	"edu-arcade/internal/render"

	"github.com/go-chi/chi/v5"
)

// ServerConfig wires the API server
type ServerConfig struct {
	TokenSecret    string
	CORSOrigins    []string
	Limits         ClientLimits     // zero fields take DefaultClientLimits
	Frames         *render.Renderer // nil disables /frame.png
	DisableLogging bool
}

// Server is the HTTP API server with WebSocket support.
// It combines the HTTP router with WebSocket hub for real-time updates.
type Server struct {
	engine     *game.Engine
	router     *chi.Mux
	wsHub      *WebSocketHub
	limiter    *ClientLimiter
	tokens     *GameTokens
	httpServer *http.Server
}

// NewServer creates a new API server.
//
// IMPORTANT: Background workers do NOT start until Start() is called.
func NewServer(engine *game.Engine, cfg ServerConfig) *Server {
	origins := cfg.CORSOrigins
	if origins == nil {
		origins = DefaultCORSOrigins
	}

	s := &Server{
		engine:  engine,
		limiter: NewClientLimiter(cfg.Limits),
		tokens:  NewGameTokens(cfg.TokenSecret),
	}
	s.wsHub = NewWebSocketHub(engine, s.tokens, NewOriginPolicy(origins), s.limiter)

	s.router = NewRouter(RouterConfig{
		Engine:         engine,
		Tokens:         s.tokens,
		Limiter:        s.limiter,
		CORSOrigins:    origins,
		Frames:         cfg.Frames,
		DisableLogging: cfg.DisableLogging,
	})
	s.setupWebSocketRoutes()

	// every session's ready and game-over notifications reach the hub
	engine.SetListener(s.wsHub)

	return s
}

// setupWebSocketRoutes adds the routes that need the hub instance
func (s *Server) setupWebSocketRoutes() {
	s.router.Get("/ws", s.wsHub.HandleWebSocket)
}

// Start runs the hub and serves HTTP until Shutdown.
// Call this method only once.
func (s *Server) Start(addr string) error {
	go s.wsHub.Run()
	s.wsHub.StartBroadcastLoop()

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("🌐 API server starting on %s", addr)
	log.Printf("🎮 Games: http://localhost%s/api/games", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Hub returns the WebSocket hub
func (s *Server) Hub() *WebSocketHub {
	return s.wsHub
}

// Tokens returns the control token signer
func (s *Server) Tokens() *GameTokens {
	return s.tokens
}

// Shutdown stops accepting requests, closes WebSocket clients and stops
// background workers. The engine is left to the caller.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	s.wsHub.Stop()
	return err
}
