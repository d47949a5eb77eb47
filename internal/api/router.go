package api

import (
	"net/http"
	"time"

	"edu-arcade/internal/game"
	"edu-arcade/internal/render"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// EngineInterface defines the engine methods used by the API.
// Keep this minimal - only include methods the API layer actually calls.
type EngineInterface interface {
	StartGame(containerID string, dims game.Dimensions, opts game.Options) (*game.Session, error)
	Session(containerID string) (*game.Session, error)
	Sessions() []*game.Session
	Destroy(containerID string) error
	Leaderboard(mode game.Mode) *game.Leaderboard
	Stats() game.EngineStats
	Events() *game.EventLog
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
//
// Example usage in tests:
//
//	engine := game.NewEngine(game.EngineConfig{TickRate: 1}, nil, nil)
//	router := api.NewRouter(api.RouterConfig{
//	    Engine: engine,
//	    Limiter: api.NewClientLimiter(api.ClientLimits{RequestsPerSecond: 1000, Burst: 1000}),
//	    DisableLogging: true,
//	})
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Engine hosts the games (required)
	Engine EngineInterface

	// Tokens signs control tokens. If nil, a random secret is used.
	Tokens *GameTokens

	// Limiter budgets requests per client. If nil, DefaultClientLimits apply.
	Limiter *ClientLimiter

	// CORSOrigins is an optional list of allowed CORS origins.
	// If nil, only localhost hosts are allowed.
	CORSOrigins []string

	// Frames renders PNG frames of a game. Nil disables the frame endpoint.
	Frames *render.Renderer

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool
}

// DefaultCORSOrigins allow a host app served from localhost on any port
var DefaultCORSOrigins = []string{
	"http://localhost:*",
	"http://127.0.0.1:*",
}

// routerHandlers holds the handler functions for the router.
type routerHandlers struct {
	engine EngineInterface
	tokens *GameTokens
	limits *ClientLimiter
	frames *render.Renderer
}

// NewRouter constructs the HTTP router with all middleware and routes.
// It opens no listeners and starts no goroutines.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware - Order matters!
	r.Use(middleware.RequestID)
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	// Rate limiting (BEFORE CORS to reject early and save CPU)
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = NewClientLimiter(DefaultClientLimits)
	}
	r.Use(limiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = DefaultCORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", GameTokenHeader},
		MaxAge:         300,
	}))

	tokens := cfg.Tokens
	if tokens == nil {
		tokens = NewGameTokens("")
	}

	h := &routerHandlers{
		engine: cfg.Engine,
		tokens: tokens,
		limits: limiter,
		frames: cfg.Frames,
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", h.handleGetStats)
		r.Get("/leaderboard/{mode}", h.handleGetLeaderboard)
		r.Get("/leaderboard/{mode}/{player}", h.handleGetPlayerRank)

		r.Get("/games", h.handleListGames)
		r.Post("/games", h.handleStartGame)

		r.Route("/games/{containerID}", func(r chi.Router) {
			r.Get("/", h.handleGetGame)
			r.Get("/events", h.handleGetEvents)
			if h.frames != nil {
				r.Get("/frame.png", h.handleGetFrame)
			}

			// Control requires the token issued by StartGame
			r.Group(func(r chi.Router) {
				r.Use(tokens.RequireGameToken)
				r.Post("/input", h.handleInput)
				r.Post("/resize", h.handleResize)
				r.Post("/restart", h.handleRestart)
				r.Delete("/", h.handleDestroy)
			})
		})
	})

	return r
}

// metricsMiddleware records latency by route pattern
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				endpoint = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RecordRequest(r.Method, endpoint, status, time.Since(start))
	})
}
