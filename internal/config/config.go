// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for server, engine and host settings.
//
// Game tuning lives in YAML (see tuning.go); everything here is process level
// and can be overridden from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
)

// =============================================================================
// ENGINE CONFIGURATION
// =============================================================================

// EngineConfig holds the simulation settings shared by every game.
type EngineConfig struct {
	TickRate    int // Simulation ticks per second
	MaxSessions int // Hard cap on concurrently mounted games
	InputQueue  int // Buffered commands per game
	InputRate   float64
	InputBurst  int
}

// DefaultEngine returns the default engine configuration.
func DefaultEngine() EngineConfig {
	return EngineConfig{
		TickRate:    60,
		MaxSessions: 64,
		InputQueue:  64,
		InputRate:   30,
		InputBurst:  10,
	}
}

// EngineFromEnv returns engine configuration with environment variable overrides.
func EngineFromEnv() EngineConfig {
	cfg := DefaultEngine()

	if tr := getEnvInt("TICK_RATE", 0); tr > 0 {
		cfg.TickRate = tr
	}
	if ms := getEnvInt("MAX_SESSIONS", 0); ms > 0 {
		cfg.MaxSessions = ms
	}
	if q := getEnvInt("INPUT_QUEUE", 0); q > 0 {
		cfg.InputQueue = q
	}
	if r := getEnvFloat("INPUT_RATE", 0); r > 0 {
		cfg.InputRate = r
	}

	return cfg
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int
	DebugPort    int      // pprof and /metrics, bound to localhost; 0 disables
	AllowOrigins []string // CORS origins of the host app
	RateLimit    float64  // API requests per second per client
	RateBurst    int
	TokenSecret  string // HMAC key for game control tokens; empty picks a random one per process
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:         3000,
		DebugPort:    6060,
		AllowOrigins: []string{"http://localhost:4200", "http://localhost:3000"},
		RateLimit:    20,
		RateBurst:    40,
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if v := os.Getenv("DEBUG_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p >= 0 {
			cfg.DebugPort = p
		}
	}
	if origins := getEnvList("CORS_ORIGINS"); len(origins) > 0 {
		cfg.AllowOrigins = origins
	}
	if r := getEnvFloat("API_RATE_LIMIT", 0); r > 0 {
		cfg.RateLimit = r
	}
	cfg.TokenSecret = os.Getenv("GAME_TOKEN_SECRET")

	return cfg
}

// =============================================================================
// FILE LOCATIONS
// =============================================================================

// PathsConfig points at the optional data files. Empty paths fall back to the
// built-in defaults.
type PathsConfig struct {
	EventLog      string // NDJSON gameplay event log; empty keeps events in memory
	Tuning        string // YAML game tuning per mode
	QuestionBank  string // YAML question bank for quiz games
	AssetManifest string // YAML sprite atlas for the frame renderer
	Font          string // TTF for frame text; empty searches system fonts
}

// PathsFromEnv returns file locations from the environment.
func PathsFromEnv() PathsConfig {
	return PathsConfig{
		EventLog:      os.Getenv("EVENT_LOG_PATH"),
		Tuning:        os.Getenv("TUNING_PATH"),
		QuestionBank:  os.Getenv("QUESTION_BANK_PATH"),
		AssetManifest: os.Getenv("ASSET_MANIFEST_PATH"),
		Font:          os.Getenv("FONT_PATH"),
	}
}

// =============================================================================
// SSH HOST CONFIGURATION
// =============================================================================

// SSHConfig holds the terminal host settings.
type SSHConfig struct {
	Host    string
	Port    int
	HostKey string // path of the server key, generated when missing
}

// DefaultSSH returns the default SSH host configuration.
func DefaultSSH() SSHConfig {
	return SSHConfig{
		Host:    "0.0.0.0",
		Port:    23234,
		HostKey: ".ssh/id_ed25519",
	}
}

// SSHFromEnv returns SSH configuration with environment variable overrides.
func SSHFromEnv() SSHConfig {
	cfg := DefaultSSH()

	if h := os.Getenv("SSH_HOST"); h != "" {
		cfg.Host = h
	}
	if p := getEnvInt("SSH_PORT", 0); p > 0 {
		cfg.Port = p
	}
	if k := os.Getenv("SSH_HOST_KEY"); k != "" {
		cfg.HostKey = k
	}

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Engine EngineConfig
	Server ServerConfig
	Paths  PathsConfig
	SSH    SSHConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Engine: EngineFromEnv(),
		Server: ServerFromEnv(),
		Paths:  PathsFromEnv(),
		SSH:    SSHFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
