package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"edu-arcade/internal/api"
	"edu-arcade/internal/config"
	"edu-arcade/internal/game"
	"edu-arcade/internal/render"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file from parent directory
	if err := godotenv.Load("../.env"); err != nil {
		// Try current directory as fallback
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("🎮 ================================")
	log.Println("🎮  EDU ARCADE - GAME SERVER")
	log.Println("🎮 ================================")

	appConfig := config.Load()
	serverCfg := appConfig.Server

	data, err := config.LoadGameData(appConfig.Paths)
	if err != nil {
		log.Fatalf("❌ Failed to load game data: %v", err)
	}

	atlas, err := render.LoadAtlas(appConfig.Paths.AssetManifest)
	if err != nil {
		log.Fatalf("❌ Failed to load asset manifest: %v", err)
	}
	log.Printf("🖼️ Asset manifest %q: %d textures, %d animations", atlas.Name, len(atlas.Textures), len(atlas.Animations))

	fonts, err := render.LoadFonts(appConfig.Paths.Font)
	if err != nil {
		log.Printf("⚠️ Frame text uses the built-in face: %v", err)
	} else {
		log.Printf("✅ Fonts loaded from: %s", fonts.Path)
	}

	// Start event log
	events := game.NewEventLog()
	if err := events.Start(appConfig.Paths.EventLog); err != nil {
		log.Printf("⚠️ Event log disabled: %v", err)
	} else if appConfig.Paths.EventLog != "" {
		log.Printf("📝 Event log: %s", appConfig.Paths.EventLog)
	}

	// Start debug server
	if os.Getenv("DISABLE_DEBUG_SERVER") != "true" {
		if err := api.StartDebugServer(api.ObservabilityFromPort(serverCfg.DebugPort)); err != nil {
			log.Printf("⚠️ Debug server disabled: %v", err)
		}
	}

	backend := render.NewSpriteBackend(atlas)
	engine := game.NewEngine(appConfig.Engine.GameEngine(data, backend), events, &api.PromObserver{})
	log.Printf("🎮 Engine: %d TPS, up to %d games", engine.TickRate(), appConfig.Engine.MaxSessions)

	if serverCfg.TokenSecret == "" {
		log.Println("⚠️ GAME_TOKEN_SECRET not set - control tokens are valid for this process only")
	}

	server := api.NewServer(engine, api.ServerConfig{
		TokenSecret: serverCfg.TokenSecret,
		CORSOrigins: serverCfg.AllowOrigins,
		Limits: api.ClientLimits{
			RequestsPerSecond: serverCfg.RateLimit,
			Burst:             serverCfg.RateBurst,
		},
		Frames: render.NewRenderer(atlas, fonts),
	})

	// Start API server in goroutine
	go func() {
		addr := ":" + strconv.Itoa(serverCfg.Port)
		if err := server.Start(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️ HTTP shutdown: %v", err)
	}
	engine.Close()
	events.Stop()
	log.Println("👋 Goodbye!")
}
