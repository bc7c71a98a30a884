// In file: cmd/gateway/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aquataze/tool-gateway/internal/credential"
	"github.com/aquataze/tool-gateway/internal/dbconn"
	"github.com/aquataze/tool-gateway/internal/geoip"
	"github.com/aquataze/tool-gateway/internal/tools"
	"github.com/aquataze/tool-gateway/internal/upload"
	"github.com/aquataze/tool-gateway/internal/version"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// main is the entry point for the application.
// Its primary role is the "Composition Root": it loads configuration,
// initializes all services, injects dependencies, and starts the server.
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	buildInfo := version.Get()
	log.Printf("🚀 Starting Tool Gateway | Version: %s | Commit: %s", buildInfo.Version, buildInfo.GitCommit)

	// 1. LOAD CONFIGURATION
	cfg, err := LoadConfig(envOr("CONFIG_FILE", "config.yaml"))
	if err != nil {
		log.Fatalf("❌ FATAL: Configuration Error: %v", err)
	}
	log.Println("✅ Configuration loaded.")

	// 2. INITIALIZE SERVICES
	// The connector is lazy: nothing dials the database until the first
	// Database-backed token read or IP lookup.
	connector := dbconn.NewConnector(cfg.DatabaseDSN,
		dbconn.WithMaxAttempts(cfg.File.Database.MaxAttempts),
		dbconn.WithRetryStep(cfg.File.Database.RetryStep),
	)
	defer connector.Close()

	if cfg.AutoMigrate {
		if err := migrate(connector); err != nil {
			log.Fatalf("❌ FATAL: %v", err)
		}
	}

	checks := map[string]Pinger{
		"database": PingFunc(func(ctx context.Context) error {
			db, err := connector.Connect(ctx)
			if err != nil {
				return err
			}
			return db.PingContext(ctx)
		}),
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Fatalf("❌ FATAL: Could not connect to Redis: %v", err)
		}
		defer rdb.Close()
		checks["redis"] = PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	tokenManager := initializeTokenManager(cfg, connector, rdb)
	toolManager := initializeToolManager(cfg, connector, tokenManager)

	gatewayHandler := NewGatewayHandler(toolManager, cfg.File.Batch.MaxItems, checks)
	log.Println("✅ All services initialized.")

	// 3. SETUP AND RUN THE WEB SERVER
	gin.SetMode(cfg.GinMode)
	engine := gin.Default()
	registerRoutes(engine, gatewayHandler)

	srv := &http.Server{Addr: fmt.Sprintf(":%s", cfg.Port), Handler: engine}
	runServerWithGracefulShutdown(srv)
}

// initializeTokenManager registers one store per available backend. Memory and
// Disk are always available; Redis only when REDIS_ADDR is set.
func initializeTokenManager(cfg *AppConfig, connector *dbconn.Connector, rdb *redis.Client) *credential.Manager {
	issuer := credential.NewIssuer(cfg.File.Issuer.URL, cfg.APIKey1, cfg.APIKey2)
	opts := []credential.ManagerOption{
		credential.WithStore(credential.Memory, credential.NewMemoryStore()),
		credential.WithStore(credential.Disk, credential.NewDiskStore(cfg.TokenFilePath)),
		credential.WithStore(credential.Database, credential.NewDatabaseStore(connector)),
		credential.WithRefreshBuffer(cfg.File.Token.RefreshBuffer),
	}
	if rdb != nil {
		opts = append(opts, credential.WithStore(credential.Redis, credential.NewRedisStore(rdb)))
	}

	manager := credential.NewManager(issuer, opts...)
	log.Printf("✅ Token manager initialized with backends %v (uploads use %s).", manager.Backends(), cfg.TokenBackend)
	return manager
}

// initializeToolManager creates and registers all available tools.
func initializeToolManager(cfg *AppConfig, connector *dbconn.Connector, tokens upload.TokenSource) *tools.ToolManager {
	manager := tools.NewToolManager()

	geo := geoip.NewCache(
		geoip.NewPostgresRepository(connector),
		geoip.NewClient(cfg.File.GeoIP.URL, cfg.File.GeoIP.Timeout),
	)
	manager.Register(tools.NewIPLookupTool(geo))

	uploader, err := upload.NewClient(cfg.File.Upload.URL, tokens, cfg.TokenBackend, cfg.File.Upload.Timeout)
	if err != nil {
		log.Fatalf("❌ FATAL: %v", err)
	}
	manager.Register(tools.NewScreenshotTool(cfg.File.Render.URL, uploader, cfg.File.Render.Timeout))
	if cfg.File.Render.URL == "" {
		log.Println("WARNING: render.url is not set, screenshot calls will fail.")
	}

	manager.Register(tools.NewWeatherTool(cfg.File.Weather.URL, cfg.File.Weather.Timeout))

	log.Printf("✅ Tool Manager initialized with %d tools.", manager.ToolCount())
	return manager
}

func migrate(connector *dbconn.Connector) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := connector.Connect(ctx)
	if err != nil {
		return fmt.Errorf("could not connect for migrations: %w", err)
	}
	if err := dbconn.Migrate(ctx, db); err != nil {
		return err
	}
	log.Println("✅ Database migrations applied.")
	return nil
}

// runServerWithGracefulShutdown handles the server lifecycle.
func runServerWithGracefulShutdown(srv *http.Server) {
	go func() {
		log.Printf("👂 Gateway is listening on http://localhost%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Listen error: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("❌ Server shutdown failed:", err)
	}

	log.Println("👋 Server exited gracefully.")
}
