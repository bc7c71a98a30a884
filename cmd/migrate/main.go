// In file: cmd/migrate/main.go

// Package main applies the gateway's embedded database migrations. It is an
// offline command meant to run once per deploy, before the gateway starts:
//
//	DATABASE_DSN=postgres://... go run ./cmd/migrate
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aquataze/tool-gateway/internal/dbconn"
	"github.com/aquataze/tool-gateway/internal/version"

	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("🚀 Starting migrations | Version: %s", version.Get().Version)

	if err := godotenv.Load(".env"); err != nil {
		log.Println("Warning: .env file not found. Relying on environment variables.")
	}

	if err := run(context.Background(), os.Getenv("DATABASE_DSN")); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	log.Println("✅ Migrations complete.")
}

func run(ctx context.Context, dsn string) error {
	if dsn == "" {
		return fmt.Errorf("DATABASE_DSN environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	connector := dbconn.NewConnector(dsn)
	defer connector.Close()

	db, err := connector.Connect(ctx)
	if err != nil {
		return err
	}
	return dbconn.Migrate(ctx, db)
}
