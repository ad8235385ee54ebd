/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the Team Scheduler server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and parse command-line flags
  2. Open the selected storage backend (flat files or SQLite)
  3. Create API handler with dependencies
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port     HTTP server port (default: 8080)
  -backend  Storage backend: "file" or "sqlite" (default: file)
  -data     Data directory for the file backend (default: ./data)
  -db       SQLite database path for the sqlite backend
            Use ":memory:" for an in-memory database

ENVIRONMENT:
  SCHEDULER_JWT_SECRET   Signing key for session tokens (required outside
                         dev; a random dev key is generated when unset)
  SCHEDULER_ADMIN        Account name promoted to Admin when migrating a
                         legacy data directory without roles

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the backend
  4. Exit

EXAMPLES:
  # Run over a flat-file data directory
  ./server -data="./data"

  # Run over SQLite
  ./server -backend=sqlite -db="./data/scheduler.db"

SEE ALSO:
  - api/server.go: Router configuration
  - store/file: Canonical flat-file backend
  - store/sqlite: SQLite backend
*/
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mkomis20/Team-Scheduler/api"
	"github.com/mkomis20/Team-Scheduler/scheduler"
	"github.com/mkomis20/Team-Scheduler/store/file"
	"github.com/mkomis20/Team-Scheduler/store/sqlite"
)

func main() {
	// .env is optional; flags and real env vars win.
	_ = godotenv.Load()

	port := flag.Int("port", 8080, "HTTP server port")
	backend := flag.String("backend", "file", `storage backend: "file" or "sqlite"`)
	dataDir := flag.String("data", "./data", "data directory (file backend)")
	dbPath := flag.String("db", "scheduler.db", "SQLite database path (sqlite backend)")
	flag.Parse()

	store, closer, err := openBackend(*backend, *dataDir, *dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	if closer != nil {
		defer closer.Close()
	}

	handler := api.NewHandler(store, jwtSecret())
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost:%d (backend: %s)", *port, *backend)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// openBackend opens the configured store. The returned closer is nil for
// backends with nothing to close.
func openBackend(backend, dataDir, dbPath string) (scheduler.Stores, io.Closer, error) {
	switch backend {
	case "file":
		var opts []file.Option
		if admin := os.Getenv("SCHEDULER_ADMIN"); admin != "" {
			opts = append(opts, file.WithBootstrapAdmin(admin))
		}
		store, err := file.Open(dataDir, opts...)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	case "sqlite":
		store, err := sqlite.New(dbPath)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", backend)
	}
}

// jwtSecret returns the configured signing key, or a random per-process key
// for development (tokens then die with the process).
func jwtSecret() []byte {
	if secret := os.Getenv("SCHEDULER_JWT_SECRET"); secret != "" {
		return []byte(secret)
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		log.Fatalf("Failed to generate dev signing key: %v", err)
	}
	log.Printf("SCHEDULER_JWT_SECRET not set; using ephemeral dev key %s...", hex.EncodeToString(buf[:4]))
	return buf
}
