// main is the entry point of the Student Records API.
//
// STARTUP SEQUENCE:
//  1. Load configuration from a YAML file (plus .env / env overrides)
//  2. Initialise the logger
//  3. Connect to (and set up) the SQLite database
//  4. Build the record service on top of the storage interface
//  5. Register all HTTP routes and wrap them in CORS
//  6. Start the HTTP server in a separate goroutine
//  7. Block the main goroutine until an OS signal (Ctrl+C / kill) arrives
//  8. Gracefully shut down: finish in-flight requests, then exit
//
// RUNNING THE SERVER:
//
//	go run ./cmd/student-records-api --config=config/local.yaml
//
// or (with the environment variable):
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/student-records-api
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/nikhil-saxena/student-records-api/internal/config"
	"github.com/nikhil-saxena/student-records-api/internal/http/handlers/student"
	studentservice "github.com/nikhil-saxena/student-records-api/internal/service/student"
	"github.com/nikhil-saxena/student-records-api/internal/storage/sqlite"
)

func main() {
	// ── 1. Load Config ────────────────────────────────────────────────────
	// MustLoad reads the YAML config and panics if anything is wrong.
	// The name "Must" signals: if this returns, config is guaranteed valid.
	cfg := config.MustLoad()

	// ── 2. Initialise Logger ──────────────────────────────────────────────
	// slog is Go's structured logger (stdlib since Go 1.21). Structured
	// logs are key=value pairs, easy to filter in tools like Loki.
	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	log.Info("starting student-records-api",
		slog.String("env", cfg.Env),
		slog.String("version", "1.0.0"),
	)

	// ── 3. Initialise Storage (Database) ──────────────────────────────────
	// sqlite.New opens the SQLite file and creates the students table
	// with its UNIQUE username/email indexes. We keep the result behind
	// the storage.Storage interface — swapping the engine later only
	// changes this one line. A failure here is fatal: there is no point
	// serving requests against an unreachable store.
	store, err := sqlite.New(cfg)
	if err != nil {
		log.Error("failed to initialise storage",
			slog.String("error", err.Error()))
		os.Exit(1) // non-zero exit code signals failure to the OS / CI system
	}

	log.Info("storage initialised",
		slog.String("path", cfg.StoragePath))

	// ── 4. Build the Record Service ───────────────────────────────────────
	// The service owns validation, uniqueness checking, partial-update
	// merging, and age derivation. Handlers only ever talk to it.
	svc := studentservice.New(store)

	// ── 5. Register HTTP Routes ───────────────────────────────────────────
	// Route table:
	//   POST   /api/students        → create a new student
	//   GET    /api/students        → list all students
	//   GET    /api/students/{id}   → get one student by ID
	//   PUT    /api/students/{id}   → partial update of a student
	//   DELETE /api/students/{id}   → delete a student
	router := http.NewServeMux()

	router.HandleFunc("POST /api/students", student.New(svc))
	router.HandleFunc("GET /api/students", student.GetList(svc))
	router.HandleFunc("GET /api/students/{id}", student.GetByID(svc))
	router.HandleFunc("PUT /api/students/{id}", student.Update(svc))
	router.HandleFunc("DELETE /api/students/{id}", student.Delete(svc))

	// The browser frontend lives on a different origin, so the API
	// answers preflights for the methods the route table exposes.
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete,
		},
		AllowedHeaders: []string{"Content-Type"},
	})

	// ── 6. Create the HTTP Server ─────────────────────────────────────────
	server := &http.Server{
		Addr:    cfg.HTTPServer.Addr, // e.g. "localhost:8082"
		Handler: corsHandler.Handler(router),

		// Production hardening — timeouts prevent slow-client attacks.
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ── 7. Start Server in a Goroutine ────────────────────────────────────
	// ListenAndServe blocks forever. If we called it here in main(),
	// the graceful-shutdown code below would never run.
	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))

		// ListenAndServe returns http.ErrServerClosed when Shutdown()
		// is called. That's expected — not an error worth logging.
		if err := server.ListenAndServe(); err != nil &&
			err != http.ErrServerClosed {
			log.Error("server encountered an error",
				slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// ── 8. Wait for Shutdown Signal ───────────────────────────────────────
	// Buffered channel of size 1 so we don't miss the signal if main is
	// briefly busy.
	done := make(chan os.Signal, 1)

	// os.Interrupt = Ctrl+C (SIGINT); SIGTERM is what `kill <pid>` and
	// container orchestrators send.
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	<-done

	log.Info("shutdown signal received, stopping server...")

	// ── 9. Graceful Shutdown ──────────────────────────────────────────────
	// Give in-flight requests up to 5 seconds to finish; after that the
	// context cancels and Shutdown returns an error.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server gracefully",
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}

// setupLogger returns a *slog.Logger configured for the given environment.
//
// Development (dev): human-readable text output at DEBUG level.
// Production (prod): machine-readable JSON output at INFO level.
func setupLogger(env string) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo, // INFO and above in production
			}),
		)
	case "staging":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug, // more verbose in staging
			}),
		)
	default: // "dev" and anything unrecognised
		return slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug, // all levels in development
			}),
		)
	}
}
