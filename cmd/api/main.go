package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jbustamante27/Fitness-AI-agent/internal/analysis"
	"github.com/jbustamante27/Fitness-AI-agent/internal/api"
	"github.com/jbustamante27/Fitness-AI-agent/internal/auth"
	"github.com/jbustamante27/Fitness-AI-agent/internal/config"
	"github.com/jbustamante27/Fitness-AI-agent/internal/narrative"
	httptransport "github.com/jbustamante27/Fitness-AI-agent/internal/transport/http"
)

func main() {
	cfg := config.Load()

	opts := []analysis.Option{
		analysis.WithLookbackDays(cfg.LookbackDays),
		analysis.WithDistanceUnit(cfg.DistanceUnit),
		analysis.WithNarrativeTimeout(cfg.NarrativeTimeout),
	}

	if cfg.OpenAIAPIKey != "" {
		generator, err := narrative.New(narrative.Config{
			APIKey:      cfg.OpenAIAPIKey,
			BaseURL:     cfg.OpenAIBaseURL,
			Model:       cfg.OpenAIModel,
			Temperature: cfg.OpenAITemperature,
		})
		if err != nil {
			log.Fatalf("failed to configure narrative generator: %v", err)
		}
		opts = append(opts, analysis.WithNarrativeGenerator(generator))
	} else {
		log.Printf("OPENAI_API_KEY not set; narrative generation disabled")
	}

	if cfg.UploadDir != "" {
		if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
			log.Fatalf("failed to create upload dir: %v", err)
		}
		opts = append(opts, analysis.WithArchiveDir(cfg.UploadDir))
	}

	service := analysis.NewService(opts...)

	handler := api.NewHandler(service)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	// Simple CORS middleware for local dev
	cors := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "http://localhost:8501")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}

	// Basic request logger
	logger := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("%s %s", r.Method, r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}

	authMiddleware := auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer})

	// Write timeout tracks the narrative bound so a slow completion does not
	// sever an otherwise healthy response.
	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.NarrativeTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}, authMiddleware.Wrap(logger(cors(mux))))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("analysis-service listening on %s", cfg.HTTPAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownCh

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
