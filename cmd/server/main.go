package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/autocritique/reflect-go/internal/client"
	"github.com/autocritique/reflect-go/internal/config"
	"github.com/autocritique/reflect-go/internal/observability"
	"github.com/autocritique/reflect-go/internal/reflection"
	"github.com/autocritique/reflect-go/internal/verify"
)

type runRequest struct {
	Task     string `json:"task"`
	MaxSteps int    `json:"max_steps,omitempty"`
}

type verifyRequest struct {
	Code string `json:"code,omitempty"`
	Text string `json:"text,omitempty"`
}

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := observability.SetupLogger(os.Stdout, cfg.SlogLevel())

	chatClient, err := client.New(cfg.Provider, cfg.APIKey, cfg.BaseURL, cfg.Model)
	if err != nil {
		logger.Error("Failed to create chat client", "error", err, "provider", cfg.Provider)
		os.Exit(1)
	}

	loopCfg := reflection.Config{
		Model:            cfg.Model,
		GenerationPrompt: cfg.Loop.GenerationPrompt,
		ReflectionPrompt: cfg.Loop.ReflectionPrompt,
		MaxSteps:         cfg.Loop.MaxSteps,
		StopOnApproval:   cfg.Loop.StopOnApprovalEnabled(),
		StepDelay:        cfg.Loop.StepDelay(),
	}
	verifier := verify.New(cfg.Verifier.PythonBin, cfg.Verifier.Timeout())

	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/run", instrumented(logger, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		var req runRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		if req.Task == "" {
			respondError(w, http.StatusBadRequest, "Task is required")
			return
		}

		stepCfg := loopCfg
		if req.MaxSteps > 0 {
			stepCfg.MaxSteps = req.MaxSteps
		}
		agent := reflection.New(chatClient, stepCfg)

		result, err := agent.Run(r.Context(), req.Task)
		if err != nil {
			logger.Error("Reflection run failed", "error", err)
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondJSON(w, result)
	}))

	mux.HandleFunc("/verify", instrumented(logger, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		var req verifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		switch {
		case req.Code != "":
			result, err := verifier.Verify(r.Context(), req.Code)
			if err != nil {
				logger.Error("Verification failed", "error", err)
				respondError(w, http.StatusInternalServerError, err.Error())
				return
			}
			respondJSON(w, result)
		case req.Text != "":
			result, err := verifier.VerifyGenerationText(r.Context(), req.Text)
			if err != nil {
				logger.Error("Verification failed", "error", err)
				respondError(w, http.StatusInternalServerError, err.Error())
				return
			}
			respondJSON(w, result)
		default:
			respondError(w, http.StatusBadRequest, "Either code or text is required")
		}
	}))

	addr := fmt.Sprintf("%s:%d", cfg.Listen.Address, cfg.Listen.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting server", "addr", addr, "provider", cfg.Provider)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited properly")
}

func loadConfig(explicit string) (*config.Config, error) {
	path, err := config.FindConfig(explicit)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// instrumented wraps a handler with request metrics and an access log line.
func instrumented(logger *slog.Logger, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next(rw, r)

		duration := time.Since(start).Seconds()
		observability.HttpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, http.StatusText(rw.status)).Inc()
		observability.HttpRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
		logger.Info("Request handled", "method", r.Method, "path", r.URL.Path, "status", rw.status, "duration", duration)
	}
}

func respondJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// Custom ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
