package observability

import (
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reflect_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reflect_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Reflection loop metrics
	RunRounds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reflect_run_rounds_count",
			Help:    "Number of generation/critique rounds per run",
			Buckets: []float64{1, 2, 3, 5, 10, 20},
		},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reflect_run_duration_seconds",
			Help:    "Total duration of a reflection run in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	TokenUsage = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reflect_token_usage_total",
			Help: "Total number of tokens used",
		},
		[]string{"model", "type"}, // type: input, output
	)

	RunErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reflect_run_errors_total",
			Help: "Total number of reflection run errors",
		},
	)

	// Verification metrics
	Verifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reflect_verifications_total",
			Help: "Verification passes by outcome",
		},
		[]string{"outcome"}, // syntax_error, syntax_only, exec_error, missing_function, tested
	)

	VerificationTests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reflect_verification_tests_total",
			Help: "Heuristic test vectors by result",
		},
		[]string{"result"}, // passed, failed
	)
)

func SetupLogger(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Key = "timestamp"
				a.Value = slog.StringValue(time.Now().Format(time.RFC3339))
			}
			return a
		},
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
