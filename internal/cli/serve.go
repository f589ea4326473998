package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/wikitrust/internal/mediawiki"
	"github.com/ppiankov/wikitrust/internal/metrics"
	"github.com/ppiankov/wikitrust/internal/pipeline"
	"github.com/ppiankov/wikitrust/internal/worker"
)

var requestTimeout time.Duration

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve analyses and metrics over HTTP",
	Long: `Serve exposes two routes:
  GET /analyze?title=<title>   the JSON report of one article
  GET /metrics                 Prometheus metrics

Example:
  wikitrust serve --listen :8080
  curl 'localhost:8080/analyze?title=Tour_Eiffel'`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("listen", ":8080", "listen address")
	serveCmd.Flags().DurationVar(&requestTimeout, "request-timeout", time.Minute, "timeout of one analysis")
	serveCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh fetch)")
	_ = viper.BindPFlag("metrics.listen", serveCmd.Flags().Lookup("listen"))
}

func runServe(cmd *cobra.Command, args []string) error {
	applyRunFlags(cfg)
	logger := newLogger(cfg.Logging, os.Stderr)
	metrics.InitMetrics()

	p := pipeline.NewPipeline(cfg, logger)
	srv := &http.Server{
		Addr:              cfg.Metrics.Listen,
		Handler:           newServeMux(p, requestTimeout, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("wiki", cfg.Wiki.BaseURL).Msg("Listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// newServeMux routes /analyze to scanner and /metrics to the default registry
func newServeMux(scanner worker.Scanner, timeout time.Duration, logger zerolog.Logger) http.Handler {
	logger = logger.With().Str("component", "serve").Logger()
	mux := http.NewServeMux()

	mux.HandleFunc("/analyze", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		title := r.URL.Query().Get("title")
		if title == "" {
			writeError(w, http.StatusBadRequest, "missing title parameter")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		report, err := scanner.ProduceAnalysis(ctx, title)
		if err != nil {
			status := statusFor(err)
			logger.Debug().Err(err).Str("title", title).Int("status", status).Msg("Analysis request failed")
			writeError(w, status, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, report)
	})

	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// statusFor maps an analysis error to an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrEmptyTitle), errors.Is(err, pipeline.ErrForeignWiki):
		return http.StatusBadRequest
	case errors.Is(err, mediawiki.ErrPageMissing), errors.Is(err, pipeline.ErrNoRevisions):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
