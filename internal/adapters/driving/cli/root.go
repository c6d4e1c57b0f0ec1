// Package cli implements the ilayer command line interface.
package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/intelligence-layer/internal/core/ports/driving"
	"github.com/custodia-labs/intelligence-layer/internal/logger"
)

// version is set at build time.
var version = "dev"

// Services wired in by main.
var (
	settingsService   driving.SettingsService
	datasetService    driving.DatasetService
	modelService      driving.ModelService
	keywordService    driving.KeywordService
	evaluationService driving.EvaluationService
	metricsHandler    http.Handler
)

// Services holds the driving ports the commands use. Nil services make the
// commands that need them fail with a "not configured" error.
type Services struct {
	Settings    driving.SettingsService
	Datasets    driving.DatasetService
	Model       driving.ModelService
	Keywords    driving.KeywordService
	Evaluations driving.EvaluationService

	// Metrics serves /metrics when --metrics-addr is given.
	Metrics http.Handler
}

// SetServices injects the services used by all commands.
func SetServices(s Services) {
	settingsService = s.Settings
	datasetService = s.Datasets
	modelService = s.Model
	keywordService = s.Keywords
	evaluationService = s.Evaluations
	metricsHandler = s.Metrics
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

var (
	verbose     bool
	metricsAddr string
)

var rootCmd = &cobra.Command{
	Use:   "ilayer",
	Short: "Run, trace and evaluate language model tasks",
	Long: `ilayer runs tasks such as keyword extraction against a language model API,
stores evaluation datasets, runs tasks over them and grades the results either
automatically or through human ratings collected in Argilla.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		if metricsAddr != "" {
			return serveMetrics(cmd.Context(), metricsAddr)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug output")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "",
		"serve Prometheus metrics on this address while the command runs (e.g. :9090)")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// serveMetrics starts the metrics endpoint in the background. It stops when ctx is done.
func serveMetrics(ctx context.Context, addr string) error {
	if metricsHandler == nil {
		return errors.New("metrics not configured")
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metricsHandler)
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		server.Shutdown(context.Background()) //nolint:errcheck
	}()
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Metrics server stopped: %v", err)
		}
	}()

	logger.Info("Serving metrics on http://%s/metrics", listener.Addr())
	return nil
}
