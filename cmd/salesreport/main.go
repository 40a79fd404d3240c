package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"salesreport/internal/config"
	"salesreport/internal/infrastructure"
	"salesreport/internal/pipeline"
	"salesreport/pkg/contracts"
)

const shutdownTimeout = 10 * time.Second

type options struct {
	configPath string
	skipEmail  bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "salesreport",
		Short:         "Build and e-mail the daily sales report",
		Long:          "Reads the sales workbook, writes the consolidated workbook, two charts and the PDF report, then e-mails workbook and PDF.",
		Version:       contracts.GetFullVersionString(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", config.DefaultConfigPath, "settings file (.json or .yaml)")
	cmd.Flags().BoolVar(&opts.skipEmail, "skip-email", false, "stop after the PDF report is written")

	return cmd
}

func run(ctx context.Context, opts *options) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if !opts.skipEmail {
		if err := cfg.ValidateDelivery(); err != nil {
			return err
		}
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFromTelemetry(cfg.Telemetry), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	inst, err := pipeline.NewInstrumentation(providers)
	if err != nil {
		return err
	}
	runtimeMetrics, err := infrastructure.NewRuntimeMetrics(providers.Meter)
	if err != nil {
		logger.Warn("Runtime metrics unavailable", slog.String("error", err.Error()))
	}

	pipelineOpts := []pipeline.Option{pipeline.WithInstrumentation(inst)}
	if opts.skipEmail {
		pipelineOpts = append(pipelineOpts, pipeline.WithoutDelivery())
	}

	start := time.Now()
	p := pipeline.New(cfg, pipeline.NewCollaborators(cfg, logger), logger, pipelineOpts...)
	result, runErr := p.Run(ctx)

	if stats := runtimeMetrics.Collect(ctx, start); stats != nil {
		logger.Debug("Runtime statistics",
			slog.Int64("heap_alloc_bytes", stats.HeapAlloc),
			slog.Int64("goroutines", stats.GoRoutines),
			slog.Any("gc_count", stats.GCCount))
	}

	if runErr != nil {
		return runErr
	}

	logger.Info("Report generated",
		slog.String("run_id", result.RunID),
		slog.String("workbook", result.Artifacts.Workbook),
		slog.String("document", result.Artifacts.Document),
		slog.Bool("delivered", result.Delivered))
	return nil
}
