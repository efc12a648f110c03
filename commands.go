package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"morsel-sales/api"
	"morsel-sales/config"
	"morsel-sales/metrics"
	"morsel-sales/pipeline"
	"morsel-sales/probe"
	"morsel-sales/services"
	"morsel-sales/storage"
	"morsel-sales/utils"
)

func processCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process [files or directories...]",
		Short: "Normalize the input files, write the canonical table and print a summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd.Context(), cfg, args, cmd.OutOrStdout(), logger)
		},
	}
}

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve [files or directories...]",
		Short: "Serve the dashboard and JSON API over the normalized dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				cfg.HTTPAddr = addr
			}
			return runServe(cmd.Context(), cfg, args, logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides HTTP_ADDR)")
	return cmd
}

func probeCmd() *cobra.Command {
	var url string
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Check a running dashboard with a headless browser",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if url == "" {
				url = localURL(cfg.HTTPAddr)
			}
			p := probe.New(cfg.ChromeBin, cfg.MaxRetries, logger)
			res, err := p.Check(cmd.Context(), url)
			if err != nil {
				return err
			}
			problems := probe.Verify(res, cfg.TargetProduct, cfg.Regions)
			for _, msg := range problems {
				logger.Error("[probe] %s", msg)
			}
			if len(problems) > 0 {
				return fmt.Errorf("dashboard probe found %d problem(s)", len(problems))
			}
			logger.Info("[probe] %s looks healthy", url)
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "dashboard URL (default derived from HTTP_ADDR)")
	return cmd
}

func newPipeline(c *config.Config, args []string, logger *utils.Logger, m *metrics.Metrics) *pipeline.Pipeline {
	sources := c.InputFiles
	if len(args) > 0 {
		sources = args
	}
	return pipeline.New(pipeline.Options{
		Sources:             sources,
		Product:             c.TargetProduct,
		Cutoff:              c.Cutoff(),
		Regions:             c.Regions,
		CurrencySymbols:     c.CurrencySymbols,
		MovingAverageWindow: c.MovingAverageWindow,
		LoadConcurrency:     c.LoadConcurrency,
	}, logger, m)
}

// runProcess builds the dataset once, writes it to every configured
// backend and prints the summary card to out.
func runProcess(ctx context.Context, c *config.Config, args []string, out io.Writer, logger *utils.Logger) error {
	logger.Info("=== Morsel sales pipeline starting ===")
	logger.Info("Config: product %q | cutoff %s | concurrency %d",
		c.TargetProduct, c.PriceHikeDate, c.LoadConcurrency)

	p := newPipeline(c, args, logger, nil)
	snap, err := p.Build(ctx)
	if err != nil {
		return err
	}

	writers, err := openWriters(ctx, c, logger)
	defer func() {
		for _, w := range writers {
			_ = w.Close()
		}
	}()
	if err != nil {
		return err
	}

	records := snap.Dataset.Records()
	runID := snap.ID.String()
	for _, w := range writers {
		if err := w.Write(runID, records); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		if r, ok := w.(storage.SalesReader); ok {
			verifyStored(r, len(records), logger)
		}
	}
	logger.Info("Run %s: %d records written to %d backend(s)", runID, len(records), len(writers))

	reports := services.NewReportService(logger)
	report := reports.Generate(snap.Dataset, c.TargetProduct, c.Cutoff(), snap.Stats.Dropped)
	reports.Print(out, report)
	return nil
}

// openWriters returns the CSV writer plus SQLite and PostgreSQL writers when
// configured. Writers opened before an error are returned for closing.
func openWriters(ctx context.Context, c *config.Config, logger *utils.Logger) ([]storage.SalesWriter, error) {
	var writers []storage.SalesWriter

	csvWriter, err := storage.NewCSVWriter(c.CSVOutputPath)
	if err != nil {
		return writers, err
	}
	writers = append(writers, csvWriter)
	logger.Info("[storage] CSV output: %s", csvWriter.Path())

	if c.SQLitePath != "" {
		sw, err := storage.NewSQLiteWriter(c.SQLitePath)
		if err != nil {
			return writers, err
		}
		writers = append(writers, sw)
		logger.Info("[storage] SQLite output: %s (table %s)", c.SQLitePath, storage.SalesTable)
	}

	if c.PostgresEnabled {
		pw, err := storage.NewPostgresWriter(ctx, c.DSN(), &utils.RetryConfig{
			MaxAttempts: c.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		})
		if err != nil {
			logger.Error("Make sure PostgreSQL is running: docker compose up -d")
			return writers, err
		}
		writers = append(writers, pw)
		logger.Info("[storage] PostgreSQL output: %s@%s/%s (table %s)",
			c.PostgresUser, c.PostgresHost, c.PostgresDB, storage.SalesTable)
	}

	return writers, nil
}

func verifyStored(r storage.SalesReader, want int, logger *utils.Logger) {
	stored, err := r.FetchAll()
	if err != nil {
		logger.Warn("[storage] read-back failed: %v", err)
		return
	}
	if len(stored) != want {
		logger.Warn("[storage] read-back returned %d records, wrote %d", len(stored), want)
	}
}

// runServe builds the dataset and serves it until ctx is cancelled.
func runServe(ctx context.Context, c *config.Config, args []string, logger *utils.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	p := newPipeline(c, args, logger, metrics.New(reg))
	if _, err := p.Build(ctx); err != nil {
		return err
	}

	server := &http.Server{
		Addr:         c.HTTPAddr,
		Handler:      api.NewRouter(api.NewHandler(p, logger), reg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting on %s", localURL(c.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

func localURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}
