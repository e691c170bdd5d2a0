package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medrec/medrec/internal/api"
	"github.com/medrec/medrec/internal/config"
	"github.com/medrec/medrec/internal/domain/document"
	"github.com/medrec/medrec/internal/domain/extract"
	"github.com/medrec/medrec/internal/domain/nlp"
	"github.com/medrec/medrec/internal/domain/standardize"
	"github.com/medrec/medrec/internal/domain/terminology"
	"github.com/medrec/medrec/internal/domain/validate"
	"github.com/medrec/medrec/internal/pipeline"
	"github.com/medrec/medrec/internal/platform/db"
	"github.com/medrec/medrec/internal/platform/middleware"
	"github.com/medrec/medrec/internal/platform/ner"
	"github.com/medrec/medrec/internal/platform/ocr"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "medrec",
		Short: "Medical document coding pipeline",
	}

	rootCmd.AddCommand(processCmd())
	rootCmd.AddCommand(batchCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func processCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process <file>",
		Short: "Process one document and print its medical record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")

			app, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read document: %w", err)
			}

			rec := app.orch.Process(cmd.Context(), document.New(filepath.Base(args[0]), data))

			sink, closeSink, err := openSink(app, out)
			if err != nil {
				return err
			}
			defer closeSink()
			return sink.Write(cmd.Context(), rec)
		},
	}
	cmd.Flags().String("out", "", "Write the record to this JSONL file instead of stdout")
	return cmd
}

func batchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Process every document in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")

			app, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close()

			paths, err := pipeline.DocumentPaths(args[0])
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return fmt.Errorf("no documents in %s", args[0])
			}

			sink, closeSink, err := openSink(app, out)
			if err != nil {
				return err
			}
			defer closeSink()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			batch := pipeline.NewBatch(app.orch, app.cfg.BatchWorkers, app.logger)
			summary, runErr := batch.Run(ctx, paths, sink)

			app.logger.Info().
				Int("processed", summary.Processed).
				Int("complete", summary.Complete).
				Int("partial", summary.Partial).
				Int("failed", summary.Failed).
				Msg("batch finished")
			for name, reason := range summary.Errors {
				app.logger.Warn().Str("document", name).Str("reason", reason).Msg("document failed")
			}
			return runErr
		},
	}
	cmd.Flags().String("out", "", "Write records to this JSONL file instead of stdout")
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the document ingest API",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close()

			var sink pipeline.Sink
			if app.pool != nil {
				sink = pipeline.NewPGSink(app.pool)
			}

			e := echo.New()
			e.HideBanner = true
			e.Use(middleware.RequestID())
			e.Use(middleware.Logger(app.logger))
			e.Use(middleware.Recovery(app.logger))
			api.NewHandler(app.orch, sink, app.logger).RegisterRoutes(e)

			addr := ":" + app.cfg.Port
			go func() {
				if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
					app.logger.Fatal().Err(err).Msg("server start failed")
				}
			}()
			app.logger.Info().Str("addr", addr).Msg("ingest api listening")

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return e.Shutdown(ctx)
		},
	}
}

// app holds the wired pipeline and its shared resources.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	orch   *pipeline.Orchestrator
	pool   *pgxpool.Pool
}

func (a *app) close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

// bootstrap loads configuration, the terminology table, and wires every
// pipeline stage. Failing to load terminology is the one process-fatal
// condition.
func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, err
		}
	}

	table, err := loadTerminology(ctx, cfg, pool, logger)
	if err != nil {
		if pool != nil {
			pool.Close()
		}
		return nil, err
	}

	registry := extract.NewRegistry(map[document.FormatTag]extract.Extractor{
		document.FormatHL7:  extract.NewHL7Extractor(),
		document.FormatFHIR: extract.NewFHIRExtractor(),
		document.FormatPDF:  extract.NewPDFExtractor(ocr.New(cfg.OCRURL)),
		document.FormatTEXT: extract.NewTextExtractor(),
	})

	engine := standardize.NewEngine(table, standardize.Policy{
		AcceptanceThreshold: cfg.AcceptanceThreshold,
		FuzzyFloor:          cfg.FuzzyFloor,
	})
	entities := nlp.NewExtractor(ner.New(cfg.NERURL), cfg.MaxWindow, cfg.WindowOverlap)

	orch := pipeline.NewOrchestrator(registry, entities, engine, validate.New(), logger, pipeline.Options{
		StageRetries: cfg.StageRetries,
		StageTimeout: cfg.StageTimeout,
	})

	return &app{cfg: cfg, logger: logger, orch: orch, pool: pool}, nil
}

// loadTerminology prefers Postgres, then the JSON directory, then the
// built-in seed tables for development.
func loadTerminology(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) (*terminology.Table, error) {
	switch {
	case pool != nil:
		logger.Info().Msg("loading terminology from database")
		return terminology.Load(ctx, terminology.NewRepoPG(pool))
	case dirExists(cfg.TerminologyDir):
		logger.Info().Str("dir", cfg.TerminologyDir).Msg("loading terminology from files")
		return terminology.Load(ctx, terminology.NewRepoJSON(cfg.TerminologyDir))
	default:
		logger.Warn().Msg("no terminology source configured; using built-in seed tables")
		return terminology.SeedTable(), nil
	}
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func openSink(a *app, out string) (pipeline.Sink, func(), error) {
	if out == "" {
		return pipeline.NewJSONLSink(os.Stdout), func() {}, nil
	}
	f, err := os.Create(out)
	if err != nil {
		return nil, nil, fmt.Errorf("open output: %w", err)
	}
	return pipeline.NewJSONLSink(f), func() { f.Close() }, nil
}
