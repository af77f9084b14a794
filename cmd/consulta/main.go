// Copyright 2025 Sabela Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/sabela/consulta"
	"github.com/sabela/consulta/config"
	"github.com/sabela/consulta/core"
	"github.com/sabela/consulta/corpus"
	"github.com/sabela/consulta/evaluate"
	"github.com/sabela/consulta/httpapi"
)

const shutdownGrace = 10 * time.Second

func main() {
	app := &cli.App{
		Name:  "consulta",
		Usage: "Semantic search over a FAQ article corpus",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "env-file",
				Aliases: []string{"e"},
				Usage:   "Load environment variables from this file before reading configuration",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the search API over HTTP",
				Action: serveCommand,
			},
			{
				Name:   "ingest",
				Usage:  "Load the article spreadsheet and rebuild the vector index",
				Action: ingestCommand,
			},
			{
				Name:   "evaluate",
				Usage:  "Score the embedding backend against labeled query rankings",
				Action: evaluateCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setup(c *cli.Context) error {
	if envFile := c.String("env-file"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("loading env file: %w", err)
		}
	}
	return setupLogger(c)
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

func serveCommand(c *cli.Context) error {
	ctx := c.Context

	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	engine, err := consulta.NewEngine(ctx, cfg)
	if err != nil {
		return fmt.Errorf("building engine: %w", err)
	}
	defer engine.Close()

	service, err := engine.SearchService(ctx)
	if err != nil {
		return fmt.Errorf("building search service: %w", err)
	}

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httpapi.New(service).Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-stop:
		slog.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}

func ingestCommand(c *cli.Context) error {
	ctx := c.Context

	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if cfg.ExcelPath == "" {
		return fmt.Errorf("%w: EXCEL_FILE_PATH", config.ErrMissingSetting)
	}

	docs, err := loadCorpus(cfg)
	if err != nil {
		return err
	}

	// The word-vector backend trains from the corpus when no persisted
	// model exists yet.
	engine, err := consulta.NewEngine(ctx, cfg, consulta.WithTrainingTexts(documentTexts(docs)))
	if err != nil {
		return fmt.Errorf("building engine: %w", err)
	}
	defer engine.Close()

	builder, err := engine.IndexBuilder()
	if err != nil {
		return fmt.Errorf("building index builder: %w", err)
	}
	defer builder.Release()

	if err := builder.Rebuild(ctx, docs, engine.Provider()); err != nil {
		return fmt.Errorf("rebuilding index: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Indexed %d articles into collection %q\n", len(docs), cfg.CollectionName)
	return nil
}

func evaluateCommand(c *cli.Context) error {
	ctx := c.Context

	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if cfg.ExcelPath == "" {
		return fmt.Errorf("%w: EXCEL_FILE_PATH", config.ErrMissingSetting)
	}
	if cfg.RankingsPath == "" {
		return fmt.Errorf("%w: RANKINGS_FILE_PATH", config.ErrMissingSetting)
	}

	docs, err := loadCorpus(cfg)
	if err != nil {
		return err
	}

	rankingsFile, err := os.Open(cfg.RankingsPath)
	if err != nil {
		return fmt.Errorf("opening rankings file: %w", err)
	}
	defer rankingsFile.Close()

	rankings, err := evaluate.ParseRankings(rankingsFile)
	if err != nil {
		return fmt.Errorf("parsing rankings: %w", err)
	}

	engine, err := consulta.NewEngine(ctx, cfg, consulta.WithTrainingTexts(documentTexts(docs)))
	if err != nil {
		return fmt.Errorf("building engine: %w", err)
	}
	defer engine.Close()

	evaluator, err := engine.Evaluator()
	if err != nil {
		return fmt.Errorf("building evaluator: %w", err)
	}

	report, err := evaluator.Evaluate(ctx, docs, rankings)
	if err != nil {
		return fmt.Errorf("evaluating: %w", err)
	}

	fmt.Printf("Queries evaluated:  %d\n", report.Queries)
	fmt.Printf("Articles in pool:   %d\n", report.Articles)
	fmt.Printf("MRR:                %.4f\n", report.MRR)
	fmt.Printf("Precision@5:        %.4f\n", report.PrecisionAt5)
	return nil
}

func loadCorpus(cfg *config.Config) ([]core.Document, error) {
	loader := corpus.NewLoader(cfg.KeepAccents)
	docs, err := loader.Load(cfg.ExcelPath)
	if err != nil {
		return nil, fmt.Errorf("loading corpus: %w", err)
	}
	return docs, nil
}

func documentTexts(docs []core.Document) []string {
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Text
	}
	return texts
}
