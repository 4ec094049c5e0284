// Copyright 2025 Poiesic Systems
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
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/poiesic/ragchat"
	"github.com/poiesic/ragchat/chat"
	"github.com/poiesic/ragchat/config"
	"github.com/poiesic/ragchat/core"
	"github.com/poiesic/ragchat/ingestion"
	"github.com/urfave/cli/v2"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "ragchat",
		Usage: "Document question answering over a local vector index",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file (default: ./ragchat.yaml if present)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Index documents in the background and serve the HTTP API",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (overrides server.address)",
					},
					&cli.BoolFlag{
						Name:  "skip-index",
						Usage: "Do not index documents at startup",
					},
				},
			},
			{
				Name:   "ingest",
				Usage:  "Index changed documents and exit",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Reprocess every document, even unchanged ones",
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 32,
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Print the chunks retrieved for a query",
				ArgsUsage: "<query>",
				Action:    searchCommand,
			},
			{
				Name:      "ask",
				Usage:     "Ask a question and stream the answer",
				ArgsUsage: "<question>",
				Action:    askCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "plain",
						Usage: "Answer without document retrieval",
					},
					&cli.StringFlag{
						Name:    "model",
						Aliases: []string{"m"},
						Usage:   "Chat model (default: ai.chat_model)",
					},
					&cli.StringFlag{
						Name:    "session",
						Aliases: []string{"s"},
						Usage:   "Session to continue",
						Value:   "default",
					},
				},
			},
			{
				Name:   "sessions",
				Usage:  "List chat sessions, most recently used first",
				Action: sessionsCommand,
			},
			{
				Name:   "models",
				Usage:  "List models installed on the model server",
				Action: modelsCommand,
			},
		},
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func serveCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if addr := c.String("addr"); addr != "" {
		cfg.Server.Address = addr
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := ragchat.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open application: %w", err)
	}
	defer app.Close()

	srv, err := app.NewServer()
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	if !c.Bool("skip-index") {
		app.Pipeline().Trigger(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", cfg.Server.Address)
		errCh <- srv.Start(cfg.Server.Address)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func ingestCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.Int("report-interval") <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	progress := ingestion.NewProgressTracker(os.Stderr, c.Int("report-interval"))
	app, err := ragchat.Open(ctx, cfg, ragchat.WithProgress(progress))
	if err != nil {
		return fmt.Errorf("failed to open application: %w", err)
	}
	defer app.Close()

	fmt.Fprintf(os.Stderr, "Markdown: %s\n", cfg.Ingestion.Markdown)
	fmt.Fprintf(os.Stderr, "PDF: %s\n", cfg.Ingestion.PDF)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", cfg.AI.EmbeddingModel)
	fmt.Fprintf(os.Stderr, "Vector store: %s\n", cfg.VectorStore.Type)
	fmt.Fprintln(os.Stderr)

	if c.Bool("force") {
		n, err := app.ForgetDocuments(ctx)
		if err != nil {
			return fmt.Errorf("failed to reset document hashes: %w", err)
		}
		slog.Info("forgot document hashes", "documents", n)
	}

	written, err := app.Pipeline().Run(ctx)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	printStatus(c.App.Writer, app.Pipeline().Status(), written)
	return nil
}

func printStatus(w io.Writer, state core.ProcessingState, written int) {
	fmt.Fprintf(w, "Documents: %d total, %d changed\n", state.Total, state.Changed)
	fmt.Fprintf(w, "Chunks written: %d\n", written)
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return errors.New("query is required")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	app, err := ragchat.Open(c.Context, cfg)
	if err != nil {
		return fmt.Errorf("failed to open application: %w", err)
	}
	defer app.Close()

	hits, err := app.Retriever().Retrieve(c.Context, query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	printHits(c.App.Writer, hits)
	return nil
}

func printHits(w io.Writer, hits []*core.ScoredChunk) {
	fmt.Fprintf(w, "Found %d hits\n", len(hits))
	for i, hit := range hits {
		fmt.Fprintf(w, "%d: %s [%0.3f]\n", i, hit.Chunk.ID, hit.Score)
		fmt.Fprintf(w, "   %s\n", preview(hit.Chunk.Text, 120))
	}
}

func preview(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

func askCommand(c *cli.Context) error {
	question := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(question) == "" {
		return errors.New("question is required")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := ragchat.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open application: %w", err)
	}
	defer app.Close()

	req := chat.Request{Query: question, Model: c.String("model"), SessionID: c.String("session")}
	start := app.Orchestrator().StreamRAG
	if c.Bool("plain") {
		start = app.Orchestrator().StreamPlain
	}
	stream, err := start(ctx, req)
	if err != nil {
		return err
	}
	defer stream.Close()

	for tok := range stream.Tokens() {
		fmt.Fprint(c.App.Writer, tok)
	}
	fmt.Fprintln(c.App.Writer)
	return stream.Err()
}

func sessionsCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	app, err := ragchat.Open(c.Context, cfg)
	if err != nil {
		return fmt.Errorf("failed to open application: %w", err)
	}
	defer app.Close()

	sessions, err := app.Sessions().List(c.Context)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	return printSessions(c.App.Writer, sessions)
}

func printSessions(w io.Writer, sessions []*core.ChatSession) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tUPDATED")
	for _, s := range sessions {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.ID, s.Title, s.UpdatedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

func modelsCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	app, err := ragchat.Open(c.Context, cfg)
	if err != nil {
		return fmt.Errorf("failed to open application: %w", err)
	}
	defer app.Close()

	lister := app.ModelLister()
	if lister == nil {
		return errors.New("the configured provider cannot list models")
	}
	names, err := lister.ListModels(c.Context)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}
	for _, name := range names {
		marker := " "
		if name == app.Models().DefaultName() {
			marker = "*"
		}
		fmt.Fprintf(c.App.Writer, "%s %s\n", marker, name)
	}
	return nil
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
