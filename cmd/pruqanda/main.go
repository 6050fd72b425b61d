// Copyright 2025 Pruqanda Project
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
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/pruqanda/pruqanda/ai"
	"github.com/pruqanda/pruqanda/ai/openai"
	"github.com/pruqanda/pruqanda/api"
	"github.com/pruqanda/pruqanda/config"
	"github.com/pruqanda/pruqanda/core"
	"github.com/pruqanda/pruqanda/embed"
	"github.com/pruqanda/pruqanda/fetch"
	"github.com/pruqanda/pruqanda/index"
	"github.com/pruqanda/pruqanda/profile"
	"github.com/pruqanda/pruqanda/query"
	"github.com/pruqanda/pruqanda/searchindex"
	"github.com/pruqanda/pruqanda/storage"
	"github.com/pruqanda/pruqanda/storage/badger"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "pruqanda",
		Usage: "RAG pipeline over member chat messages",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "fetch",
				Usage:  "Fetch all messages from the upstream API and save the raw snapshot",
				Action: fetchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "url",
						Usage: "Messages API URL (overrides MESSAGES_URL)",
					},
				},
			},
			{
				Name:   "embed",
				Usage:  "Generate embeddings for the raw message snapshot",
				Action: embedCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of messages per embedding request",
						Value: 16,
					},
					&cli.IntFlag{
						Name:  "max-parallel",
						Usage: "Number of concurrent embedding requests",
						Value: 5,
					},
					&cli.IntFlag{
						Name:  "checkpoint-interval",
						Usage: "Flush accumulated results every N records",
						Value: 500,
					},
					&cli.StringFlag{
						Name:  "checkpoint-db",
						Usage: "Path to a BadgerDB directory for resume tracking (optional)",
					},
				},
			},
			{
				Name:   "upload",
				Usage:  "Upload embedded messages to the search index",
				Action: uploadCommand,
			},
			{
				Name:   "summarize",
				Usage:  "Generate per-user behavioral summaries from the raw snapshot",
				Action: summarizeCommand,
			},
			{
				Name:      "ask",
				Usage:     "Answer a single question against the indexed corpus",
				ArgsUsage: "<question>",
				Action:    askCommand,
				Flags:     queryFlags(),
			},
			{
				Name:   "serve",
				Usage:  "Serve the question-answering HTTP API",
				Action: serveCommand,
				Flags: append(queryFlags(),
					&cli.StringFlag{
						Name:  "port",
						Usage: "HTTP listen port (overrides HTTP_PORT)",
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func queryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "mode",
			Usage: "Retrieval mode: semantic or hybrid",
			Value: string(searchindex.ModeSemantic),
		},
		&cli.IntFlag{
			Name:  "top-k",
			Usage: "Retrieval fan-in (0 = mode default: 5 semantic, 40 hybrid)",
		},
	}
}

func fetchCommand(c *cli.Context) error {
	cfg := config.Load()

	url := c.String("url")
	if url == "" {
		url = cfg.MessagesURL
	}

	store, err := storage.NewStore(cfg.OutputDir)
	if err != nil {
		return err
	}

	fetcher, err := fetch.NewFetcher(url)
	if err != nil {
		return err
	}

	messages, err := fetcher.Fetch(c.Context)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	if err := store.SaveMessages(messages); err != nil {
		return fmt.Errorf("save messages: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Saved %d messages to %s\n", len(messages), store.Path(storage.RawMessagesFile))
	return nil
}

func embedCommand(c *cli.Context) error {
	cfg := config.Load()
	if err := cfg.RequireEmbedding(); err != nil {
		return err
	}

	store, err := storage.NewStore(cfg.OutputDir)
	if err != nil {
		return err
	}

	messages, err := store.LoadMessages()
	if err != nil {
		return fmt.Errorf("load raw messages (run fetch first): %w", err)
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}

	opts := []embed.Option{
		embed.WithBatchSize(c.Int("batch-size")),
		embed.WithPoolSize(c.Int("max-parallel")),
		embed.WithCheckpointInterval(c.Int("checkpoint-interval")),
		embed.WithCheckpointWriter(store),
		embed.WithProgress(os.Stderr),
	}

	if dbPath := c.String("checkpoint-db"); dbPath != "" {
		backend, err := badger.OpenBackend(dbPath, false)
		if err != nil {
			return fmt.Errorf("open checkpoint database: %w", err)
		}
		defer backend.Close()

		checkpoints, err := badger.NewCheckpointStore(backend)
		if err != nil {
			return err
		}
		opts = append(opts, embed.WithTracker(checkpoints))
	}

	pipeline, err := embed.NewPipeline(embedder, opts...)
	if err != nil {
		return err
	}
	defer pipeline.Release()

	results, report, err := pipeline.Run(c.Context, messages)
	if err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Embedded %s; saved %d records to %s\n",
		report.Summary(), len(results), store.Path(storage.EmbeddedMessagesFile))
	reportSkips(report)
	return nil
}

func uploadCommand(c *cli.Context) error {
	cfg := config.Load()
	if err := cfg.RequireSearch(); err != nil {
		return err
	}

	store, err := storage.NewStore(cfg.OutputDir)
	if err != nil {
		return err
	}

	records, err := store.LoadEmbedded()
	if err != nil {
		return fmt.Errorf("load embedded messages (run embed first): %w", err)
	}

	client, err := searchindex.NewClient(cfg.SearchEndpoint, cfg.SearchIndex, cfg.SearchAPIKey)
	if err != nil {
		return err
	}

	uploader, err := index.NewUploader(client)
	if err != nil {
		return err
	}

	report := uploader.UploadAll(c.Context, records)
	fmt.Fprintf(os.Stderr, "Upload: %s\n", report.Summary())
	reportSkips(report)
	return nil
}

func summarizeCommand(c *cli.Context) error {
	cfg := config.Load()
	if err := cfg.RequireChat(); err != nil {
		return err
	}

	store, err := storage.NewStore(cfg.OutputDir)
	if err != nil {
		return err
	}

	messages, err := store.LoadMessages()
	if err != nil {
		return fmt.Errorf("load raw messages (run fetch first): %w", err)
	}

	chat, err := newChatModel(cfg)
	if err != nil {
		return err
	}

	summarizer, err := profile.NewSummarizer(chat, profile.WithProgress(os.Stderr))
	if err != nil {
		return err
	}

	profiles, report := summarizer.SummarizeAll(c.Context, messages)

	if err := store.SaveProfiles(profiles); err != nil {
		return fmt.Errorf("save profiles: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Summarized %s; saved %d profiles to %s\n",
		report.Summary(), len(profiles), store.Path(storage.UserProfilesFile))
	reportSkips(report)
	return nil
}

func askCommand(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))

	engine, err := newEngine(c)
	if err != nil {
		return err
	}

	fmt.Println(engine.Answer(c.Context, question))
	return nil
}

func serveCommand(c *cli.Context) error {
	cfg := config.Load()

	engine, err := newEngine(c)
	if err != nil {
		return err
	}

	port := c.String("port")
	if port == "" {
		port = cfg.HTTPPort
	}

	addr := ":" + port
	slog.Info("serving question-answering API", "addr", addr)
	return http.ListenAndServe(addr, api.NewRouter(engine))
}

// newEngine wires the query engine from the environment and query flags.
func newEngine(c *cli.Context) (*query.Engine, error) {
	cfg := config.Load()
	if err := cfg.RequireSearch(); err != nil {
		return nil, err
	}
	if err := cfg.RequireChat(); err != nil {
		return nil, err
	}

	mode := searchindex.Mode(c.String("mode"))
	if !mode.Valid() {
		return nil, fmt.Errorf("invalid mode %q: must be semantic or hybrid", c.String("mode"))
	}

	client, err := searchindex.NewClient(cfg.SearchEndpoint, cfg.SearchIndex, cfg.SearchAPIKey)
	if err != nil {
		return nil, err
	}

	opts := []query.Option{query.WithMode(mode)}
	if k := c.Int("top-k"); k > 0 {
		opts = append(opts, query.WithTopK(k))
	}

	var chat ai.ChatModel
	if mode == searchindex.ModeHybrid {
		// Hybrid needs both services; a provider keeps them on one config.
		if err := cfg.RequireEmbedding(); err != nil {
			return nil, err
		}
		provider, err := openai.NewProvider(ai.NewConfig(
			ai.WithEmbeddingHost(cfg.EmbeddingEndpoint),
			ai.WithEmbeddingToken(cfg.EmbeddingAPIKey),
			ai.WithEmbeddingModel(cfg.EmbeddingModel),
			ai.WithChatHost(cfg.ChatEndpoint),
			ai.WithChatToken(cfg.ChatAPIKey),
			ai.WithChatModel(cfg.ChatModel),
		))
		if err != nil {
			return nil, err
		}
		chat = provider.ChatModel()
		opts = append(opts, query.WithEmbedder(provider.Embedder()))
	} else {
		chat, err = newChatModel(cfg)
		if err != nil {
			return nil, err
		}
	}

	return query.NewEngine(client, chat, opts...)
}

func newEmbedder(cfg *config.Config) (ai.Embedder, error) {
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(cfg.EmbeddingEndpoint),
		ai.WithEmbeddingToken(cfg.EmbeddingAPIKey),
		ai.WithEmbeddingModel(cfg.EmbeddingModel),
	)
	return openai.NewEmbedder(aiConfig)
}

func newChatModel(cfg *config.Config) (ai.ChatModel, error) {
	aiConfig := ai.NewConfig(
		ai.WithChatHost(cfg.ChatEndpoint),
		ai.WithChatToken(cfg.ChatAPIKey),
		ai.WithChatModel(cfg.ChatModel),
	)
	return openai.NewChatModel(aiConfig)
}

// reportSkips lists dropped units so partial failure stays visible.
func reportSkips(report *core.Report) {
	for _, skip := range report.Skipped {
		fmt.Fprintf(os.Stderr, "  skipped %s: %s\n", skip.Unit, skip.Reason)
	}
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
