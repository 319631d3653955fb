// Copyright 2026 Echotwin Labs
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
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/echotwin/echotwin"
	"github.com/echotwin/echotwin/ai"
	"github.com/echotwin/echotwin/core"
	"github.com/echotwin/echotwin/ingestion"
	"github.com/echotwin/echotwin/rag"
)

func main() {
	app := &cli.App{
		Name:  "echotwin",
		Usage: "Persona cloning from public content: ingest, index, chat",
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
				Name:  "persona",
				Usage: "Manage persona profiles and conversation configuration",
				Subcommands: []*cli.Command{
					{
						Name:   "set",
						Usage:  "Create or update a persona profile",
						Action: personaSetCommand,
						Flags: append(dataFlags(),
							&cli.StringFlag{
								Name:     "name",
								Usage:    "Display name of the persona",
								Required: true,
							},
							&cli.StringFlag{
								Name:  "bio",
								Usage: "Short biography used in the system prompt",
							},
						),
					},
					{
						Name:   "show",
						Usage:  "Print a persona profile and its configuration",
						Action: personaShowCommand,
						Flags:  dataFlags(),
					},
					{
						Name:   "facts",
						Usage:  "Replace the persona's fact list",
						Action: personaFactsCommand,
						Flags: append(dataFlags(),
							&cli.StringSliceFlag{
								Name:  "fact",
								Usage: "A fact about the persona (repeatable)",
							},
						),
					},
					{
						Name:   "qa",
						Usage:  "Replace the persona's Q&A examples",
						Action: personaQACommand,
						Flags: append(dataFlags(),
							&cli.StringSliceFlag{
								Name:  "pair",
								Usage: "Q&A example as 'question :: answer' (repeatable)",
							},
						),
					},
					{
						Name:   "topics",
						Usage:  "Replace the persona's topics to avoid",
						Action: personaTopicsCommand,
						Flags: append(dataFlags(),
							&cli.StringSliceFlag{
								Name:  "topic",
								Usage: "A topic the persona must not discuss (repeatable)",
							},
						),
					},
					{
						Name:   "rules",
						Usage:  "Replace the persona's keyword response rules",
						Action: personaRulesCommand,
						Flags: append(dataFlags(),
							&cli.StringSliceFlag{
								Name:  "rule",
								Usage: "Rule as 'keyword,keyword => canned response' (repeatable, listed order is priority order)",
							},
						),
					},
				},
			},
			{
				Name:  "sources",
				Usage: "Manage content sources registered for a persona",
				Subcommands: []*cli.Command{
					{
						Name:   "add",
						Usage:  "Register a content source",
						Action: sourcesAddCommand,
						Flags: append(dataFlags(),
							&cli.StringFlag{
								Name:     "type",
								Usage:    "Source type (video, social, document)",
								Required: true,
							},
							&cli.StringFlag{
								Name:  "url",
								Usage: "URL of the source",
							},
							&cli.StringFlag{
								Name:  "file",
								Usage: "Path to a local document to upload instead of a URL",
							},
						),
					},
					{
						Name:   "list",
						Usage:  "List registered content sources",
						Action: sourcesListCommand,
						Flags:  dataFlags(),
					},
					{
						Name:   "remove",
						Usage:  "Remove a source and all chunks derived from it",
						Action: sourcesRemoveCommand,
						Flags: append(dataFlags(),
							&cli.Uint64Flag{
								Name:     "id",
								Usage:    "Source ID as shown by 'sources list'",
								Required: true,
							},
						),
					},
				},
			},
			{
				Name:   "crawl",
				Usage:  "Crawl, chunk, embed and store registered sources",
				Action: crawlCommand,
				Flags: append(append(dataFlags(), aiFlags()...),
					&cli.Uint64Flag{
						Name:  "id",
						Usage: "Crawl only the source with this ID (default: all sources)",
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Number of concurrent ingestion workers",
						Value: ingestion.DefaultPoolSize,
					},
					&cli.IntFlag{
						Name:  "max-attempts",
						Usage: "Maximum attempts per source before the job fails",
						Value: ingestion.DefaultMaxAttempts,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff between attempts",
						Value: ingestion.DefaultRetryBaseDelay,
					},
				),
			},
			{
				Name:   "status",
				Usage:  "Show the latest ingestion state of every source",
				Action: statusCommand,
				Flags:  append(dataFlags(), aiFlags()...),
			},
			{
				Name:   "chat",
				Usage:  "Ask the persona a single question",
				Action: chatCommand,
				Flags: append(append(dataFlags(), aiFlags()...),
					&cli.StringFlag{
						Name:     "message",
						Aliases:  []string{"m"},
						Usage:    "The message to send",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "max-hits",
						Usage: "Maximum retrieved chunks fed into the prompt",
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// dataFlags are the flags every command that touches the database needs.
func dataFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "persona",
			Aliases:  []string{"p"},
			Usage:    "Persona identifier",
			Required: true,
		},
	}
}

// aiFlags are the flags for commands that call the embedding or generation
// backends.
func aiFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: ai.DefaultEmbeddingHost,
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: ai.DefaultEmbeddingModel,
		},
		&cli.StringFlag{
			Name:  "generation-host",
			Usage: "Generation service host URL (defaults to embedding-host)",
		},
		&cli.StringFlag{
			Name:  "generation-model",
			Usage: "Generation model name",
			Value: ai.DefaultGenerationModel,
		},
	}
}

func openDatabase(c *cli.Context) (*echotwin.Database, error) {
	generationHost := c.String("generation-host")
	if generationHost == "" {
		generationHost = c.String("embedding-host")
	}

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithGenerationHost(generationHost),
		ai.WithGenerationModel(c.String("generation-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	db, err := echotwin.NewDatabase(c.String("db"), echotwin.WithAIConfig(aiConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func personaSetCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	persona := &core.Persona{
		Id:   c.String("persona"),
		Name: c.String("name"),
		Bio:  c.String("bio"),
	}
	if err := core.ValidatePersona(persona); err != nil {
		return err
	}

	if err := db.PersonaRepository().PutPersona(ctx, persona); err != nil {
		return fmt.Errorf("failed to store persona: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Persona %q saved\n", persona.Id)
	return nil
}

func personaShowCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	personaID := c.String("persona")
	repo := db.PersonaRepository()

	persona, err := repo.GetPersona(ctx, personaID)
	if err != nil {
		return fmt.Errorf("failed to load persona: %w", err)
	}

	facts, err := repo.GetFacts(ctx, personaID)
	if err != nil {
		return fmt.Errorf("failed to load facts: %w", err)
	}
	qaPairs, err := repo.GetQAPairs(ctx, personaID)
	if err != nil {
		return fmt.Errorf("failed to load Q&A pairs: %w", err)
	}
	topics, err := repo.GetTopicsToAvoid(ctx, personaID)
	if err != nil {
		return fmt.Errorf("failed to load topics: %w", err)
	}
	rules, err := repo.GetKeywordRules(ctx, personaID)
	if err != nil {
		return fmt.Errorf("failed to load keyword rules: %w", err)
	}

	fmt.Printf("Persona: %s (%s)\n", persona.Name, persona.Id)
	if persona.Bio != "" {
		fmt.Printf("Bio: %s\n", persona.Bio)
	}
	if len(facts) > 0 {
		fmt.Println("Facts:")
		for _, fact := range facts {
			fmt.Printf("  - %s\n", fact)
		}
	}
	if len(qaPairs) > 0 {
		fmt.Println("Q&A examples:")
		for _, pair := range qaPairs {
			fmt.Printf("  Q: %s\n  A: %s\n", pair.Question, pair.Answer)
		}
	}
	if len(topics) > 0 {
		fmt.Printf("Topics to avoid: %s\n", strings.Join(topics, ", "))
	}
	if len(rules) > 0 {
		fmt.Println("Keyword rules:")
		for _, rule := range rules {
			fmt.Printf("  [%d] %s => %s\n", rule.Priority, rule.Keywords, rule.Response)
		}
	}
	return nil
}

func personaFactsCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	facts := c.StringSlice("fact")
	if err := db.PersonaRepository().PutFacts(ctx, c.String("persona"), facts); err != nil {
		return fmt.Errorf("failed to store facts: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Stored %d facts\n", len(facts))
	return nil
}

func personaQACommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	var pairs []core.QAPair
	for _, raw := range c.StringSlice("pair") {
		question, answer, ok := strings.Cut(raw, "::")
		if !ok {
			return fmt.Errorf("invalid Q&A pair %q: expected 'question :: answer'", raw)
		}
		pairs = append(pairs, core.QAPair{
			Question: strings.TrimSpace(question),
			Answer:   strings.TrimSpace(answer),
		})
	}

	if err := db.PersonaRepository().PutQAPairs(ctx, c.String("persona"), pairs); err != nil {
		return fmt.Errorf("failed to store Q&A pairs: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Stored %d Q&A pairs\n", len(pairs))
	return nil
}

func personaTopicsCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	topics := c.StringSlice("topic")
	if err := db.PersonaRepository().PutTopicsToAvoid(ctx, c.String("persona"), topics); err != nil {
		return fmt.Errorf("failed to store topics: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Stored %d topics to avoid\n", len(topics))
	return nil
}

func personaRulesCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	// Listed order is priority order: earlier rules win ties.
	var rules []core.KeywordRule
	for i, raw := range c.StringSlice("rule") {
		keywords, response, ok := strings.Cut(raw, "=>")
		if !ok {
			return fmt.Errorf("invalid rule %q: expected 'keyword,keyword => response'", raw)
		}
		rules = append(rules, core.KeywordRule{
			Keywords: strings.TrimSpace(keywords),
			Response: strings.TrimSpace(response),
			Priority: i + 1,
		})
	}

	if err := db.PersonaRepository().PutKeywordRules(ctx, c.String("persona"), rules); err != nil {
		return fmt.Errorf("failed to store keyword rules: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Stored %d keyword rules\n", len(rules))
	return nil
}

func sourcesAddCommand(c *cli.Context) error {
	ctx := context.Background()

	sourceType, err := core.ParseSourceType(c.String("type"))
	if err != nil {
		return fmt.Errorf("invalid source type %q: %w", c.String("type"), err)
	}

	var rawContent []byte
	if path := c.String("file"); path != "" {
		rawContent, err = os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	source := &core.ContentSource{
		PersonaId:  c.String("persona"),
		Type:       sourceType,
		URL:        c.String("url"),
		RawContent: rawContent,
	}
	if err := core.ValidateSource(source); err != nil {
		return err
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	stored, err := db.SourceRepository().AddSource(ctx, source)
	if err != nil {
		return fmt.Errorf("failed to register source: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Source %d registered\n", uint64(stored.Id))
	return nil
}

func sourcesListCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	sources, err := db.SourceRepository().ListSources(ctx, c.String("persona"))
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tURL\tADDED\tPROCESSED")
	for _, source := range sources {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			uint64(source.Id),
			source.Type,
			sourceLocation(source),
			formatTime(source.AddedAt),
			formatTime(source.LastProcessedAt),
		)
	}
	return w.Flush()
}

func sourcesRemoveCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	id := core.ID(c.Uint64("id"))
	if err := db.RemoveSource(ctx, c.String("persona"), id); err != nil {
		return fmt.Errorf("failed to remove source %d: %w", uint64(id), err)
	}

	fmt.Fprintf(os.Stderr, "Source %d removed\n", uint64(id))
	return nil
}

func crawlCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	personaID := c.String("persona")

	var sources []*core.ContentSource
	if c.IsSet("id") {
		source, err := db.SourceRepository().GetSource(ctx, personaID, core.ID(c.Uint64("id")))
		if err != nil {
			return fmt.Errorf("failed to load source %d: %w", c.Uint64("id"), err)
		}
		sources = append(sources, source)
	} else {
		sources, err = db.SourceRepository().ListSources(ctx, personaID)
		if err != nil {
			return fmt.Errorf("failed to list sources: %w", err)
		}
	}
	if len(sources) == 0 {
		fmt.Fprintln(os.Stderr, "No sources registered; nothing to crawl")
		return nil
	}

	pipeline, err := db.NewIngestionPipeline(
		ingestion.WithPoolSize(c.Int("pool-size")),
		ingestion.WithMaxAttempts(c.Int("max-attempts")),
		ingestion.WithRetryBaseDelay(c.Duration("retry-delay")),
	)
	if err != nil {
		return fmt.Errorf("failed to create ingestion pipeline: %w", err)
	}
	defer pipeline.Release()

	for _, source := range sources {
		job, err := pipeline.Enqueue(ctx, source)
		if err != nil {
			return fmt.Errorf("failed to enqueue source %d: %w", uint64(source.Id), err)
		}
		fmt.Fprintf(os.Stderr, "Enqueued job %d for %s\n", uint64(job.Id), sourceLocation(source))
	}

	fmt.Fprintf(os.Stderr, "Crawling %d sources...\n", len(sources))
	pipeline.Drain()

	statuses, err := pipeline.StatusBySource(ctx, personaID)
	if err != nil {
		return fmt.Errorf("failed to read job status: %w", err)
	}

	failed := 0
	for _, status := range statuses {
		if status.Job == nil {
			continue
		}
		if status.Job.Status == core.JobStatusFailed {
			failed++
			fmt.Fprintf(os.Stderr, "FAILED %s: %s\n", sourceLocation(status.Source), status.Job.Error)
			continue
		}
		fmt.Fprintf(os.Stderr, "%s %s\n", strings.ToUpper(status.Job.Status.String()), sourceLocation(status.Source))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d sources failed", failed, len(sources))
	}
	return nil
}

func statusCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	pipeline, err := db.NewIngestionPipeline()
	if err != nil {
		return fmt.Errorf("failed to create ingestion pipeline: %w", err)
	}
	defer pipeline.Release()

	statuses, err := pipeline.StatusBySource(ctx, c.String("persona"))
	if err != nil {
		return fmt.Errorf("failed to read status: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tURL\tSTATE\tSTAGE\tATTEMPT\tERROR")
	for _, status := range statuses {
		stage, attempt, jobError := "-", "-", ""
		if status.Job != nil {
			stage = status.Job.Stage.String()
			attempt = fmt.Sprintf("%d", status.Job.Attempt)
			jobError = status.Job.Error
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			uint64(status.Source.Id),
			status.Source.Type,
			sourceLocation(status.Source),
			status.State(),
			stage,
			attempt,
			jobError,
		)
	}
	return w.Flush()
}

func chatCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	var opts []rag.Option
	if c.IsSet("max-hits") {
		opts = append(opts, rag.WithMaxHits(c.Int("max-hits")))
	}

	responder, err := db.NewResponder(opts...)
	if err != nil {
		return fmt.Errorf("failed to create responder: %w", err)
	}

	reply, err := responder.Chat(ctx, c.String("persona"), c.String("message"))
	if err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}

	fmt.Println(reply.Text)
	if len(reply.Sources) > 0 {
		fmt.Println()
		fmt.Println("Sources:")
		for _, source := range reply.Sources {
			fmt.Printf("  [%s] %s (%.2f)\n", source.Type, source.URL, source.Similarity)
		}
	}
	return nil
}

func sourceLocation(source *core.ContentSource) string {
	if source.URL != "" {
		return source.URL
	}
	return fmt.Sprintf("uploaded %s (%d bytes)", source.Type, len(source.RawContent))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
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

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
