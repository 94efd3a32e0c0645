// Copyright 2025 Veridia Labs
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
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v2"

	"github.com/veridia/clausewise"
	"github.com/veridia/clausewise/ai"
	"github.com/veridia/clausewise/ai/openai"
	"github.com/veridia/clausewise/config"
	"github.com/veridia/clausewise/core"
	"github.com/veridia/clausewise/normalize"
	"github.com/veridia/clausewise/pipeline"
	"github.com/veridia/clausewise/prewarm"
	"github.com/veridia/clausewise/storage/badger"
)

func main() {
	app := &cli.App{
		Name:  "clausewise",
		Usage: "Clause portfolio analysis for insurance policies",
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
				Name:   "analyze",
				Usage:  "Cluster clauses and produce one advice per cluster",
				Action: analyzeCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "clauses",
						Usage:    "Path to clause rows (JSONL: {text, source_ref})",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "library",
						Usage: "Path to clause-library sections (JSONL: {text, title})",
					},
					&cli.StringFlag{
						Name:  "conditions",
						Usage: "Path to policy-conditions sections (JSONL: {text, title})",
					},
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to YAML configuration",
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL (overrides config)",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name (overrides config; empty disables the semantic signal)",
					},
					&cli.StringFlag{
						Name:  "cache-dir",
						Usage: "Directory for the persistent vector cache (default: in-memory)",
					},
				},
			},
			{
				Name:   "prewarm",
				Usage:  "Embed corpus texts into the vector cache ahead of jobs",
				Action: prewarmCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "cache-dir",
						Usage:    "Directory for the persistent vector cache",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:  "corpus",
						Usage: "Path to corpus sections (JSONL: {text, title}); repeatable",
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:     "embedding-model",
						Usage:    "Embedding model name",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of texts to embed in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N texts",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed batches",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
			{
				Name:   "validate-config",
				Usage:  "Validate a configuration file without running a job",
				Action: validateConfigCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Usage:    "Path to YAML configuration",
						Required: true,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func analyzeCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if host := c.String("embedding-host"); host != "" {
		cfg.Embedding.Host = host
	}
	if c.IsSet("embedding-model") {
		cfg.Embedding.Model = c.String("embedding-model")
	}
	if dir := c.String("cache-dir"); dir != "" {
		cfg.Embedding.CacheDir = dir
	}

	rows, err := readRows(c.String("clauses"))
	if err != nil {
		return fmt.Errorf("reading clauses: %w", err)
	}

	analyzer, err := clausewise.NewAnalyzer(cfg)
	if err != nil {
		return err
	}
	defer analyzer.Close()

	if path := c.String("library"); path != "" {
		sections, err := readSections(analyzer, path)
		if err != nil {
			return fmt.Errorf("reading library: %w", err)
		}
		analyzer.SetLibrary(sections)
	}
	if path := c.String("conditions"); path != "" {
		sections, err := readSections(analyzer, path)
		if err != nil {
			return fmt.Errorf("reading conditions: %w", err)
		}
		analyzer.SetConditions(sections)
	}

	result, err := analyzer.Analyze(ctx, rows)
	if err != nil {
		return err
	}

	return writeResult(os.Stdout, result)
}

func prewarmCommand(c *cli.Context) error {
	ctx := context.Background()

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid embedding configuration: %w", err)
	}

	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	backend, err := badger.OpenBackend(c.String("cache-dir"), false)
	if err != nil {
		return fmt.Errorf("failed to open vector cache: %w", err)
	}
	defer backend.Close()

	cache, err := badger.NewVectorCache(backend)
	if err != nil {
		return err
	}

	var texts []string
	for _, path := range c.StringSlice("corpus") {
		err := readLines(path, func(line []byte) error {
			var row sectionRow
			if err := json.Unmarshal(line, &row); err != nil {
				return err
			}
			texts = append(texts, row.Text)
			return nil
		})
		if err != nil {
			return fmt.Errorf("reading corpus %s: %w", path, err)
		}
	}

	prewarmConfig := &prewarm.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}

	warmer, err := prewarm.NewPrewarmer(cache, embedder, normalize.New(), prewarmConfig, os.Stderr)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Cache: %s\n", c.String("cache-dir"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	if err := warmer.Run(ctx, texts); err != nil {
		return fmt.Errorf("prewarming failed: %w", err)
	}
	return nil
}

func validateConfigCommand(c *cli.Context) error {
	if _, err := config.Load(c.String("config")); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "configuration is valid")
	return nil
}

// clauseRow is one input line of the clauses file.
type clauseRow struct {
	Text      string `json:"text"`
	SourceRef string `json:"source_ref"`
}

// sectionRow is one input line of a corpus file.
type sectionRow struct {
	Text  string `json:"text"`
	Title string `json:"title"`
}

func readRows(path string) ([]pipeline.Row, error) {
	var rows []pipeline.Row
	err := readLines(path, func(line []byte) error {
		var row clauseRow
		if err := json.Unmarshal(line, &row); err != nil {
			return err
		}
		rows = append(rows, pipeline.Row{Text: row.Text, SourceRef: row.SourceRef})
		return nil
	})
	return rows, err
}

func readSections(analyzer *clausewise.Analyzer, path string) ([]*core.ReferenceSection, error) {
	var texts, titles []string
	err := readLines(path, func(line []byte) error {
		var row sectionRow
		if err := json.Unmarshal(line, &row); err != nil {
			return err
		}
		texts = append(texts, row.Text)
		titles = append(titles, row.Title)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return analyzer.Sections(path, texts, titles), nil
}

func readLines(path string, handle func([]byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := handle(line); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	return scanner.Err()
}

// adviceOut is the export form of one advice.
type adviceOut struct {
	ClusterId  int      `json:"cluster_id"`
	Frequency  int      `json:"frequency"`
	Leader     string   `json:"leader"`
	Action     string   `json:"action"`
	Confidence string   `json:"confidence"`
	Stage      string   `json:"stage"`
	Reason     string   `json:"reason"`
	Reference  *refOut  `json:"reference,omitempty"`
	MemberIds  []string `json:"member_ids,omitempty"`
}

type refOut struct {
	Title    string `json:"title"`
	Document string `json:"document"`
}

type resultOut struct {
	JobId    string         `json:"job_id"`
	Clusters int            `json:"clusters"`
	Summary  map[string]int `json:"summary"`
	Advices  []adviceOut    `json:"advices"`
}

func writeResult(w *os.File, result *pipeline.Result) error {
	out := resultOut{
		JobId:    result.JobId,
		Clusters: len(result.Clusters),
		Summary:  result.Summary,
		Advices:  make([]adviceOut, 0, len(result.Advices)),
	}

	byId := make(map[int]*core.Cluster, len(result.Clusters))
	for _, c := range result.Clusters {
		byId[c.Id] = c
	}

	for _, advice := range result.Advices {
		a := adviceOut{
			ClusterId:  advice.ClusterId,
			Action:     advice.Action.String(),
			Confidence: advice.Confidence.String(),
			Stage:      advice.Stage,
			Reason:     advice.Reason,
		}
		if c := byId[advice.ClusterId]; c != nil {
			a.Frequency = c.Frequency()
			if c.Leader != nil {
				a.Leader = c.Leader.RawText
			}
			for _, id := range c.MemberIds {
				a.MemberIds = append(a.MemberIds, fmt.Sprintf("%d", id))
			}
		}
		if advice.Reference != nil {
			a.Reference = &refOut{
				Title:    advice.Reference.Title,
				Document: advice.Reference.SourceDocument,
			}
		}
		out.Advices = append(out.Advices, a)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
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
