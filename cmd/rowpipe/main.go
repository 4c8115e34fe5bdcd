// Package main implements the rowpipe CLI for validating tabular files
// against a declarative JSON schema.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	rv "github.com/rowpipe/validator"
	"github.com/rowpipe/validator/cache"
	"github.com/rowpipe/validator/engine"
	"github.com/rowpipe/validator/schema"
	"github.com/rowpipe/validator/source"
)

const usage = `rowpipe - tabular record validator

Usage:
  rowpipe -schema schema.json [options] <file>...
  rowpipe -schema schema.json [options] -    (read CSV from stdin)

Examples:
  rowpipe -schema users.json transactions.csv
  rowpipe -schema users.json -workers 16 -chunk-size 10000 data.csv
  rowpipe -schema users.json -cache -cache-dir .rowpipe_cache data.csv
  rowpipe -schema users.json -output json events.jsonl
  cat data.csv | rowpipe -schema users.json -

Options:
`

// envConfig carries defaults picked up from the environment (and .env).
// Explicit flags win over environment values.
type envConfig struct {
	Workers   int    `env:"ROWPIPE_WORKERS"`
	ChunkSize int    `env:"ROWPIPE_CHUNK_SIZE"`
	BatchSize int    `env:"ROWPIPE_BATCH_SIZE"`
	CacheDir  string `env:"ROWPIPE_CACHE_DIR" envDefault:".rowpipe_cache"`
	RedisURL  string `env:"ROWPIPE_REDIS_URL"`
	LogLevel  string `env:"ROWPIPE_LOG_LEVEL" envDefault:"warn"`
}

// config holds the resolved CLI configuration.
type config struct {
	SchemaPath  string
	Parallel    bool
	Workers     int
	ChunkSize   int
	BatchSize   int
	MaxErrors   int
	UseCache    bool
	CacheDir    string
	RedisURL    string
	FastHash    bool
	Output      string
	Stream      bool
	Quiet       bool
	Verbose     bool
	ShowVersion bool
	Files       []string
}

// fileOutput is the JSON report for one validated file.
type fileOutput struct {
	File        string               `json:"file"`
	TotalRows   uint64               `json:"totalRows"`
	ValidRows   uint64               `json:"validRows"`
	InvalidRows uint64               `json:"invalidRows"`
	SuccessRate float64              `json:"successRate"`
	Errors      []rv.ValidationError `json:"errors,omitempty"`
	Duration    string               `json:"duration"`
}

func main() {
	os.Exit(run())
}

func run() int {
	// .env is optional; absence is not an error.
	_ = godotenv.Load()

	var envCfg envConfig
	if err := env.Parse(&envCfg); err != nil {
		fmt.Fprintf(os.Stderr, "rowpipe: invalid environment: %v\n", err)
		return 2
	}

	cfg := parseFlags(envCfg)

	if cfg.ShowVersion {
		fmt.Printf("rowpipe %s\n", rv.Version)
		return 0
	}
	if cfg.SchemaPath == "" || len(cfg.Files) == 0 {
		flag.Usage()
		return 2
	}

	logger := newLogger(cfg, envCfg.LogLevel)

	schemaData, err := os.ReadFile(cfg.SchemaPath)
	if err != nil {
		logger.Error("reading schema", "path", cfg.SchemaPath, "error", err)
		return 2
	}
	s, err := schema.FromJSON(schemaData)
	if err != nil {
		logger.Error("building schema", "path", cfg.SchemaPath, "error", err)
		return 2
	}

	opts := []rv.Option{
		rv.WithParallel(cfg.Parallel),
		rv.WithLogger(logger),
	}
	if cfg.Workers > 0 {
		opts = append(opts, rv.WithWorkerCount(cfg.Workers))
	}
	if cfg.ChunkSize > 0 {
		opts = append(opts, rv.WithChunkSize(cfg.ChunkSize))
	}
	if cfg.BatchSize > 0 {
		opts = append(opts, rv.WithBatchSize(cfg.BatchSize))
	}
	if cfg.MaxErrors > 0 {
		opts = append(opts, rv.WithMaxErrors(cfg.MaxErrors))
	}
	if cfg.FastHash {
		opts = append(opts, rv.WithHasher(cache.XXHasher{}))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.UseCache {
		store, err := openStore(ctx, cfg, logger)
		if err != nil {
			logger.Error("opening cache store", "error", err)
			return 2
		}
		opts = append(opts, rv.WithCache(store))
	}

	v := engine.New(s, opts...)

	anyInvalid := false
	for _, file := range cfg.Files {
		code := validateOne(ctx, v, cfg, file)
		switch code {
		case 1:
			anyInvalid = true
		case 2:
			return 2
		}
	}
	if anyInvalid {
		return 1
	}
	return 0
}

func parseFlags(envCfg envConfig) config {
	cfg := config{}

	flag.StringVar(&cfg.SchemaPath, "schema", "", "path to the JSON schema description (required)")
	flag.BoolVar(&cfg.Parallel, "parallel", true, "validate chunks in parallel")
	flag.IntVar(&cfg.Workers, "workers", envCfg.Workers, "worker count (0 = number of CPUs)")
	flag.IntVar(&cfg.ChunkSize, "chunk-size", envCfg.ChunkSize, "rows per worker chunk (0 = derived)")
	flag.IntVar(&cfg.BatchSize, "batch-size", envCfg.BatchSize, "rows per streaming batch (0 = default)")
	flag.IntVar(&cfg.MaxErrors, "max-errors", 0, "cap on reported errors per file (0 = unlimited)")
	flag.BoolVar(&cfg.UseCache, "cache", false, "skip re-validation of unchanged inputs")
	flag.StringVar(&cfg.CacheDir, "cache-dir", envCfg.CacheDir, "directory for the filesystem cache")
	flag.StringVar(&cfg.RedisURL, "redis", envCfg.RedisURL, "redis URL for a shared cache store (overrides -cache-dir)")
	flag.BoolVar(&cfg.FastHash, "fast-hash", false, "use xxhash instead of SHA-256 for cache keys")
	flag.StringVar(&cfg.Output, "output", "text", "output format: text or json")
	flag.BoolVar(&cfg.Stream, "stream", false, "report per-batch progress instead of one final result")
	flag.BoolVar(&cfg.Quiet, "quiet", false, "suppress per-error output")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "enable debug logging")
	flag.BoolVar(&cfg.ShowVersion, "version", false, "print version and exit")

	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg.Files = flag.Args()
	return cfg
}

func newLogger(cfg config, envLevel string) *slog.Logger {
	level := slog.LevelWarn
	switch envLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func openStore(ctx context.Context, cfg config, logger *slog.Logger) (rv.Store, error) {
	if cfg.RedisURL != "" {
		logger.Debug("using redis cache store", "url", cfg.RedisURL)
		return cache.ConnectRedis(ctx, cfg.RedisURL, 24*time.Hour)
	}
	logger.Debug("using filesystem cache store", "dir", cfg.CacheDir)
	return cache.NewFSStore(cfg.CacheDir, 0)
}

// validateOne validates a single file (or stdin) and prints its report.
// Returns 0 when all rows pass, 1 when invalid rows were found, 2 on
// fatal errors.
func validateOne(ctx context.Context, v *engine.Validator, cfg config, file string) int {
	start := time.Now()

	var (
		result *rv.Result
		err    error
	)
	switch {
	case file == "-":
		result, err = v.ValidateSource(ctx, source.NewCSV(os.Stdin))
	case cfg.Stream:
		result, err = streamFile(ctx, v, cfg, file)
	default:
		result, err = v.ValidateFile(ctx, file)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "rowpipe: %s: %v\n", file, err)
		return 2
	}

	printReport(cfg, file, result, time.Since(start))
	if !result.Valid() {
		return 1
	}
	return 0
}

func streamFile(ctx context.Context, v *engine.Validator, cfg config, file string) (*rv.Result, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	results := v.StreamValidate(ctx, source.ForPath(file, f))
	total := rv.NewResult()
	for br := range results {
		if br.Err != nil {
			return nil, br.Err
		}
		total.Merge(br.Result)
		if !cfg.Quiet && cfg.Output == "text" {
			fmt.Printf("  batch @%d: %d/%d valid\n", br.Start, br.Result.ValidCount, br.Result.TotalRows)
		}
	}
	return total, nil
}

func printReport(cfg config, file string, result *rv.Result, elapsed time.Duration) {
	rate, rateErr := result.SuccessRate()

	if cfg.Output == "json" {
		out := fileOutput{
			File:        file,
			TotalRows:   result.TotalRows,
			ValidRows:   result.ValidCount,
			InvalidRows: result.InvalidCount,
			SuccessRate: rate,
			Duration:    elapsed.String(),
		}
		if !cfg.Quiet {
			out.Errors = result.Errors
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
		return
	}

	if rateErr != nil {
		fmt.Printf("%s: no rows (%s)\n", file, elapsed.Round(time.Millisecond))
		return
	}
	fmt.Printf("%s: %d rows, %d valid, %d invalid (%.2f%%) in %s\n",
		file, result.TotalRows, result.ValidCount, result.InvalidCount, rate,
		elapsed.Round(time.Millisecond))

	if !cfg.Quiet {
		for _, e := range result.Errors {
			fmt.Printf("  %s\n", e.Error())
		}
	}
}
