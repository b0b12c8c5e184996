// Package cmd provides the CLI commands for tfindex.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/indexer/catalog"
	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/tfindex/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/tfindex/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/tfindex/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/tfindex/pkg/postgres"
)

type globalFlags struct {
	configPath string
	logLevel   string
}

// NewRootCmd creates the root command for the tfindex CLI.
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}
	cmd := &cobra.Command{
		Use:   "tfindex",
		Short: "Forward and inverted term-frequency index",
		Long: `tfindex builds a two-sided term-frequency index over a document corpus
and answers document, term, query-weight and ranking lookups against it,
from the command line or over HTTP.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to YAML config file")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")

	cmd.AddCommand(newBuildCmd(flags))
	cmd.AddCommand(newDocCmd(flags))
	cmd.AddCommand(newTermCmd(flags))
	cmd.AddCommand(newTextCmd(flags))
	cmd.AddCommand(newQueryCmd(flags))
	cmd.AddCommand(newRankCmd(flags))
	cmd.AddCommand(newServeCmd(flags))
	return cmd
}

// Execute runs the root command with SIGINT/SIGTERM cancelling its context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

func loadConfig(flags *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	return cfg, nil
}

func newExtractor(cfg config.ExtractorConfig) (tokenizer.Extractor, error) {
	var stop map[string]struct{}
	if len(cfg.Stopwords) > 0 {
		stop = tokenizer.StopwordSet(cfg.Stopwords)
	}
	return tokenizer.New(cfg.Name, stop)
}

// openCatalog returns the configured catalog store and a function releasing
// its resources.
func openCatalog(ctx context.Context, cfg *config.Config) (catalog.Store, func(), error) {
	switch cfg.Catalog.Backend {
	case "postgres":
		client, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		store := catalog.NewPostgresStore(client)
		if err := store.EnsureSchema(ctx); err != nil {
			client.Close()
			return nil, nil, err
		}
		return store, func() { client.Close() }, nil
	default:
		return catalog.NewFileStore(cfg.Catalog.Dir), func() {}, nil
	}
}

// openIndex loads the index named in cfg from its catalog.
func openIndex(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*indexer.Index, error) {
	store, release, err := openCatalog(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer release()

	tables, err := store.Load(ctx, cfg.Index.Name)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	extractor, err := newExtractor(cfg.Extractor)
	if err != nil {
		return nil, err
	}
	opts := indexer.OptionsFromConfig(cfg.Index, cfg.Corpus)
	opts.Logger = slog.Default()
	opts.Metrics = m
	return indexer.Open(opts, tables, extractor)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
