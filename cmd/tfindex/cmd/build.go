package cmd

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/tfindex/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/tfindex/pkg/metrics"
)

func newBuildCmd(flags *globalFlags) *cobra.Command {
	var (
		corpusPath string
		format     string
		resident   bool
		workers    int
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the forward and inverted index from the corpus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("corpus") {
				cfg.Corpus.Path = corpusPath
			}
			if cmd.Flags().Changed("format") {
				cfg.Corpus.Format = format
			}
			if cmd.Flags().Changed("resident") {
				cfg.Index.Resident = resident
			}
			if cmd.Flags().Changed("workers") {
				cfg.Index.Workers = max(workers, 1)
			}
			ctx := cmd.Context()

			source, err := corpus.New(cfg.Corpus.Format)
			if err != nil {
				return err
			}
			defer source.Close()
			extractor, err := newExtractor(cfg.Extractor)
			if err != nil {
				return err
			}

			opts := indexer.OptionsFromConfig(cfg.Index, cfg.Corpus)
			opts.Logger = slog.Default()
			opts.Progress = indexer.NewLogProgress(slog.Default(), cfg.Index.ProgressEvery)
			if cfg.Metrics.Enabled {
				opts.Metrics = metrics.New(prometheus.DefaultRegisterer)
				shutdown := metrics.StartServer(cfg.Metrics.Port)
				defer shutdown(ctx)
			}
			ix, err := indexer.New(opts, source, extractor)
			if err != nil {
				return err
			}
			defer ix.Close()

			summary, err := ix.Build(ctx)
			if err != nil {
				return fmt.Errorf("building index: %w", err)
			}

			store, release, err := openCatalog(ctx, cfg)
			if err != nil {
				return err
			}
			defer release()
			if err := store.Save(ctx, ix.Tables()); err != nil {
				return fmt.Errorf("saving catalog: %w", err)
			}

			if cfg.Kafka.Enabled {
				producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.IndexComplete)
				defer producer.Close()
				if err := producer.Publish(ctx, kafka.Event{Key: summary.Name, Value: summary}); err != nil {
					slog.Warn("build-complete event not published", "error", err)
				}
			}
			return printJSON(cmd.OutOrStdout(), summary)
		},
	}
	cmd.Flags().StringVar(&corpusPath, "corpus", "", "Corpus file (overrides corpus.path)")
	cmd.Flags().StringVar(&format, "format", "", "Corpus format: cacm or lines")
	cmd.Flags().BoolVar(&resident, "resident", false, "Keep forward records in memory")
	cmd.Flags().IntVar(&workers, "workers", 1, "Parallel term extraction workers")
	return cmd
}
