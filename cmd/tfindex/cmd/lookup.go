package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/searcher/weighter"
	"github.com/Adithya-Monish-Kumar-K/tfindex/pkg/config"
)

// lookupCmd builds a command that opens the index from its catalog and
// prints whatever run returns as JSON.
func lookupCmd(flags *globalFlags, use, short string, args cobra.PositionalArgs,
	run func(ctx context.Context, cfg *config.Config, ix *indexer.Index, args []string) (any, error),
) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			ix, err := openIndex(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			defer ix.Close()
			out, err := run(cmd.Context(), cfg, ix, args)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}

func newDocCmd(flags *globalFlags) *cobra.Command {
	return lookupCmd(flags, "doc <id>", "Print the term counts of a document", cobra.ExactArgs(1),
		func(_ context.Context, _ *config.Config, ix *indexer.Index, args []string) (any, error) {
			return ix.TermsForDocument(args[0])
		})
}

func newTermCmd(flags *globalFlags) *cobra.Command {
	return lookupCmd(flags, "term <term>", "Print the documents containing a term", cobra.ExactArgs(1),
		func(_ context.Context, _ *config.Config, ix *indexer.Index, args []string) (any, error) {
			return ix.DocsForTerm(args[0])
		})
}

func newTextCmd(flags *globalFlags) *cobra.Command {
	return lookupCmd(flags, "text <id>", "Print the raw corpus text of a document", cobra.ExactArgs(1),
		func(_ context.Context, _ *config.Config, ix *indexer.Index, args []string) (any, error) {
			text, err := ix.SourceText(args[0])
			if err != nil {
				return nil, err
			}
			return string(text), nil
		})
}

func newQueryCmd(flags *globalFlags) *cobra.Command {
	var invocab bool
	cmd := lookupCmd(flags, "query <text>", "Print the weight vector of a query", cobra.MinimumNArgs(1),
		func(_ context.Context, _ *config.Config, ix *indexer.Index, args []string) (any, error) {
			w := weighter.New(ix, ix.Extractor())
			weights := w.ForQuery(strings.Join(args, " "))
			if invocab {
				weights = w.InVocabulary(weights)
			}
			return weights, nil
		})
	cmd.Flags().BoolVar(&invocab, "invocab", false, "Drop query terms outside the vocabulary")
	return cmd
}

func newRankCmd(flags *globalFlags) *cobra.Command {
	var (
		limit int
		model string
	)
	cmd := lookupCmd(flags, "rank <text>", "Rank documents for a query", cobra.MinimumNArgs(1),
		func(ctx context.Context, cfg *config.Config, ix *indexer.Index, args []string) (any, error) {
			if model == "" {
				model = cfg.Search.Model
			}
			m, err := ranker.NewModel(model, ix)
			if err != nil {
				return nil, err
			}
			if limit == 0 {
				limit = cfg.Search.DefaultLimit
			}
			return ranker.Rank(ctx, m, strings.Join(args, " "), limit)
		})
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum results (default search.defaultLimit, negative for all)")
	cmd.Flags().StringVar(&model, "model", "", "Ranking model: bm25 or vector (default search.model)")
	return cmd
}
