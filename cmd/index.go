package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vzahanych/weather-rag-app/internal/config"
	"github.com/vzahanych/weather-rag-app/internal/knowledge"
)

func indexCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build or load the knowledge index",
		Long: `Chunk and embed the knowledge base and persist the index, or load the
persisted index when it matches the configured embedder.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig()

			embedder, err := knowledge.NewEmbedder(cfg.RAG.Embedder, cfg.LLM)
			if err != nil {
				return err
			}

			opts := knowledge.OptionsFromConfig(cfg.RAG)
			opts.ForceRebuild = opts.ForceRebuild || force

			idx, err := knowledge.BuildIndex(cmd.Context(), opts, embedder, log, tele)
			if err != nil {
				return err
			}

			meta := idx.Meta()
			fmt.Fprintf(cmd.OutOrStdout(), "%d chunks from %s (%s, built %s)\n",
				idx.Len(), opts.SourceDir, meta.EmbeddingModel, meta.BuiltAt.Format("2006-01-02 15:04:05 MST"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "ignore the persisted index and rebuild")

	return cmd
}
