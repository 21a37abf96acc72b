package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vzahanych/weather-rag-app/internal/config"
	"github.com/vzahanych/weather-rag-app/internal/predictor"
)

func predictCmd() *cobra.Command {
	var noRAG bool

	cmd := &cobra.Command{
		Use:     "predict <postal_code> [country]",
		Short:   "Print a forecast summary for a postal code",
		Example: "  weather-rag predict 90210 US",
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := predictor.Request{
				PostalCode: args[0],
				Country:    predictor.DefaultCountry,
			}
			if len(args) == 2 {
				req.Country = args[1]
			}
			if noRAG {
				off := false
				req.UseRAG = &off
			}

			app, err := buildComponents(config.GetConfig())
			if err != nil {
				return err
			}

			result, err := app.predictor.Predict(cmd.Context(), req)
			if err != nil {
				return err
			}
			if !result.Success {
				return errors.New(result.Error)
			}

			fmt.Fprintln(cmd.OutOrStdout(), result.Message)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noRAG, "no-rag", false, "skip knowledge retrieval for this request")

	return cmd
}
