package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"FinSimples/internal/di"
	"FinSimples/internal/domain/models"
	"FinSimples/internal/repository/artifacts"
	"FinSimples/internal/services/features"
	"FinSimples/pkg/config"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	envFile    string
}

func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.LoadWithEnv(o.configPath, o.envFile)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	return cfg, nil
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "finsimples",
		Short:         "Expected annual return predictions for B3 stocks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file (defaults only when empty)")
	root.PersistentFlags().StringVar(&opts.envFile, "env", ".env", "dotenv file loaded before the environment overrides")

	root.AddCommand(
		newServeCommand(opts),
		newPredictCommand(opts),
		newSpecCommand(opts),
	)
	return root
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			app, cleanup, err := di.InitializeApp(cfg)
			if err != nil {
				return fmt.Errorf("app initialization failed: %w", err)
			}
			defer cleanup()
			return app.Run(cmd.Context())
		},
	}
}

func newPredictCommand(opts *rootOptions) *cobra.Command {
	var (
		years    int
		insights bool
	)
	cmd := &cobra.Command{
		Use:   "predict <ticker>",
		Short: "Predict the expected annual return of one ticker and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			rt, cleanup, err := di.InitializeRuntime(cfg)
			if err != nil {
				return fmt.Errorf("runtime initialization failed: %w", err)
			}
			defer cleanup()

			if !cmd.Flags().Changed("years") {
				years = cfg.Insights.DefaultYears
			}

			res := rt.Predictor.Predict(cmd.Context(), args[0])
			out := models.PredictResponse{
				Ticker:          res.Ticker,
				PredictedReturn: res.Value,
				Status:          res.Status,
				Message:         res.Message,
				HorizonYears:    years,
			}
			if res.OK() && insights {
				in := rt.Insights.Generate(cmd.Context(), res.Ticker, *res.Value, years)
				out.Analysis = in.Analysis
				out.LongTermOutlook = in.LongTermOutlookPercent
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(out); err != nil {
				return err
			}
			if !res.OK() {
				return fmt.Errorf("prediction %s: %s", res.Status, res.Message)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&years, "years", 5, "investment horizon for the narrative")
	cmd.Flags().BoolVar(&insights, "insights", false, "also generate the narrative analysis")
	return cmd
}

func newSpecCommand(opts *rootOptions) *cobra.Command {
	var (
		version string
		out     string
	)
	cmd := &cobra.Command{
		Use:   "spec",
		Short: "Write the feature spec matching the configured booster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if out == "" {
				out = cfg.Artifacts.FeatureSpecPath
			}

			raw, err := os.ReadFile(cfg.Artifacts.BoosterPath)
			if err != nil {
				return fmt.Errorf("read booster: %w", err)
			}
			booster, err := artifacts.ParseBooster(raw)
			if err != nil {
				return fmt.Errorf("parse booster: %w", err)
			}

			names := features.NewExtractor().FeatureNames()
			if booster.NumFeatures() != len(names) {
				return fmt.Errorf("booster expects %d features, pipeline provides %d", booster.NumFeatures(), len(names))
			}

			spec := models.FeatureSpec{
				Version:       version,
				Features:      names,
				BoosterSHA256: artifacts.SHA256Hex(raw),
				CreatedAt:     time.Now().UTC().Truncate(time.Second),
			}
			if err := artifacts.WriteFeatureSpec(out, spec); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d features, booster %s)\n", out, len(names), spec.BoosterSHA256[:12])
			return nil
		},
	}
	cmd.Flags().StringVar(&version, "version", "1", "feature spec version label")
	cmd.Flags().StringVar(&out, "out", "", "output path (defaults to artifacts.feature_spec_path)")
	return cmd
}
