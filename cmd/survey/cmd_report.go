package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"survey-stats/internal/analysis"
	"survey-stats/internal/report"
	"survey-stats/internal/service"
	"survey-stats/internal/state"
)

// h1Cmd runs the security belief battery
var h1Cmd = &cobra.Command{
	Use:   "h1",
	Short: "Correlate trust, quality and service with the security belief",
	Long: `Filters respondents to the configured age groups, scores the belief that
the brand's internal payment is more secure than external BNPL, and
correlates it (Spearman, one-sided) with the trust, quality and service
indices. Agreeing and disagreeing respondents are compared with Welch's t.`,
	Args: cobra.NoArgs,
	RunE: runH1,
}

// h2Cmd runs the exclusivity and status battery
var h2Cmd = &cobra.Command{
	Use:   "h2",
	Short: "Test exclusivity perception and the high-status belief",
	Long: `Builds the exclusivity index, tests it against the neutral midpoint, and
relates financial stability to the belief that BNPL attracts high-status
shoppers (Welch's t, chi-square, Fisher's exact for small counts).`,
	Args: cobra.NoArgs,
	RunE: runH2,
}

// runCmd runs both batteries over one load of the dataset
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the H1 and H2 batteries",
	Args:  cobra.NoArgs,
	RunE:  runAll,
}

// profileCmd prints column quality and index membership
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Profile the survey columns and show which items each index uses",
	Args:  cobra.NoArgs,
	RunE:  runProfile,
}

func runH1(cmd *cobra.Command, args []string) error {
	df, err := loadDataset(cmd.Context())
	if err != nil {
		return err
	}
	rep, err := newHypothesisService().RunH1(df)
	if err != nil {
		return err
	}
	return report.Write(cmd.OutOrStdout(), format, rep)
}

func runH2(cmd *cobra.Command, args []string) error {
	df, err := loadDataset(cmd.Context())
	if err != nil {
		return err
	}
	rep, err := newHypothesisService().RunH2(df)
	if err != nil {
		return err
	}
	return report.Write(cmd.OutOrStdout(), format, rep)
}

func runAll(cmd *cobra.Command, args []string) error {
	df, err := loadDataset(cmd.Context())
	if err != nil {
		return err
	}
	svc := newHypothesisService()

	h1, err := svc.RunH1(df)
	if err != nil {
		return err
	}
	h2, err := svc.RunH2(df)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == report.FormatJSON {
		return report.WriteJSON(out, struct {
			H1 interface{} `json:"h1"`
			H2 interface{} `json:"h2"`
		}{h1, h2})
	}
	if err := report.WriteH1(out, h1); err != nil {
		return err
	}
	return report.WriteH2(out, h2)
}

func runProfile(cmd *cobra.Command, args []string) error {
	df, err := loadDataset(cmd.Context())
	if err != nil {
		return err
	}
	return report.Write(cmd.OutOrStdout(), format, analysis.NewProfiler().Profile(df))
}

func newHypothesisService() *service.HypothesisService {
	return service.NewHypothesisService(logger, cfg.Analysis)
}

// loadDataset reads the survey from Postgres when a table is configured,
// otherwise from the data file.
func loadDataset(ctx context.Context) (*state.DataFrame, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	pg := cfg.Data.Postgres
	if pg.Enabled() {
		src := analysis.NewPostgresSource(nil)
		if err := src.Connect(ctx, pg); err != nil {
			return nil, err
		}
		defer src.Close()

		df, err := src.LoadTable(ctx, pg.Table, pg.Limit)
		if err != nil {
			return nil, fmt.Errorf("load table %s: %w", pg.Table, err)
		}
		logger.Info("Loaded survey table", zap.String("table", pg.Table), zap.Int("rows", df.NumRows()))
		return df, nil
	}

	df, err := analysis.LoadFile(cfg.Data.Path, cfg.Data.Sheet)
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded survey file",
		zap.String("path", cfg.Data.Path),
		zap.String("sheet", df.Sheet),
		zap.Int("rows", df.NumRows()),
		zap.Int("columns", len(df.Headers)))
	return df, nil
}
