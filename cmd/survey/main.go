package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"survey-stats/internal/config"
	"survey-stats/internal/logging"
	"survey-stats/internal/report"
)

var (
	// Global flags
	verbose    bool
	configPath string
	dataPath   string
	sheetName  string
	formatName string

	cfg    *config.Config
	format report.Format

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "survey",
	Short: "Hypothesis batteries over BNPL survey responses",
	Long: `survey loads a survey export (xlsx, csv or a Postgres table), matches the
question columns by keyword, builds Likert composite indices and runs the
H1 (trust, quality, service vs security belief) and H2 (exclusivity and
status) batteries.

Configuration is read from survey.yaml when present, then from the
environment, then flags. Environment overrides:

  SURVEY_DATA       survey file path
  SURVEY_SHEET      workbook sheet
  SURVEY_LOG_LEVEL  debug, info, warn or error
  PORT              HTTP port for serve
  DATABASE_URL      Postgres connection URL
  SURVEY_PG_TABLE   load the survey from this Postgres table
  SURVEY_MIN_PAIRS  minimum complete pairs for a correlation`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if dataPath != "" {
			cfg.Data.Path = dataPath
		}
		if sheetName != "" {
			cfg.Data.Sheet = sheetName
		}
		format, err = report.ParseFormat(formatName)
		if err != nil {
			return err
		}

		// Initialize logger
		logger, err = logging.New(cfg.Logging, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: "+config.DefaultPath+")")
	rootCmd.PersistentFlags().StringVarP(&dataPath, "data", "d", "", "Survey file, .xlsx or .csv (overrides config)")
	rootCmd.PersistentFlags().StringVar(&sheetName, "sheet", "", "Workbook sheet (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&formatName, "format", "f", "text", "Output format: text or json")

	// Add commands to root
	rootCmd.AddCommand(h1Cmd)
	rootCmd.AddCommand(h2Cmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
