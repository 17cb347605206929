package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/spektr-org/progdash/helpers"
	"github.com/spektr-org/progdash/schema"
)

// ============================================================================
// PROGDASH CLI — Programme performance dashboard
// ============================================================================

const version = "0.3.0"

var (
	// Global flags
	configPath string
	envFiles   []string
	filePath   string
	sheets     []string
	headerRow  int
	verbose    bool

	cfg    *schema.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:     "progdash",
	Short:   "Programme performance dashboard",
	Version: version,
	Long: `progdash loads a programme performance sheet (CSV, XLSX, XLS, SQLite or
Postgres), applies cascading filters and prints or serves the dashboard:
KPI cards, summary tables, charts and the project detail table.

Examples:
  progdash report --file projects.xlsx --sheet 2024 --filter YEAR=2024
  progdash report --file projects.csv --filter "MDA=Ministry of Health,SUBEB" --format csv --out report.csv
  progdash options MDA --file projects.csv --filter COFOG=Health
  progdash discover --file export.csv --out progdash.yaml
  progdash serve --config progdash.yaml --addr :8080`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := schema.LoadDotEnv(envFiles...); err != nil {
			return err
		}

		c, err := schema.Load(configPath)
		if err != nil {
			return err
		}
		applyFlags(c)
		cfg = c

		logger, err = newLogger(c.Logging, verbose)
		if err != nil {
			return errors.Wrap(err, "failed to initialize logger")
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
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "Path to dashboard config YAML (defaults to the built-in programme dashboard)")
	pf.StringSliceVar(&envFiles, "env-file", []string{".env"}, "dotenv files to load before reading the config")
	pf.StringVarP(&filePath, "file", "f", "", "Source file (csv, xlsx, xls, sqlite); overrides the config source path")
	pf.StringSliceVar(&sheets, "sheet", nil, "Workbook sheet(s) to load; repeat or comma-separate")
	pf.IntVar(&headerRow, "header-row", 0, "1-based header row (default from config)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(reportCmd, optionsCmd, discoverCmd, serveCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// applyFlags lets command-line flags override the loaded config.
func applyFlags(c *schema.Config) {
	if filePath != "" {
		c.Source.Path = filePath
		c.Source.Kind = ""
	}
	if len(sheets) > 0 {
		c.Source.Sheets = sheets
	}
	if headerRow > 0 {
		c.HeaderRow = headerRow
	}
}

// newLogger builds a zap logger writing to stderr, so stdout stays clean
// for report output.
func newLogger(lc schema.LoggingConfig, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if lc.Development {
		zc = zap.NewDevelopmentConfig()
	}
	if lc.Level != "" {
		lvl, err := zapcore.ParseLevel(lc.Level)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid log level %q", lc.Level)
		}
		zc.Level = zap.NewAtomicLevelAt(lvl)
	}
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}

// loadDataset opens the configured sources and loads them once.
func loadDataset(ctx context.Context) (*helpers.Dataset, error) {
	sources, closeSources, err := helpers.SourcesFromConfig(ctx, cfg.Source)
	if err != nil {
		return nil, err
	}
	defer closeSources()

	return helpers.Load(ctx, cfg, logger, sources...)
}
