package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/spektr-org/progdash/helpers"
	"github.com/spektr-org/progdash/schema"
)

var (
	discoverRecover []string
	discoverName    string
	discoverSample  int
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Draft a dashboard config from an unfamiliar sheet",
	Long: `Samples the sheet given by --file and prints a dashboard config as YAML:
cascading filters for low-cardinality columns, sum KPIs for numeric columns,
summaries, charts and a detail table. Edit the draft and pass it back with
--config.`,
	Args: cobra.NoArgs,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().StringSliceVar(&discoverRecover, "recover", nil, "Force-include columns discovery skipped")
	discoverCmd.Flags().StringVar(&discoverName, "name", "", "Dashboard name")
	discoverCmd.Flags().IntVar(&discoverSample, "sample", 1000, "Rows to sample (0 = all)")
	discoverCmd.Flags().StringVarP(&outFile, "out", "o", "", "Write the config to file instead of stdout")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	if filePath == "" {
		return errors.New("--file is required")
	}

	format, err := helpers.DetectFormat(filePath)
	if err != nil {
		return err
	}
	sheet := ""
	if len(sheets) > 0 {
		sheet = sheets[0]
	}
	grid, err := helpers.ReadFile(filePath, format, sheet)
	if err != nil {
		return err
	}

	opts := schema.DefaultDiscoverOptions()
	opts.SampleSize = discoverSample
	opts.RecoverColumns = discoverRecover
	opts.Name = discoverName
	if headerRow > 0 {
		opts.HeaderRow = headerRow
	}

	draft, err := schema.DiscoverFromGrid(grid, opts)
	if err != nil {
		return errors.Wrap(err, "discovery failed")
	}
	draft.Source = schema.SourceConfig{Kind: format, Path: filePath, Sheets: sheets}
	draft.Server = cfg.Server
	draft.Logging = cfg.Logging

	logger.Info("dashboard drafted",
		zap.String("name", draft.Name),
		zap.Int("filters", len(draft.Filters)),
		zap.Int("kpis", len(draft.KPIs)),
		zap.Int("skipped", len(draft.SkippedColumns)))
	for _, sc := range draft.SkippedColumns {
		logger.Debug("column skipped",
			zap.String("column", sc.Column),
			zap.String("reason", sc.Reason),
			zap.Bool("recoverable", sc.Recoverable))
	}

	if outFile != "" {
		if err := draft.Save(outFile); err != nil {
			return err
		}
		logger.Info("config written", zap.String("path", outFile))
		return nil
	}

	out, err := yaml.Marshal(draft)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), string(out))
	return err
}
