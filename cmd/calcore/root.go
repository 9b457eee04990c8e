package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"calcore/internal/config"
	appLog "calcore/internal/log"
	"calcore/internal/model"
	"calcore/internal/store"
)

var (
	cfgFile    string
	eventsFile string
	todayFlag  string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "calcore",
	Short: "Recurrence expansion and day layout for calendar events",
	Long: `calcore expands recurring calendar events into dated instances and
packs overlapping events of a day into side-by-side columns.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initConfig,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "./calcore.yaml", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&eventsFile, "events", "", "Events YAML file (overrides config)")
	rootCmd.PersistentFlags().StringVar(&todayFlag, "today", "", "Anchor date YYYY-MM-DD (default: current date)")
}

func initConfig(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if eventsFile != "" {
		cfg.EventsFile = eventsFile
	}
	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))

	appLog.Debug("effective config",
		"command", cmd.Name(),
		"listen", cfg.Listen,
		"events_file", cfg.EventsFile,
		"ics_count", len(cfg.ICSFiles),
		"cache_dir", cfg.CacheDir,
		"refresh", cfg.RefreshCron,
		"window_back_months", cfg.WindowBackMonths,
		"window_forward_months", cfg.WindowForwardMonths,
	)
	return nil
}

// today resolves the anchor date. This is the only place the clock is read.
func today() (model.Date, error) {
	if todayFlag == "" {
		return model.DateOf(time.Now()), nil
	}
	return model.ParseDate(todayFlag)
}

// loadStore builds a store from the effective config and reads it once.
func loadStore(ctx context.Context) (*store.Store, error) {
	st := store.New(cfg.EventsFile, cfg.ICSFiles, cfg.CacheDir)
	if err := st.Reload(ctx); err != nil {
		return nil, err
	}
	return st, nil
}

// dateFlagOr parses a YYYY-MM-DD flag value, falling back to def.
func dateFlagOr(value string, def model.Date) (model.Date, error) {
	if value == "" {
		return def, nil
	}
	return model.ParseDate(value)
}
