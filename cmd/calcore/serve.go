package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	appLog "calcore/internal/log"
	"calcore/internal/model"
	"calcore/internal/web"
)

var listenFlag string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve expanded events and day layouts over HTTP",
	Long: `Start the JSON API. Event files are re-read on the configured cron
schedule ("refresh" in the config file).`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenFlag, "listen", "", "HTTP listen address (overrides config if set)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	// CLI --listen overrides config file listen if provided.
	if listenFlag != "" {
		cfg.Listen = listenFlag
	}
	if todayFlag != "" {
		if _, err := model.ParseDate(todayFlag); err != nil {
			return err
		}
	}

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	st, err := loadStore(ctx)
	if err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			appLog.Info("signal received, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.RefreshCron, func() {
		// Reload logs its own failures and keeps the previous snapshot.
		_ = st.Reload(ctx)
	}); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", cfg.RefreshCron, err)
	}
	scheduler.Start()
	defer func() {
		<-scheduler.Stop().Done()
	}()

	todayFn := func() model.Date {
		d, _ := today()
		return d
	}

	srv := web.NewServer(cfg, st, todayFn)
	if err := srv.Run(ctx); err != nil {
		return err
	}

	appLog.Info("calcore exiting")
	return nil
}
