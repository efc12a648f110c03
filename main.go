package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"morsel-sales/config"
	"morsel-sales/utils"
)

var (
	cfg    *config.Config
	logger = utils.NewLogger()
	debug  bool

	rootCmd = &cobra.Command{
		Use:   "morsel-sales",
		Short: "Normalize daily sales exports and compare sales around a price change",
		Long: `morsel-sales reads per-region daily sales files, keeps the rows for one
product, derives sales = price x quantity, and reports totals before and
after the price change date.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging (overrides LOG_DEBUG)")

	rootCmd.AddCommand(processCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(probeCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return err
	}
	if debug || cfg.LogDebug {
		logger.SetLevel(utils.LevelDebug)
	}
	return nil
}
