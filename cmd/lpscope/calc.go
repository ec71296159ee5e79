package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"lpScope/internal/config"
	"lpScope/internal/valuation"
)

func runCalc(cmd *cobra.Command, args []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.RequestTimeout)
		defer cancel()
	}

	engine, cleanup, err := buildEngine(ctx, cfg, nil, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	outcome, err := engine.CalculateLP(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	if outcome.Status != valuation.StatusOK {
		return fmt.Errorf("no result (%s): %w", outcome.Status, outcome.Err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(outcome.Result)
}
