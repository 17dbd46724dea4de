package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ispbill/backend/internal/bootstrap"
	"github.com/ispbill/backend/internal/infrastructure/config"
	"github.com/ispbill/backend/internal/infrastructure/logger"
	"github.com/ispbill/backend/internal/interfaces/http/dto"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var timeout time.Duration

var rootCmd = &cobra.Command{
	Use:   "billingctl",
	Short: "Operator commands for the ISP billing backend",
	Long: `billingctl runs the billing jobs by hand against the same database,
cache and archive store the server uses. Results are printed as JSON.

Configuration is read from config.toml, .env and ISPBILL_* environment
variables, exactly like the server.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 15*time.Minute, "Abort the command after this long")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// session is an open container plus the context a command runs under
type session struct {
	ctx       context.Context
	container *bootstrap.Container
	log       *zap.Logger
	close     func()
}

// openSession loads configuration and wires the services. The returned
// context is cancelled on SIGINT, SIGTERM or when --timeout elapses.
func openSession() (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	lcfg := logger.DefaultConfig()
	lcfg.Level = cfg.Log.Level
	lcfg.Output = "stderr"
	log, err := logger.New(lcfg)
	if err != nil {
		return nil, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, timeout)

	container, err := bootstrap.New(ctx, cfg, log, bootstrap.Options{})
	if err != nil {
		cancel()
		stop()
		return nil, err
	}

	return &session{
		ctx:       ctx,
		container: container,
		log:       log,
		close: func() {
			if err := container.Close(); err != nil {
				log.Warn("failed to close connections", zap.Error(err))
			}
			cancel()
			stop()
			_ = log.Sync()
		},
	}, nil
}

// resolveAsOf reads an --as-of value the same way the HTTP API reads as_of
func resolveAsOf(raw string, loc *time.Location) (time.Time, error) {
	asOf, err := dto.AsOfQuery{AsOf: raw}.Resolve(loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("--as-of must be a date (YYYY-MM-DD) or an RFC 3339 time: %w", err)
	}
	return asOf, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
