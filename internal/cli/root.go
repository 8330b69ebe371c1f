// Package cli is the equiprentctl admin command tree.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"equiprent-backend/internal/app"
	"equiprent-backend/internal/config"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/service"

	"github.com/spf13/cobra"
)

// Backend is the slice of the service layer the CLI drives.
type Backend struct {
	Availability service.AvailabilityService
	Blocks       service.BlockService
	Pricing      service.PricingService
}

// Opener builds a Backend from a config path. The returned func releases it.
type Opener func(ctx context.Context, configPath string) (*Backend, func(), error)

// OpenDatabase is the production Opener: config file, postgres and optional redis.
func OpenDatabase(ctx context.Context, configPath string) (*Backend, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	// Keep stdout clean for --json; only warnings go to stderr.
	logger.SetOutput(os.Stderr, "warn", cfg.Log.Format)

	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return &Backend{Availability: a.Availability, Blocks: a.Blocks, Pricing: a.Pricing}, a.Close, nil
}

type rootOptions struct {
	configPath string
	outputJSON bool
	open       Opener
	backend    *Backend
	release    func()
}

func NewRootCmd(open Opener) *cobra.Command {
	opts := &rootOptions{open: open}

	root := &cobra.Command{
		Use:          "equiprentctl",
		Short:        "Equipment availability and pricing admin tool",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			b, release, err := opts.open(cmd.Context(), opts.configPath)
			if err != nil {
				return err
			}
			opts.backend, opts.release = b, release
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.release != nil {
				opts.release()
			}
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "config/config.dev.yaml", "Path to configuration file")
	root.PersistentFlags().BoolVar(&opts.outputJSON, "json", false, "Output JSON")

	root.AddCommand(checkCmd(opts))
	root.AddCommand(priceCmd(opts))
	root.AddCommand(blockCmd(opts))
	return root
}

func Execute() {
	root := NewRootCmd(OpenDatabase)
	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func requireFlag(name, value string) error {
	if value == "" {
		return fmt.Errorf("--%s is required", name)
	}
	return nil
}
