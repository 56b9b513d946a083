package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/keyscope/infrastructure/config"
)

// validateOptions holds options for the validate command.
type validateOptions struct {
	strict bool
}

// newValidateCmd creates the validate command.
func (a *App) newValidateCmd() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Long: `Validate a keyscope configuration file for correctness.

This command checks:
  - File format (YAML or JSON)
  - Cache TTLs and scan bounds
  - Connection entries (required fields, duplicate IDs)
  - Environment variable references (in strict mode)

Examples:
  # Validate a configuration file
  keyscope validate -c keyscope.yaml

  # Strict validation (fail on missing env vars)
  keyscope validate -c keyscope.yaml --strict`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.validateConfig(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Enable strict validation (fail on missing env vars)")

	return cmd
}

// validateConfig validates the configuration file.
func (a *App) validateConfig(opts *validateOptions) error {
	if a.configPath == "" {
		return fmt.Errorf("configuration file path is required (-c flag)")
	}

	loaderOpts := []config.LoaderOption{
		config.WithValidation(true),
	}
	if opts.strict {
		loaderOpts = append(loaderOpts, config.WithStrictEnv(true))
	}

	loader := config.NewLoaderWithOptions(loaderOpts...)
	cfg, err := loader.LoadFile(a.configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(a.stdout, "✓ Configuration is valid\n")
	fmt.Fprintf(a.stdout, "  Name: %s\n", cfg.Name)
	fmt.Fprintf(a.stdout, "  Version: %s\n", cfg.Version)

	fmt.Fprintf(a.stdout, "\nConfiguration summary:\n")
	fmt.Fprintf(a.stdout, "  Listing TTL: %s\n", cfg.Cache.ListingTTL.Duration())
	fmt.Fprintf(a.stdout, "  Point-read TTL: %s\n", cfg.Cache.PointReadTTL.Duration())
	fmt.Fprintf(a.stdout, "  Sweep interval: %s\n", cfg.Cache.SweepInterval.Duration())
	fmt.Fprintf(a.stdout, "  Scan page size: %d\n", cfg.Scan.PageSize)
	fmt.Fprintf(a.stdout, "  Delete batch size: %d\n", cfg.Scan.DeleteBatchSize)

	if len(cfg.Connections) > 0 {
		fmt.Fprintf(a.stdout, "  Connections: %d\n", len(cfg.Connections))
		for _, conn := range cfg.Connections {
			fmt.Fprintf(a.stdout, "    - %s (%s)\n", conn.ID, conn.Address)
		}
	}

	return nil
}
