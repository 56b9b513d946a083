package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// scanOptions holds options for the scan command.
type scanOptions struct {
	patterns []string
	probe    bool
}

// newScanCmd creates the scan command.
func (a *App) newScanCmd() *cobra.Command {
	opts := &scanOptions{}

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Enumerate keys matching one or more patterns",
		Long: `Enumerate keys matching the given patterns through bounded scan
pages. Each pattern runs as an independent enumeration; the results are
deduplicated and sorted. With --probe, bare numeric key names in the
configured range are probed as well, since prefix patterns cannot
discover them.

Examples:
  # All session keys
  keyscope scan -p 'session:*'

  # Several prefixes at once, plus numeric keys
  keyscope scan -p 'user:*' -p 'order:*' --probe`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runScan(cmd, opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.patterns, "pattern", "p", []string{"*"}, "Pattern to scan (repeatable)")
	cmd.Flags().BoolVar(&opts.probe, "probe", false, "Also probe bare numeric key names")

	return cmd
}

func (a *App) runScan(cmd *cobra.Command, opts *scanOptions) error {
	sess, err := a.openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx := cmd.Context()
	var keys []string
	if opts.probe {
		keys, err = sess.service.ScanMatching(ctx, opts.patterns)
	} else if len(opts.patterns) == 1 {
		keys, err = sess.service.SearchKeys(ctx, opts.patterns[0])
	} else {
		keys, err = sess.service.ScanMatching(ctx, opts.patterns)
	}
	if err != nil {
		return err
	}

	for _, key := range keys {
		fmt.Fprintln(a.stdout, key)
	}
	fmt.Fprintf(a.stderr, "%d keys\n", len(keys))
	return nil
}

// cleanupOptions holds options for the cleanup command.
type cleanupOptions struct {
	patterns []string
	yes      bool
}

// newCleanupCmd creates the cleanup command.
func (a *App) newCleanupCmd() *cobra.Command {
	opts := &cleanupOptions{}

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Bulk-delete keys matching one or more patterns",
		Long: `Scan the given patterns and delete every matched key in bounded
batches. Without --yes the matched keys are listed and nothing is
deleted.

Examples:
  # Dry run
  keyscope cleanup -p 'tmp:*'

  # Actually delete
  keyscope cleanup -p 'tmp:*' --yes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCleanup(cmd, opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.patterns, "pattern", "p", nil, "Pattern to delete (repeatable, required)")
	cmd.Flags().BoolVar(&opts.yes, "yes", false, "Delete without confirmation")
	_ = cmd.MarkFlagRequired("pattern")

	return cmd
}

func (a *App) runCleanup(cmd *cobra.Command, opts *cleanupOptions) error {
	for _, p := range opts.patterns {
		if strings.TrimSpace(p) == "" || p == "*" {
			return fmt.Errorf("refusing to bulk-delete with pattern %q", p)
		}
	}

	sess, err := a.openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx := cmd.Context()
	if !opts.yes {
		keys, err := sess.service.ScanMatching(ctx, opts.patterns)
		if err != nil {
			return err
		}
		for _, key := range keys {
			fmt.Fprintln(a.stdout, key)
		}
		fmt.Fprintf(a.stderr, "%d keys would be deleted; re-run with --yes\n", len(keys))
		return nil
	}

	removed, err := sess.service.DeleteMatching(ctx, opts.patterns)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "deleted %d keys\n", removed)
	return nil
}
