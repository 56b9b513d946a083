package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/keyscope/application"
)

// browseOptions holds options for the browse command.
type browseOptions struct {
	pages int
}

// newBrowseCmd creates the browse command.
func (a *App) newBrowseCmd() *cobra.Command {
	opts := &browseOptions{}

	cmd := &cobra.Command{
		Use:   "browse <key>",
		Short: "Page through a collection key",
		Long: `Open a collection key and print it page by page. Lists and sorted
sets page by offset; sets and hashes accumulate cursor pages until the
server reports exhaustion.

Examples:
  # First two pages of a list
  keyscope browse jobs:pending --pages 2

  # Whole set
  keyscope browse tags --pages 0`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBrowse(cmd, args[0], opts)
		},
	}

	cmd.Flags().IntVar(&opts.pages, "pages", 1, "Number of pages to fetch (0 for all)")
	return cmd
}

func (a *App) runBrowse(cmd *cobra.Command, key string, opts *browseOptions) error {
	sess, err := a.openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx := cmd.Context()
	acc, err := sess.service.OpenCollection(ctx, key)
	if err != nil {
		return err
	}

	if offset, ok := acc.(*application.OffsetAccessor); ok {
		err = a.browseByOffset(ctx, offset, opts.pages)
	} else {
		err = a.browseByCursor(ctx, acc, opts.pages)
	}
	if err != nil {
		return err
	}

	if w := acc.Window(); w.TotalCount >= 0 {
		fmt.Fprintf(a.stderr, "%s %s: %d elements total\n", acc.Kind(), acc.Key(), w.TotalCount)
	}
	return nil
}

// browseByOffset prints successive offset windows with absolute indices.
func (a *App) browseByOffset(ctx context.Context, acc *application.OffsetAccessor, pages int) error {
	for page := 1; ; page++ {
		w := acc.Window()
		for i, e := range w.Elements {
			fmt.Fprintf(a.stdout, "%d\t%s\n", w.Start+int64(i), e.Value)
		}
		if !w.HasMore {
			return nil
		}
		if pages > 0 && page >= pages {
			fmt.Fprintf(a.stderr, "more available; re-run with --pages %d\n", page+1)
			return nil
		}
		if err := acc.LoadMore(ctx); err != nil {
			return err
		}
	}
}

// browseByCursor prints the growing accumulated window, skipping
// elements already shown.
func (a *App) browseByCursor(ctx context.Context, acc application.Accessor, pages int) error {
	printed := 0
	for page := 1; ; page++ {
		w := acc.Window()
		for _, e := range w.Elements[printed:] {
			if e.Field != "" {
				fmt.Fprintf(a.stdout, "%s\t%s\n", e.Field, e.Value)
			} else {
				fmt.Fprintln(a.stdout, e.Value)
			}
		}
		printed = len(w.Elements)
		if !w.HasMore {
			return nil
		}
		if pages > 0 && page >= pages {
			fmt.Fprintf(a.stderr, "more available; re-run with --pages %d\n", page+1)
			return nil
		}
		if err := acc.LoadMore(ctx); err != nil {
			return err
		}
	}
}
