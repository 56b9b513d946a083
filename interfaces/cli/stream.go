package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/keyscope/domain/browse"
)

// newStreamCmd creates the stream command group.
func (a *App) newStreamCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Inspect and edit stream keys",
	}

	cmd.AddCommand(
		a.newStreamRangeCmd(),
		a.newStreamAddCmd(),
		a.newStreamDelCmd(),
		a.newStreamTrimCmd(),
	)
	return cmd
}

func (a *App) newStreamRangeCmd() *cobra.Command {
	var (
		start string
		end   string
		count int64
	)

	cmd := &cobra.Command{
		Use:   "range <key>",
		Short: "Print stream entries between two IDs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.openSession()
			if err != nil {
				return err
			}
			defer sess.Close()

			entries, err := sess.service.StreamRange(cmd.Context(), args[0], start, end, count)
			if err != nil {
				return err
			}
			for _, entry := range entries {
				fmt.Fprintf(a.stdout, "%s", entry.ID)
				for field, value := range entry.Fields {
					fmt.Fprintf(a.stdout, "\t%s=%s", field, value)
				}
				fmt.Fprintln(a.stdout)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "-", "Range start ID")
	cmd.Flags().StringVar(&end, "end", "+", "Range end ID")
	cmd.Flags().Int64Var(&count, "count", 100, "Maximum entries (0 for unbounded)")
	return cmd
}

func (a *App) newStreamAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <key> <field=value>...",
		Short: "Append an entry to a stream",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := make(map[string]string, len(args)-1)
			for _, pair := range args[1:] {
				field, value, ok := strings.Cut(pair, "=")
				if !ok || field == "" {
					return fmt.Errorf("invalid field %q, want field=value", pair)
				}
				fields[field] = value
			}

			sess, err := a.openSession()
			if err != nil {
				return err
			}
			defer sess.Close()

			id, err := sess.service.StreamAdd(cmd.Context(), args[0], fields)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, id)
			return nil
		},
	}
}

func (a *App) newStreamDelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "del <key> <entry-id>",
		Short: "Delete a stream entry by ID",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.openSession()
			if err != nil {
				return err
			}
			defer sess.Close()

			if err := sess.service.StreamDelete(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, "OK")
			return nil
		},
	}
}

func (a *App) newStreamTrimCmd() *cobra.Command {
	var (
		maxLen      int64
		minID       string
		approximate bool
	)

	cmd := &cobra.Command{
		Use:   "trim <key>",
		Short: "Trim a stream by length or minimum ID",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (maxLen > 0) == (minID != "") {
				return fmt.Errorf("exactly one of --maxlen or --minid is required")
			}

			sess, err := a.openSession()
			if err != nil {
				return err
			}
			defer sess.Close()

			var (
				strategy  browse.StreamTrimStrategy
				threshold string
			)
			if maxLen > 0 {
				strategy = browse.TrimMaxLen
				threshold = fmt.Sprintf("%d", maxLen)
			} else {
				strategy = browse.TrimMinID
				threshold = minID
			}

			removed, err := sess.service.StreamTrim(cmd.Context(), args[0], strategy, threshold, approximate)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "trimmed %d entries\n", removed)
			return nil
		},
		Args: cobra.ExactArgs(1),
	}

	cmd.Flags().Int64Var(&maxLen, "maxlen", 0, "Keep at most this many entries")
	cmd.Flags().StringVar(&minID, "minid", "", "Drop entries below this ID")
	cmd.Flags().BoolVar(&approximate, "approx", false, "Allow approximate trimming")
	return cmd
}
