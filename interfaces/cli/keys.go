package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// newGetCmd creates the get command.
func (a *App) newGetCmd() *cobra.Command {
	var showInfo bool

	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Fetch a key's value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.openSession()
			if err != nil {
				return err
			}
			defer sess.Close()

			ctx := cmd.Context()
			key := args[0]

			value, err := sess.service.Value(ctx, key)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, value.Value)

			if showInfo {
				info, err := sess.service.KeyInfo(ctx, key)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.stderr, "type=%s ttl=%d size=%d", info.Type, info.TTL, info.Size)
				if info.Encoding != "" {
					fmt.Fprintf(a.stderr, " encoding=%s", info.Encoding)
				}
				if info.MemoryUsage > 0 {
					fmt.Fprintf(a.stderr, " memory=%dB", info.MemoryUsage)
				}
				fmt.Fprintln(a.stderr)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&showInfo, "info", "i", false, "Also print the key's metadata")
	return cmd
}

// newSetCmd creates the set command.
func (a *App) newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Write a string value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.openSession()
			if err != nil {
				return err
			}
			defer sess.Close()

			if err := sess.service.SetValue(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, "OK")
			return nil
		},
	}
}

// newDelCmd creates the del command.
func (a *App) newDelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "del <key>",
		Short: "Delete a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.openSession()
			if err != nil {
				return err
			}
			defer sess.Close()

			if err := sess.service.DeleteKey(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, "OK")
			return nil
		},
	}
}

// newTTLCmd creates the ttl command.
func (a *App) newTTLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ttl <key> [seconds]",
		Short: "Show or set a key's expiry",
		Long: `With no seconds argument, print the key's remaining TTL. With a
seconds argument, apply that expiry; zero or negative removes it.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.openSession()
			if err != nil {
				return err
			}
			defer sess.Close()

			ctx := cmd.Context()
			key := args[0]

			if len(args) == 1 {
				info, err := sess.service.KeyInfo(ctx, key)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.stdout, info.TTL)
				return nil
			}

			seconds, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid ttl %q: %w", args[1], err)
			}
			if err := sess.service.SetTTL(ctx, key, seconds); err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, "OK")
			return nil
		},
	}
}
