package cli

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/keyscope/infrastructure/storage/sqlite"
)

// openConnectionStore opens the saved-connection database named in the
// config, or the default path.
func (a *App) openConnectionStore() (*sqlite.ConnectionStore, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}

	storeCfg := sqlite.DefaultConfig()
	if cfg.ConnectionStore != "" {
		storeCfg.DSN = "file:" + cfg.ConnectionStore + "?cache=shared&mode=rwc"
	}
	return sqlite.NewConnectionStore(storeCfg)
}

// newConnectionsCmd creates the connections command group.
func (a *App) newConnectionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "connections",
		Aliases: []string{"conn"},
		Short:   "Manage saved connection profiles",
	}

	cmd.AddCommand(
		a.newConnectionsListCmd(),
		a.newConnectionsAddCmd(),
		a.newConnectionsRemoveCmd(),
	)
	return cmd
}

func (a *App) newConnectionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved connections",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openConnectionStore()
			if err != nil {
				return err
			}
			defer store.Close()

			conns, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(conns) == 0 {
				fmt.Fprintln(a.stdout, "no saved connections")
				return nil
			}
			for _, conn := range conns {
				tls := ""
				if conn.UseTLS {
					tls = " (tls)"
				}
				fmt.Fprintf(a.stdout, "%s\t%s\t%s:%d db=%d%s\n",
					conn.ID, conn.Name, conn.Host, conn.Port, conn.DB, tls)
			}
			return nil
		},
	}
}

// connectionAddOptions holds options for the connections add command.
type connectionAddOptions struct {
	name     string
	address  string
	username string
	db       int
	useTLS   bool
}

func (a *App) newConnectionsAddCmd() *cobra.Command {
	opts := &connectionAddOptions{}

	cmd := &cobra.Command{
		Use:   "add <id>",
		Short: "Save a connection profile",
		Long: `Save a connection profile for later use. Passwords are never
persisted; provide them at dial time via configuration with ${VAR}
expansion.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			host, portStr, err := net.SplitHostPort(opts.address)
			if err != nil {
				return fmt.Errorf("invalid address %q: %w", opts.address, err)
			}
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return fmt.Errorf("invalid port %q: %w", portStr, err)
			}

			store, err := a.openConnectionStore()
			if err != nil {
				return err
			}
			defer store.Close()

			conn := sqlite.StoredConnection{
				ID:       args[0],
				Name:     opts.name,
				Host:     host,
				Port:     port,
				Username: opts.username,
				DB:       opts.db,
				UseTLS:   opts.useTLS,
			}
			if conn.Name == "" {
				conn.Name = conn.ID
			}
			if err := store.Save(cmd.Context(), conn); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "saved %s\n", conn.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.address, "address", "a", "localhost:6379", "host:port of the store")
	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "Human-readable label")
	cmd.Flags().StringVarP(&opts.username, "username", "u", "", "Username for authentication")
	cmd.Flags().IntVar(&opts.db, "db", 0, "Logical database")
	cmd.Flags().BoolVar(&opts.useTLS, "tls", false, "Enable TLS")

	return cmd
}

func (a *App) newConnectionsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a saved connection profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openConnectionStore()
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Remove(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("%w: %s", sqlite.ErrConnectionNotFound, args[0])
			}
			fmt.Fprintf(a.stdout, "removed %s\n", args[0])
			return nil
		},
	}
}
