// Package main is the FlightDesk terminal client. It opens an interactive
// shell against the booking backend and keeps the saved session between
// runs.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atinyakov/FlightDesk/internal/backend"
	"github.com/atinyakov/FlightDesk/internal/client/shell"
	"github.com/atinyakov/FlightDesk/internal/client/storage"
	"github.com/atinyakov/FlightDesk/internal/logger"
	"github.com/atinyakov/FlightDesk/internal/registry"
	"github.com/atinyakov/FlightDesk/internal/routing"
)

var (
	version   string
	buildDate string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type clientFlags struct {
	backendURL string
	registry   string
	logLevel   string
	session    string
	noColor    bool
	refresh    time.Duration
}

func newRootCmd() *cobra.Command {
	var f clientFlags

	rootCmd := &cobra.Command{
		Use:           "flightdesk",
		Short:         "FlightDesk terminal client",
		Long:          "Interactive shell for browsing flights and managing bookings.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("backend") {
				if v := os.Getenv("BACKEND_URL"); v != "" {
					f.backendURL = v
				}
			}
			if !cmd.Flags().Changed("registry") {
				if v := os.Getenv("REGISTRY_FILE"); v != "" {
					f.registry = v
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd.Context(), f)
		},
	}

	rootCmd.PersistentFlags().StringVar(&f.backendURL, "backend", "http://localhost:8000", "booking backend base URL")
	rootCmd.PersistentFlags().StringVar(&f.registry, "registry", "", "page registry YAML (built-in when empty)")
	rootCmd.PersistentFlags().StringVar(&f.logLevel, "log-level", "warn", "log level")
	rootCmd.Flags().StringVar(&f.session, "session", "", "session file (defaults to the user config dir)")
	rootCmd.Flags().BoolVar(&f.noColor, "no-color", false, "disable colored output")
	rootCmd.Flags().DurationVar(&f.refresh, "refresh", time.Minute, "background identity refresh interval (0 disables)")

	rootCmd.AddCommand(newRoutesCmd(&f), newVersionCmd())
	return rootCmd
}

func loadRegistry(path string) (*registry.Registry, error) {
	if path == "" {
		return registry.Default(), nil
	}
	return registry.Load(path)
}

func runShell(ctx context.Context, f clientFlags) error {
	log := logger.New()
	if err := log.InitDevelopment(f.logLevel); err != nil {
		return err
	}
	defer func() { _ = log.Log.Sync() }()

	reg, err := loadRegistry(f.registry)
	if err != nil {
		return err
	}
	api, err := backend.New(f.backendURL, backend.WithLogger(log.Log))
	if err != nil {
		return err
	}

	path := f.session
	if path == "" {
		if path, err = storage.DefaultPath(); err != nil {
			return err
		}
	}
	store := storage.NewSessionStore(path)
	cookies, err := store.Load(f.backendURL)
	if err != nil {
		log.Log.Warn("ignoring unreadable session file", zap.String("path", path), zap.Error(err))
	}
	if len(cookies) > 0 {
		api = api.WithSessionCookies(cookies)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sh := shell.New(api, reg, shell.Options{
		Store:      store,
		BackendURL: f.backendURL,
		Plain:      f.noColor,
		Logger:     log.Log,
	})
	if f.refresh > 0 {
		storage.StartAutoRefresh(ctx, sh.Identity(), f.refresh, log.Log)
	}
	return sh.Run(ctx)
}

func newRoutesCmd(f *clientFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the pages the registry defines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := loadRegistry(f.registry)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PATTERN\tPAGE\tCONTENT")
			for _, rt := range routing.Resolve(reg) {
				fmt.Fprintf(w, "%s\t%s\t%s\n", rt.Pattern, rt.Label, rt.Content)
			}
			return w.Flush()
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the client version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, d := version, buildDate
			if v == "" {
				v = "N/A"
			}
			if d == "" {
				d = "N/A"
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "FlightDesk Client\nVersion: %s\nBuild Date: %s\n", v, d)
			return err
		},
	}
}
