package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"packview/internal/config"
	"packview/internal/logging"
	"packview/internal/packing"
	"packview/internal/palette"
	"packview/internal/session"

	"github.com/spf13/cobra"
)

// app holds global flag values and everything built from them.
type app struct {
	// Global flags
	configPath string
	verbose    bool
	serviceURL string
	timeout    time.Duration
	layoutFile string

	cfg  *config.Config
	logs *logging.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "packview",
		Short: "packview - container packing layout viewer",
		Long: `packview shows how a shipping container was packed.

Given a shipment id, it fetches the occupancy grid from the packing service
and displays it one horizontal layer at a time, with every box in a stable
colour.

Run without arguments to start the interactive viewer.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logs.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runView(cmd, args, false)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "packview.yaml", "Config file")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&a.serviceURL, "service-url", "", "Packing service base URL (or set PACKVIEW_SERVICE_URL)")
	rootCmd.PersistentFlags().DurationVar(&a.timeout, "timeout", 0, "Request timeout (default from config)")
	rootCmd.PersistentFlags().StringVarP(&a.layoutFile, "file", "f", "", "Read the layout from a saved response (.json or .json.zst) instead of the service")

	rootCmd.AddCommand(a.viewCmd())
	rootCmd.AddCommand(a.renderCmd())
	rootCmd.AddCommand(a.exportCmd())
	rootCmd.AddCommand(a.submitCmd())
	rootCmd.AddCommand(a.listCmd())
	rootCmd.AddCommand(a.boxCmd())
	return rootCmd
}

// setup loads config, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.serviceURL != "" {
		cfg.Service.BaseURL = a.serviceURL
	}
	if a.timeout > 0 {
		cfg.Service.Timeout = a.timeout.String()
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	// The viewer owns the terminal, so it logs to a file.
	interactive := cmd.Name() == "packview" || cmd.Name() == "view"
	logs, err := logging.New(cfg.Logging, interactive, a.verbose)
	if err != nil {
		return err
	}
	a.logs = logs
	return nil
}

// fetcher returns the layout source selected by flags.
func (a *app) fetcher() (packing.Fetcher, func()) {
	if a.layoutFile != "" {
		return packing.FileSource{Path: a.layoutFile}, func() {}
	}
	c := packing.NewClient(a.cfg.Service.BaseURL, a.cfg.GetServiceTimeout(), a.logs.For(logging.CategoryFetch))
	return c, c.Close
}

// newSession builds a session with the configured palette and seed.
func (a *app) newSession() (*session.Session, error) {
	mapper, err := palette.NewMapper(a.cfg.Viewer.PaletteColors())
	if err != nil {
		return nil, err
	}
	seed := a.cfg.Viewer.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return session.New(mapper, rand.New(rand.NewSource(seed)), a.logs.For(logging.CategorySession)), nil
}

// signalContext cancels on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
