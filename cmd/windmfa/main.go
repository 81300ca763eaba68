package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ChicagoDave/windmfa/internal/config"
	"github.com/ChicagoDave/windmfa/internal/server"
)

// app carries settings shared by all subcommands.
type app struct {
	v          *viper.Viper
	configPath string
	scen       string
	tp         string
	format     string

	cfg *config.Config
	log *slog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:          "windmfa",
		Short:        "Dynamic material-flow analysis of onshore and offshore wind fleets",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default ./windmfa.yaml if present)")
	pf.StringVar(&a.scen, "scen", "Gcam", "capacity scenario: Gcam or GNZ")
	pf.StringVar(&a.tp, "tp", "0", "technology period index or name")
	pf.StringVar(&a.format, "format", "text", "output format: text or json")
	pf.String("out", "", "output directory")
	pf.String("negative-inflow", "", "negative inflow policy: propagate or clamp")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("db", "", "SQLite results archive")
	a.v.BindPFlag("output_dir", pf.Lookup("out"))
	a.v.BindPFlag("flow.negative_inflow", pf.Lookup("negative-inflow"))
	a.v.BindPFlag("logging.level", pf.Lookup("log-level"))
	a.v.BindPFlag("store.path", pf.Lookup("db"))

	rootCmd.AddCommand(capacityCmd(a))
	rootCmd.AddCommand(runCmd(a))
	rootCmd.AddCommand(validateCmd(a))
	rootCmd.AddCommand(impactCmd(a))
	rootCmd.AddCommand(historyCmd(a))
	rootCmd.AddCommand(serveCmd(a))

	return rootCmd
}

func (a *app) init(cmd *cobra.Command) error {
	if a.format != "text" && a.format != "json" {
		return fmt.Errorf("--format must be text or json, got %q", a.format)
	}
	cfg, err := config.Load(a.v, a.configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	log, err := cfg.Logging.NewLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.cfg, a.log = cfg, log
	slog.SetDefault(log)
	return nil
}

func capacityCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "capacity [project-path]",
		Short: "Solve onshore and offshore capacity flows and write the capacity tables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCapacity(cmd.OutOrStdout(), args[0])
		},
	}
}

func runCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run [project-path]",
		Short: "Run the full pipeline, write every table and archive it when --db is set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAll(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	}
}

func validateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [project-path]",
		Short: "Validate a project and its capacity flows without writing tables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runValidate(cmd.OutOrStdout(), args[0])
		},
	}
}

func impactCmd(a *app) *cobra.Command {
	var strategy string

	cmd := &cobra.Command{
		Use:   "impact [project-path]",
		Short: "Print decade-aggregated environmental impact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runImpact(cmd.OutOrStdout(), args[0], strategy)
		},
	}

	cmd.Flags().StringVar(&strategy, "strategy", "", "EoL strategy (default: all)")
	return cmd
}

func historyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history [project-path]",
		Short: "Show the latest archived run for --scen and --tp",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runHistory(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	}
}

func serveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [project-path]",
		Short: "Start the local HTTP API",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			opts, err := a.options()
			if err != nil {
				return err
			}
			srv := server.New(args[0], a.cfg.Server.Port, opts).WithArchive(a.cfg.Store.Path)
			return srv.Start()
		},
	}

	cmd.Flags().IntP("port", "p", 3000, "HTTP server port")
	a.v.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	return cmd
}
