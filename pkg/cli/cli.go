package cli

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"verifyversions/pkg/config"
	"verifyversions/pkg/log"
	"verifyversions/pkg/report"
	"verifyversions/pkg/resolver"
	"verifyversions/pkg/types"
	"verifyversions/pkg/verifier"
)

const Version = "0.1.0"

// ExitError is returned once the report has been printed. The caller should
// exit with Code without printing the error again.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

type options struct {
	logLevel   string
	logFile    string
	jsonOutput bool
	configPath string
	dir        string
	color      string
}

func NewRootCmd() *cobra.Command {
	var opts options

	rootCmd := &cobra.Command{
		Use:           "verify-versions",
		Short:         "Verify installed front-end toolchain versions",
		Long:          "Checks that installed packages in node_modules satisfy the required semver ranges.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := log.Init(cmd.ErrOrStderr(), opts.logLevel, opts.logFile); err != nil {
				return err
			}
			log.Debug("Initializing", map[string]interface{}{
				"dir":    opts.dir,
				"config": opts.configPath,
			})
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, opts)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.logLevel, "log-level", "", "Set log level (debug, info, warn, error) to enable logging")
	flags.StringVar(&opts.logFile, "log-file", "", "Write logs to specified file")
	flags.BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format")
	flags.StringVarP(&opts.configPath, "config", "c", "", "Requirements file (default: "+config.FileName+" in --dir, else built-in table)")
	flags.StringVarP(&opts.dir, "dir", "C", ".", "Project directory to resolve node_modules from")
	flags.StringVar(&opts.color, "color", string(report.ColorAuto), "Color output: auto, always, never")

	rootCmd.AddCommand(newListCmd(&opts))
	rootCmd.AddCommand(newInitCmd(&opts))
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if opts.jsonOutput {
				fmt.Fprintf(cmd.OutOrStdout(), "{\"version\": %q}\n", Version)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "verify-versions v%s\n", Version)
			}
		},
	})

	return rootCmd
}

func runVerify(cmd *cobra.Command, opts options) error {
	mode, ok := report.ParseColorMode(opts.color)
	if !ok {
		return fmt.Errorf("invalid --color value %q (want auto, always or never)", opts.color)
	}

	cfg, path, err := config.Load(opts.configPath, opts.dir)
	if err != nil {
		log.Error("Failed to load config", err)
		return err
	}
	log.Info("Loaded requirements", map[string]interface{}{
		"source":       sourceName(path),
		"requirements": len(cfg.Requirements),
	})

	v, err := verifier.New(cfg.Requirements, resolver.NewNodeModules(opts.dir))
	if err != nil {
		return err
	}
	results := v.Check()

	printer := report.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), report.Options{
		PackageManager: cfg.PackageManager,
		FixCommand:     cfg.FixCommand,
		Color:          mode,
	})
	if opts.jsonOutput {
		if err := printer.JSON(results); err != nil {
			return err
		}
	} else {
		printer.Report(results)
	}

	if code := verifier.ExitCode(results); code != 0 {
		log.Warn("Requirements not met", map[string]interface{}{
			"failures": len(verifier.Failures(results)),
		})
		return &ExitError{Code: code, Err: types.ErrRequirementsNotMet}
	}
	return nil
}

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the requirement table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := config.Load(opts.configPath, opts.dir)
			if err != nil {
				return err
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("PACKAGE", "RANGE", "NAME")
			for _, req := range cfg.Requirements {
				t.Row(req.Package, req.Range, req.DisplayName())
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.String())
			return nil
		},
	}
}

func newInitCmd(opts *options) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default requirement table to " + config.FileName,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.configPath
			if path == "" {
				path = filepath.Join(opts.dir, config.FileName)
			}
			if err := config.Write(path, config.Default(), force); err != nil {
				return err
			}
			log.Info("Config written", map[string]interface{}{"path": path})
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	return cmd
}

func sourceName(path string) string {
	if path == "" {
		return "built-in"
	}
	return path
}
