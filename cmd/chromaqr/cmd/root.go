package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/chromaqr/internal/config"
	"github.com/MeKo-Tech/chromaqr/internal/version"
)

// app carries the state shared by all commands of one root command.
type app struct {
	// fs receives every file the commands read or write.
	fs      afero.Fs
	loader  *config.Loader
	cfgFile string
	cfg     *config.Config
}

// Execute runs the command line. This is called by main.main().
func Execute() {
	if err := NewRootCommand(afero.NewOsFs()).Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCommand builds the command tree on fs. Each call returns an
// independent tree with its own flags and configuration.
func NewRootCommand(fs afero.Fs) *cobra.Command {
	v := viper.New()
	a := &app{fs: fs, loader: config.NewLoaderWithFs(v, fs)}

	rootCmd := &cobra.Command{
		Use:   "chromaqr",
		Short: "Colour QR codes: three symbols in one image",
		Long: `chromaqr stores three independent QR codes in the red, green and blue
channels of a single image and reads them back.

This tool provides:
- Composition of three grayscale symbols into one RGB image
- QR generation straight into a colour composite
- Decomposition of a composite into its channel planes
- Per-channel scanning with outlined results
- An HTTP and WebSocket server for live camera scanning

Examples:
  chromaqr generate --red "first" --green "second" --blue "third" -o code.png
  chromaqr scan code.png --format json
  chromaqr serve --port 8080`,
		Version:      version.String(),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadConfig(); err != nil {
				return err
			}
			setupLogging(a.cfg, cmd.ErrOrStderr())
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.SetVersionTemplate("chromaqr version {{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "",
		"config file (default is search in ., $HOME, $HOME/.config/chromaqr, /etc/chromaqr)")
	pf.BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")

	_ = v.BindPFlag("verbose", pf.Lookup("verbose"))
	_ = v.BindPFlag("log_level", pf.Lookup("log-level"))

	rootCmd.AddCommand(
		newComposeCmd(a),
		newGenerateCmd(a),
		newDecomposeCmd(a),
		newScanCmd(a),
		newServeCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

// loadConfig reads the config file, environment and bound flags.
func (a *app) loadConfig() error {
	var err error
	if a.cfgFile != "" {
		a.cfg, err = a.loader.LoadWithFile(a.cfgFile)
	} else {
		a.cfg, err = a.loader.Load()
	}
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	return nil
}

// settings returns a copy of the loaded configuration for a command to
// override with its own flags.
func (a *app) settings() config.Config {
	if a.cfg == nil {
		return config.DefaultConfig()
	}
	return *a.cfg
}

// outputPath resolves a relative output path against output.dir.
func (a *app) outputPath(cfg config.Config, path string) string {
	if cfg.Output.Dir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(cfg.Output.Dir, path)
}

// setupLogging installs a JSON slog handler at the configured level.
// Logs go to stderr so command output on stdout stays parseable.
func setupLogging(cfg *config.Config, w io.Writer) {
	var logLevel slog.Level
	if cfg.Verbose {
		logLevel = slog.LevelDebug
	} else {
		switch cfg.LogLevel {
		case "debug":
			logLevel = slog.LevelDebug
		case "warn":
			logLevel = slog.LevelWarn
		case "error":
			logLevel = slog.LevelError
		default:
			logLevel = slog.LevelInfo
		}
	}
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, commit, date := version.Info()
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "chromaqr version %s\n", v)
			_, _ = fmt.Fprintf(out, "Commit: %s\n", commit)
			_, _ = fmt.Fprintf(out, "Built: %s\n", date)
			return nil
		},
	}
}
