// Package cli implements the xfer command-line interface.
package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/input-output-hk/catalyst-forge-libs/transfer"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/cmd/xfer/cli/config"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/engine"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/engine/minioengine"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/engine/s3engine"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
)

// Build information set via ldflags.
var version = "dev"

// Global flags.
var (
	configFile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "xfer",
	Short: "Resumable transfers to S3-compatible object storage",
	Long: `Xfer uploads and downloads files to S3-compatible object storage.

Uploads are sent as multipart uploads and can be interrupted with Ctrl-C and
resumed later with the printed upload id. Settings are read from
$XDG_CONFIG_HOME/xfer/config.yaml and XFER_* environment variables.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default $XDG_CONFIG_HOME/xfer/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose debug logging")
	rootCmd.PersistentFlags().String("backend", "", "Storage backend: s3 or minio")
	rootCmd.PersistentFlags().String("endpoint", "", "Custom S3 endpoint URL")
	rootCmd.PersistentFlags().String("region", "", "Storage region")
	rootCmd.PersistentFlags().String("progress", "", "Progress display: auto, tty or plain")

	for _, name := range []string{"backend", "endpoint", "region", "progress"} {
		//nolint:errcheck // flags are defined above
		viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
	config.Setup(viper.GetViper())
	rootCmd.Version = version
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, formatError(err))
	}
	return err
}

func loadConfig(_ *cobra.Command, _ []string) error {
	return config.ReadFile(viper.GetViper(), configFile)
}

// newLogger creates the CLI logger from cfg, forcing debug with --verbose.
func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func newEngine(cfg *config.Config, logger *slog.Logger) engine.Engine {
	if cfg.Backend == "minio" {
		return minioengine.New(minioengine.WithLogger(logger))
	}
	return s3engine.New(s3engine.WithLogger(logger))
}

// newService loads the configuration and returns an initialized service.
func newService(ctx context.Context) (*transfer.Service, *config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, nil, err
	}

	logger := newLogger(cfg)
	svc := transfer.New(newEngine(cfg, logger), transfer.WithLogger(logger))

	if secret := cfg.Secret(); secret != nil {
		err = svc.InitWithPlainSecret(ctx, cfg.Transfer(), *secret)
	} else {
		err = svc.InitWithSessionCredential(ctx, cfg.Transfer())
	}
	if err != nil {
		_ = svc.Close()
		return nil, nil, err
	}
	return svc, cfg, nil
}

// signalContext returns a context that is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// formatError converts transfer errors to user-friendly messages.
func formatError(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.IsAccessDenied(err):
		return "Error: access denied (check your credentials)"
	case stderrors.Is(err, errors.ErrUploadNotFound):
		return fmt.Sprintf("Error: upload not found (it may have been completed or cancelled): %v", err)
	case errors.IsNotFound(err):
		return fmt.Sprintf("Error: not found: %v", err)
	case errors.IsInvalidInput(err):
		return fmt.Sprintf("Error: invalid input: %v", err)
	case stderrors.Is(err, context.Canceled):
		return "Error: operation canceled"
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
