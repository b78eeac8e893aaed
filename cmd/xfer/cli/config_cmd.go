package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/cmd/xfer/cli/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show xfer configuration",
	Long: `Show the effective configuration after merging the config file,
XFER_* environment variables and flags. Secrets are masked.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		printConfig(cmd, cfg)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := config.Path()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func printConfig(cmd *cobra.Command, cfg *config.Config) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "backend:     %s\n", cfg.Backend)
	fmt.Fprintf(w, "region:      %s\n", cfg.Region)
	fmt.Fprintf(w, "endpoint:    %s\n", cfg.Endpoint)
	fmt.Fprintf(w, "path-style:  %t\n", cfg.PathStyle)
	fmt.Fprintf(w, "division:    %d\n", cfg.Division)
	fmt.Fprintf(w, "slice-size:  %d\n", cfg.SliceSize)
	fmt.Fprintf(w, "progress:    %s\n", cfg.Progress)
	fmt.Fprintf(w, "secret-id:   %s\n", mask(cfg.Credentials.SecretID))
	fmt.Fprintf(w, "secret-key:  %s\n", mask(cfg.Credentials.SecretKey))
	fmt.Fprintf(w, "session-url: %s\n", cfg.Credentials.SessionURL)
	fmt.Fprintf(w, "log:         %s/%s\n", cfg.Log.Level, cfg.Log.Format)
}

func mask(s string) string {
	if len(s) <= 4 {
		if s == "" {
			return ""
		}
		return "****"
	}
	return s[:4] + "****"
}
