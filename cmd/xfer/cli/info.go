package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/transfer"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/engine/s3engine"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

var infoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Show the size and content type of a local file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}

		// an uninitialized engine is enough for local file inspection
		svc := transfer.New(s3engine.New())
		defer svc.Close()

		info, err := svc.GetFileInfo(path)
		if err != nil {
			return err
		}
		printInfo(cmd.OutOrStdout(), args[0], info)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func printInfo(w io.Writer, name string, info *transfertypes.FileInfo) {
	fmt.Fprintf(w, "File:     %s\n", name)
	fmt.Fprintf(w, "Size:     %s (%s bytes)\n",
		humanize.IBytes(uint64(info.Size)), //nolint:gosec // sizes are non-negative
		humanize.Comma(info.Size))
	fmt.Fprintf(w, "Type:     %s\n", info.MIME)
	fmt.Fprintf(w, "Modified: %s (%s)\n", info.ModTime.Format(time.RFC3339), humanize.Time(info.ModTime))
}
