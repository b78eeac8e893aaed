package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

var downloadCmd = &cobra.Command{
	Use:   "download <bucket> <key> <destination>",
	Short: "Download an object to a local file",
	Long: `Download streams an object into a local file.

Parent directories are created automatically. Press Ctrl-C to stop; the
partial file is kept.

Examples:
  xfer download my-bucket backups/backup.tar ./backup.tar`,
	Args: cobra.ExactArgs(3),
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)
}

func runDownload(_ *cobra.Command, args []string) error {
	dest, err := filepath.Abs(args[2])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	svc, cfg, err := newService(context.Background())
	if err != nil {
		return err
	}
	defer svc.Close()

	progress, finish := newProgress(cfg.Progress, "Downloading")
	result := make(chan error, 1)

	id, err := svc.Download(context.Background(), transfertypes.DownloadRequest{
		Bucket:   args[0],
		Key:      args[1],
		FilePath: dest,
	}, transfertypes.Listeners{
		Progress: progress,
		Result:   func(err error) { result <- err },
	})
	if err != nil {
		finish()
		return err
	}

	select {
	case err := <-result:
		finish()
		if err != nil {
			return err
		}
		fmt.Printf("Downloaded %s/%s to %s\n", args[0], args[1], args[2])
		return nil
	case <-ctx.Done():
		finish()
		if err := svc.PauseDownload(context.Background(), id); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Download stopped; partial file kept at %s\n", args[2])
		return ctx.Err()
	}
}
