package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/input-output-hk/catalyst-forge-libs/transfer"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

var uploadResumeID string

var uploadCmd = &cobra.Command{
	Use:   "upload <file> <bucket> <key>",
	Short: "Upload a file as a resumable multipart upload",
	Long: `Upload sends a local file as a multipart upload.

Press Ctrl-C to pause: the upload stops after the part in flight and the
upload id is printed. Pass it to --resume to continue where it left off.

Examples:
  xfer upload ./backup.tar my-bucket backups/backup.tar
  xfer upload ./backup.tar my-bucket backups/backup.tar --resume 2~abcd`,
	Args: cobra.ExactArgs(3),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVar(&uploadResumeID, "resume", "", "Upload id of a paused upload to resume")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(_ *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
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

	req := transfertypes.UploadRequest{
		RequestID: uploadResumeID,
		Bucket:    args[1],
		Key:       args[2],
		FilePath:  path,
	}

	outcome, err := uploadUntilSignal(ctx, svc, req, cfg.Progress)
	if err != nil {
		return err
	}

	if outcome.Paused {
		fmt.Fprintf(os.Stderr, "Upload paused after %d parts. Resume with:\n", len(outcome.Parts))
		fmt.Printf("xfer upload %s %s %s --resume %s\n", args[0], req.Bucket, req.Key, outcome.RequestID)
		return nil
	}

	fmt.Printf("Uploaded %s to %s/%s (etag %s)\n", args[0], outcome.Result.Bucket, outcome.Result.Key, outcome.Result.ETag)
	return nil
}

// uploadUntilSignal runs the upload and pauses it at the next part boundary
// once ctx is canceled.
func uploadUntilSignal(
	ctx context.Context,
	svc *transfer.Service,
	req transfertypes.UploadRequest,
	progressMode string,
) (*transfertypes.UploadOutcome, error) {
	token := transfertypes.NewPauseToken()
	progress, finish := newProgress(progressMode, "Uploading")
	defer finish()

	listeners := transfertypes.Listeners{
		Init: func(id string) {
			fmt.Fprintf(os.Stderr, "Upload id: %s\n", id)
		},
		Progress: progress,
	}

	done := make(chan struct{})
	var outcome *transfertypes.UploadOutcome

	g, gctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		defer close(done)
		var err error
		// not bound to ctx: an interrupt pauses at the next part boundary
		outcome, err = svc.Upload(gctx, req, listeners, token)
		return err
	})
	g.Go(func() error {
		select {
		case <-ctx.Done():
			token.Pause()
		case <-done:
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcome, nil
}
