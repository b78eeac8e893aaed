package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel <bucket> <key> <upload-id>",
	Short: "Abort a paused upload and discard its parts",
	Args:  cobra.ExactArgs(3),
	RunE:  runCancel,
}

func init() {
	rootCmd.AddCommand(cancelCmd)
}

func runCancel(_ *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	svc, _, err := newService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.CancelUpload(ctx, transfertypes.CancelUploadRequest{
		RequestID: args[2],
		Bucket:    args[0],
		Key:       args[1],
	}); err != nil {
		return err
	}

	fmt.Printf("Cancelled upload %s\n", args[2])
	return nil
}
