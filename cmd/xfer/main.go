// Command xfer uploads and downloads files to S3-compatible object storage
// with resumable multipart transfers.
package main

import (
	"os"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/cmd/xfer/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
