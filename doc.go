// Package transfer orchestrates resumable object-storage uploads and downloads
// whose bytes are moved by a pluggable transfer engine.
//
// The Service drives multipart uploads part by part, resuming from the parts
// the storage service already holds, and stops at the next part boundary when
// the caller's PauseToken is paused. Downloads run inside the engine; their
// progress and completion notifications arrive on the engine's single event
// stream and are routed back to the listeners of the request that started
// them, keyed by request identifier.
//
// Engines for Amazon S3 (engine/s3engine) and S3-compatible stores through
// MinIO (engine/minioengine) are provided.
//
// Example usage:
//
//	svc := transfer.New(s3engine.New(), transfer.WithLogger(logger))
//	defer svc.Close()
//
//	if err := svc.InitWithPlainSecret(ctx, transfertypes.Configuration{Region: "eu-west-1"},
//	    transfertypes.PlainSecret{SecretID: id, SecretKey: key}); err != nil {
//	    return err
//	}
//
//	token := transfertypes.NewPauseToken()
//	outcome, err := svc.Upload(ctx, transfertypes.UploadRequest{
//	    Bucket:   "my-bucket",
//	    Key:      "backups/db.tar",
//	    FilePath: "/var/backups/db.tar",
//	}, transfertypes.Listeners{
//	    Progress: func(done, total int64) { fmt.Printf("%d/%d\n", done, total) },
//	}, token)
//
// Listener callbacks for downloads run on the service's dispatch goroutine and
// must not call back into the Service synchronously.
package transfer
