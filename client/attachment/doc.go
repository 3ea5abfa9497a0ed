// Package attachment streams binary API responses, such as contact
// message attachments, to disk with optional checksum validation and
// progress logging.
//
// [Save] writes to a temporary file next to the destination and renames
// it into place only when the whole body arrived intact:
//
//	err := attachment.Save(ctx, resp.Body, resp.ContentLength, destPath, logger,
//		attachment.WithChecksum(sha256.New(), expectedHex),
//	)
//
// A [Queue] runs several saves concurrently under a shared limit.
// Most callers use [github.com/adamwoolhether/localbitcoins/client.Client.Download]
// and DownloadAsync instead of calling this package directly.
package attachment
