package client

import (
	"hash"

	"github.com/adamwoolhether/localbitcoins/client/attachment"
)

type (
	// DownloadOption configures [Client.Download] and [Client.DownloadAsync].
	DownloadOption = attachment.Option

	// DownloadResult represents an in-flight or completed async download.
	DownloadResult = attachment.Result

	// DownloadQueue groups async downloads under a shared concurrency limit.
	DownloadQueue = attachment.Queue
)

var (
	// ErrContentLengthMismatch indicates the byte count did not match Content-Length.
	ErrContentLengthMismatch = attachment.ErrContentLengthMismatch

	// ErrChecksumMismatch indicates the file checksum did not match the expected value.
	ErrChecksumMismatch = attachment.ErrChecksumMismatch

	// ErrDownloadCancelled indicates the download was cancelled via context.
	ErrDownloadCancelled = attachment.ErrCancelled
)

// WithChecksum validates the saved file against expected, the hex
// encoded digest produced by h.
func WithChecksum(h hash.Hash, expected string) DownloadOption {
	return attachment.WithChecksum(h, expected)
}

// WithProgress enables periodic progress logging.
func WithProgress() DownloadOption { return attachment.WithProgress() }

// WithSkipExisting leaves an existing destination file untouched.
func WithSkipExisting() DownloadOption { return attachment.WithSkipExisting() }

// WithBatch starts a new batch limited to maxConcurrent downloads.
func WithBatch(maxConcurrent int) DownloadOption { return attachment.WithBatch(maxConcurrent) }

// WithQueue adds an async download to an existing batch.
func WithQueue(q *DownloadQueue) DownloadOption { return attachment.WithQueue(q) }
