package attachment

import (
	"errors"
	"hash"
)

// Option configures [Save] and the client download helpers.
type Option func(*options) error

type options struct {
	checksum     *checksumVerifier
	progress     bool
	skipExisting bool
	queue        *Queue
}

// WithChecksum validates the saved file against expected, the hex
// encoded digest produced by h (for example sha256.New()).
func WithChecksum(h hash.Hash, expected string) Option {
	return func(opts *options) error {
		if h == nil {
			return errors.New("hash must not be nil")
		}

		if expected == "" {
			return errors.New("expected checksum must not be empty")
		}

		opts.checksum = &checksumVerifier{hash: h, expected: expected}
		return nil
	}
}

// WithProgress logs progress through the logger given to [Save].
func WithProgress() Option {
	return func(opts *options) error {
		opts.progress = true
		return nil
	}
}

// WithSkipExisting makes [Save] return nil without reading the body
// when the destination already exists.
func WithSkipExisting() Option {
	return func(opts *options) error {
		opts.skipExisting = true
		return nil
	}
}

// WithBatch starts a new [Queue] limited to maxConcurrent downloads.
// If maxConcurrent <= 0, concurrency is unlimited.
func WithBatch(maxConcurrent int) Option {
	return func(opts *options) error {
		if opts.queue != nil {
			return errors.New("WithBatch cannot be combined with WithQueue")
		}
		opts.queue = NewQueue(maxConcurrent)
		return nil
	}
}

// WithQueue adds the download to an existing queue.
func WithQueue(q *Queue) Option {
	return func(opts *options) error {
		if q == nil {
			return errors.New("queue must not be nil")
		}
		if opts.queue != nil {
			return errors.New("WithQueue cannot be combined with WithBatch")
		}
		opts.queue = q
		return nil
	}
}

// QueueFor returns the queue selected by [WithBatch] or [WithQueue],
// or nil when neither was given.
func QueueFor(optFns ...Option) (*Queue, error) {
	opts, err := apply(optFns)
	if err != nil {
		return nil, err
	}

	return opts.queue, nil
}

func apply(optFns []Option) (options, error) {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return options{}, err
		}
	}

	return opts, nil
}
