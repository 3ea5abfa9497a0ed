package fakeapi

import (
	"log/slog"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a Service.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	tracer   trace.Tracer
	accounts []Account
	balance  decimal.Decimal
	pincode  string
}

// WithLogger sets the logger used for request and error logging.
func WithLogger(log *slog.Logger) Option {
	return func(opts *options) {
		opts.logger = log
	}
}

// WithTracer injects the tracer used for handler spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(opts *options) {
		opts.tracer = tracer
	}
}

// WithAccount registers a key pair. It may be given more than once.
func WithAccount(acct Account) Option {
	return func(opts *options) {
		opts.accounts = append(opts.accounts, acct)
	}
}

// WithBalance sets the starting wallet balance in BTC. Default is 1.5.
func WithBalance(balance decimal.Decimal) Option {
	return func(opts *options) {
		opts.balance = balance
	}
}

// WithPincode sets the PIN accepted by the PIN protected endpoints.
// Default is "1234".
func WithPincode(pin string) Option {
	return func(opts *options) {
		opts.pincode = pin
	}
}
