package client

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Option is a functional option for configuring a [Client] via [Build].
type Option func(*options) error
type options struct {
	client            *http.Client
	rt                http.RoundTripper
	timeout           *time.Duration
	userAgent         string
	noFollowRedirects bool
	logger            *slog.Logger
	tracer            trace.Tracer
	baseURL           *url.URL
	creds             Credentials
}

// WithClient replaces the default [http.Client] used by the [Client].
// The client is copied, so later changes to hc have no effect. A zero
// hc.Timeout is replaced by [DefaultTimeout]; use [WithTimeout] to
// change it.
func WithClient(hc *http.Client) Option {
	return func(c *options) error {
		if hc == nil {
			return errors.New("client must not be nil")
		}
		c.client = hc
		return nil
	}
}

// WithTransport sets a custom [http.RoundTripper] as the base transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *options) error {
		if rt == nil {
			return errors.New("transport must not be nil")
		}
		c.rt = rt
		return nil
	}
}

// WithTimeout sets the overall request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *options) error {
		if d < 0 {
			return errors.New("timeout must not be negative")
		}
		c.timeout = &d
		return nil
	}
}

// WithUserAgent adds a persistent User-Agent header to all outgoing requests.
func WithUserAgent(header string) Option {
	return func(c *options) error {
		c.userAgent = header
		return nil
	}
}

// WithNoFollowRedirects prevents the [Client] from following HTTP redirects.
func WithNoFollowRedirects() Option {
	return func(c *options) error {
		c.noFollowRedirects = true
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Client].
func WithLogger(logger *slog.Logger) Option {
	return func(c *options) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		c.logger = logger
		return nil
	}
}

// WithTracer records a client span per request with the given tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *options) error {
		if tracer == nil {
			return errors.New("tracer must not be nil")
		}
		c.tracer = tracer
		return nil
	}
}

// WithBaseURL overrides [DefaultBaseURL]. Commands are resolved
// against it, so a trailing path is replaced by absolute commands.
func WithBaseURL(rawURL string) Option {
	return func(c *options) error {
		u, err := url.Parse(rawURL)
		if err != nil {
			return fmt.Errorf("parsing base url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("base url scheme %q must be http or https", u.Scheme)
		}
		if u.Host == "" {
			return errors.New("base url must include a host")
		}
		c.baseURL = u
		return nil
	}
}

// WithCredentials sets the key pair used to sign private requests.
// Without it only [Client.ExecutePublic] can be used.
func WithCredentials(accessKey, secretKey string) Option {
	return func(c *options) error {
		creds, err := NewCredentials(accessKey, secretKey)
		if err != nil {
			return err
		}
		c.creds = creds
		return nil
	}
}

// userAgent is an http.RoundTripper, enabling the persistent User-Agent header.
type userAgent struct {
	value string
	base  http.RoundTripper
}

func (ua userAgent) RoundTrip(r *http.Request) (*http.Response, error) {
	cpy := r.Clone(r.Context())
	cpy.Header.Set("User-Agent", ua.value)
	return ua.base.RoundTrip(cpy)
}

// DoOption is a functional option for [Client.Execute],
// [Client.ExecuteMultipart] and [Client.ExecutePublic].
type DoOption func(options *doOpts) error

type doOpts struct {
	responseBody any
	useJSONNum   bool
	binary       *[]byte
}

// WithDestination decodes the JSON response body into bodyTemplate.
// bodyTemplate must be a pointer.
func WithDestination[T any](bodyTemplate *T) DoOption {
	return func(opts *doOpts) error {
		if bodyTemplate == nil {
			return errors.New("destination must not be nil")
		}
		opts.responseBody = bodyTemplate

		return nil
	}
}

// WithJSONNumb tells the JSON decoder to use [json.Decoder.UseNumber],
// preserving number precision as [json.Number] instead of float64.
func WithJSONNumb() DoOption {
	return func(opts *doOpts) error {
		opts.useJSONNum = true

		return nil
	}
}

// WithBinary switches the call to binary mode: the raw response body
// is stored in dst and no JSON decoding takes place.
func WithBinary(dst *[]byte) DoOption {
	return func(opts *doOpts) error {
		if dst == nil {
			return errors.New("binary destination must not be nil")
		}
		opts.binary = dst

		return nil
	}
}

func applyDoOpts(opts []DoOption) (doOpts, error) {
	var settings doOpts
	for _, opt := range opts {
		if err := opt(&settings); err != nil {
			return doOpts{}, err
		}
	}

	if settings.binary != nil && settings.responseBody != nil {
		return doOpts{}, errors.New("binary mode cannot be combined with a JSON destination")
	}

	return settings, nil
}
