package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/adamwoolhether/localbitcoins/client/attachment"
)

// ErrMissingCredentials is wrapped in a [PreconditionError] when a
// private command is executed on a client built without credentials.
var ErrMissingCredentials = errors.New("client has no credentials")

// Client signs and executes requests against the API.
// It is safe for concurrent use; the only state shared between calls
// is the underlying *http.Client and the nonce counter, which is shared
// with every other Client using the same access key.
type Client struct {
	c       *http.Client
	logger  *slog.Logger
	tracer  trace.Tracer
	baseURL *url.URL
	creds   Credentials
	nonces  *nonceSource
}

// Build returns a Client configured by optFns. Without options it
// targets [DefaultBaseURL] with [DefaultTimeout] and can only make
// public calls.
func Build(optFns ...Option) (*Client, error) {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	client := &Client{
		c:      &http.Client{Timeout: DefaultTimeout},
		logger: slog.Default(),
		tracer: noop.NewTracerProvider().Tracer("localbitcoins"),
		creds:  opts.creds,
		nonces: nonceSourceFor(opts.creds.AccessKey()),
	}

	if opts.client != nil {
		cpy := *opts.client
		if cpy.Timeout == 0 {
			cpy.Timeout = DefaultTimeout
		}
		client.c = &cpy
	}

	if opts.logger != nil {
		client.logger = opts.logger
	}

	if opts.tracer != nil {
		client.tracer = opts.tracer
	}

	if opts.timeout != nil {
		client.c.Timeout = *opts.timeout
	}

	if opts.noFollowRedirects {
		client.c.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	client.baseURL = opts.baseURL
	if client.baseURL == nil {
		u, err := url.Parse(DefaultBaseURL)
		if err != nil {
			return nil, fmt.Errorf("parsing default base url: %w", err)
		}
		client.baseURL = u
	}

	var transport http.RoundTripper
	switch {
	case opts.rt != nil:
		transport = opts.rt
	case opts.client != nil && opts.client.Transport != nil:
		transport = opts.client.Transport
	default:
		transport = http.DefaultTransport
	}
	if opts.userAgent != "" {
		transport = userAgent{value: opts.userAgent, base: transport}
	}
	client.c.Transport = transport

	return client, nil
}

// Execute signs and sends a GET or form POST for command.
//
// GET args travel in the query string and POST args in an
// application/x-www-form-urlencoded body, both exactly as signed.
// The response is decoded as JSON into the [WithDestination] target,
// or stored raw when [WithBinary] is given.
func (c *Client) Execute(ctx context.Context, command, method string, args Args, opts ...DoOption) error {
	settings, err := applyDoOpts(opts)
	if err != nil {
		return &PreconditionError{Op: command, Err: err}
	}

	req, err := c.signedRequest(ctx, command, method, args)
	if err != nil {
		return err
	}

	return c.exec(req, call{command: command, method: method}, settings.handler(command))
}

// ExecuteMultipart signs and sends a multipart/form-data POST with
// fields in order, followed by the file at filePath as the "document"
// part when filePath is not empty. The body is assembled in memory and
// signed byte for byte. Responses are always JSON.
func (c *Client) ExecuteMultipart(ctx context.Context, command string, fields Args, filePath string, opts ...DoOption) error {
	settings, err := applyDoOpts(opts)
	if err != nil {
		return &PreconditionError{Op: command, Err: err}
	}
	if settings.binary != nil {
		return &PreconditionError{Op: command, Err: errors.New("multipart responses cannot use binary mode")}
	}
	if c.creds.IsZero() {
		return &PreconditionError{Op: command, Err: ErrMissingCredentials}
	}

	body, contentType, err := multipartBody(command, fields, filePath)
	if err != nil {
		return err
	}

	u, err := c.resolve(command, "")
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return &PreconditionError{Op: command, Err: fmt.Errorf("instantiating request: %w", err)}
	}
	req.Header.Set("Content-Type", contentType)

	nonce := c.nonces.next()
	c.authorize(req, nonce, SignBody(c.creds, command, nonce, body))

	return c.exec(req, call{command: command, method: http.MethodPost}, settings.handler(command))
}

// ExecutePublic performs an unauthenticated GET of path. The body is
// always decoded as JSON whatever the status code; failures to read or
// decode it are reported as a [TransportError].
func (c *Client) ExecutePublic(ctx context.Context, path string, query Args, opts ...DoOption) error {
	settings, err := applyDoOpts(opts)
	if err != nil {
		return &PreconditionError{Op: path, Err: err}
	}
	if settings.binary != nil {
		return &PreconditionError{Op: path, Err: errors.New("public responses cannot use binary mode")}
	}

	u, err := c.resolve(path, EncodeParams(query))
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return &PreconditionError{Op: path, Err: fmt.Errorf("instantiating request: %w", err)}
	}
	req.Header.Set("Accept", mimeJSON)

	return c.exec(req, call{command: path, method: http.MethodGet, public: true}, settings.handler(path))
}

// Download executes a signed GET in binary mode and streams the body
// to destPath. Data is written to a temp file in the same directory
// which is renamed to destPath on success or removed on failure.
func (c *Client) Download(ctx context.Context, command string, args Args, destPath string, opts ...DownloadOption) error {
	if destPath == "" {
		return &PreconditionError{Op: command, Err: errors.New("destPath must not be empty")}
	}

	req, err := c.signedRequest(ctx, command, http.MethodGet, args)
	if err != nil {
		return err
	}

	saveFn := func(resp *http.Response) error {
		if err := attachment.Save(resp.Request.Context(), resp.Body, resp.ContentLength, destPath, c.logger, opts...); err != nil {
			return fmt.Errorf("saving attachment: %w", err)
		}

		return nil
	}

	return c.exec(req, call{command: command, method: http.MethodGet}, saveFn)
}

// DownloadAsync runs [Client.Download] in the background. Use
// [WithBatch] to bound concurrency for a new batch, or [WithQueue]
// with [DownloadResult.Queue] to add to an existing one.
func (c *Client) DownloadAsync(ctx context.Context, command string, args Args, destPath string, opts ...DownloadOption) (*DownloadResult, error) {
	if destPath == "" {
		return nil, &PreconditionError{Op: command, Err: errors.New("destPath must not be empty")}
	}
	if c.creds.IsZero() {
		return nil, &PreconditionError{Op: command, Err: ErrMissingCredentials}
	}

	q, err := attachment.QueueFor(opts...)
	if err != nil {
		return nil, &PreconditionError{Op: command, Err: err}
	}
	if q == nil {
		q = attachment.NewQueue(0)
	}

	// The request is signed once a slot is free, otherwise a queued
	// download could reach the server with a stale nonce.
	work := func(ctx context.Context) error {
		return c.Download(ctx, command, args, destPath, opts...)
	}

	return q.Start(ctx, work), nil
}

// signedRequest builds a GET or form POST carrying the auth headers.
func (c *Client) signedRequest(ctx context.Context, command, method string, args Args) (*http.Request, error) {
	if c.creds.IsZero() {
		return nil, &PreconditionError{Op: command, Err: ErrMissingCredentials}
	}

	encoded := EncodeParams(args)

	var (
		query string
		body  io.Reader
	)
	switch method {
	case http.MethodGet:
		query = encoded
	case http.MethodPost:
		if encoded != "" {
			body = strings.NewReader(encoded)
		}
	default:
		return nil, &PreconditionError{Op: command, Err: fmt.Errorf("unsupported method %q", method)}
	}

	u, err := c.resolve(command, query)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, &PreconditionError{Op: command, Err: fmt.Errorf("instantiating request: %w", err)}
	}
	if body != nil {
		req.Header.Set("Content-Type", contentTypeForm)
	}

	nonce := c.nonces.next()
	c.authorize(req, nonce, Sign(c.creds, command, nonce, args, method))

	return req, nil
}

func (c *Client) authorize(req *http.Request, nonce, signature string) {
	req.Header.Set(HeaderKey, c.creds.AccessKey())
	req.Header.Set(HeaderNonce, nonce)
	req.Header.Set(HeaderSignature, signature)
	req.Header.Set("Accept", mimeJSON)
}

// resolve joins command onto the base URL and attaches a pre-encoded
// query, which is kept verbatim.
func (c *Client) resolve(command, rawQuery string) (*url.URL, error) {
	ref, err := url.Parse(command)
	if err != nil {
		return nil, &PreconditionError{Op: command, Err: fmt.Errorf("parsing command: %w", err)}
	}

	u := c.baseURL.ResolveReference(ref)
	u.RawQuery = rawQuery

	return u, nil
}

// exec runs the request and the injected function on a 2xx response.
// Private calls with any other status go through the error mapper.
func (c *Client) exec(req *http.Request, cl call, fn execFn) (err error) {
	requestID := uuid.NewString()

	ctx, span := c.tracer.Start(req.Context(), "localbitcoins "+cl.method+" "+cl.command,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", cl.method),
			attribute.String("localbitcoins.command", cl.command),
			attribute.String("localbitcoins.request_id", requestID),
			attribute.Bool("localbitcoins.public", cl.public),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	req = req.WithContext(ctx)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := c.c.Do(req)
	if err != nil {
		c.logger.Debug("api request failed", "request_id", requestID, "command", cl.command, "method", cl.method, "elapsed", time.Since(start), "error", err)
		return newTransportError(cl.command, err)
	}

	discardBody := true
	defer func() {
		if discardBody {
			if _, err := io.Copy(io.Discard, resp.Body); err != nil {
				c.logger.Error("failed to discard unused body", "request_id", requestID, "error", err)
			}
		}
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("failed to close response body", "request_id", requestID, "error", err)
		}
	}()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	c.logger.Debug("api request", "request_id", requestID, "command", cl.command, "method", cl.method, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if cl.public {
			c.logger.Warn("public request returned non-success status", "request_id", requestID, "path", cl.command, "status", resp.StatusCode)
		} else {
			b, err := io.ReadAll(io.LimitReader(resp.Body, maxErrBodySize+1))
			if err != nil {
				return newTransportError(cl.command, fmt.Errorf("reading error body: %w", err))
			}
			if len(b) > maxErrBodySize {
				return &MalformedEnvelopeError{
					Command:    cl.command,
					StatusCode: resp.StatusCode,
					Body:       string(b[:512]),
					Reason:     fmt.Sprintf("error body exceeds %d bytes", maxErrBodySize),
				}
			}

			return mapError(cl.command, resp.StatusCode, b)
		}
	}

	if err := fn(resp); err != nil {
		discardBody = false
		return err
	}

	return nil
}

// handler returns the execFn matching the call's response mode.
func (s doOpts) handler(command string) execFn {
	return func(resp *http.Response) error {
		if s.binary != nil {
			b, err := io.ReadAll(resp.Body)
			if err != nil {
				return newTransportError(command, fmt.Errorf("reading body: %w", err))
			}
			*s.binary = b

			return nil
		}

		dest := s.responseBody
		if dest == nil {
			dest = new(json.RawMessage)
		}

		d := json.NewDecoder(resp.Body)
		if s.useJSONNum {
			d.UseNumber()
		}

		if err := d.Decode(dest); err != nil {
			return newTransportError(command, fmt.Errorf("decoding body: %w", err))
		}

		return nil
	}
}
