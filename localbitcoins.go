// Package localbitcoins exposes typed calls for the LocalBitcoins HTTP API
// on top of the signing [client.Client].
package localbitcoins

import (
	"context"
	"net/http"

	"github.com/adamwoolhether/localbitcoins/client"
)

// Client is a typed facade over [client.Client]. Every method validates
// its arguments before any request is signed, reporting bad input as a
// [*client.PreconditionError].
type Client struct {
	api *client.Client
}

// NewClient instantiates a new *Client with the provided options.
// Use [client.WithCredentials] for private calls; without it only the
// public market listings work.
func NewClient(opts ...client.Option) (*Client, error) {
	api, err := client.Build(opts...)
	if err != nil {
		return nil, err
	}

	return &Client{api: api}, nil
}

// API returns the underlying signing client for commands not covered
// by the typed methods.
func (c *Client) API() *client.Client {
	return c.api
}

func get[T any](ctx context.Context, c *Client, command string, args client.Args) (*Envelope[T], error) {
	return execute[T](ctx, c, command, http.MethodGet, args)
}

func post[T any](ctx context.Context, c *Client, command string, args client.Args) (*Envelope[T], error) {
	return execute[T](ctx, c, command, http.MethodPost, args)
}

func execute[T any](ctx context.Context, c *Client, command, method string, args client.Args) (*Envelope[T], error) {
	var env Envelope[T]
	if err := c.api.Execute(ctx, command, method, args, client.WithDestination(&env)); err != nil {
		return nil, err
	}

	return &env, nil
}
