// Package client implements the signing and transport layer of the
// LocalBitcoins HTTP API.
//
// # Building a Client
//
// Use [Build] to create a [Client] with functional options:
//
//	c, err := client.Build(
//		client.WithCredentials(accessKey, secretKey),
//		client.WithTimeout(10 * time.Second),
//		client.WithLogger(logger),
//	)
//
// # Signed Requests
//
// Every private request carries the Apiauth-Key, Apiauth-Nonce and
// Apiauth-Signature headers. The signature is the uppercase hex
// HMAC-SHA256, keyed by the secret, of
//
//	nonce + accessKey + command + params
//
// where params is "?"+[EncodeParams] for GET, [EncodeParams] for a form
// POST, the raw body for a multipart POST, and empty when there are no
// args. Nonces are microseconds since the Unix epoch and strictly
// increase across goroutines sharing a Client.
//
//	var env struct{ Data json.RawMessage `json:"data"` }
//	err = c.Execute(ctx, "/api/myself/", http.MethodGet, nil, client.WithDestination(&env))
//
// Binary responses are requested per call with [WithBinary], or
// streamed to disk with [Client.Download].
//
// # Errors
//
// Non-2xx responses to private calls are mapped to [*APIError], or to
// [*MalformedEnvelopeError] when the error body lacks the expected
// fields. Network failures, timeouts and undecodable bodies are
// [*TransportError]. Invalid input is rejected with [*PreconditionError]
// before anything is sent.
package client
