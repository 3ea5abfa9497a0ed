package client

import (
	"net/http"
	"time"
)

const (
	// DefaultBaseURL is the production API address.
	DefaultBaseURL = "https://localbitcoins.net/"
	// DefaultTimeout bounds every request unless overridden with [WithTimeout].
	DefaultTimeout = 10 * time.Second
)

// Authentication headers.
const (
	HeaderKey       = "Apiauth-Key"
	HeaderNonce     = "Apiauth-Nonce"
	HeaderSignature = "Apiauth-Signature"
)

const (
	contentTypeForm = "application/x-www-form-urlencoded"
	mimeJSON        = "application/json"
)

// maxErrBodySize caps the amount of an error response read before it
// is handed to the error mapper.
const maxErrBodySize = 64 << 10 // 64KB

// execFn represents a func to operate on a successful response.
type execFn func(response *http.Response) error

// call carries the per-request details through exec.
type call struct {
	command string
	method  string
	public  bool
}
