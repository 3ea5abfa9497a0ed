package client

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"log/slog"
	"net/http"
	"unicode/utf8"
)

const redacted = "[REDACTED]"

// Credentials holds an HMAC key pair. Both halves are hidden from
// fmt, slog and encoding/json so they never end up in logs.
type Credentials struct {
	accessKey string
	secretKey string
}

// NewCredentials validates and returns a key pair.
func NewCredentials(accessKey, secretKey string) (Credentials, error) {
	if accessKey == "" {
		return Credentials{}, errors.New("access key must not be empty")
	}
	if secretKey == "" {
		return Credentials{}, errors.New("secret key must not be empty")
	}

	return Credentials{accessKey: accessKey, secretKey: secretKey}, nil
}

// AccessKey returns the public half of the pair, as sent in the Apiauth-Key header.
func (c Credentials) AccessKey() string { return c.accessKey }

// IsZero reports whether no credentials were configured.
func (c Credentials) IsZero() bool { return c.accessKey == "" && c.secretKey == "" }

func (c Credentials) String() string   { return redacted }
func (c Credentials) GoString() string { return redacted }

// LogValue implements [slog.LogValuer].
func (c Credentials) LogValue() slog.Value { return slog.StringValue(redacted) }

// MarshalJSON refuses to serialize the pair.
func (c Credentials) MarshalJSON() ([]byte, error) {
	return nil, errors.New("credentials are not serializable")
}

// Sign returns the signature for a GET or form POST request.
//
// The signed message is nonce, access key, command and then the
// encoded args: prefixed with '?' for GET, bare for POST, and left
// out entirely when args is empty.
func Sign(creds Credentials, command, nonce string, args Args, method string) string {
	var suffix string
	if len(args) > 0 {
		suffix = EncodeParams(args)
		if method == http.MethodGet {
			suffix = "?" + suffix
		}
	}

	return sign(creds, command, nonce, asciiBytes(suffix))
}

// SignBody returns the signature for a request whose body bytes are
// signed verbatim, as with multipart uploads.
func SignBody(creds Credentials, command, nonce string, body []byte) string {
	return sign(creds, command, nonce, body)
}

func sign(creds Credentials, command, nonce string, suffix []byte) string {
	mac := hmac.New(sha256.New, asciiBytes(creds.secretKey))
	mac.Write(asciiBytes(nonce + creds.accessKey + command))
	mac.Write(suffix)

	return BytesToHex(mac.Sum(nil))
}

// asciiBytes encodes s as 7-bit ASCII, replacing anything outside
// that range with '?'.
func asciiBytes(s string) []byte {
	b := make([]byte, 0, len(s))
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		s = s[size:]
		if r > 0x7f {
			b = append(b, '?')
			continue
		}
		b = append(b, byte(r))
	}

	return b
}
