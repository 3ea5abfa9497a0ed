package fakeapi

import (
	"bytes"
	"context"
	"crypto/hmac"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"github.com/adamwoolhether/localbitcoins/client"
)

// Logger logs the start and end of every request.
func Logger(log *slog.Logger) Middleware {
	m := func(handler Handler) Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			v := GetValues(ctx)

			path := r.URL.Path
			if r.URL.RawQuery != "" {
				path = fmt.Sprintf("%s?%s", path, r.URL.RawQuery)
			}

			log.Info("request started", "method", r.Method, "path", path, "remoteaddr", r.RemoteAddr)

			err := handler(ctx, w, r)

			log.Info("request completed", "method", r.Method, "path", path, "remoteaddr", r.RemoteAddr, "statusCode", v.StatusCode, "since", time.Since(v.Now).String())

			return err
		}

		return h
	}

	return m
}

// Errors renders errors coming out of the call chain as the error envelope.
func Errors(log *slog.Logger) Middleware {
	m := func(handler Handler) Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			err := handler(ctx, w, r)
			if err == nil {
				return nil
			}

			appErr := asError(err)

			reqLog := log.With("trace_id", GetValues(ctx).TraceID)
			reqLog.Error(err.Error(), "error_code", appErr.Code, "source_err_file", path.Base(appErr.FileName), "source_err_func", path.Base(appErr.FuncName))

			if appErr.InnerErr { // after logging, obscure the internal error from public view.
				appErr.Message = http.StatusText(appErr.Status)
			}

			return RespondJSON(ctx, w, appErr.Status, errorEnvelope{Error: appErr})
		}

		return h
	}

	return m
}

// Panics recovers from panics if they occur.
func Panics() Middleware {
	m := func(handler Handler) Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					trace := debug.Stack()
					err = fmt.Errorf("PANIC [%v] TRACE[%s]", rec, string(trace))
				}
			}()

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

// Account is an API key pair known to the fake, owned by Username.
type Account struct {
	Username  string
	AccessKey string
	SecretKey string
}

// keyring tracks the highest nonce seen per access key.
type keyring struct {
	mu       sync.Mutex
	accounts map[string]Account
	nonces   map[string]int64
}

func newKeyring(accounts []Account) *keyring {
	k := keyring{
		accounts: make(map[string]Account, len(accounts)),
		nonces:   make(map[string]int64, len(accounts)),
	}
	for _, a := range accounts {
		k.accounts[a.AccessKey] = a
	}

	return &k
}

// advance accepts nonce only if it is above every nonce seen for key.
func (k *keyring) advance(key string, nonce int64) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	if nonce <= k.nonces[key] {
		return false
	}
	k.nonces[key] = nonce

	return true
}

func (k *keyring) lookup(key string) (Account, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()

	a, ok := k.accounts[key]
	return a, ok
}

// Authenticate verifies the Apiauth headers of a request. The signed
// message is rebuilt from the path and either the raw query (prefixed
// with '?') or the raw body, and nonces must strictly increase per key.
func Authenticate(keys *keyring) Middleware {
	m := func(handler Handler) Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			key := r.Header.Get("Apiauth-Key")
			rawNonce := r.Header.Get("Apiauth-Nonce")
			signature := r.Header.Get("Apiauth-Signature")

			acct, ok := keys.lookup(key)
			if !ok {
				return NewError(http.StatusUnauthorized, CodeUnknownKey, "HMAC authentication key not found")
			}

			nonce, err := strconv.ParseInt(rawNonce, 10, 64)
			if err != nil {
				return NewError(http.StatusUnauthorized, CodeNonceTooSmall, "Invalid nonce")
			}

			var suffix []byte
			switch r.Method {
			case http.MethodGet:
				if r.URL.RawQuery != "" {
					suffix = []byte("?" + r.URL.RawQuery)
				}
			default:
				body, err := io.ReadAll(r.Body)
				if err != nil {
					return NewInternal(fmt.Errorf("reading body: %w", err))
				}
				r.Body = io.NopCloser(bytes.NewReader(body))
				suffix = body
			}

			creds, err := client.NewCredentials(acct.AccessKey, acct.SecretKey)
			if err != nil {
				return NewInternal(err)
			}

			want := client.SignBody(creds, r.URL.Path, rawNonce, suffix)
			if !hmac.Equal([]byte(want), []byte(signature)) {
				return NewError(http.StatusUnauthorized, CodeInvalidSignature, "HMAC authentication failed")
			}

			// Checked after the signature so a forged request cannot burn a nonce.
			if !keys.advance(key, nonce) {
				return NewError(http.StatusUnauthorized, CodeNonceTooSmall, "Nonce must be larger than the previous one")
			}

			GetValues(ctx).Username = acct.Username

			return handler(ctx, w, r)
		}

		return h
	}

	return m
}
