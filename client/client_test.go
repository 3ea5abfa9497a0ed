package client_test

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/adamwoolhether/localbitcoins/client"
)

type test struct {
	*client.Client

	server *httptest.Server
	hits   *atomic.Int64
}

type envelope struct {
	Data map[string]any `json:"data"`
}

// newTest starts a server that counts requests and hands them to h
// along with the fully read body.
func newTest(t *testing.T, h func(t *testing.T, w http.ResponseWriter, r *http.Request, body []byte), opts ...client.Option) *test {
	t.Helper()

	var hits atomic.Int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("reading request body: %v", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		h(t, w, r, body)
	}))
	t.Cleanup(ts.Close)

	c, err := client.Build(append([]client.Option{
		client.WithBaseURL(ts.URL),
		client.WithCredentials("mykey", "mysecret"),
	}, opts...)...)
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}

	return &test{Client: c, server: ts, hits: &hits}
}

// verifySignature recomputes the signature the server expects for a
// GET or form POST and compares it to the request headers.
func verifySignature(t *testing.T, r *http.Request, args client.Args) {
	t.Helper()

	if got := r.Header.Get(client.HeaderKey); got != "mykey" {
		t.Errorf("Apiauth-Key = %q, want mykey", got)
	}

	nonce := r.Header.Get(client.HeaderNonce)
	if _, err := strconv.ParseInt(nonce, 10, 64); err != nil {
		t.Errorf("Apiauth-Nonce %q is not an integer: %v", nonce, err)
	}

	creds, err := client.NewCredentials("mykey", "mysecret")
	if err != nil {
		t.Errorf("creating credentials: %v", err)
		return
	}

	exp := client.Sign(creds, r.URL.Path, nonce, args, r.Method)
	if got := r.Header.Get(client.HeaderSignature); got != exp {
		t.Errorf("Apiauth-Signature = %s, want %s", got, exp)
	}

	if got := r.Header.Get("Accept"); got != "application/json" {
		t.Errorf("Accept = %q, want application/json", got)
	}
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encoding response: %v", err)
	}
}

func TestClient_Execute(t *testing.T) {
	args := client.NewArgs("currency", "EUR", "msg", "hello world")

	testCases := map[string]struct {
		command  string
		method   string
		args     client.Args
		expQuery string
		expBody  string
		expCT    string
	}{
		"getNoArgs": {
			command: "/api/myself/",
			method:  http.MethodGet,
		},
		"getWithArgs": {
			command:  "/api/dashboard/released/",
			method:   http.MethodGet,
			args:     args,
			expQuery: "currency=EUR&msg=hello+world",
		},
		"postWithArgs": {
			command: "/api/contact_message_post/12345/",
			method:  http.MethodPost,
			args:    args,
			expBody: "currency=EUR&msg=hello+world",
			expCT:   "application/x-www-form-urlencoded",
		},
		"postNoArgs": {
			command: "/api/logout/",
			method:  http.MethodPost,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			test := newTest(t, func(t *testing.T, w http.ResponseWriter, r *http.Request, body []byte) {
				if r.Method != tc.method {
					t.Errorf("method = %s, want %s", r.Method, tc.method)
				}
				if r.URL.Path != tc.command {
					t.Errorf("path = %s, want %s", r.URL.Path, tc.command)
				}
				if r.URL.RawQuery != tc.expQuery {
					t.Errorf("query = %q, want %q", r.URL.RawQuery, tc.expQuery)
				}
				if tc.expQuery == "" && r.RequestURI != tc.command {
					t.Errorf("request uri = %q, want %q", r.RequestURI, tc.command)
				}
				if string(body) != tc.expBody {
					t.Errorf("body = %q, want %q", body, tc.expBody)
				}
				if got := r.Header.Get("Content-Type"); got != tc.expCT {
					t.Errorf("Content-Type = %q, want %q", got, tc.expCT)
				}

				verifySignature(t, r, tc.args)

				writeJSON(t, w, http.StatusOK, map[string]any{"data": map[string]any{"username": "bob"}})
			})

			var got envelope
			if err := test.Execute(t.Context(), tc.command, tc.method, tc.args, client.WithDestination(&got)); err != nil {
				t.Fatalf("executing: %v", err)
			}

			exp := envelope{Data: map[string]any{"username": "bob"}}
			if diff := cmp.Diff(exp, got); diff != "" {
				t.Errorf("response mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClient_Execute_APIError(t *testing.T) {
	test := newTest(t, func(t *testing.T, w http.ResponseWriter, r *http.Request, body []byte) {
		writeJSON(t, w, http.StatusBadRequest, map[string]any{
			"error": map[string]any{"message": "Invalid nonce", "error_code": 42},
		})
	})

	err := test.Execute(t.Context(), "/api/myself/", http.MethodGet, nil)
	if !errors.Is(err, client.ErrAPI) {
		t.Fatalf("expected ErrAPI, got %v", err)
	}

	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *client.APIError, got %T", err)
	}
	if apiErr.Code != 42 || apiErr.Message != "Invalid nonce" || apiErr.Command != "/api/myself/" {
		t.Errorf("unexpected api error: %+v", apiErr)
	}
	if exp := "Failed request /api/myself/. Message: Invalid nonce. Error Code: 42"; apiErr.Error() != exp {
		t.Errorf("Error() = %q, want %q", apiErr.Error(), exp)
	}
}

func TestClient_Execute_NullErrorBody(t *testing.T) {
	test := newTest(t, func(t *testing.T, w http.ResponseWriter, r *http.Request, body []byte) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("null"))
	})

	err := test.Execute(t.Context(), "/api/wallet/", http.MethodGet, nil)

	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *client.APIError, got %v", err)
	}
	if apiErr.HasCode {
		t.Error("expected no error code")
	}
	if exp := "Failed request /api/wallet/. Message: Null"; err.Error() != exp {
		t.Errorf("Error() = %q, want %q", err.Error(), exp)
	}
}

func TestClient_Execute_OversizedErrorBody(t *testing.T) {
	test := newTest(t, func(t *testing.T, w http.ResponseWriter, r *http.Request, body []byte) {
		writeJSON(t, w, http.StatusBadRequest, map[string]any{
			"error": map[string]any{
				"message":     "An error occurred when validating the form.",
				"error_code":  9,
				"error_lists": map[string]any{"msg": []string{strings.Repeat("x", 70<<10)}},
			},
		})
	})

	err := test.Execute(t.Context(), "/api/ad/12345/", http.MethodPost, client.NewArgs("msg", "x"))
	if !errors.Is(err, client.ErrMalformedEnvelope) {
		t.Fatalf("expected ErrMalformedEnvelope, got %v", err)
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		t.Errorf("a cut off body must not map to an APIError: %v", apiErr)
	}
}

func TestClient_Execute_Binary(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff}

	test := newTest(t, func(t *testing.T, w http.ResponseWriter, r *http.Request, body []byte) {
		verifySignature(t, r, nil)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(payload)
	})

	var got []byte
	if err := test.Execute(t.Context(), "/api/contact_message_attachment/1/2/", http.MethodGet, nil, client.WithBinary(&got)); err != nil {
		t.Fatalf("executing: %v", err)
	}

	if !bytes.Equal(got, payload) {
		t.Errorf("got %x, want %x", got, payload)
	}
}

func TestClient_Execute_Preconditions(t *testing.T) {
	var dst map[string]any
	var raw []byte

	testCases := map[string]struct {
		method string
		opts   []client.DoOption
		creds  bool
		expErr error
	}{
		"binaryAndDestination": {
			method: http.MethodGet,
			opts:   []client.DoOption{client.WithBinary(&raw), client.WithDestination(&dst)},
			creds:  true,
		},
		"unsupportedMethod": {
			method: http.MethodDelete,
			creds:  true,
		},
		"missingCredentials": {
			method: http.MethodGet,
			expErr: client.ErrMissingCredentials,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			var hits atomic.Int64
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
			}))
			defer ts.Close()

			opts := []client.Option{client.WithBaseURL(ts.URL)}
			if tc.creds {
				opts = append(opts, client.WithCredentials("mykey", "mysecret"))
			}

			c, err := client.Build(opts...)
			if err != nil {
				t.Fatalf("creating client: %v", err)
			}

			err = c.Execute(t.Context(), "/api/myself/", tc.method, nil, tc.opts...)
			if !errors.Is(err, client.ErrPrecondition) {
				t.Fatalf("expected ErrPrecondition, got %v", err)
			}
			if tc.expErr != nil && !errors.Is(err, tc.expErr) {
				t.Errorf("expected %v, got %v", tc.expErr, err)
			}
			if n := hits.Load(); n != 0 {
				t.Errorf("expected no requests, got %d", n)
			}
		})
	}
}

func TestClient_Execute_Timeout(t *testing.T) {
	test := newTest(t, func(t *testing.T, w http.ResponseWriter, r *http.Request, body []byte) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, client.WithTimeout(50*time.Millisecond))

	err := test.Execute(t.Context(), "/api/myself/", http.MethodGet, nil)
	if !errors.Is(err, client.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	if !errors.Is(err, client.ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}

	var te *client.TransportError
	if !errors.As(err, &te) || !te.Timeout() {
		t.Errorf("expected timed out *client.TransportError, got %#v", err)
	}
}

func TestClient_Execute_UndecodableSuccess(t *testing.T) {
	test := newTest(t, func(t *testing.T, w http.ResponseWriter, r *http.Request, body []byte) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html>not json</html>"))
	})

	var got envelope
	err := test.Execute(t.Context(), "/api/myself/", http.MethodGet, nil, client.WithDestination(&got))
	if !errors.Is(err, client.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	if errors.Is(err, client.ErrTimeout) {
		t.Error("decode failure should not be a timeout")
	}
}

func TestClient_Execute_ConcurrentNonces(t *testing.T) {
	const calls = 25

	var (
		mu     sync.Mutex
		nonces = make(map[string]struct{})
	)
	test := newTest(t, func(t *testing.T, w http.ResponseWriter, r *http.Request, body []byte) {
		verifySignature(t, r, nil)

		mu.Lock()
		nonces[r.Header.Get(client.HeaderNonce)] = struct{}{}
		mu.Unlock()

		writeJSON(t, w, http.StatusOK, map[string]any{"data": map[string]any{}})
	})

	var wg sync.WaitGroup
	for range calls {
		wg.Go(func() {
			if err := test.Execute(t.Context(), "/api/myself/", http.MethodGet, nil); err != nil {
				t.Errorf("executing: %v", err)
			}
		})
	}
	wg.Wait()

	if len(nonces) != calls {
		t.Errorf("got %d distinct nonces, want %d", len(nonces), calls)
	}
}

func TestClient_ExecuteMultipart(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "receipt.txt")
	if err := os.WriteFile(filePath, []byte("paid in full"), 0o600); err != nil {
		t.Fatalf("writing attachment: %v", err)
	}

	fields := client.NewArgs("msg", "see attached")

	test := newTest(t, func(t *testing.T, w http.ResponseWriter, r *http.Request, body []byte) {
		creds, err := client.NewCredentials("mykey", "mysecret")
		if err != nil {
			t.Errorf("creating credentials: %v", err)
			return
		}

		nonce := r.Header.Get(client.HeaderNonce)
		exp := client.SignBody(creds, r.URL.Path, nonce, body)
		if got := r.Header.Get(client.HeaderSignature); got != exp {
			t.Errorf("signature = %s, want %s", got, exp)
		}

		mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "multipart/form-data" {
			t.Errorf("content type %q: %v", r.Header.Get("Content-Type"), err)
			return
		}

		mr := multipart.NewReader(bytes.NewReader(body), params["boundary"])

		type part struct {
			Name, FileName, Content string
		}
		var parts []part
		for {
			p, err := mr.NextPart()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				t.Errorf("reading part: %v", err)
				return
			}
			b, err := io.ReadAll(p)
			if err != nil {
				t.Errorf("reading part body: %v", err)
				return
			}
			parts = append(parts, part{Name: p.FormName(), FileName: p.FileName(), Content: string(b)})
		}

		expParts := []part{
			{Name: "msg", Content: "see attached"},
			{Name: "document", FileName: "receipt.txt", Content: "paid in full"},
		}
		if diff := cmp.Diff(expParts, parts); diff != "" {
			t.Errorf("parts mismatch (-want +got):\n%s", diff)
		}

		writeJSON(t, w, http.StatusOK, map[string]any{"data": map[string]any{"message": "Message posted"}})
	})

	var got envelope
	if err := test.ExecuteMultipart(t.Context(), "/api/contact_message_post/7/", fields, filePath, client.WithDestination(&got)); err != nil {
		t.Fatalf("executing multipart: %v", err)
	}
	if got.Data["message"] != "Message posted" {
		t.Errorf("unexpected response: %+v", got)
	}
}

func TestClient_ExecuteMultipart_Preconditions(t *testing.T) {
	test := newTest(t, func(t *testing.T, w http.ResponseWriter, r *http.Request, body []byte) {
		t.Error("no request expected")
	})

	var raw []byte
	testCases := map[string]struct {
		path string
		opts []client.DoOption
	}{
		"missingFile": {path: filepath.Join(t.TempDir(), "nope.png")},
		"directory":   {path: t.TempDir()},
		"binaryMode":  {opts: []client.DoOption{client.WithBinary(&raw)}},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			err := test.ExecuteMultipart(t.Context(), "/api/contact_message_post/7/", client.NewArgs("msg", "x"), tc.path, tc.opts...)
			if !errors.Is(err, client.ErrPrecondition) {
				t.Fatalf("expected ErrPrecondition, got %v", err)
			}
		})
	}

	if n := test.hits.Load(); n != 0 {
		t.Errorf("expected no requests, got %d", n)
	}
}

func TestClient_ExecutePublic(t *testing.T) {
	testCases := map[string]struct {
		status  int
		body    string
		query   client.Args
		expQ    string
		expErr  error
		expData map[string]any
	}{
		"ok": {
			status:  http.StatusOK,
			body:    `{"data":{"ad_count":1}}`,
			query:   client.NewArgs("page", "2"),
			expQ:    "page=2",
			expData: map[string]any{"ad_count": float64(1)},
		},
		"notFoundStillDecoded": {
			status:  http.StatusNotFound,
			body:    `{"data":{"ad_count":0}}`,
			expData: map[string]any{"ad_count": float64(0)},
		},
		"notJSON": {
			status: http.StatusBadGateway,
			body:   "<html>bad gateway</html>",
			expErr: client.ErrTransport,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				for _, h := range []string{client.HeaderKey, client.HeaderNonce, client.HeaderSignature} {
					if r.Header.Get(h) != "" {
						t.Errorf("public request carried %s", h)
					}
				}
				if r.URL.RawQuery != tc.expQ {
					t.Errorf("query = %q, want %q", r.URL.RawQuery, tc.expQ)
				}
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer ts.Close()

			// Credentials are optional for public calls.
			c, err := client.Build(client.WithBaseURL(ts.URL))
			if err != nil {
				t.Fatalf("creating client: %v", err)
			}

			var got envelope
			err = c.ExecutePublic(t.Context(), "/buy-bitcoins-online/EUR/.json", tc.query, client.WithDestination(&got))
			if tc.expErr != nil {
				if !errors.Is(err, tc.expErr) {
					t.Fatalf("expected %v, got %v", tc.expErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("executing public call: %v", err)
			}

			if diff := cmp.Diff(tc.expData, got.Data); diff != "" {
				t.Errorf("data mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// roundTripFunc adapts a function into an http.RoundTripper.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func TestClient_WithTransport(t *testing.T) {
	var called bool
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		called = true
		if r.URL.String() != "https://localbitcoins.net/api/myself/" {
			t.Errorf("url = %s", r.URL)
		}
		if r.Header.Get("User-Agent") != "lbtest/1.0" {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewBufferString(`{"data":{"username":"alice"}}`)),
			Header:     make(http.Header),
			Request:    r,
		}, nil
	})

	c, err := client.Build(
		client.WithCredentials("mykey", "mysecret"),
		client.WithTransport(rt),
		client.WithUserAgent("lbtest/1.0"),
	)
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}

	var got envelope
	if err := c.Execute(t.Context(), "/api/myself/", http.MethodGet, nil, client.WithDestination(&got)); err != nil {
		t.Fatalf("executing: %v", err)
	}

	if !called {
		t.Error("custom transport was not used")
	}
	if got.Data["username"] != "alice" {
		t.Errorf("unexpected response: %+v", got)
	}
}

func TestClient_TransportFailure(t *testing.T) {
	boom := errors.New("connection reset")
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return nil, boom
	})

	c, err := client.Build(client.WithCredentials("k", "s"), client.WithTransport(rt))
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}

	err = c.Execute(t.Context(), "/api/myself/", http.MethodGet, nil)
	if !errors.Is(err, client.ErrTransport) || !errors.Is(err, boom) {
		t.Fatalf("expected transport error wrapping %v, got %v", boom, err)
	}
}

func TestClient_WithClientNotMutated(t *testing.T) {
	hc := &http.Client{Timeout: time.Minute}

	if _, err := client.Build(client.WithClient(hc), client.WithTimeout(time.Second), client.WithNoFollowRedirects()); err != nil {
		t.Fatalf("creating client: %v", err)
	}

	if hc.Timeout != time.Minute || hc.CheckRedirect != nil {
		t.Error("Build modified the provided *http.Client")
	}
}

func TestBuild_InvalidOptions(t *testing.T) {
	testCases := map[string]client.Option{
		"nilClient":       client.WithClient(nil),
		"nilTransport":    client.WithTransport(nil),
		"negativeTimeout": client.WithTimeout(-time.Second),
		"nilLogger":       client.WithLogger(nil),
		"nilTracer":       client.WithTracer(nil),
		"badScheme":       client.WithBaseURL("ftp://localbitcoins.net/"),
		"noHost":          client.WithBaseURL("https:///api"),
		"emptyAccessKey":  client.WithCredentials("", "secret"),
		"emptySecretKey":  client.WithCredentials("key", ""),
		"unparseableBase": client.WithBaseURL("://nope"),
	}

	for name, opt := range testCases {
		t.Run(name, func(t *testing.T) {
			if _, err := client.Build(opt); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestClient_Download(t *testing.T) {
	content := []byte("scanned receipt bytes")
	sum := sha256.Sum256(content)

	test := newTest(t, func(t *testing.T, w http.ResponseWriter, r *http.Request, body []byte) {
		verifySignature(t, r, nil)
		w.Header().Set("Content-Length", strconv.Itoa(len(content)))
		_, _ = w.Write(content)
	})

	dest := filepath.Join(t.TempDir(), "receipt.jpg")
	err := test.Download(t.Context(), "/api/contact_message_attachment/1/2/", nil, dest,
		client.WithChecksum(sha256.New(), hex.EncodeToString(sum[:])),
	)
	if err != nil {
		t.Fatalf("downloading: %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("reading file: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("got %q, want %q", got, content)
	}
}

func TestClient_Download_ChecksumMismatch(t *testing.T) {
	test := newTest(t, func(t *testing.T, w http.ResponseWriter, r *http.Request, body []byte) {
		_, _ = w.Write([]byte("tampered"))
	})

	dest := filepath.Join(t.TempDir(), "receipt.jpg")
	err := test.Download(t.Context(), "/api/contact_message_attachment/1/2/", nil, dest,
		client.WithChecksum(sha256.New(), "00"),
	)
	if !errors.Is(err, client.ErrChecksumMismatch) {
		t.Fatalf("expected ErrChecksumMismatch, got %v", err)
	}
	if _, err := os.Stat(dest); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("destination should not exist, stat err: %v", err)
	}
}

func TestClient_Download_APIError(t *testing.T) {
	test := newTest(t, func(t *testing.T, w http.ResponseWriter, r *http.Request, body []byte) {
		writeJSON(t, w, http.StatusNotFound, map[string]any{
			"error": map[string]any{"message": "Attachment not found", "error_code": 404},
		})
	})

	dest := filepath.Join(t.TempDir(), "receipt.jpg")
	err := test.Download(t.Context(), "/api/contact_message_attachment/1/2/", nil, dest)

	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != 404 {
		t.Fatalf("expected api error 404, got %v", err)
	}
}

func TestClient_DownloadAsync_Batch(t *testing.T) {
	const numFiles = 5

	var (
		mu     sync.Mutex
		nonces = make(map[string]struct{})
	)
	test := newTest(t, func(t *testing.T, w http.ResponseWriter, r *http.Request, body []byte) {
		verifySignature(t, r, nil)

		mu.Lock()
		nonces[r.Header.Get(client.HeaderNonce)] = struct{}{}
		mu.Unlock()

		_, _ = w.Write([]byte(r.URL.Path))
	})

	dir := t.TempDir()
	command := func(i int) string { return fmt.Sprintf("/api/contact_message_attachment/1/%d/", i) }

	r, err := test.DownloadAsync(t.Context(), command(0), nil, filepath.Join(dir, "0.bin"), client.WithBatch(2))
	if err != nil {
		t.Fatalf("starting batch: %v", err)
	}

	for i := 1; i < numFiles; i++ {
		if _, err := test.DownloadAsync(t.Context(), command(i), nil, filepath.Join(dir, fmt.Sprintf("%d.bin", i)), client.WithQueue(r.Queue())); err != nil {
			t.Fatalf("adding download %d: %v", i, err)
		}
	}

	if err := r.Wait(); err != nil {
		t.Fatalf("waiting for batch: %v", err)
	}

	for i := range numFiles {
		got, err := os.ReadFile(filepath.Join(dir, fmt.Sprintf("%d.bin", i)))
		if err != nil {
			t.Fatalf("reading file %d: %v", i, err)
		}
		if string(got) != command(i) {
			t.Errorf("file %d = %q, want %q", i, got, command(i))
		}
	}

	if len(nonces) != numFiles {
		t.Errorf("got %d distinct nonces, want %d", len(nonces), numFiles)
	}
}

func TestClient_DownloadAsync_Preconditions(t *testing.T) {
	test := newTest(t, func(t *testing.T, w http.ResponseWriter, r *http.Request, body []byte) {
		t.Error("no request expected")
	})

	if _, err := test.DownloadAsync(t.Context(), "/api/x/", nil, ""); !errors.Is(err, client.ErrPrecondition) {
		t.Errorf("empty dest: expected ErrPrecondition, got %v", err)
	}

	q := client.WithQueue(nil)
	if _, err := test.DownloadAsync(t.Context(), "/api/x/", nil, filepath.Join(t.TempDir(), "a"), q); !errors.Is(err, client.ErrPrecondition) {
		t.Errorf("nil queue: expected ErrPrecondition, got %v", err)
	}
}
