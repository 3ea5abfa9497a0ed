package fakeapi_test

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/adamwoolhether/localbitcoins/internal/fakeapi"
)

func TestServer_RunAndShutdown(t *testing.T) {
	svc, err := fakeapi.New(fakeapi.WithAccount(alice))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	srv := fakeapi.NewServer(svc,
		fakeapi.WithHost("127.0.0.1:0"),
		fakeapi.WithShutdownTimeout(time.Second),
		fakeapi.WithServerLogger(slog.New(slog.DiscardHandler)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	var addr string
	select {
	case a := <-srv.Ready():
		addr = a.String()
	case err := <-done:
		t.Fatalf("run returned early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server never became ready")
	}

	resp, err := http.Get(fmt.Sprintf("http://%s/buy-bitcoins-online/EUR/.json", addr))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("exp status 200, got %d", resp.StatusCode)
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("exp clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServer_ListenError(t *testing.T) {
	srv := fakeapi.NewServer(http.NewServeMux(), fakeapi.WithHost("256.0.0.1:bad"))

	if err := srv.Run(context.Background()); err == nil {
		t.Fatal("expected a listen error")
	}
}
