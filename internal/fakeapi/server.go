package fakeapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Server runs a handler on a listener with graceful shutdown.
type Server struct {
	srv             *http.Server
	shutdownTimeout time.Duration
	logger          *slog.Logger
	tlsCertFile     string
	tlsKeyFile      string
	ready           chan net.Addr
}

// ServerOption configures a Server.
type ServerOption func(*serverOptions)

type serverOptions struct {
	host            string
	readTimeout     time.Duration
	writeTimeout    time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger
	tlsCertFile     string
	tlsKeyFile      string
}

// WithHost sets the address the server listens on. Default is ":8080".
func WithHost(host string) ServerOption {
	return func(opts *serverOptions) {
		opts.host = host
	}
}

// WithReadTimeout sets the maximum duration for reading the entire
// request, including the body. Default is 5s.
func WithReadTimeout(d time.Duration) ServerOption {
	return func(opts *serverOptions) {
		opts.readTimeout = d
	}
}

// WithWriteTimeout sets the maximum duration before timing out
// writes of the response. Default is 10s.
func WithWriteTimeout(d time.Duration) ServerOption {
	return func(opts *serverOptions) {
		opts.writeTimeout = d
	}
}

// WithShutdownTimeout bounds how long [Server.Run] waits for in-flight
// requests once its context is done. Default is 20s.
func WithShutdownTimeout(d time.Duration) ServerOption {
	return func(opts *serverOptions) {
		opts.shutdownTimeout = d
	}
}

// WithServerLogger sets the logger used for lifecycle events.
func WithServerLogger(log *slog.Logger) ServerOption {
	return func(opts *serverOptions) {
		opts.logger = log
	}
}

// WithTLS serves HTTPS with the given certificate and key files.
func WithTLS(certFile, keyFile string) ServerOption {
	return func(opts *serverOptions) {
		opts.tlsCertFile = certFile
		opts.tlsKeyFile = keyFile
	}
}

// NewServer creates a Server for handler.
func NewServer(handler http.Handler, opts ...ServerOption) *Server {
	var o serverOptions
	for _, opt := range opts {
		opt(&o)
	}

	srv := http.Server{
		Addr:         ":8080",
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	if o.host != "" {
		srv.Addr = o.host
	}
	if o.readTimeout != 0 {
		srv.ReadTimeout = o.readTimeout
	}
	if o.writeTimeout != 0 {
		srv.WriteTimeout = o.writeTimeout
	}

	s := Server{
		srv:             &srv,
		shutdownTimeout: 20 * time.Second,
		logger:          slog.Default(),
		tlsCertFile:     o.tlsCertFile,
		tlsKeyFile:      o.tlsKeyFile,
		ready:           make(chan net.Addr, 1),
	}
	if o.shutdownTimeout != 0 {
		s.shutdownTimeout = o.shutdownTimeout
	}
	if o.logger != nil {
		s.logger = o.logger
	}

	return &s
}

// Ready delivers the bound address once Run is listening.
func (s *Server) Ready() <-chan net.Addr {
	return s.ready
}

// Run listens and serves until ctx is done, then shuts down gracefully.
// It returns nil on clean shutdown.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	serverErrs := make(chan error, 1)
	go func() {
		s.logger.Info("server started", "addr", ln.Addr().String(), "tls", s.tlsCertFile != "")
		s.ready <- ln.Addr()

		if s.tlsCertFile != "" {
			serverErrs <- s.srv.ServeTLS(ln, s.tlsCertFile, s.tlsKeyFile)
		} else {
			serverErrs <- s.srv.Serve(ln)
		}
	}()

	select {
	case err := <-serverErrs:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

		return nil

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		if err := s.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}

		s.logger.Info("shutdown complete")

		return nil
	}
}

// Shutdown drains in-flight requests. Callers should set a deadline on
// ctx to bound how long shutdown may take.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); err != nil {
		s.srv.Close()
		return fmt.Errorf("server didn't stop gracefully: %w", err)
	}

	return nil
}
