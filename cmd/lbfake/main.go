package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/gops/agent"
	"github.com/scott-cotton/cli"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"

	"github.com/adamwoolhether/localbitcoins/internal/fakeapi"
	"github.com/adamwoolhether/localbitcoins/internal/settings"
)

type MainConfig struct {
	Addr     string `cli:"name=addr desc='listen address'"`
	Settings string `cli:"name=settings aliases=s desc='settings file holding the accepted key pair'"`
	Username string `cli:"name=user desc='username owning the key pair'"`
	Balance  string `cli:"name=balance desc='starting wallet balance in BTC'"`
	Pincode  string `cli:"name=pin desc='PIN accepted by PIN protected endpoints'"`
	TLSCert  string `cli:"name=tls-cert desc='certificate file, enables HTTPS'"`
	TLSKey   string `cli:"name=tls-key desc='key file for -tls-cert'"`
	Verbose  bool   `cli:"name=v desc='log every request'"`
	Gops     bool   `cli:"name=gops desc='start a gops diagnostics agent'"`

	Main *cli.Command
}

func main() {
	cli.MainContext(context.Background(), MainCommand())
}

func MainCommand() *cli.Command {
	cfg := &MainConfig{
		Addr:     "127.0.0.1:8080",
		Settings: "lbcli.yaml",
		Username: "alice",
		Balance:  "1.5",
		Pincode:  "1234",
	}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}

	return cli.NewCommandAt(&cfg.Main, "lbfake").
		WithSynopsis("lbfake [opts]").
		WithDescription("lbfake serves an in-memory LocalBitcoins API that accepts the key pair from the settings file or environment.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return run(cfg, cc, args)
		})
}

func run(cfg *MainConfig, cc *cli.Context, args []string) error {
	if _, err := cfg.Main.Parse(cc, args); err != nil {
		return err
	}
	if (cfg.TLSCert == "") != (cfg.TLSKey == "") {
		return fmt.Errorf("%w: -tls-cert and -tls-key go together", cli.ErrUsage)
	}

	balance, err := decimal.NewFromString(cfg.Balance)
	if err != nil {
		return fmt.Errorf("%w: balance: %v", cli.ErrUsage, err)
	}

	s, err := settings.Load(cfg.Settings)
	if err != nil {
		return err
	}
	if !s.HasCredentials() {
		return fmt.Errorf("no key pair: set %s and %s or fill %s", settings.EnvAccessKey, settings.EnvSecretKey, cfg.Settings)
	}

	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	svc, err := fakeapi.New(
		fakeapi.WithAccount(fakeapi.Account{Username: cfg.Username, AccessKey: s.AccessKey, SecretKey: s.SecretKey}),
		fakeapi.WithBalance(balance),
		fakeapi.WithPincode(cfg.Pincode),
		fakeapi.WithLogger(logger),
		fakeapi.WithTracer(otel.Tracer("lbfake")),
	)
	if err != nil {
		return err
	}

	scheme := "http"
	srvOpts := []fakeapi.ServerOption{
		fakeapi.WithHost(cfg.Addr),
		fakeapi.WithServerLogger(logger),
	}
	if cfg.TLSCert != "" {
		scheme = "https"
		srvOpts = append(srvOpts, fakeapi.WithTLS(cfg.TLSCert, cfg.TLSKey))
	}

	if cfg.Gops {
		if err := agent.Listen(agent.Options{}); err != nil {
			fmt.Fprintf(cc.Out, "gops agent failed: %v\n", err)
		} else {
			defer agent.Close()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := fakeapi.NewServer(svc, srvOpts...)
	go func() {
		addr := <-srv.Ready()
		fmt.Fprintf(cc.Out, "serving the LocalBitcoins API for %s on %s://%s/\n", cfg.Username, scheme, addr)
	}()

	return srv.Run(ctx)
}
