package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/scott-cotton/cli"

	"github.com/adamwoolhether/localbitcoins"
	"github.com/adamwoolhether/localbitcoins/client"
	"github.com/adamwoolhether/localbitcoins/internal/settings"
)

type MainConfig struct {
	Settings  string `cli:"name=settings aliases=s desc='settings file, yaml or json'"`
	Verbose   bool   `cli:"name=v aliases=verbose desc='log requests to stderr'"`
	UserAgent string `cli:"name=ua desc='User-Agent header sent with every request'"`

	ctx context.Context

	Main *cli.Command
}

// client builds the API client from the settings file and environment.
// private requires credentials.
func (cfg *MainConfig) client(private bool) (*localbitcoins.Client, error) {
	s, err := settings.Load(cfg.Settings)
	if err != nil {
		return nil, err
	}

	opts, err := s.ClientOptions(private)
	if err != nil {
		return nil, fmt.Errorf("%w (set %s and %s or fill %s)", err, settings.EnvAccessKey, settings.EnvSecretKey, cfg.Settings)
	}

	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	logger.Debug("settings loaded", "settings", s)

	opts = append(opts, client.WithLogger(logger))
	if cfg.UserAgent != "" {
		opts = append(opts, client.WithUserAgent(cfg.UserAgent))
	}

	return localbitcoins.NewClient(opts...)
}

func (cfg *MainConfig) context() context.Context {
	if cfg.ctx == nil {
		return context.Background()
	}
	return cfg.ctx
}

type AccountConfig struct {
	*MainConfig

	Account *cli.Command
}

type DashboardConfig struct {
	*MainConfig
	State string `cli:"name=state desc='released, canceled or closed (default open)'"`

	Dashboard *cli.Command
}

type AttachmentConfig struct {
	*MainConfig
	Out string `cli:"name=o desc='write to file instead of stdout'"`

	Attachment *cli.Command
}

type MarketConfig struct {
	*MainConfig
	Page int `cli:"name=page desc='page number, 1 based'"`

	Market *cli.Command
}

type SimpleConfig struct {
	*MainConfig

	Cmd *cli.Command
}
