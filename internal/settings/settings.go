// Package settings loads the key pair and connection settings used by
// the command line tool.
package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/adamwoolhether/localbitcoins/client"
)

// Environment variables that take precedence over the settings file.
const (
	EnvAccessKey = "LOCALBITCOINS_ACCESS_KEY"
	EnvSecretKey = "LOCALBITCOINS_SECRET_KEY"
	EnvBaseURL   = "LOCALBITCOINS_BASE_URL"
	EnvTimeout   = "LOCALBITCOINS_TIMEOUT"
)

// Placeholder is the access key shipped in the sample settings file.
const Placeholder = "INSERT-KEY-HERE"

var (
	// ErrNoCredentials means no usable key pair was configured.
	ErrNoCredentials = errors.New("no api credentials configured")

	// ErrPlaceholder means the sample settings file was never filled in.
	ErrPlaceholder = errors.New("settings still contain the " + Placeholder + " placeholder")
)

// Settings is the on-disk configuration. JSON files are accepted too.
type Settings struct {
	AccessKey string `yaml:"api_key"`
	SecretKey string `yaml:"api_secret"`
	BaseURL   string `yaml:"base_url,omitempty"`
	Timeout   string `yaml:"timeout,omitempty"`
}

// Load reads path and applies environment overrides. When a sibling
// "<name>.override<ext>" exists it is read instead of path. An empty
// path, or one that does not exist, yields settings from the
// environment alone.
func Load(path string) (Settings, error) {
	var s Settings

	if path != "" {
		path = overridePath(path)

		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Settings{}, fmt.Errorf("reading settings: %w", err)
		default:
			if err := yaml.Unmarshal(b, &s); err != nil {
				return Settings{}, fmt.Errorf("parsing settings %s: %w", path, err)
			}
		}
	}

	s.applyEnv()

	return s, nil
}

// overridePath returns the override file for path if one exists.
func overridePath(path string) string {
	ext := filepath.Ext(path)
	override := strings.TrimSuffix(path, ext) + ".override" + ext
	if _, err := os.Stat(override); err == nil {
		return override
	}

	return path
}

func (s *Settings) applyEnv() {
	for env, field := range map[string]*string{
		EnvAccessKey: &s.AccessKey,
		EnvSecretKey: &s.SecretKey,
		EnvBaseURL:   &s.BaseURL,
		EnvTimeout:   &s.Timeout,
	} {
		if v, ok := os.LookupEnv(env); ok && v != "" {
			*field = v
		}
	}
}

// HasCredentials reports whether a key pair is configured, ignoring
// the sample placeholder.
func (s Settings) HasCredentials() bool {
	return s.AccessKey != "" && s.SecretKey != "" && s.AccessKey != Placeholder
}

// ClientOptions converts the settings to client options. With
// private set a usable key pair is required.
func (s Settings) ClientOptions(private bool) ([]client.Option, error) {
	var opts []client.Option

	if s.BaseURL != "" {
		opts = append(opts, client.WithBaseURL(s.BaseURL))
	}

	if s.Timeout != "" {
		d, err := time.ParseDuration(s.Timeout)
		if err != nil {
			return nil, fmt.Errorf("parsing timeout: %w", err)
		}
		opts = append(opts, client.WithTimeout(d))
	}

	switch {
	case s.AccessKey == Placeholder:
		if private {
			return nil, ErrPlaceholder
		}
	case s.HasCredentials():
		opts = append(opts, client.WithCredentials(s.AccessKey, s.SecretKey))
	case private:
		return nil, ErrNoCredentials
	}

	return opts, nil
}

// LogValue keeps the key pair out of logs.
func (s Settings) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("credentials", s.HasCredentials()),
		slog.String("base_url", s.BaseURL),
		slog.String("timeout", s.Timeout),
	)
}
