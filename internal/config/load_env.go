package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/subosito/gotenv"

	"github.com/anatolykoptev/tweetstat"
)

// Environment variables read by FromEnv.
const (
	EnvConsumerKey    = "TWITTER_CONSUMER_KEY"
	EnvConsumerSecret = "TWITTER_CONSUMER_SECRET"
	EnvAccessToken    = "TWITTER_ACCESS_TOKEN"
	EnvAccessSecret   = "TWITTER_ACCESS_SECRET"
	EnvScreenName     = "TWITTER_SCREEN_NAME"
	EnvProxy          = "TWITTER_PROXY"
	EnvAPIBase        = "TWITTER_API_BASE"
	EnvStreamURL      = "TWITTER_STREAM_URL"
)

// LoadEnv loads variables from an env file without overriding ones already set.
// A missing file is not an error.
func LoadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := gotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("no env file found, using OS environment", slog.String("path", path))
			return nil
		}
		return err
	}
	slog.Debug("env file loaded", slog.String("path", path))
	return nil
}

// FromEnv builds a client config from TWITTER_* variables.
func FromEnv() tweetstat.ClientConfig {
	return tweetstat.ClientConfig{
		Credentials: tweetstat.Credentials{
			ConsumerKey:    getenv(EnvConsumerKey),
			ConsumerSecret: getenv(EnvConsumerSecret),
			AccessToken:    getenv(EnvAccessToken),
			AccessSecret:   getenv(EnvAccessSecret),
		},
		Subject:   getenv(EnvScreenName),
		Proxy:     getenv(EnvProxy),
		APIBase:   getenv(EnvAPIBase),
		StreamURL: getenv(EnvStreamURL),
	}
}

func getenv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
