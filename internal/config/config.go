// Package config holds the viper-backed settings shared by the CLI, the
// transport, the resolver and the site adapters.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// App is used for the config file name, the env prefix and the config dir.
const App = "animius"

const (
	BrowserHeadless = "browser.headless"
	BrowserProxy    = "browser.proxy"
	BrowserBin      = "browser.bin"

	ResolverTimeout = "resolver.timeout"

	TransportTimeout = "transport.timeout"
	TransportRate    = "transport.rate"
	TransportBurst   = "transport.burst"
	TransportRetries = "transport.retries"

	LogLevel = "log.level"
	LogFile  = "log.file"
	LogJSON  = "log.json"
)

// SourceDomain returns the key overriding the base domain of the named source.
func SourceDomain(name string) string {
	return "sources." + strings.ToLower(name) + ".domain"
}

// Field is a documented configuration key with its default value.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Defaults lists every static key. Source domains are dynamic and default to
// the adapter's built-in domain.
var Defaults = []Field{
	{BrowserHeadless, true, "Run the rendering browser without a window"},
	{BrowserProxy, "", "Proxy URL for the rendering browser"},
	{BrowserBin, "", "Path to a Chromium binary; downloaded on demand when empty"},
	{ResolverTimeout, time.Duration(0), "Deadline for a single stream resolution; 0 keeps each site's own"},
	{TransportTimeout, 30 * time.Second, "HTTP timeout for document fetches"},
	{TransportRate, 4.0, "Document fetches per second per source"},
	{TransportBurst, 2, "Burst size for document fetches"},
	{TransportRetries, 2, "Retries for transient fetch failures"},
	{LogLevel, "warn", "Log level (trace, debug, info, warn, error)"},
	{LogFile, "", "Write logs to this file instead of stderr"},
	{LogJSON, false, "Emit logs as JSON"},
}

// EnvKeyReplacer maps config keys to environment variable names.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Setup resets viper, applies defaults and env bindings, and reads the config
// file. An empty path searches Dir() for animius.{yaml,toml,json}; a missing
// file is not an error.
func Setup(fs afero.Fs, path string) error {
	viper.Reset()
	viper.SetFs(fs)

	viper.SetEnvPrefix(App)
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	viper.AutomaticEnv()

	viper.SetTypeByDefaultValue(true)
	for _, f := range Defaults {
		viper.SetDefault(f.Key, f.Value)
	}

	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName(App)
		if dir := Dir(); dir != "" {
			viper.AddConfigPath(dir)
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		if path == "" && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

// Dir returns the per-user config directory, honoring ANIMIUS_CONFIG_PATH.
func Dir() string {
	if custom, ok := os.LookupEnv("ANIMIUS_CONFIG_PATH"); ok {
		return custom
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, App)
}
