// Package config provides functionality for managing configuration options
// for the proxy server using command-line flags, environment variables and
// an optional JSON or YAML config file.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/atinyakov/WardrobeKeeper/internal/models"
)

const (
	defaultAddr     = ":3001"
	defaultConfig   = "config.json"
	defaultLogLevel = "info"
	defaultMaxBody  = 10 << 20
)

// Options holds the configuration values for the proxy server.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"address" yaml:"address"`

	// Config is the path to the config file.
	Config string `json:"-" yaml:"-"`

	// APIKey is the Gemini credential. It is read from the environment or
	// the config file only, never from a flag.
	APIKey string `json:"geminiApiKey" yaml:"geminiApiKey"`

	// Model is used when a generate request does not name one.
	Model string `json:"model" yaml:"model"`

	// GeminiURL overrides the Gemini API root, mostly for testing.
	GeminiURL string `json:"geminiUrl" yaml:"geminiUrl"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"logLevel" yaml:"logLevel"`

	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64 `json:"maxBodyBytes" yaml:"maxBodyBytes"`

	// Origins lists the CORS origins allowed to call the proxy.
	Origins []string `json:"origins" yaml:"origins"`

	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string `json:"tlsCert" yaml:"tlsCert"`
	TLSKey  string `json:"tlsKey" yaml:"tlsKey"`
}

// TLSEnabled reports whether both halves of the TLS key pair are configured.
func (o *Options) TLSEnabled() bool {
	return o.TLSCert != "" && o.TLSKey != ""
}

func defaults() *Options {
	return &Options{
		Port:         defaultAddr,
		Config:       defaultConfig,
		Model:        models.DefaultModel,
		LogLevel:     defaultLogLevel,
		MaxBodyBytes: defaultMaxBody,
		Origins:      []string{"*"},
	}
}

// Parse reads os.Args and the process environment.
func Parse() (*Options, error) {
	return ParseArgs(os.Args[1:], os.Getenv)
}

// ParseArgs builds Options from args and getenv. Precedence, lowest first:
// defaults, config file, flags that were set explicitly, environment.
// A missing file at the default path is ignored; a missing file that was
// asked for is an error.
func ParseArgs(args []string, getenv func(string) string) (*Options, error) {
	options := defaults()
	flags := *options
	var origins string

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&flags.Port, "a", options.Port, "run on ip:port server")
	fs.StringVar(&flags.Config, "config", options.Config, "path to config file")
	fs.StringVar(&flags.Config, "c", options.Config, "path to config file (shorthand)")
	fs.StringVar(&flags.Model, "model", options.Model, "default Gemini model")
	fs.StringVar(&flags.GeminiURL, "gemini-url", "", "Gemini API base URL")
	fs.StringVar(&flags.LogLevel, "log-level", options.LogLevel, "log level")
	fs.Int64Var(&flags.MaxBodyBytes, "max-body", options.MaxBodyBytes, "maximum request body in bytes")
	fs.StringVar(&origins, "origins", "*", "comma-separated CORS origins")
	fs.StringVar(&flags.TLSCert, "tls-cert", "", "TLS certificate file")
	fs.StringVar(&flags.TLSKey, "tls-key", "", "TLS key file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	// Override flags with environment variables if set
	path, explicit := flags.Config, set["config"] || set["c"]
	if configPath := getenv("CONFIG"); configPath != "" {
		path, explicit = configPath, true
	}
	options.Config = path
	if err := loadFile(path, explicit, options); err != nil {
		return nil, err
	}

	if set["a"] {
		options.Port = flags.Port
	}
	if set["model"] {
		options.Model = flags.Model
	}
	if set["gemini-url"] {
		options.GeminiURL = flags.GeminiURL
	}
	if set["log-level"] {
		options.LogLevel = flags.LogLevel
	}
	if set["max-body"] {
		options.MaxBodyBytes = flags.MaxBodyBytes
	}
	if set["origins"] {
		options.Origins = splitList(origins)
	}
	if set["tls-cert"] {
		options.TLSCert = flags.TLSCert
	}
	if set["tls-key"] {
		options.TLSKey = flags.TLSKey
	}

	if port := getenv("PORT"); port != "" {
		options.Port = ":" + port
	}
	if serverAddress := getenv("SERVER_ADDRESS"); serverAddress != "" {
		options.Port = serverAddress
	}
	if key := getenv("GEMINI_API_KEY"); key != "" {
		options.APIKey = key
	}
	if model := getenv("GEMINI_MODEL"); model != "" {
		options.Model = model
	}
	if level := getenv("LOG_LEVEL"); level != "" {
		options.LogLevel = level
	}

	if options.MaxBodyBytes <= 0 {
		return nil, fmt.Errorf("max body must be positive, got %d", options.MaxBodyBytes)
	}
	if len(options.Origins) == 0 {
		options.Origins = []string{"*"}
	}
	return options, nil
}

func loadFile(path string, explicit bool, into *Options) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("error while reading config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, into)
	default:
		err = json.Unmarshal(data, into)
	}
	if err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
