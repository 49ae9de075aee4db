// Package config reads the service configuration from command-line flags,
// the environment and an optional .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/erazemk/onboard/internal/model"
	"github.com/erazemk/onboard/internal/notify"
	"github.com/erazemk/onboard/internal/suggest"
)

// Config is the complete service configuration.
type Config struct {
	Addr       string
	DBPath     string
	LogPath    string
	EnvFile    string
	SessionTTL time.Duration
	CountMode  model.CountMode

	OnFailure      suggest.Policy
	SuggestTimeout time.Duration
	OpenAIKey      string
	OpenAIURL      string
	OpenAIModel    string

	SendGridKey string
	MailFrom    string

	NATSURL     string
	NATSSubject string
}

const usage = `Usage: onboard [flags]

Flags:
  -a, -addr <host:port>        listen address (default: :8080)
  -d, -db <path>               SQLite session database (default: :memory:)
  -l, -log <path>              log file path (default: no file, stdout/stderr only)
  -e, -env <path>              .env file to load, ignored if missing (default: .env)
  -on-failure <policy>         remote suggestion failure policy: fallback or surface_error
                               (default: $SUGGEST_ON_FAILURE or fallback)
  -suggest-timeout <duration>  remote suggestion timeout (default: 30s)
  -count <mode>                summary machine count: units or records (default: units)
  -session-ttl <duration>      idle session lifetime (default: 24h)
  -h, -help                    show this help and exit

Environment:
  OPENAI_API_KEY               enables remote suggestions
  OPENAI_API_URL, OPENAI_MODEL chat completion API base URL and model
  SENDGRID_API_KEY, MAIL_FROM  enables teammate invite emails
  NATS_URL, NATS_SUBJECT       enables submission events
`

// Usage prints the command-line help to stdout.
func Usage() {
	fmt.Fprint(os.Stdout, usage)
}

// Load parses args (without the program name). Environment values come from
// getenv first and from the .env file second. flag.ErrHelp is returned
// unwrapped when help was requested.
func Load(args []string, getenv func(string) string) (*Config, error) {
	fset := flag.NewFlagSet("onboard", flag.ContinueOnError)
	fset.Usage = Usage

	cfg := &Config{}

	fset.StringVar(&cfg.Addr, "addr", ":8080", "")
	fset.StringVar(&cfg.Addr, "a", ":8080", "")

	fset.StringVar(&cfg.DBPath, "db", ":memory:", "")
	fset.StringVar(&cfg.DBPath, "d", ":memory:", "")

	fset.StringVar(&cfg.LogPath, "log", "", "")
	fset.StringVar(&cfg.LogPath, "l", "", "")

	fset.StringVar(&cfg.EnvFile, "env", ".env", "")
	fset.StringVar(&cfg.EnvFile, "e", ".env", "")

	var onFailure, countMode string
	fset.StringVar(&onFailure, "on-failure", "", "")
	fset.StringVar(&countMode, "count", string(model.CountUnits), "")
	fset.DurationVar(&cfg.SuggestTimeout, "suggest-timeout", suggest.DefaultTimeout, "")
	fset.DurationVar(&cfg.SessionTTL, "session-ttl", 24*time.Hour, "")

	if err := fset.Parse(args); err != nil {
		return nil, err
	}
	if fset.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", fset.Arg(0))
	}

	env, err := envLookup(cfg.EnvFile, getenv)
	if err != nil {
		return nil, err
	}

	if onFailure == "" {
		onFailure = env("SUGGEST_ON_FAILURE", string(suggest.PolicyFallback))
	}
	if cfg.OnFailure, err = suggest.ParsePolicy(onFailure); err != nil {
		return nil, err
	}
	if cfg.CountMode, err = model.ParseCountMode(countMode); err != nil {
		return nil, err
	}
	if cfg.SuggestTimeout <= 0 {
		return nil, fmt.Errorf("suggest timeout must be positive, got %s", cfg.SuggestTimeout)
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("session ttl must be positive, got %s", cfg.SessionTTL)
	}

	cfg.OpenAIKey = env("OPENAI_API_KEY", "")
	cfg.OpenAIURL = env("OPENAI_API_URL", suggest.DefaultURL)
	cfg.OpenAIModel = env("OPENAI_MODEL", suggest.DefaultModel)
	cfg.SendGridKey = env("SENDGRID_API_KEY", "")
	cfg.MailFrom = env("MAIL_FROM", "")
	cfg.NATSURL = env("NATS_URL", "")
	cfg.NATSSubject = env("NATS_SUBJECT", notify.DefaultSubject)

	return cfg, nil
}

// envLookup returns a getter that prefers getenv over the values in the
// .env file at path. A missing file is not an error.
func envLookup(path string, getenv func(string) string) (func(key, def string) string, error) {
	file := map[string]string{}
	if path != "" {
		values, err := godotenv.Read(path)
		switch {
		case err == nil:
			file = values
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	return func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		if v := file[key]; v != "" {
			return v
		}
		return def
	}, nil
}
