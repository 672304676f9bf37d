package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	DefaultTokenPath  = "~/.remo/token.yml"
	DefaultRemoURL    = "https://api.nature.global"
	DefaultWeatherURL = "https://api.weatherapi.com"
	DefaultCity       = "Himeji"
	DefaultAQI        = "no"
)

// Mode selects which sources a run collects from.
type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeSingle Mode = "single"
	ModeDual   Mode = "dual"
)

var (
	ErrInvalid = errors.New("invalid configuration")

	// ErrUsage marks command line errors the flag set has already reported.
	ErrUsage = errors.New("usage error")
)

var validate = validator.New()

// Config is built once at startup and never modified afterwards.
type Config struct {
	DBPath    string `validate:"required"`
	TokenPath string
	Mode      Mode `validate:"oneof=auto single dual"`
	LogLevel  log.Level

	// HTTPTimeout of zero leaves the client without a timeout.
	HTTPTimeout time.Duration `validate:"gte=0"`

	RemoURL     string `validate:"required,url"`
	WeatherURL  string `validate:"required,url"`
	WeatherCity string `validate:"required"`
	WeatherAQI  string
}

// Default returns a configuration pointing at the production APIs. DBPath is
// left empty and must be supplied.
func Default() Config {
	return Config{
		TokenPath:   DefaultTokenPath,
		Mode:        ModeAuto,
		LogLevel:    log.InfoLevel,
		RemoURL:     DefaultRemoURL,
		WeatherURL:  DefaultWeatherURL,
		WeatherCity: DefaultCity,
		WeatherAQI:  DefaultAQI,
	}
}

// Load builds the configuration from an optional .env file, the environment
// and the command line, in increasing order of precedence.
func Load(args []string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg, err := fromEnv(Default())
	if err != nil {
		return Config{}, err
	}

	cfg, err = fromFlags(cfg, args)
	if err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (value %q)", fe.Field(), fe.Tag(), fmt.Sprint(fe.Value())))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

func fromEnv(cfg Config) (Config, error) {
	if v := strings.TrimSpace(os.Getenv("REMOQUERIER_DB_PATH")); v != "" {
		cfg.DBPath = v
	}
	if v := strings.TrimSpace(os.Getenv("REMOQUERIER_TOKEN_PATH")); v != "" {
		cfg.TokenPath = v
	}
	if v := strings.TrimSpace(os.Getenv("REMOQUERIER_MODE")); v != "" {
		cfg.Mode = Mode(strings.ToLower(v))
	}

	if v := strings.TrimSpace(os.Getenv("REMOQUERIER_HTTP_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: REMOQUERIER_HTTP_TIMEOUT %q: %v", ErrInvalid, v, err)
		}
		cfg.HTTPTimeout = d
	}

	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		level, err := log.ParseLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: LOG_LEVEL %q: %v", ErrInvalid, v, err)
		}
		cfg.LogLevel = level
	}

	return cfg, nil
}

func fromFlags(cfg Config, args []string) (Config, error) {
	flags := flag.NewFlagSet("remoquerier", flag.ContinueOnError)

	flags.StringVar(&cfg.DBPath, "d", cfg.DBPath, "sqlite database file path")
	flags.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "sqlite database file path")
	flags.StringVar(&cfg.TokenPath, "t", cfg.TokenPath, "api token file (YAML)")
	flags.StringVar(&cfg.TokenPath, "token-path", cfg.TokenPath, "api token file (YAML)")

	mode := string(cfg.Mode)
	flags.StringVar(&mode, "mode", mode, "collection mode: auto, single or dual")

	var debug bool
	flags.BoolVar(&debug, "debug", false, "Enable debug logging")

	if err := flags.Parse(args); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrUsage, err)
	}
	if flags.NArg() > 0 {
		return Config{}, fmt.Errorf("%w: unexpected arguments %v", ErrInvalid, flags.Args())
	}

	cfg.Mode = Mode(strings.ToLower(strings.TrimSpace(mode)))
	if debug {
		cfg.LogLevel = log.DebugLevel
	}
	return cfg, nil
}
