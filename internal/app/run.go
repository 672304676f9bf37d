package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"remoquerier/internal/config"
	"remoquerier/internal/reader"
	"remoquerier/internal/remo"
	"remoquerier/internal/token"
	"remoquerier/internal/weatherapi"
	"remoquerier/internal/writer"

	"github.com/charmbracelet/log"
)

var ErrNoWeatherKey = errors.New("dual mode needs a weatherapi key in the token file")

// Run performs one collection: credentials, room reading, optional weather
// reading, then a single insert. Nothing is written unless every fetch
// succeeded.
func Run(ctx context.Context, cfg config.Config) error {
	log.Debug("Config loaded",
		"dbPath", cfg.DBPath,
		"tokenPath", cfg.TokenPath,
		"mode", cfg.Mode,
		"httpTimeout", cfg.HTTPTimeout,
	)

	creds, err := token.Load(cfg.TokenPath)
	if err != nil {
		return fmt.Errorf("credentials: %w", err)
	}

	withWeather, err := resolveMode(cfg.Mode, creds)
	if err != nil {
		return err
	}
	log.Debug("Mode resolved", "mode", cfg.Mode, "weather", withWeather)

	client := &http.Client{Timeout: cfg.HTTPTimeout}

	var weather reader.WeatherSource
	if withWeather {
		weather = weatherapi.New(client, cfg.WeatherURL, creds.WeatherAPI, cfg.WeatherCity, cfg.WeatherAQI)
	}
	r := reader.New(remo.New(client, cfg.RemoURL, creds.Remo), weather)

	log.Info("Starting data read")
	sample, err := r.Read(ctx)
	if err != nil {
		return err
	}

	w, err := writer.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := w.Close(); closeErr != nil {
			log.Error("db close", "err", closeErr)
		}
	}()

	log.Info("Starting data write", "db", cfg.DBPath)
	if err := w.Write(ctx, sample); err != nil {
		return err
	}

	log.Info("Sample stored")
	return nil
}

func resolveMode(mode config.Mode, creds token.Credentials) (bool, error) {
	switch mode {
	case config.ModeSingle:
		return false, nil
	case config.ModeDual:
		if !creds.HasWeather() {
			return false, ErrNoWeatherKey
		}
		return true, nil
	case config.ModeAuto, "":
		return creds.HasWeather(), nil
	default:
		return false, fmt.Errorf("%w: unknown mode %q", config.ErrInvalid, mode)
	}
}
