package reader

import (
	"context"
	"fmt"
	"remoquerier/internal/model"

	"github.com/charmbracelet/log"
)

type RoomSource interface {
	RoomTemperature(ctx context.Context) (model.Reading, error)
}

type WeatherSource interface {
	Current(ctx context.Context) (model.Reading, error)
}

type Reader struct {
	room    RoomSource
	weather WeatherSource
}

// New returns a Reader. A nil weather source limits it to the room sensor.
func New(room RoomSource, weather WeatherSource) Reader {
	return Reader{
		room:    room,
		weather: weather,
	}
}

// Read queries the room sensor, then the weather source. The first error
// aborts the read.
func (r Reader) Read(ctx context.Context) (model.Sample, error) {
	room, err := r.room.RoomTemperature(ctx)
	if err != nil {
		return model.Sample{}, fmt.Errorf("room temperature: %w", err)
	}
	log.Info("Room temperature", "temp", room.Temperature, "measured", room.MeasuredAt)

	sample := model.Sample{Room: room}
	if r.weather == nil {
		return sample, nil
	}

	weather, err := r.weather.Current(ctx)
	if err != nil {
		return model.Sample{}, fmt.Errorf("weather: %w", err)
	}
	log.Info("Weather temperature", "temp", weather.Temperature, "measured", weather.MeasuredAt)
	sample.Weather = &weather

	return sample, nil
}
