package model

// Reading is one temperature observation as reported by its source API.
// MeasuredAt keeps the API's own formatting.
type Reading struct {
	Temperature float64
	MeasuredAt  string
}

// Sample is everything collected in a single run. Weather is nil when only
// the room sensor was queried.
type Sample struct {
	Room    Reading
	Weather *Reading
}

func (s Sample) HasWeather() bool {
	return s.Weather != nil
}
