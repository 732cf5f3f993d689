package weather

import "errors"

var (
	// ErrCityNotFound is returned when the lookup matches no location.
	ErrCityNotFound = errors.New("weather: city not found")

	// ErrUpstream is returned for a non-success QWeather status code.
	ErrUpstream = errors.New("weather: upstream error")
)
