package service

import (
	"errors"
)

var (
	ErrLocationNotFound    = errors.New("location not found")
	ErrForecastUnavailable = errors.New("forecast unavailable")
)

// Location is a geocoded postal code.
type Location struct {
	Name        string  `json:"name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Timezone    string  `json:"timezone"`
	CountryCode string  `json:"country_code"`
}

// Forecast holds parallel per-day series. A nil entry is a value the upstream
// reported as missing.
type Forecast struct {
	Time                 []string   `json:"time"`
	TemperatureMin       []*float64 `json:"temperature_min"`
	TemperatureMax       []*float64 `json:"temperature_max"`
	RelativeHumidityMean []*float64 `json:"relative_humidity_mean"`
}

// Days is the number of forecast days, driven by the date series.
func (f *Forecast) Days() int {
	if f == nil {
		return 0
	}
	return len(f.Time)
}

// Value returns series[i], or false when the index is out of range or the
// value is missing.
func Value(series []*float64, i int) (float64, bool) {
	if i < 0 || i >= len(series) || series[i] == nil {
		return 0, false
	}
	return *series[i], true
}

// Float is a helper for building forecast series by hand.
func Float(v float64) *float64 {
	return &v
}

// Floats converts plain values to a forecast series.
func Floats(vs ...float64) []*float64 {
	out := make([]*float64, len(vs))
	for i, v := range vs {
		out[i] = Float(v)
	}
	return out
}

// LookupError is a weather lookup failure carrying the message shown to users.
type LookupError struct {
	Kind    error
	Message string
	Cause   error
}

func (e *LookupError) Error() string {
	return e.Message
}

func (e *LookupError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}
