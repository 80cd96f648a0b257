package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Timestep selects a Met Office site-specific forecast resolution.
type Timestep string

const (
	TimestepHourly      Timestep = "hourly"
	TimestepThreeHourly Timestep = "three-hourly"
	TimestepDaily       Timestep = "daily"
)

// ParseTimestep validates a timestep name. Empty means hourly.
func ParseTimestep(s string) (Timestep, error) {
	switch Timestep(s) {
	case "":
		return TimestepHourly, nil
	case TimestepHourly, TimestepThreeHourly, TimestepDaily:
		return Timestep(s), nil
	default:
		return "", fmt.Errorf("timestep must be one of hourly, three-hourly or daily, got %q", s)
	}
}

// ForecastStep is one entry of a forecast time series. Values holds every
// numeric parameter of the entry keyed by its Met Office name, e.g.
// "screenTemperature" or "maxScreenAirTemp".
type ForecastStep struct {
	Time   time.Time          `json:"time"`
	Values map[string]float64 `json:"values"`
}

func (f *ForecastStep) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	f.Values = make(map[string]float64, len(raw))
	for k, v := range raw {
		if k == "time" {
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return fmt.Errorf("forecast time: %w", err)
			}
			t, err := parseForecastTime(s)
			if err != nil {
				return err
			}
			f.Time = t
			continue
		}
		var n float64
		if err := json.Unmarshal(v, &n); err != nil {
			continue // non-numeric parameter
		}
		f.Values[k] = n
	}
	return nil
}

// The DataHub omits seconds: "2024-05-01T13:00Z".
func parseForecastTime(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02T15:04Z07:00", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("forecast time %q: unrecognised format", s)
}

// WeatherCode returns the step's significant weather code as a lookup key.
// Daily steps carry a day code; "NA" is returned when no code is present.
func (f ForecastStep) WeatherCode() string {
	for _, k := range []string{"significantWeatherCode", "daySignificantWeatherCode"} {
		if v, ok := f.Values[k]; ok {
			return strconv.Itoa(int(v))
		}
	}
	return "NA"
}

// WeatherType describes a significant weather code.
type WeatherType struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

var weatherTypes = map[string]WeatherType{
	"NA": {Description: "Not available"},
	"-1": {Description: "Trace rain", Icon: "wi-raindrop"},
	"0":  {Description: "Clear night", Icon: "wi-night-clear"},
	"1":  {Description: "Sunny day", Icon: "wi-day-sunny"},
	"2":  {Description: "Partly cloudy (night)", Icon: "wi-night-alt-cloudy"},
	"3":  {Description: "Partly cloudy (day)", Icon: "wi-day-cloudy"},
	"4":  {Description: "Not used"},
	"5":  {Description: "Mist", Icon: "wi-fog"},
	"6":  {Description: "Fog", Icon: "wi-fog"},
	"7":  {Description: "Cloudy", Icon: "wi-cloudy"},
	"8":  {Description: "Overcast", Icon: "wi-cloud"},
	"9":  {Description: "Light rain shower (night)", Icon: "wi-night-alt-showers"},
	"10": {Description: "Light rain shower (day)", Icon: "wi-day-showers"},
	"11": {Description: "Drizzle", Icon: "wi-sprinkle"},
	"12": {Description: "Light rain", Icon: "wi-showers"},
	"13": {Description: "Heavy rain shower (night)", Icon: "wi-night-alt-rain"},
	"14": {Description: "Heavy rain shower (day)", Icon: "wi-day-rain"},
	"15": {Description: "Heavy rain", Icon: "wi-rain"},
	"16": {Description: "Sleet shower (night)", Icon: "wi-night-alt-sleet"},
	"17": {Description: "Sleet shower (day)", Icon: "wi-day-sleet"},
	"18": {Description: "Sleet", Icon: "wi-sleet"},
	"19": {Description: "Hail shower (night)", Icon: "wi-night-alt-hail"},
	"20": {Description: "Hail shower (day)", Icon: "wi-day-hail"},
	"21": {Description: "Hail", Icon: "wi-hail"},
	"22": {Description: "Light snow shower (night)", Icon: "wi-night-alt-snow"},
	"23": {Description: "Light snow shower (day)", Icon: "wi-day-snow"},
	"24": {Description: "Light snow", Icon: "wi-snow"},
	"25": {Description: "Heavy snow shower (night)", Icon: "wi-night-alt-snow-wind"},
	"26": {Description: "Heavy snow shower (day)", Icon: "wi-day-snow-wind"},
	"27": {Description: "Heavy snow", Icon: "wi-snow-wind"},
	"28": {Description: "Thunder shower (night)", Icon: "wi-night-alt-thunderstorm"},
	"29": {Description: "Thunder shower (day)", Icon: "wi-day-thunderstorm"},
	"30": {Description: "Thunder", Icon: "wi-thunderstorm"},
}

// LookupWeatherCode maps a significant weather code to its description and
// icon. Unknown codes return "Unknown" with no icon and ok=false.
func LookupWeatherCode(code string) (wt WeatherType, ok bool) {
	wt, ok = weatherTypes[code]
	if !ok {
		return WeatherType{Code: code, Description: "Unknown"}, false
	}
	wt.Code = code
	return wt, true
}
