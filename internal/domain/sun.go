package domain

import (
	"fmt"
	"time"
	_ "time/tzdata" // Europe/London in minimal containers

	"github.com/nathan-osman/go-sunrise"
)

// Observer is a point on the Earth's surface.
type Observer struct {
	Lat float64
	Lon float64
}

// Greenwich is the default observer.
var Greenwich = Observer{Lat: 51.4733, Lon: -0.0008333}

// civilTwilight is the solar elevation, in degrees, of civil dawn and dusk.
const civilTwilight = -6.0

// SunEvent is a named solar event formatted as local wall-clock time.
type SunEvent struct {
	Event string `json:"event"`
	Time  string `json:"time"` // HH:MM, Europe/London
}

// SunTimes returns dawn, sunrise, sunset and dusk for the observer on the
// current day of the package clock, in that order.
func SunTimes(o Observer) ([]SunEvent, error) {
	london, err := time.LoadLocation("Europe/London")
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}

	day := clock.Now().In(london)
	y, m, d := day.Date()

	rise, set := sunrise.SunriseSunset(o.Lat, o.Lon, y, m, d)
	dawn, dusk := sunrise.TimeOfElevation(o.Lat, o.Lon, civilTwilight, y, m, d)

	events := []struct {
		name string
		at   time.Time
	}{
		{"dawn", dawn},
		{"sunrise", rise},
		{"sunset", set},
		{"dusk", dusk},
	}

	out := make([]SunEvent, 0, len(events))
	for _, e := range events {
		if e.at.IsZero() {
			return nil, fmt.Errorf("no %s at %.4f,%.4f on %s", e.name, o.Lat, o.Lon, day.Format(time.DateOnly))
		}
		out = append(out, SunEvent{Event: e.name, Time: e.at.In(london).Format("15:04")})
	}
	return out, nil
}
