package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Parameter is the short-form EA parameter name.
type Parameter string

const (
	ParameterLevel Parameter = "level"
	ParameterFlow  Parameter = "flow"
)

// Position selects which of a station's measures to read. Lock stations
// list the upstream gauge first and the downstream gauge second.
type Position string

const (
	PositionUpstream   Position = "upstream"
	PositionDownstream Position = "downstream"
)

// MeasureIndex returns the index into a station's measures for the position.
// Anything other than upstream reads the second measure.
func (p Position) MeasureIndex() int {
	if p == PositionUpstream {
		return 0
	}
	return 1
}

// Station is a river monitoring station from the EA /id/stations endpoint.
type Station struct {
	ID               string     `json:"@id"`
	Label            FlexString `json:"label"`
	Notation         string     `json:"notation,omitempty"`
	StationReference string     `json:"stationReference,omitempty"`
	RLOIid           FlexString `json:"RLOIid,omitempty"`
	RiverName        string     `json:"riverName,omitempty"`
	Town             string     `json:"town,omitempty"`
	CatchmentName    FlexString `json:"catchmentName,omitempty"`
	Lat              FlexFloat  `json:"lat,omitempty"`
	Long             FlexFloat  `json:"long,omitempty"`
	Status           FlexString `json:"status,omitempty"`
	DateOpened       string     `json:"dateOpened,omitempty"`
}

// Measure is a time series published by a station.
type Measure struct {
	ID               string     `json:"@id"`
	Label            FlexString `json:"label"`
	Notation         string     `json:"notation,omitempty"`
	Parameter        string     `json:"parameter,omitempty"`
	ParameterName    string     `json:"parameterName,omitempty"`
	Qualifier        string     `json:"qualifier,omitempty"`
	UnitName         string     `json:"unitName,omitempty"`
	Period           int        `json:"period,omitempty"`
	Station          string     `json:"station,omitempty"`
	StationReference string     `json:"stationReference,omitempty"`
}

// Reading is a single observation of a measure. Value is nil for
// placeholder readings where no observation exists.
type Reading struct {
	ID       string    `json:"@id,omitempty"`
	DateTime time.Time `json:"dateTime"`
	Measure  string    `json:"measure,omitempty"`
	Value    *float64  `json:"value"`
}

func (r *Reading) UnmarshalJSON(data []byte) error {
	type alias Reading
	aux := struct {
		*alias
		Value json.RawMessage `json:"value"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	r.Value = nil
	if len(aux.Value) == 0 || string(aux.Value) == "null" {
		return nil
	}
	var v FlexFloat
	if err := json.Unmarshal(aux.Value, &v); err != nil {
		return fmt.Errorf("reading value: %w", err)
	}
	f := float64(v)
	r.Value = &f
	return nil
}

// FlexString decodes a JSON string, number, or array of either to a single
// string. Arrays yield their first element.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	str, err := firstScalar(v)
	if err != nil {
		return err
	}
	*s = FlexString(str)
	return nil
}

func (s FlexString) String() string { return string(s) }

// FlexFloat decodes a JSON number, numeric string, or array of either to a
// single float. Arrays yield their first element.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	str, err := firstScalar(v)
	if err != nil {
		return err
	}
	if str == "" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return fmt.Errorf("parse float %q: %w", str, err)
	}
	*f = FlexFloat(n)
	return nil
}

func firstScalar(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(x), nil
	case []any:
		if len(x) == 0 {
			return "", nil
		}
		return firstScalar(x[0])
	default:
		return "", fmt.Errorf("unsupported JSON value %T", v)
	}
}

const (
	placeholderStep = 15 * time.Minute
	placeholderSpan = 7 * 24 * time.Hour
)

// PlaceholderWeek returns a week of 15-minute readings ending now with no
// values, oldest first. Used when a gauge returns no readings so charts still
// span the expected range.
func PlaceholderWeek() []Reading {
	now := clock.Now()
	n := int(placeholderSpan / placeholderStep)
	out := make([]Reading, n)
	for i := range n {
		out[i] = Reading{DateTime: now.Add(-time.Duration(n-1-i) * placeholderStep)}
	}
	return out
}
