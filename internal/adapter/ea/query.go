package ea

import (
	"net/url"
	"strconv"
	"time"
)

// StationQuery filters /id/stations. Zero-valued fields are not sent.
type StationQuery struct {
	ParameterName    string   // parameterName, e.g. "Water Level"
	Parameter        string   // parameter, e.g. "level" or "flow"
	Qualifier        string   // qualifier, e.g. "Downstream Stage"
	Label            string   // label, exact match
	Town             string   // town
	CatchmentName    string   // catchmentName, exact match
	RiverName        string   // riverName, exact match
	StationReference string   // stationReference
	RLOIid           string   // RLOIid
	Search           string   // search, label substring
	Lat              *float64 // lat
	Long             *float64 // long
	Dist             *float64 // dist, km from lat/long
	Type             string   // type: SingleLevel, MultiTraceLevel, Coastal, Groundwater, Meteorological
	Status           string   // status: Active, Closed, Suspended
}

// Values encodes the query with the API's parameter names.
func (q StationQuery) Values() url.Values {
	v := url.Values{}
	setString(v, "parameterName", q.ParameterName)
	setString(v, "parameter", q.Parameter)
	setString(v, "qualifier", q.Qualifier)
	setString(v, "label", q.Label)
	setString(v, "town", q.Town)
	setString(v, "catchmentName", q.CatchmentName)
	setString(v, "riverName", q.RiverName)
	setString(v, "stationReference", q.StationReference)
	setString(v, "RLOIid", q.RLOIid)
	setString(v, "search", q.Search)
	setFloat(v, "lat", q.Lat)
	setFloat(v, "long", q.Long)
	setFloat(v, "dist", q.Dist)
	setString(v, "type", q.Type)
	setString(v, "status", q.Status)
	return v
}

// MeasureQuery filters /id/measures.
type MeasureQuery struct {
	ParameterName    string // parameterName
	Parameter        string // parameter
	Qualifier        string // qualifier
	StationReference string // stationReference
	Station          string // station, the station URI
	Search           string // search
}

// Values encodes the query with the API's parameter names.
func (q MeasureQuery) Values() url.Values {
	v := url.Values{}
	setString(v, "parameterName", q.ParameterName)
	setString(v, "parameter", q.Parameter)
	setString(v, "qualifier", q.Qualifier)
	setString(v, "stationReference", q.StationReference)
	setString(v, "station", q.Station)
	setString(v, "search", q.Search)
	return v
}

// ReadingQuery filters <measure>/readings. The API defaults to 500 readings
// and caps Limit at 10000.
type ReadingQuery struct {
	Limit     int       // _limit
	Date      time.Time // date, a single day
	StartDate time.Time // startdate
	EndDate   time.Time // enddate
	Since     time.Time // since, exclusive
	Latest    bool      // latest
	Today     bool      // today
	Sorted    bool      // _sorted, newest first before the limit applies
}

// Values encodes the query. Boolean flags are sent as keys with empty values.
func (q ReadingQuery) Values() url.Values {
	v := url.Values{}
	if q.Limit > 0 {
		v.Set("_limit", strconv.Itoa(q.Limit))
	}
	setDate(v, "date", q.Date)
	setDate(v, "startdate", q.StartDate)
	setDate(v, "enddate", q.EndDate)
	if !q.Since.IsZero() {
		v.Set("since", q.Since.UTC().Format(time.RFC3339))
	}
	setFlag(v, "latest", q.Latest)
	setFlag(v, "today", q.Today)
	setFlag(v, "_sorted", q.Sorted)
	return v
}

func setString(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

func setFloat(v url.Values, key string, value *float64) {
	if value != nil {
		v.Set(key, strconv.FormatFloat(*value, 'f', -1, 64))
	}
}

func setDate(v url.Values, key string, value time.Time) {
	if !value.IsZero() {
		v.Set(key, value.Format(time.DateOnly))
	}
}

func setFlag(v url.Values, key string, on bool) {
	if on {
		v.Set(key, "")
	}
}
