package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrFetchFailed matches every *FetchError via errors.Is.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrStationNotFound is returned when no station label matches a search.
	ErrStationNotFound = errors.New("station not found")

	// ErrMeasureNotFound is returned when a station lacks the measure at the
	// requested position.
	ErrMeasureNotFound = errors.New("measure not found")

	// ErrMissingAPIKey is returned when a keyed client is built without a key.
	ErrMissingAPIKey = errors.New("missing API key")
)

// FetchError reports a transport-level failure talking to an upstream source:
// the request could not be made, the status was not 200, or the body could
// not be read or parsed.
type FetchError struct {
	Source     string // "ea", "metoffice", "govuk"
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s fetch %s: status %d: %v", e.Source, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s fetch %s: %v", e.Source, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetchFailed }
