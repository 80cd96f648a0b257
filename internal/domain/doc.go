// Package domain models River Thames monitoring data gathered from three
// upstream sources.
//
// # Environment Agency flood-monitoring API
//
// Stations, measures and readings come from
// https://environment.data.gov.uk/flood-monitoring. Every list endpoint wraps
// its records in an "items" array. Records are mostly flat, but a handful of
// stations (typically those with two gauges, e.g. a weir with upstream and
// downstream stage) return arrays where a scalar is expected:
//
//	"label": ["Sunbury Lock", "Sunbury Lock Downstream"]
//	"lat":   [51.404, 51.405]
//
// [FlexString] and [FlexFloat] decode such values to their first element.
//
// A station that measures both sides of a lock exposes two level measures. The
// first is the upstream gauge, the second the downstream gauge; see
// [Position].
//
// # gov.uk river pages
//
// Closures and current conditions are scraped from two guidance pages:
//
//	https://www.gov.uk/guidance/river-thames-restrictions-and-closures
//	https://www.gov.uk/guidance/river-thames-current-river-conditions
//
// Closure events read "<title>: <details>". When the row carries a link the
// title is wrapped in an anchor. Condition reaches read "<from> to <to>", e.g.
// "Staines to Windsor"; single-lock reaches have no "to" part.
//
// A row is "Local" when its location mentions one of [LocalPlaces], the reaches
// around Hampton and Kingston.
//
// # Met Office site-specific forecasts
//
// Forecasts come from the Met Office Weather DataHub. The significant weather
// code is an integer 0-30, -1 for trace rain, or "NA" when unavailable. See
// [LookupWeatherCode].
package domain
