package domain

import (
	"strings"
	"time"
)

// LocalPlaces are the place names that mark a closure or reach as local.
var LocalPlaces = []string{"Walton", "Shepperton", "Molesey", "Teddington", "Kingston", "Sunbury"}

const (
	LocalYes = "Local"
	LocalNo  = "No"
)

// LocalFlag returns LocalYes when any of places occurs in s (case-sensitive),
// LocalNo otherwise.
func LocalFlag(s string, places []string) string {
	for _, p := range places {
		if p != "" && strings.Contains(s, p) {
			return LocalYes
		}
	}
	return LocalNo
}

// Closure is one row of the restrictions and closures page.
type Closure struct {
	When  string `json:"when"`
	Where string `json:"where"`
	Local string `json:"local"`
	Event string `json:"event"` // HTML; the title is an anchor when Link is set
	Link  string `json:"link,omitempty"`
}

// Condition is one reach of the current river conditions page.
type Condition struct {
	From       string `json:"from"`
	To         string `json:"to"`
	Conditions string `json:"conditions"`
	Local      string `json:"local"`
}

// NoticeKind distinguishes the published notice streams.
type NoticeKind string

const (
	NoticeClosure   NoticeKind = "closure"
	NoticeCondition NoticeKind = "condition"
)

// Notice wraps a scraped row for publication downstream.
type Notice struct {
	ID        string     `json:"id"`
	Kind      NoticeKind `json:"kind"`
	Closure   *Closure   `json:"closure,omitempty"`
	Condition *Condition `json:"condition,omitempty"`
	ScrapedAt time.Time  `json:"scraped_at"`
}
