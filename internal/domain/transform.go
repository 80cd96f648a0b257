package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// NewClosureNotice wraps a closure row for publication, stamping it with the
// package clock.
func NewClosureNotice(c Closure) Notice {
	return Notice{
		ID:        generateID(NoticeClosure, c.When, c.Where, c.Event),
		Kind:      NoticeClosure,
		Closure:   &c,
		ScrapedAt: clock.Now().UTC(),
	}
}

// NewConditionNotice wraps a condition row for publication.
func NewConditionNotice(c Condition) Notice {
	return Notice{
		ID:        generateID(NoticeCondition, c.From, c.To, c.Conditions),
		Kind:      NoticeCondition,
		Condition: &c,
		ScrapedAt: clock.Now().UTC(),
	}
}

// SerializeNotice marshals a notice into an OutputEvent keyed by its ID.
func SerializeNotice(n Notice) (OutputEvent, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize notice: %w", err)
	}
	return OutputEvent{
		Key:   []byte(n.ID),
		Value: data,
		Headers: map[string]string{
			"kind":       string(n.Kind),
			"scraped_at": n.ScrapedAt.Format(time.RFC3339),
		},
	}, nil
}

// generateID produces a deterministic ID from a notice's text, so the same
// closure scraped on successive runs keeps its key and compacted topics hold
// one record per notice.
func generateID(kind NoticeKind, fields ...string) string {
	input := string(kind) + "|" + strings.Join(fields, "|")
	hash := sha256.Sum256([]byte(input))
	return string(kind) + "-" + hex.EncodeToString(hash[:8])
}
