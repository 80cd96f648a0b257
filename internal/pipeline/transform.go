package pipeline

import (
	"github.com/couchcryptid/thames-conditions-service/internal/domain"
)

// Transform wraps scraped rows as notices and serializes them, closures
// first, preserving page order.
func Transform(closures []domain.Closure, conditions []domain.Condition) ([]domain.OutputEvent, error) {
	events := make([]domain.OutputEvent, 0, len(closures)+len(conditions))
	for _, c := range closures {
		ev, err := domain.SerializeNotice(domain.NewClosureNotice(c))
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	for _, c := range conditions {
		ev, err := domain.SerializeNotice(domain.NewConditionNotice(c))
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}
