package scrape

import (
	"io"

	"github.com/couchcryptid/thames-conditions-service/internal/domain"
)

// ParseClosures reconciles a restrictions and closures page.
func ParseClosures(r io.Reader) ([]domain.Closure, error) {
	rows, err := Reconcile(r, ClosuresOptions())
	if err != nil {
		return nil, err
	}
	closures := make([]domain.Closure, 0, len(rows))
	for _, row := range rows {
		closures = append(closures, domain.Closure{
			When:  row.Get(ColumnWhen),
			Where: row.Get(ColumnWhere),
			Local: row.Local,
			Event: row.Event,
			Link:  row.Link,
		})
	}
	return closures, nil
}

// ParseConditions reconciles a current river conditions page.
func ParseConditions(r io.Reader) ([]domain.Condition, error) {
	rows, err := Reconcile(r, ConditionsOptions())
	if err != nil {
		return nil, err
	}
	conditions := make([]domain.Condition, 0, len(rows))
	for _, row := range rows {
		conditions = append(conditions, domain.Condition{
			From:       row.Get(ColumnFrom),
			To:         row.Get(ColumnTo),
			Conditions: row.Get(ColumnConditions),
			Local:      row.Local,
		})
	}
	return conditions, nil
}
