// Command genfixtures reads saved copies of the gov.uk river pages and writes
// the notices the service would publish for them as a JSON fixture. It runs
// the real scrape and domain packages with a fixed clock, so fixtures stay
// reproducible and match publisher output.
//
// Usage:
//
//	go run ./cmd/genfixtures \
//	  -closures testdata/river-thames-restrictions-and-closures.html \
//	  -conditions testdata/river-thames-current-river-conditions.html \
//	  -out data/mock/notices.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/thames-conditions-service/internal/domain"
	"github.com/couchcryptid/thames-conditions-service/internal/scrape"
)

var scrapedAt = time.Date(2024, time.May, 1, 6, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	closuresPath := flag.String("closures", "", "saved restrictions and closures page")
	conditionsPath := flag.String("conditions", "", "saved current river conditions page")
	out := flag.String("out", "", "output path for the notices JSON fixture")
	flag.Parse()

	if *out == "" || (*closuresPath == "" && *conditionsPath == "") {
		flag.Usage()
		return fmt.Errorf("missing required flags: -out and at least one of -closures, -conditions")
	}

	// Set a fixed clock for reproducible ScrapedAt timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(scrapedAt))
	defer domain.SetClock(nil)

	var notices []domain.Notice

	if *closuresPath != "" {
		closures, err := parseFile(*closuresPath, scrape.ParseClosures)
		if err != nil {
			return fmt.Errorf("processing %s: %w", *closuresPath, err)
		}
		for _, c := range closures {
			notices = append(notices, domain.NewClosureNotice(c))
		}
		log.Printf("closures: %d rows", len(closures))
	}

	if *conditionsPath != "" {
		conditions, err := parseFile(*conditionsPath, scrape.ParseConditions)
		if err != nil {
			return fmt.Errorf("processing %s: %w", *conditionsPath, err)
		}
		for _, c := range conditions {
			notices = append(notices, domain.NewConditionNotice(c))
		}
		log.Printf("conditions: %d rows", len(conditions))
	}

	if err := writeJSON(*out, notices); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}
	log.Printf("wrote fixture: %s", *out)

	printStats(notices)
	return nil
}

func parseFile[T any](path string, parse func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()
	return parse(f)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(notices []domain.Notice) {
	counts := map[string]int{}
	ids := map[string]int{}
	for _, n := range notices {
		local := domain.LocalNo
		switch {
		case n.Closure != nil:
			local = n.Closure.Local
		case n.Condition != nil:
			local = n.Condition.Local
		}
		counts[string(n.Kind)+"/"+local]++
		ids[n.ID]++
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Println("\n=== Notice Stats ===")
	fmt.Printf("Total: %d\n", len(notices))
	for _, k := range keys {
		fmt.Printf("  %-20s %d\n", k, counts[k])
	}
	for id, n := range ids {
		if n > 1 {
			fmt.Printf("  duplicate id %s (%d rows)\n", id, n)
		}
	}
}
