package metrics

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// ReadCallsCSV reads a CSV file written by Writer and returns the calls along
// with the first and last timestamps found in the data.
func ReadCallsCSV(path string) ([]Call, time.Time, time.Time, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, time.Time{}, time.Time{}, fmt.Errorf("open calls CSV: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, time.Time{}, time.Time{}, fmt.Errorf("read CSV header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, name := range []string{"timestamp", "service", "verdict", "rtt_ms"} {
		if _, ok := col[name]; !ok {
			return nil, time.Time{}, time.Time{}, fmt.Errorf("CSV missing required column: %s", name)
		}
	}
	field := func(record []string, name string) string {
		if idx, ok := col[name]; ok && idx < len(record) {
			return record[idx]
		}
		return ""
	}

	var calls []Call
	var first, last time.Time
	for row := 2; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, time.Time{}, time.Time{}, fmt.Errorf("read CSV row %d: %w", row, err)
		}

		c := Call{
			Target:  field(record, "target"),
			Service: field(record, "service"),
			Verdict: field(record, "verdict"),
			Error:   field(record, "error"),
		}
		if t, err := time.Parse(time.RFC3339Nano, field(record, "timestamp")); err == nil {
			c.Timestamp = t
			if len(calls) == 0 {
				first = t
			}
			last = t
		}
		if v, err := strconv.ParseUint(field(record, "status"), 10, 8); err == nil {
			c.Status = uint8(v)
		}
		if v, err := strconv.Atoi(field(record, "fragments")); err == nil {
			c.Fragments = v
		}
		if v, err := strconv.ParseFloat(field(record, "rtt_ms"), 64); err == nil {
			c.RTTMs = v
		}
		calls = append(calls, c)
	}

	if len(calls) == 0 {
		return nil, time.Time{}, time.Time{}, fmt.Errorf("no data rows in CSV file")
	}
	return calls, first, last, nil
}
