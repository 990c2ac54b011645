package metrics

// Call output (CSV/JSON) and summary formatting

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

var csvHeader = []string{
	"timestamp",
	"target",
	"service",
	"verdict",
	"status",
	"fragments",
	"rtt_ms",
	"error",
}

// Writer handles writing calls to files
type Writer struct {
	csvFile   *os.File
	csvWriter *csv.Writer
	jsonFile  *os.File
	jsonCount int
}

// NewWriter creates a writer for the given CSV and JSON paths. Either path may
// be empty.
func NewWriter(csvPath, jsonPath string) (*Writer, error) {
	w := &Writer{}

	if csvPath != "" {
		file, err := os.Create(csvPath)
		if err != nil {
			return nil, fmt.Errorf("create CSV file: %w", err)
		}
		w.csvFile = file
		w.csvWriter = csv.NewWriter(file)
		if err := w.csvWriter.Write(csvHeader); err != nil {
			file.Close()
			return nil, fmt.Errorf("write CSV header: %w", err)
		}
		w.csvWriter.Flush()
	}

	if jsonPath != "" {
		file, err := os.Create(jsonPath)
		if err != nil {
			if w.csvFile != nil {
				w.csvFile.Close()
			}
			return nil, fmt.Errorf("create JSON file: %w", err)
		}
		w.jsonFile = file
		if _, err := file.WriteString("["); err != nil {
			file.Close()
			if w.csvFile != nil {
				w.csvFile.Close()
			}
			return nil, fmt.Errorf("write JSON start: %w", err)
		}
	}

	return w, nil
}

type jsonCall struct {
	Timestamp string  `json:"timestamp"`
	Target    string  `json:"target"`
	Service   string  `json:"service"`
	Verdict   string  `json:"verdict"`
	Status    uint8   `json:"status"`
	Fragments int     `json:"fragments"`
	RTTMs     float64 `json:"rtt_ms"`
	Error     string  `json:"error,omitempty"`
}

// WriteCall writes a single call
func (w *Writer) WriteCall(c Call) error {
	if w.csvWriter != nil {
		record := []string{
			c.Timestamp.Format(time.RFC3339Nano),
			c.Target,
			c.Service,
			c.Verdict,
			strconv.Itoa(int(c.Status)),
			strconv.Itoa(c.Fragments),
			formatRTT(c.RTTMs),
			c.Error,
		}
		if err := w.csvWriter.Write(record); err != nil {
			return fmt.Errorf("write CSV record: %w", err)
		}
		w.csvWriter.Flush()
	}

	if w.jsonFile != nil {
		data, err := json.MarshalIndent(jsonCall{
			Timestamp: c.Timestamp.Format(time.RFC3339Nano),
			Target:    c.Target,
			Service:   c.Service,
			Verdict:   c.Verdict,
			Status:    c.Status,
			Fragments: c.Fragments,
			RTTMs:     c.RTTMs,
			Error:     c.Error,
		}, "  ", "  ")
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		sep := "\n  "
		if w.jsonCount > 0 {
			sep = ",\n  "
		}
		if _, err := w.jsonFile.WriteString(sep + string(data)); err != nil {
			return fmt.Errorf("write JSON: %w", err)
		}
		w.jsonCount++
	}

	return nil
}

// Close closes the writer and flushes all data
func (w *Writer) Close() error {
	var errs []error

	if w.csvWriter != nil {
		w.csvWriter.Flush()
		if err := w.csvWriter.Error(); err != nil {
			errs = append(errs, err)
		}
	}
	if w.csvFile != nil {
		if err := w.csvFile.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if w.jsonFile != nil {
		if _, err := w.jsonFile.WriteString("\n]\n"); err != nil {
			errs = append(errs, err)
		}
		if err := w.jsonFile.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close writer: %v", errs)
	}
	return nil
}

// formatRTT formats RTT value for CSV (empty string if 0)
func formatRTT(rtt float64) string {
	if rtt == 0 {
		return ""
	}
	return strconv.FormatFloat(rtt, 'f', 3, 64)
}

// FormatSummary formats a summary for human-readable output
func FormatSummary(summary *Summary) string {
	var b strings.Builder
	if summary.TotalCalls == 0 {
		return "Total Calls: 0\n"
	}

	pct := func(n int) float64 { return float64(n) / float64(summary.TotalCalls) * 100 }
	fmt.Fprintf(&b, "Total Calls: %d\n", summary.TotalCalls)
	fmt.Fprintf(&b, "Complete: %d (%.1f%%)\n", summary.Completed, pct(summary.Completed))
	fmt.Fprintf(&b, "Failed: %d (%.1f%%)\n", summary.Failed, pct(summary.Failed))
	if summary.Errors > 0 {
		fmt.Fprintf(&b, "Errors: %d (%.1f%%)\n", summary.Errors, pct(summary.Errors))
	}
	if summary.Timeouts > 0 {
		fmt.Fprintf(&b, "Timeouts: %d\n", summary.Timeouts)
	}
	if summary.Fragments > summary.TotalCalls {
		fmt.Fprintf(&b, "Replies: %d (%.1f per call)\n", summary.Fragments, float64(summary.Fragments)/float64(summary.TotalCalls))
	}

	if len(summary.ByStatus) > 0 {
		codes := make([]int, 0, len(summary.ByStatus))
		for code := range summary.ByStatus {
			codes = append(codes, int(code))
		}
		sort.Ints(codes)
		b.WriteString("\nFailure Status:\n")
		for _, code := range codes {
			fmt.Fprintf(&b, "  0x%02X: %d\n", code, summary.ByStatus[uint8(code)])
		}
	}

	if summary.Completed > 0 && summary.MaxRTT > 0 {
		b.WriteString("\nRTT Statistics (complete calls):\n")
		fmt.Fprintf(&b, "  Min: %.3f ms\n", summary.MinRTT)
		fmt.Fprintf(&b, "  Max: %.3f ms\n", summary.MaxRTT)
		fmt.Fprintf(&b, "  Avg: %.3f ms\n", summary.AvgRTT)
		fmt.Fprintf(&b, "  P50: %.3f ms\n", summary.P50RTT)
		fmt.Fprintf(&b, "  P90: %.3f ms\n", summary.P90RTT)
		fmt.Fprintf(&b, "  P95: %.3f ms\n", summary.P95RTT)
		fmt.Fprintf(&b, "  P99: %.3f ms\n", summary.P99RTT)
		fmt.Fprintf(&b, "  Buckets: <1ms=%d 1-5ms=%d 5-10ms=%d 10-50ms=%d 50-100ms=%d 100-500ms=%d >500ms=%d\n",
			summary.RTTBuckets["lt_1ms"],
			summary.RTTBuckets["1_5ms"],
			summary.RTTBuckets["5_10ms"],
			summary.RTTBuckets["10_50ms"],
			summary.RTTBuckets["50_100ms"],
			summary.RTTBuckets["100_500ms"],
			summary.RTTBuckets["gt_500ms"],
		)
	}

	if len(summary.ByService) > 1 {
		names := make([]string, 0, len(summary.ByService))
		for name := range summary.ByService {
			names = append(names, name)
		}
		sort.Strings(names)
		b.WriteString("\nPer-Service Statistics:\n")
		for _, name := range names {
			stats := summary.ByService[name]
			fmt.Fprintf(&b, "  %s: %d calls (%d complete, %d failed)", name, stats.Count, stats.Success, stats.Failed)
			if stats.Success > 0 && stats.MaxRTT > 0 {
				fmt.Fprintf(&b, " - RTT: min=%.3fms, max=%.3fms, avg=%.3fms", stats.MinRTT, stats.MaxRTT, stats.AvgRTT)
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}
