package metrics

// Metrics collection for CIP service calls

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"
)

// Call is one service call: the final verdict after any fragment
// continuation, the general status of the last reply and the round trip of
// the whole call.
type Call struct {
	Timestamp time.Time
	Target    string
	Service   string
	Verdict   string
	Status    uint8
	Fragments int
	RTTMs     float64
	Error     string
}

// Success reports whether the call completed without a transport or decode
// error.
func (c Call) Success() bool {
	return c.Error == "" && c.Verdict == "complete"
}

// Sink collects and aggregates calls
type Sink struct {
	mu      sync.RWMutex
	calls   []Call
	summary *Summary
}

// Summary contains aggregated statistics
type Summary struct {
	TotalCalls int
	Completed  int
	Failed     int
	Errors     int
	Timeouts   int
	Fragments  int
	MinRTT     float64
	MaxRTT     float64
	AvgRTT     float64
	P50RTT     float64
	P90RTT     float64
	P95RTT     float64
	P99RTT     float64
	RTTBuckets map[string]int
	ByService  map[string]*ServiceStats
	ByStatus   map[uint8]int
	sumRTT     float64
	rttSamples int
}

// ServiceStats contains statistics for one service
type ServiceStats struct {
	Count   int
	Success int
	Failed  int
	MinRTT  float64
	MaxRTT  float64
	AvgRTT  float64
	SumRTT  float64
}

func newSummary() *Summary {
	return &Summary{
		RTTBuckets: make(map[string]int),
		ByService:  make(map[string]*ServiceStats),
		ByStatus:   make(map[uint8]int),
	}
}

// NewSink creates a new metrics sink
func NewSink() *Sink {
	return &Sink{summary: newSummary()}
}

// Record records one call
func (s *Sink) Record(c Call) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, c)
	s.updateSummary(c)
}

// Calls returns a copy of all recorded calls
func (s *Sink) Calls() []Call {
	s.mu.RLock()
	defer s.mu.RUnlock()

	calls := make([]Call, len(s.calls))
	copy(calls, s.calls)
	return calls
}

// Summary returns a copy of the aggregated summary with percentiles filled in.
func (s *Sink) Summary() *Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := *s.summary
	summary.RTTBuckets = make(map[string]int, len(s.summary.RTTBuckets))
	summary.ByService = make(map[string]*ServiceStats, len(s.summary.ByService))
	summary.ByStatus = make(map[uint8]int, len(s.summary.ByStatus))
	for k, v := range s.summary.RTTBuckets {
		summary.RTTBuckets[k] = v
	}
	for k, v := range s.summary.ByService {
		stats := *v
		summary.ByService[k] = &stats
	}
	for k, v := range s.summary.ByStatus {
		summary.ByStatus[k] = v
	}

	rtts := make([]float64, 0, len(s.calls))
	for _, c := range s.calls {
		if c.Success() && c.RTTMs > 0 {
			rtts = append(rtts, c.RTTMs)
		}
	}
	p := computePercentiles(rtts)
	summary.P50RTT, summary.P90RTT, summary.P95RTT, summary.P99RTT = p[0], p[1], p[2], p[3]
	return &summary
}

func (s *Sink) updateSummary(c Call) {
	sum := s.summary
	sum.TotalCalls++
	sum.Fragments += c.Fragments

	switch {
	case c.Error != "":
		sum.Errors++
		if strings.Contains(c.Error, "timeout") || strings.Contains(c.Error, "deadline") {
			sum.Timeouts++
		}
	case c.Success():
		sum.Completed++
	default:
		sum.Failed++
		sum.ByStatus[c.Status]++
	}

	if c.Success() && c.RTTMs > 0 {
		if sum.rttSamples == 0 || c.RTTMs < sum.MinRTT {
			sum.MinRTT = c.RTTMs
		}
		if c.RTTMs > sum.MaxRTT {
			sum.MaxRTT = c.RTTMs
		}
		sum.rttSamples++
		sum.sumRTT += c.RTTMs
		sum.AvgRTT = sum.sumRTT / float64(sum.rttSamples)
		incrementBucket(sum.RTTBuckets, c.RTTMs)
	}

	stats, ok := sum.ByService[c.Service]
	if !ok {
		stats = &ServiceStats{}
		sum.ByService[c.Service] = stats
	}
	stats.Count++
	if !c.Success() {
		stats.Failed++
		return
	}
	stats.Success++
	if c.RTTMs > 0 {
		if stats.MinRTT == 0 || c.RTTMs < stats.MinRTT {
			stats.MinRTT = c.RTTMs
		}
		if c.RTTMs > stats.MaxRTT {
			stats.MaxRTT = c.RTTMs
		}
		stats.SumRTT += c.RTTMs
		stats.AvgRTT = stats.SumRTT / float64(stats.Success)
	}
}

func incrementBucket(buckets map[string]int, value float64) {
	switch {
	case value < 1:
		buckets["lt_1ms"]++
	case value < 5:
		buckets["1_5ms"]++
	case value < 10:
		buckets["5_10ms"]++
	case value < 50:
		buckets["10_50ms"]++
	case value < 100:
		buckets["50_100ms"]++
	case value < 500:
		buckets["100_500ms"]++
	default:
		buckets["gt_500ms"]++
	}
}

func computePercentiles(values []float64) [4]float64 {
	var result [4]float64
	if len(values) == 0 {
		return result
	}
	sort.Float64s(values)
	result[0] = percentile(values, 0.50)
	result[1] = percentile(values, 0.90)
	result[2] = percentile(values, 0.95)
	result[3] = percentile(values, 0.99)
	return result
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}
