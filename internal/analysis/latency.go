package analysis

import (
	"math"
	"sort"
	"time"
)

// Latency summarises the round-trip times of the requests in one batch.
type Latency struct {
	Count  int
	Total  time.Duration
	Min    time.Duration
	Max    time.Duration
	Mean   time.Duration
	Median time.Duration
	P95    time.Duration
	StdDev time.Duration
}

func Summarize(durations []time.Duration) Latency {
	count := len(durations)
	if count == 0 {
		return Latency{}
	}

	sorted := append([]time.Duration(nil), durations...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	out := Latency{
		Count: count,
		Min:   sorted[0],
		Max:   sorted[count-1],
	}
	for _, d := range sorted {
		out.Total += d
	}
	out.Mean = out.Total / time.Duration(count)

	if count%2 == 0 {
		mid := count / 2
		out.Median = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		out.Median = sorted[count/2]
	}
	out.P95 = Percentile(sorted, 95)
	out.StdDev = stdDev(sorted, out.Mean)
	return out
}

// Percentile uses the nearest-rank method. values must be sorted ascending.
func Percentile(values []time.Duration, p int) time.Duration {
	count := len(values)
	switch {
	case count == 0:
		return 0
	case p <= 0:
		return values[0]
	case p >= 100:
		return values[count-1]
	}

	idx := int(math.Ceil(float64(p)/100*float64(count))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= count {
		idx = count - 1
	}
	return values[idx]
}

func stdDev(values []time.Duration, mean time.Duration) time.Duration {
	if len(values) < 2 {
		return 0
	}
	meanMS := float64(mean) / float64(time.Millisecond)
	var sumSquares float64
	for _, d := range values {
		delta := float64(d)/float64(time.Millisecond) - meanMS
		sumSquares += delta * delta
	}
	sdMS := math.Sqrt(sumSquares / float64(len(values)))
	return time.Duration(sdMS * float64(time.Millisecond))
}
