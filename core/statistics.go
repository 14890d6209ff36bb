package core

// Statistics summarizes every value seen for one key. A Statistics with
// Count == 0 is never handed out; for Count > 0, Min <= Mean <= Max.
type Statistics struct {
	Min   float64
	Max   float64
	Mean  float64
	Count uint64
}

// Merge combines two summaries of the same key into a new one. The mean is
// recovered from the count-weighted sums of both sides.
func (s Statistics) Merge(other Statistics) Statistics {
	if s.Count == 0 {
		return other
	}
	if other.Count == 0 {
		return s
	}
	count := s.Count + other.Count
	sum := s.Mean*float64(s.Count) + other.Mean*float64(other.Count)
	merged := Statistics{
		Min:   min(s.Min, other.Min),
		Max:   max(s.Max, other.Max),
		Count: count,
	}
	merged.Mean = clampMean(sum/float64(count), merged.Min, merged.Max)
	return merged
}

// clampMean keeps rounding drift from pushing a mean outside [lo, hi].
func clampMean(mean, lo, hi float64) float64 {
	return min(max(mean, lo), hi)
}

// KeyStatistics pairs a key with its summary for ordered output.
type KeyStatistics struct {
	Key   string
	Stats Statistics
}

// accumulator tracks a running summary while a chunk is scanned.
type accumulator struct {
	min, max, sum float64
	count         uint64
}

func (a *accumulator) add(v float64) {
	if a.count == 0 {
		a.min, a.max = v, v
	} else {
		a.min = min(a.min, v)
		a.max = max(a.max, v)
	}
	a.sum += v
	a.count++
}

func (a *accumulator) statistics() Statistics {
	return Statistics{
		Min:   a.min,
		Max:   a.max,
		Mean:  clampMean(a.sum/float64(a.count), a.min, a.max),
		Count: a.count,
	}
}
