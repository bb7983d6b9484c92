package weather

import (
	"errors"
	"time"
)

// ErrNoSamples is returned when alignment is attempted against an empty series.
var ErrNoSamples = errors.New("no forecast samples to align against")

// NearestSample selects the sample whose timestamp is closest to target.
// Ties resolve to the first encountered sample. The function never
// extrapolates: if every sample lies in the past relative to target it
// still returns the nearest one.
func NearestSample(samples []Sample, target time.Time) (Sample, error) {
	if len(samples) == 0 {
		return Sample{}, ErrNoSamples
	}

	best := samples[0]
	bestDiff := absDuration(samples[0].Time.Sub(target))

	for _, s := range samples[1:] {
		diff := absDuration(s.Time.Sub(target))
		if diff < bestDiff {
			best = s
			bestDiff = diff
		}
	}

	return best, nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
