package extract

import "sort"

// localMaxima returns the indices of strict local maxima in values,
// treating flat plateaus as a single peak at their midpoint. Endpoints are
// never reported as peaks.
func localMaxima(values []float64) []int {
	n := len(values)
	var peaks []int
	i := 1
	for i < n-1 {
		if values[i-1] >= values[i] {
			i++
			continue
		}
		ahead := i + 1
		for ahead < n-1 && values[ahead] == values[i] {
			ahead++
		}
		if values[ahead] < values[i] {
			peaks = append(peaks, (i+ahead-1)/2)
		}
		i = ahead
	}
	return peaks
}

// findPeaks returns local maxima in values at least minDistance samples
// apart, keeping the taller peak whenever two candidates conflict.
// minDistance <= 1 disables the suppression pass entirely.
func findPeaks(values []float64, minDistance int) []int {
	peaks := localMaxima(values)
	if minDistance <= 1 || len(peaks) < 2 {
		return peaks
	}

	order := make([]int, len(peaks))
	copy(order, peaks)
	sort.SliceStable(order, func(i, j int) bool {
		return values[order[i]] > values[order[j]]
	})

	suppressed := make(map[int]bool, len(peaks))
	keep := make(map[int]bool, len(peaks))
	for _, idx := range order {
		if suppressed[idx] {
			continue
		}
		keep[idx] = true
		for _, other := range peaks {
			if other == idx || suppressed[other] {
				continue
			}
			d := other - idx
			if d < 0 {
				d = -d
			}
			if d < minDistance {
				suppressed[other] = true
			}
		}
	}

	var result []int
	for _, idx := range peaks {
		if keep[idx] {
			result = append(result, idx)
		}
	}
	return result
}
