package extract

import "github.com/ecgtrace/digitizer/pkg/imaging"

// columnClusters returns the runs of consecutive black (ink) pixels in
// column col of img, top to bottom.
func columnClusters(img imaging.Image, col int) [][]int {
	var clusters [][]int
	var run []int
	for row := 0; row < img.Height(); row++ {
		if img.GrayAt(row, col) == 0 {
			run = append(run, row)
			continue
		}
		if len(run) > 0 {
			clusters = append(clusters, run)
			run = nil
		}
	}
	if len(run) > 0 {
		clusters = append(clusters, run)
	}
	return clusters
}

// ceilMean returns the ceiling of the midpoint of a cluster's first and
// last row, the cluster's representative y-coordinate.
func ceilMean(cluster []int) int {
	sum := cluster[0] + cluster[len(cluster)-1]
	return (sum + 1) / 2
}

// gapBetween computes the vertical whitespace between two clusters: zero if
// they touch or overlap, otherwise the count of rows strictly between them.
func gapBetween(prev, cur []int) int {
	pcMin, pcMax := prev[0], prev[len(prev)-1]
	cMin, cMax := cur[0], cur[len(cur)-1]
	switch {
	case pcMin <= cMin && pcMax <= cMax:
		return rangeLen(pcMax+1, cMin)
	case pcMin >= cMin && pcMax >= cMax:
		return rangeLen(cMax+1, pcMin)
	default:
		return 0
	}
}

func rangeLen(start, stop int) int {
	if stop <= start {
		return 0
	}
	return stop - start
}
