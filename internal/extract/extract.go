// Package extract recovers trace polylines from a binarized ECG chart. It
// is a dynamic-programming tracer: for each column it links every ink
// cluster to the previous column's cluster that best continues each of the
// chart's n traces, then backtracks from the longest, most on-target chain.
// The memo table is keyed by (column, cluster-index) rather than by the
// cluster's row contents, so lookups never hash a variable-length slice.
package extract

import (
	"math"

	"github.com/ecgtrace/digitizer/pkg/geom"
	"github.com/ecgtrace/digitizer/pkg/imaging"
)

// ExtractSignals returns n raw polylines, one per expected trace row,
// recovered from img's ink pixels. Each polyline is a sequence of points
// with strictly increasing X; columns with no continuable ink are simply
// absent, not interpolated here.
func ExtractSignals(img imaging.Image, n int) ([][]geom.Point, error) {
	width := img.Width()

	rois, err := detectROI(img, n)
	if err != nil {
		return nil, err
	}

	clustersByCol := make([][][]int, width)
	for col := 0; col < width; col++ {
		clustersByCol[col] = columnClusters(img, col)
	}

	cache := newSignalCache()

	for col := 1; col < width; col++ {
		prevClusters := clustersByCol[col-1]
		if len(prevClusters) == 0 {
			continue
		}
		clusters := clustersByCol[col]
		for cIdx, c := range clusters {
			entries := make([]cacheEntry, n)
			for roiI := 0; roiI < n; roiI++ {
				bestPC := -1
				bestCost := math.Inf(1)
				for pcIdx, pc := range prevClusters {
					nodeEntries := cache.getOrInit(cacheKey{col - 1, pcIdx}, clustersByCol, n)
					ps := nodeEntries[roiI].score
					ctr := ceilMean(pc)
					d := math.Abs(float64(ctr - rois[roiI]))
					g := float64(gapBetween(pc, c))
					cost := ps + d + float64(width)/10*g
					if cost < bestCost {
						bestCost = cost
						bestPC = pcIdx
					}
				}
				predEntries, _ := cache.get(cacheKey{col - 1, bestPC})
				entries[roiI] = cacheEntry{
					y:       ceilMean(prevClusters[bestPC]),
					hasPred: true,
					predCol: col - 1,
					predIdx: bestPC,
					length:  predEntries[roiI].length + 1,
					score:   bestCost,
				}
			}
			cache.set(cacheKey{col, cIdx}, entries)
		}
	}

	return backtrack(cache, clustersByCol, rois, n), nil
}

// backtrack walks the memo table backward from the longest, most
// ROI-centered chain for each trace, then corrects spurious QRS-spike
// undershoot at local extrema of the path's distance from its ROI.
func backtrack(cache *signalCache, clustersByCol [][][]int, rois []int, n int) [][]geom.Point {
	signals := make([][]geom.Point, n)

	for roiI := 0; roiI < n; roiI++ {
		maxLen := 0
		for _, k := range cache.order {
			entries, _ := cache.get(k)
			if l := entries[roiI].length; l > maxLen {
				maxLen = l
			}
		}

		var bestKey cacheKey
		bestDist := math.Inf(1)
		found := false
		for _, k := range cache.order {
			entries, _ := cache.get(k)
			if entries[roiI].length != maxLen {
				continue
			}
			cluster := clustersByCol[k.col][k.idx]
			dist := math.Abs(float64(ceilMean(cluster) - rois[roiI]))
			if !found || dist < bestDist {
				bestDist = dist
				bestKey = k
				found = true
			}
		}
		if !found {
			continue
		}

		var points []geom.Point
		var clusters [][]int
		cur, haveCur := bestKey, true
		for haveCur {
			entries, _ := cache.get(cur)
			entry := entries[roiI]
			points = append(points, geom.Point{X: cur.col, Y: entry.y})
			clusters = append(clusters, clustersByCol[cur.col][cur.idx])
			if entry.hasPred {
				cur = cacheKey{entry.predCol, entry.predIdx}
			} else {
				haveCur = false
			}
		}
		for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
			points[i], points[j] = points[j], points[i]
			clusters[i], clusters[j] = clusters[j], clusters[i]
		}

		roiDist := make([]float64, len(points))
		for i, p := range points {
			roiDist[i] = math.Abs(float64(p.Y - rois[roiI]))
		}
		for _, p := range findPeaks(roiDist, 1) {
			if p == 0 {
				continue
			}
			cluster := clusters[p-1]
			farthest := cluster[0]
			bestAbs := math.Abs(float64(farthest - rois[roiI]))
			for _, row := range cluster {
				if d := math.Abs(float64(row - rois[roiI])); d > bestAbs {
					bestAbs = d
					farthest = row
				}
			}
			points[p].Y = farthest
		}

		signals[roiI] = points
	}

	return signals
}
