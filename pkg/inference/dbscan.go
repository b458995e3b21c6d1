package inference

import (
	"math"
	"sort"
)

// Noise is the cluster label of points that belong to no cluster.
const Noise = -1

// DBSCAN clusters one-dimensional points. A point is a core point when at
// least minSamples points, itself included, lie within eps of it. It returns
// one label per point, Noise for outliers, and the number of clusters.
func DBSCAN(points []float64, eps float64, minSamples int) ([]int, int) {
	n := len(points)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = Noise
	}
	if n == 0 {
		return labels, 0
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return points[order[a]] < points[order[b]] })

	// neighbours of sorted position p form the window [lo[p], hi[p])
	lo := make([]int, n)
	hi := make([]int, n)
	l, h := 0, 0
	for p := 0; p < n; p++ {
		x := points[order[p]]
		for x-points[order[l]] > eps {
			l++
		}
		if h < p+1 {
			h = p + 1
		}
		for h < n && points[order[h]]-x <= eps {
			h++
		}
		lo[p], hi[p] = l, h
	}

	core := make([]bool, n)
	for p := 0; p < n; p++ {
		core[p] = hi[p]-lo[p] >= minSamples
	}

	sortedLabels := make([]int, n)
	for p := range sortedLabels {
		sortedLabels[p] = Noise
	}
	clusters := 0
	for p := 0; p < n; p++ {
		if !core[p] || sortedLabels[p] != Noise {
			continue
		}
		// expand: in one dimension a cluster is a contiguous sorted range
		// reachable through core points
		label := clusters
		clusters++
		queue := []int{p}
		sortedLabels[p] = label
		for len(queue) > 0 {
			q := queue[0]
			queue = queue[1:]
			if !core[q] {
				continue
			}
			for r := lo[q]; r < hi[q]; r++ {
				if sortedLabels[r] == Noise {
					sortedLabels[r] = label
					queue = append(queue, r)
				}
			}
		}
	}

	for p, idx := range order {
		labels[idx] = sortedLabels[p]
	}
	return labels, clusters
}

// Standardize scales values to zero mean and unit population variance.
// A constant input maps to all zeros.
func Standardize(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	std := math.Sqrt(sq / float64(len(values)))
	if std == 0 {
		std = 1
	}
	for i, v := range values {
		out[i] = (v - mean) / std
	}
	return out
}
