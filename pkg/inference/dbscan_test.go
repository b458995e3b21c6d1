package inference

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDBSCAN(t *testing.T) {
	tests := []struct {
		name       string
		points     []float64
		eps        float64
		minSamples int
		clusters   int
		labels     []int
	}{
		{
			name:   "empty",
			points: nil, eps: 0.5, minSamples: 5,
			clusters: 0, labels: []int{},
		},
		{
			name:   "too sparse for a core point",
			points: []float64{0, 0, 0, 0}, eps: 0.5, minSamples: 5,
			clusters: 0, labels: []int{Noise, Noise, Noise, Noise},
		},
		{
			name:   "point counts itself",
			points: []float64{0, 0, 0, 0, 0}, eps: 0.5, minSamples: 5,
			clusters: 1, labels: []int{0, 0, 0, 0, 0},
		},
		{
			name:   "eps is inclusive",
			points: []float64{0, 0.5, 1}, eps: 0.5, minSamples: 2,
			clusters: 1, labels: []int{0, 0, 0},
		},
		{
			name:   "two groups and an outlier",
			points: []float64{5, 0, 5.1, 0.1, 9, 0.2, 5.2}, eps: 0.5, minSamples: 3,
			clusters: 2, labels: []int{1, 0, 1, 0, Noise, 0, 1},
		},
		{
			name:   "border point joins the cluster",
			points: []float64{0, 0.1, 0.2, 0.6}, eps: 0.45, minSamples: 3,
			clusters: 1, labels: []int{0, 0, 0, 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			labels, clusters := DBSCAN(tt.points, tt.eps, tt.minSamples)
			assert.Equal(t, tt.clusters, clusters)
			assert.Equal(t, tt.labels, labels)
		})
	}
}

func TestStandardize(t *testing.T) {
	out := Standardize([]float64{1, 10})
	assert.InDelta(t, -1, out[0], 1e-12)
	assert.InDelta(t, 1, out[1], 1e-12)

	assert.Equal(t, []float64{0, 0, 0}, Standardize([]float64{4, 4, 4}))
	assert.Empty(t, Standardize(nil))

	out = Standardize([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	var mean, sq float64
	for _, v := range out {
		mean += v
	}
	mean /= float64(len(out))
	for _, v := range out {
		sq += (v - mean) * (v - mean)
	}
	assert.InDelta(t, 0, mean, 1e-12)
	assert.InDelta(t, 1, math.Sqrt(sq/float64(len(out))), 1e-12)
}
