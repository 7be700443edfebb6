package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDistributionStats(t *testing.T) {
	even := NewDistributionStats([]float64{10, 10, 10, 10})
	require.InDelta(t, 1.0, even.DistributionQuality, 1e-9)
	require.InDelta(t, 0.0, even.StdDeviation, 1e-9)

	skewed := NewDistributionStats([]float64{0, 0, 0, 40})
	require.Less(t, skewed.DistributionQuality, 0.5)

	require.Equal(t, Stats{}, NewStats(nil))
}

func TestSizeHistogram(t *testing.T) {
	h := NewSizeHistogram()
	require.Equal(t, 0, h.MedianEstimate())

	for i := 0; i < 99; i++ {
		h.AddSample(100) // bucket (64, 256]
	}
	h.AddSample(10_000) // bucket (4096, 16384]

	require.Equal(t, int64(100), h.GetCount())
	require.Equal(t, int64(99*100+10_000), h.TotalSize())
	require.Equal(t, (64+256)/2, h.MedianEstimate())
	require.Equal(t, (4096+16384)/2, h.GetPercentileEstimate(100))
	require.Equal(t, 0, h.GetPercentileEstimate(101))
}

func TestShardIndexInRange(t *testing.T) {
	seed := GenerateSeed()
	for _, key := range []string{"", "a", "record/00000000000000000001", "__id_counter"} {
		idx := ShardIndex(HashString(key, seed), 7)
		require.GreaterOrEqual(t, idx, 0)
		require.Less(t, idx, 7)
	}
	require.Equal(t, HashString("x", 1), HashString("x", 1))
	require.NotEqual(t, HashString("x", 1), HashString("x", 2))
}
