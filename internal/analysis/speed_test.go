package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKmPerMinute(t *testing.T) {
	assert.InDelta(t, 0.3, KmPerMinute(5), 1e-9)
	assert.Zero(t, KmPerMinute(0))
}

func TestSampleSpeed(t *testing.T) {
	times := make([]int, 0)
	vel := make([]float64, 0)
	for s := 0; s <= 900; s += 2 {
		times = append(times, s)
		vel = append(vel, float64(s)/100)
	}

	pts := SampleSpeed(times, vel, ComparisonInterval)
	require.Len(t, pts, 4)
	assert.Equal(t, []int{0, 300, 600, 900}, []int{pts[0].Seconds, pts[1].Seconds, pts[2].Seconds, pts[3].Seconds})
	assert.InDelta(t, KmPerMinute(3), pts[1].Speed, 1e-9)
}

func TestSampleSpeed_GapSkipsMarks(t *testing.T) {
	pts := SampleSpeed([]int{0, 10, 700, 905}, []float64{1, 1, 2, 3}, 300)
	require.Len(t, pts, 3)
	assert.Equal(t, 0, pts[0].Seconds)
	assert.Equal(t, 300, pts[1].Seconds)
	assert.InDelta(t, KmPerMinute(2), pts[1].Speed, 1e-9)
	assert.Equal(t, 900, pts[2].Seconds)
}

func TestSampleSpeed_Empty(t *testing.T) {
	assert.Nil(t, SampleSpeed(nil, nil, 300))
	assert.Nil(t, SampleSpeed([]int{0}, []float64{1}, 0))
}

func TestCompareSpeeds_LongerDefinesAxis(t *testing.T) {
	short := []SpeedPoint{{0, 0.2}, {300, 0.3}}
	long := []SpeedPoint{{0, 0.1}, {300, 0.4}, {600, 0.5}}

	c := CompareSpeeds(short, long)
	assert.False(t, c.FirstLonger)
	assert.Equal(t, []int{0, 5, 10}, c.Minutes)
	assert.Equal(t, []float64{0.2, 0.3, 0}, c.First)
	assert.Equal(t, []float64{0.1, 0.4, 0.5}, c.Second)
}

func TestCompareSpeeds_TieGoesToFirst(t *testing.T) {
	a := []SpeedPoint{{0, 1}, {300, 1}}
	b := []SpeedPoint{{0, 2}, {300, 2}}
	assert.True(t, CompareSpeeds(a, b).FirstLonger)
}
