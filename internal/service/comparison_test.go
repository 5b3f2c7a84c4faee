package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strava-dashboard/internal/strava"
)

type fakeStreams map[int64]*strava.Streams

func (f fakeStreams) GetActivityStreams(ctx context.Context, id int64, keys ...string) (*strava.Streams, error) {
	if s, ok := f[id]; ok {
		return s, nil
	}
	return nil, &strava.HTTPError{Status: 404, Body: "Record Not Found"}
}

func steadyStreams(seconds int, speed float64) *strava.Streams {
	s := &strava.Streams{
		Time:           &strava.StreamData[int]{},
		VelocitySmooth: &strava.StreamData[float64]{},
	}
	for t := 0; t <= seconds; t++ {
		s.Time.Data = append(s.Time.Data, t)
		s.VelocitySmooth.Data = append(s.VelocitySmooth.Data, speed)
	}
	return s
}

func TestCompare(t *testing.T) {
	src := fakeStreams{
		1: steadyStreams(600, 5),
		2: steadyStreams(1200, 10),
	}

	c, err := NewComparisonService(src, zerolog.Nop()).Compare(context.Background(), 1, 2)
	require.NoError(t, err)

	assert.False(t, c.FirstLonger)
	assert.Equal(t, []int{0, 5, 10, 15, 20}, c.Minutes)
	assert.InDeltaSlice(t, []float64{0.3, 0.3, 0.3, 0, 0}, c.First, 1e-9)
	assert.InDeltaSlice(t, []float64{0.6, 0.6, 0.6, 0.6, 0.6}, c.Second, 1e-9)
}

func TestCompare_MissingVelocity(t *testing.T) {
	src := fakeStreams{
		1: steadyStreams(600, 5),
		2: {Time: &strava.StreamData[int]{Data: []int{0, 1}}},
	}

	_, err := NewComparisonService(src, zerolog.Nop()).Compare(context.Background(), 1, 2)
	assert.ErrorIs(t, err, ErrNoVelocity)
}

func TestCompare_FetchError(t *testing.T) {
	src := fakeStreams{1: steadyStreams(600, 5)}

	_, err := NewComparisonService(src, zerolog.Nop()).Compare(context.Background(), 1, 99)
	var he *strava.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, 404, he.Status)
}
