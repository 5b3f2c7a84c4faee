package analysis

// ComparisonInterval is the spacing of comparison samples, in seconds.
const ComparisonInterval = 5 * 60

// KmPerMinute converts a speed in m/s.
func KmPerMinute(metersPerSecond float64) float64 {
	return metersPerSecond * 60 / 1000
}

// SpeedPoint is the speed at one sampling mark.
type SpeedPoint struct {
	Seconds int
	Speed   float64 // km/min
}

// SampleSpeed picks one velocity sample per interval mark: the first sample
// at or after the mark. Marks past the end of the stream are not produced.
func SampleSpeed(times []int, velocity []float64, interval int) []SpeedPoint {
	n := len(times)
	if len(velocity) < n {
		n = len(velocity)
	}
	if n == 0 || interval <= 0 {
		return nil
	}

	var out []SpeedPoint
	mark := 0
	for i := 0; i < n; i++ {
		if times[i] < mark {
			continue
		}
		out = append(out, SpeedPoint{Seconds: mark, Speed: KmPerMinute(velocity[i])})
		mark += interval
		// A gap in the stream can skip several marks; those stay unsampled.
		for times[i] >= mark {
			mark += interval
		}
	}
	return out
}

// SpeedComparison lines up two sampled activities on the longer one's axis.
type SpeedComparison struct {
	Minutes []int
	First   []float64
	Second  []float64
	// FirstLonger is true when the first activity defines the axis; ties go to the first.
	FirstLonger bool
}

// CompareSpeeds aligns a and b by sample index. Samples missing from the
// shorter activity are 0.
func CompareSpeeds(a, b []SpeedPoint) SpeedComparison {
	firstLonger := lastMark(a) >= lastMark(b)
	axis := a
	if !firstLonger {
		axis = b
	}

	c := SpeedComparison{
		Minutes:     make([]int, len(axis)),
		First:       make([]float64, len(axis)),
		Second:      make([]float64, len(axis)),
		FirstLonger: firstLonger,
	}
	for i, p := range axis {
		c.Minutes[i] = p.Seconds / 60
		if i < len(a) {
			c.First[i] = a[i].Speed
		}
		if i < len(b) {
			c.Second[i] = b[i].Speed
		}
	}
	return c
}

func lastMark(pts []SpeedPoint) int {
	if len(pts) == 0 {
		return -1
	}
	return pts[len(pts)-1].Seconds
}
