package analysis

import (
	"errors"

	"github.com/paulmach/orb"
)

// ErrBadPolyline is returned for truncated encoded polylines.
var ErrBadPolyline = errors.New("malformed polyline")

// DecodePolyline decodes a Google encoded polyline (precision 5) into an
// orb.LineString of lng/lat points.
func DecodePolyline(encoded string) (orb.LineString, error) {
	var (
		line     orb.LineString
		lat, lng int
		i        int
	)
	for i < len(encoded) {
		dlat, n, err := decodeValue(encoded, i)
		if err != nil {
			return nil, err
		}
		i = n
		dlng, n, err := decodeValue(encoded, i)
		if err != nil {
			return nil, err
		}
		i = n

		lat += dlat
		lng += dlng
		line = append(line, orb.Point{float64(lng) / 1e5, float64(lat) / 1e5})
	}
	return line, nil
}

func decodeValue(s string, i int) (int, int, error) {
	var result, shift int
	for {
		if i >= len(s) {
			return 0, i, ErrBadPolyline
		}
		b := int(s[i]) - 63
		i++
		if b < 0 {
			return 0, i, ErrBadPolyline
		}
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}
	if result&1 != 0 {
		return ^(result >> 1), i, nil
	}
	return result >> 1, i, nil
}
