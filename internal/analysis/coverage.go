package analysis

import (
	"errors"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
)

const (
	metersPerDegreeLat = 111_320.0
	MetersPerMile      = 1609.34

	// DefaultCellMeters is the side of one coverage grid cell.
	DefaultCellMeters = 250.0
	circleVertices    = 64
)

// Route is one activity's decoded track.
type Route struct {
	ActivityID int64
	Name       string
	Line       orb.LineString
}

// CoverageArea is a circle split into square cells.
type CoverageArea struct {
	Center       orb.Point // lng, lat
	RadiusMeters float64
	CellMeters   float64
}

// CoverageResult counts grid cells inside the circle and those a route touched.
type CoverageResult struct {
	TotalCells   int
	VisitedCells int
	// RoutesInArea counts routes that touched at least one cell.
	RoutesInArea int
	// Visited holds the bounds of each touched cell.
	Visited []orb.Bound
}

// Percent is the share of cells visited, 0 to 100.
func (r CoverageResult) Percent() float64 {
	if r.TotalCells == 0 {
		return 0
	}
	return float64(r.VisitedCells) / float64(r.TotalCells) * 100
}

type cellKey struct{ i, j int }

type grid struct {
	area    CoverageArea
	latStep float64
	lngStep float64
	n       int
	inside  map[cellKey]bool
}

func newGrid(area CoverageArea) (*grid, error) {
	if area.RadiusMeters <= 0 {
		return nil, errors.New("coverage radius must be positive")
	}
	if area.CellMeters <= 0 {
		area.CellMeters = DefaultCellMeters
	}
	lat := area.Center.Lat()
	if math.Abs(lat) > 85 {
		return nil, errors.New("coverage center too close to a pole")
	}

	g := &grid{
		area:    area,
		latStep: area.CellMeters / metersPerDegreeLat,
		lngStep: area.CellMeters / (metersPerDegreeLat * math.Cos(lat*math.Pi/180)),
		n:       int(math.Ceil(area.RadiusMeters / area.CellMeters)),
		inside:  make(map[cellKey]bool),
	}
	for i := -g.n; i <= g.n; i++ {
		for j := -g.n; j <= g.n; j++ {
			if geo.Distance(area.Center, g.center(cellKey{i, j})) <= area.RadiusMeters {
				g.inside[cellKey{i, j}] = true
			}
		}
	}
	return g, nil
}

func (g *grid) center(k cellKey) orb.Point {
	return orb.Point{
		g.area.Center.Lon() + float64(k.j)*g.lngStep,
		g.area.Center.Lat() + float64(k.i)*g.latStep,
	}
}

func (g *grid) bound(k cellKey) orb.Bound {
	c := g.center(k)
	return orb.Bound{
		Min: orb.Point{c.Lon() - g.lngStep/2, c.Lat() - g.latStep/2},
		Max: orb.Point{c.Lon() + g.lngStep/2, c.Lat() + g.latStep/2},
	}
}

func (g *grid) extent() orb.Bound {
	span := float64(g.n) + 0.5
	c := g.area.Center
	return orb.Bound{
		Min: orb.Point{c.Lon() - span*g.lngStep, c.Lat() - span*g.latStep},
		Max: orb.Point{c.Lon() + span*g.lngStep, c.Lat() + span*g.latStep},
	}
}

func (g *grid) cellOf(p orb.Point) (cellKey, bool) {
	k := cellKey{
		i: int(math.Round((p.Lat() - g.area.Center.Lat()) / g.latStep)),
		j: int(math.Round((p.Lon() - g.area.Center.Lon()) / g.lngStep)),
	}
	return k, g.inside[k]
}

// ComputeCoverage reports how much of the area the routes pass through. Route
// segments are sampled every half cell so fast sparse tracks still mark the
// cells they cross.
func ComputeCoverage(area CoverageArea, routes []Route) (CoverageResult, error) {
	g, err := newGrid(area)
	if err != nil {
		return CoverageResult{}, err
	}

	extent := g.extent()
	step := g.area.CellMeters / 2
	visited := make(map[cellKey]bool)
	var result CoverageResult

	for _, r := range routes {
		touched := false
		mark := func(p orb.Point) {
			if k, ok := g.cellOf(p); ok {
				visited[k] = true
				touched = true
			}
		}

		if len(r.Line) == 1 {
			mark(r.Line[0])
		}
		for i := 1; i < len(r.Line); i++ {
			a, b := r.Line[i-1], r.Line[i]
			seg := orb.MultiPoint{a, b}
			if !seg.Bound().Intersects(extent) {
				continue
			}
			samples := int(math.Ceil(geo.Distance(a, b) / step))
			if samples < 1 {
				samples = 1
			}
			for s := 0; s <= samples; s++ {
				t := float64(s) / float64(samples)
				mark(orb.Point{a.Lon() + (b.Lon()-a.Lon())*t, a.Lat() + (b.Lat()-a.Lat())*t})
			}
		}
		if touched {
			result.RoutesInArea++
		}
	}

	keys := make([]cellKey, 0, len(visited))
	for k := range visited {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(x, y int) bool {
		if keys[x].i != keys[y].i {
			return keys[x].i < keys[y].i
		}
		return keys[x].j < keys[y].j
	})
	for _, k := range keys {
		result.Visited = append(result.Visited, g.bound(k))
	}

	result.TotalCells = len(g.inside)
	result.VisitedCells = len(visited)
	return result, nil
}

// CirclePolygon approximates the area boundary.
func CirclePolygon(center orb.Point, radiusMeters float64) orb.Polygon {
	ring := make(orb.Ring, 0, circleVertices+1)
	for i := 0; i < circleVertices; i++ {
		bearing := float64(i) * 360 / circleVertices
		ring = append(ring, geo.PointAtBearingAndDistance(center, bearing, radiusMeters))
	}
	ring = append(ring, ring[0])
	return orb.Polygon{ring}
}

// CoverageGeoJSON renders the area, the visited cells and the routes as a
// FeatureCollection.
func CoverageGeoJSON(area CoverageArea, result CoverageResult, routes []Route) ([]byte, error) {
	fc := geojson.NewFeatureCollection()

	circle := geojson.NewFeature(CirclePolygon(area.Center, area.RadiusMeters))
	circle.Properties["kind"] = "area"
	circle.Properties["radius_m"] = area.RadiusMeters
	circle.Properties["coverage_pct"] = math.Round(result.Percent()*100) / 100
	fc.Append(circle)

	for _, b := range result.Visited {
		cell := geojson.NewFeature(b.ToPolygon())
		cell.Properties["kind"] = "cell"
		fc.Append(cell)
	}

	for _, r := range routes {
		if len(r.Line) < 2 {
			continue
		}
		f := geojson.NewFeature(r.Line)
		f.Properties["kind"] = "route"
		f.Properties["activity_id"] = r.ActivityID
		f.Properties["name"] = r.Name
		fc.Append(f)
	}

	return fc.MarshalJSON()
}
