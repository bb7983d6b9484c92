package route

import (
	"context"
	"log"
	"math"

	"github.com/kacan98/weather/internal/common"
)

const (
	earthRadiusKm = 6371.0

	// cyclingDetourFactor pads the straight-line distance to account for
	// roads, paths and detours on a real cycling route.
	cyclingDetourFactor = 1.15

	// minutesPerKm assumes roughly 15 km/h average cycling speed.
	minutesPerKm = 4.0

	// fallbackPointCount is the fixed number of points produced by the
	// straight-line fallback.
	fallbackPointCount = 5

	// sampledPointCount is the target point count when simplifying a
	// provider's dense route geometry for weather sampling.
	sampledPointCount = 12
)

// Coordinate is a latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Point is a coordinate with its normalized position along the route.
// Progress is in [0,1], monotonically non-decreasing; the first point has
// progress 0 and the last progress 1.
type Point struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Progress float64 `json:"progress"`
}

// Route is an ordered point sequence plus its metadata.
type Route struct {
	Points              []Point `json:"points"`
	DistanceKm          float64 `json:"distanceKm"`
	DurationEstimateMin int     `json:"durationEstimateMin"`
	Source              string  `json:"source"`
}

// Provider fetches cycling route geometry from an external routing backend.
type Provider interface {
	Name() string
	FetchRoute(ctx context.Context, start, end Coordinate) (Route, error)
}

// Sampler produces weather-sampling points for a start/end pair. It tries
// the configured route providers in order and falls back to a deterministic
// straight-line interpolation when every provider fails.
type Sampler struct {
	providers []Provider
}

func NewSampler(providers ...Provider) *Sampler {
	return &Sampler{providers: providers}
}

// Sample never fails: provider errors are logged and the straight-line
// fallback is used instead.
func (s *Sampler) Sample(ctx context.Context, start, end Coordinate) Route {
	for _, p := range s.providers {
		r, err := p.FetchRoute(ctx, start, end)
		if err != nil {
			log.Printf("WARN: route provider %s failed, falling back: %v", p.Name(), err)
			continue
		}
		log.Printf("INFO: route resolved via %s with %d points", p.Name(), len(r.Points))
		return r
	}
	return straightLine(start, end)
}

// straightLine interpolates a fixed number of evenly spaced points between
// start and end.
func straightLine(start, end Coordinate) Route {
	points := make([]Point, fallbackPointCount)
	for i := range points {
		progress := float64(i) / float64(fallbackPointCount-1)
		points[i] = Point{
			Lat:      start.Lat + (end.Lat-start.Lat)*progress,
			Lng:      start.Lng + (end.Lng-start.Lng)*progress,
			Progress: progress,
		}
	}

	distance := common.Round1(Haversine(start, end) * cyclingDetourFactor)
	return Route{
		Points:              points,
		DistanceKm:          distance,
		DurationEstimateMin: int(math.Round(distance * minutesPerKm)),
		Source:              "fallback",
	}
}

// Haversine returns the great-circle distance between two coordinates in km.
func Haversine(a, b Coordinate) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

// TotalDistance sums the haversine distance over consecutive points.
func TotalDistance(points []Point) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += Haversine(
			Coordinate{Lat: points[i-1].Lat, Lng: points[i-1].Lng},
			Coordinate{Lat: points[i].Lat, Lng: points[i].Lng},
		)
	}
	return total
}

// Simplify reduces a dense geometry to roughly targetCount points by
// walking cumulative great-circle distance and emitting a point each time
// an equal-length segment is passed. First and last points are always
// retained and progress values are recomputed afterwards.
func Simplify(points []Point, targetCount int) []Point {
	if len(points) <= targetCount {
		return renumber(points)
	}

	simplified := []Point{points[0]}
	total := TotalDistance(points)
	segment := total / float64(targetCount-1)

	walked := 0.0
	target := segment
	for i := 1; i < len(points)-1; i++ {
		walked += Haversine(
			Coordinate{Lat: points[i-1].Lat, Lng: points[i-1].Lng},
			Coordinate{Lat: points[i].Lat, Lng: points[i].Lng},
		)
		if walked >= target && len(simplified) < targetCount-1 {
			simplified = append(simplified, points[i])
			target += segment
		}
	}
	simplified = append(simplified, points[len(points)-1])

	return renumber(simplified)
}

// renumber rewrites progress as index/(len-1).
func renumber(points []Point) []Point {
	if len(points) == 0 {
		return points
	}
	if len(points) == 1 {
		points[0].Progress = 0
		return points
	}
	out := make([]Point, len(points))
	for i, p := range points {
		p.Progress = float64(i) / float64(len(points)-1)
		out[i] = p
	}
	return out
}

// routeFromGeometry converts raw lng/lat geometry into a sampled Route.
func routeFromGeometry(coords [][]float64, source string) Route {
	points := make([]Point, 0, len(coords))
	for i, c := range coords {
		if len(c) < 2 {
			continue
		}
		progress := 0.0
		if len(coords) > 1 {
			progress = float64(i) / float64(len(coords)-1)
		}
		// Routing backends emit lng,lat order.
		points = append(points, Point{Lat: c[1], Lng: c[0], Progress: progress})
	}

	sampled := Simplify(points, sampledPointCount)
	distance := common.Round1(TotalDistance(sampled))
	return Route{
		Points:              sampled,
		DistanceKm:          distance,
		DurationEstimateMin: int(math.Round(distance * minutesPerKm)),
		Source:              source,
	}
}
