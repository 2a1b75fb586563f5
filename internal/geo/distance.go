package geo

import (
	"math"
	"sort"
)

const earthRadiusKm = 6371.0

type Point struct {
	Lat float64
	Lng float64
}

func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// DistanceKm is the great-circle (Haversine) distance between a and b.
func DistanceKm(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

type Ranked[T any] struct {
	Item       T
	DistanceKm float64
}

// WithinRadius keeps the items within radiusKm of center, nearest first.
// Items for which locate reports no position are skipped.
func WithinRadius[T any](items []T, center Point, radiusKm float64, locate func(T) (Point, bool)) []Ranked[T] {
	out := make([]Ranked[T], 0, len(items))
	for _, it := range items {
		p, ok := locate(it)
		if !ok {
			continue
		}
		d := DistanceKm(center, p)
		if d <= radiusKm {
			out = append(out, Ranked[T]{Item: it, DistanceKm: d})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out
}
