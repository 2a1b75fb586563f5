package studio

import (
	"context"
	"math"

	"github.com/BruksfildServices01/massage-booking/internal/domain/studio"
	"github.com/BruksfildServices01/massage-booking/internal/geo"
	"github.com/BruksfildServices01/massage-booking/internal/httperr"
	"github.com/BruksfildServices01/massage-booking/internal/models"
)

const (
	DefaultRadiusKm = 25.0
	MaxRadiusKm     = 200.0
)

type SearchInput struct {
	Query    string
	City     string
	Lat      *float64
	Lng      *float64
	RadiusKm float64
}

type SearchResult struct {
	models.Studio
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

type Search struct {
	repo studio.Repository
}

func NewSearch(repo studio.Repository) *Search {
	return &Search{repo: repo}
}

// Execute runs the text filter in the database and, when a position is
// given, narrows the result to the radius sorted nearest first.
func (uc *Search) Execute(ctx context.Context, in SearchInput) ([]SearchResult, error) {
	if (in.Lat == nil) != (in.Lng == nil) {
		return nil, httperr.Invalid("lat", "lat and lng must be given together")
	}

	list, err := uc.repo.Search(ctx, studio.SearchFilter{Query: in.Query, City: in.City})
	if err != nil {
		return nil, err
	}

	if in.Lat == nil {
		out := make([]SearchResult, 0, len(list))
		for _, s := range list {
			out = append(out, SearchResult{Studio: s})
		}
		return out, nil
	}

	center := geo.Point{Lat: *in.Lat, Lng: *in.Lng}
	if !center.Valid() {
		return nil, httperr.Invalid("lat", "is out of range")
	}

	radius := in.RadiusKm
	if radius <= 0 {
		radius = DefaultRadiusKm
	}
	radius = math.Min(radius, MaxRadiusKm)

	ranked := geo.WithinRadius(list, center, radius, func(s models.Studio) (geo.Point, bool) {
		if s.Latitude == nil || s.Longitude == nil {
			return geo.Point{}, false
		}
		return geo.Point{Lat: *s.Latitude, Lng: *s.Longitude}, true
	})

	out := make([]SearchResult, 0, len(ranked))
	for _, r := range ranked {
		d := math.Round(r.DistanceKm*10) / 10
		out = append(out, SearchResult{Studio: r.Item, DistanceKm: &d})
	}
	return out, nil
}
