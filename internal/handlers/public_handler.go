package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/massage-booking/internal/httperr"
	"github.com/BruksfildServices01/massage-booking/internal/httpresp"
	"github.com/BruksfildServices01/massage-booking/internal/usecase/studio"
)

////////////////////////////////////////////////////////
// HANDLER
////////////////////////////////////////////////////////

// PublicHandler serves the studio directory to anyone.
type PublicHandler struct {
	studios *studio.Studios
	search  *studio.Search
}

func NewPublicHandler(studios *studio.Studios, search *studio.Search) *PublicHandler {
	return &PublicHandler{studios: studios, search: search}
}

////////////////////////////////////////////////////////
// SEARCH
////////////////////////////////////////////////////////

// Search takes q, city, lat, lng and radius_km. With coordinates the result
// is limited to the radius and sorted nearest first.
func (h *PublicHandler) Search(c *gin.Context) {
	lat, ok := queryFloat(c, "lat")
	if !ok {
		return
	}
	lng, ok := queryFloat(c, "lng")
	if !ok {
		return
	}
	radius, ok := queryFloat(c, "radius_km")
	if !ok {
		return
	}

	in := studio.SearchInput{
		Query: c.Query("q"),
		City:  c.Query("city"),
		Lat:   lat,
		Lng:   lng,
	}
	if radius != nil {
		in.RadiusKm = *radius
	}

	list, err := h.search.Execute(c.Request.Context(), in)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	httpresp.List(c, list)
}

////////////////////////////////////////////////////////
// DETAIL
////////////////////////////////////////////////////////

func (h *PublicHandler) GetStudio(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	s, err := h.studios.Get(c.Request.Context(), id)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	httpresp.OK(c, s)
}
