package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/massage-booking/internal/domain"
	"github.com/BruksfildServices01/massage-booking/internal/domain/identity"
	"github.com/BruksfildServices01/massage-booking/internal/domain/rbac"
	"github.com/BruksfildServices01/massage-booking/internal/httperr"
	"github.com/BruksfildServices01/massage-booking/internal/httpresp"
	"github.com/BruksfildServices01/massage-booking/internal/middleware"
	"github.com/BruksfildServices01/massage-booking/internal/usecase/account"
	"github.com/BruksfildServices01/massage-booking/internal/usecase/studio"
)

type MeHandler struct {
	users     identity.Repository
	export    *account.Export
	erase     *account.Erase
	favorites *studio.Favorites
	cookie    CookieConfig
}

func NewMeHandler(
	users identity.Repository,
	export *account.Export,
	erase *account.Erase,
	favorites *studio.Favorites,
	cookie CookieConfig,
) *MeHandler {
	return &MeHandler{
		users:     users,
		export:    export,
		erase:     erase,
		favorites: favorites,
		cookie:    cookie,
	}
}

func (h *MeHandler) GetMe(c *gin.Context) {
	p := middleware.Principal(c)

	user, err := h.users.FindByID(c.Request.Context(), p.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			err = httperr.ErrBusiness(httperr.CodeUserNotFound)
		}
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":        user,
		"roles":       p.Roles,
		"permissions": rbac.Effective(p.Roles),
	})
}

// ======================================================
// GDPR
// ======================================================

// Export is served as a file download.
func (h *MeHandler) Export(c *gin.Context) {
	p := middleware.Principal(c)

	out, err := h.export.Execute(c.Request.Context(), p.UserID, c.ClientIP())
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	name := fmt.Sprintf("data-export-%d-%s.json", p.UserID, time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Header("Cache-Control", "no-store")
	c.IndentedJSON(http.StatusOK, out)
}

func (h *MeHandler) Delete(c *gin.Context) {
	p := middleware.Principal(c)

	if err := h.erase.Execute(c.Request.Context(), p.UserID, c.ClientIP()); err != nil {
		httperr.Respond(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", h.cookie.Domain, h.cookie.Secure, true)
	httpresp.OK(c, gin.H{"success": true, "message": "Your account and personal data were deleted."})
}

// ======================================================
// FAVORITES
// ======================================================

func (h *MeHandler) ListFavorites(c *gin.Context) {
	list, err := h.favorites.List(c.Request.Context(), middleware.Principal(c).UserID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	httpresp.List(c, list)
}

func (h *MeHandler) AddFavorite(c *gin.Context) {
	studioID, ok := paramID(c, "studioId")
	if !ok {
		return
	}

	if err := h.favorites.Add(c.Request.Context(), middleware.Principal(c).UserID, studioID); err != nil {
		httperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *MeHandler) RemoveFavorite(c *gin.Context) {
	studioID, ok := paramID(c, "studioId")
	if !ok {
		return
	}

	if err := h.favorites.Remove(c.Request.Context(), middleware.Principal(c).UserID, studioID); err != nil {
		httperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
