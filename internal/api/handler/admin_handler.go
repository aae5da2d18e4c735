package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lifelink/coordination-api/internal/core/ports"
)

// AdminHandler serves operator-only listings.
type AdminHandler struct {
	service ports.WorkflowService
}

func NewAdminHandler(service ports.WorkflowService) *AdminHandler {
	return &AdminHandler{service: service}
}

// Profiles handles GET /v1/admin/profiles.
//
// @Summary      List every profile
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  envelope{data=[]domain.Profile}
// @Failure      403  {object}  errorResponse
// @Router       /v1/admin/profiles [get]
func (h *AdminHandler) Profiles(c echo.Context) error {
	id, err := principalID(c)
	if err != nil {
		return err
	}

	profiles, err := h.service.ListProfiles(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, envelope{Message: fmt.Sprintf("%d profile(s).", len(profiles)), Data: profiles})
}

// Requests handles GET /v1/admin/requests.
//
// @Summary      List every blood request with its recipient's name and email
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  envelope{data=[]ports.RequestWithRecipient}
// @Failure      403  {object}  errorResponse
// @Router       /v1/admin/requests [get]
func (h *AdminHandler) Requests(c echo.Context) error {
	id, err := principalID(c)
	if err != nil {
		return err
	}

	reqs, err := h.service.ListAllRequests(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, envelope{Message: fmt.Sprintf("%d request(s).", len(reqs)), Data: reqs})
}
