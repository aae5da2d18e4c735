package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lifelink/coordination-api/internal/core/ports"
)

// ProfileHandler serves the caller's own profile and dashboard.
type ProfileHandler struct {
	service ports.WorkflowService
}

func NewProfileHandler(service ports.WorkflowService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// Get handles GET /v1/profile.
//
// @Summary      Get the caller's profile
// @Tags         profile
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  envelope{data=domain.Profile}
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/profile [get]
func (h *ProfileHandler) Get(c echo.Context) error {
	id, err := principalID(c)
	if err != nil {
		return err
	}

	p, err := h.service.GetProfile(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, envelope{Message: "Profile loaded.", Data: p})
}

// Update handles PATCH /v1/profile. Omitted fields are left unchanged.
//
// @Summary      Update the caller's profile
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateProfileRequest  true  "Fields to change"
// @Success      200   {object}  envelope{data=domain.Profile}
// @Failure      403   {object}  errorResponse  "role change attempted"
// @Failure      422   {object}  errorResponse
// @Router       /v1/profile [patch]
func (h *ProfileHandler) Update(c echo.Context) error {
	id, err := principalID(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	p, err := h.service.UpdateProfile(c.Request().Context(), id, toProfilePatch(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, envelope{Message: "Profile updated.", Data: p})
}

// Dashboard handles GET /v1/dashboard.
//
// @Summary      Role-specific landing view
// @Tags         profile
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  envelope{data=dashboardResponse}
// @Failure      403  {object}  errorResponse
// @Router       /v1/dashboard [get]
func (h *ProfileHandler) Dashboard(c echo.Context) error {
	id, err := principalID(c)
	if err != nil {
		return err
	}

	d, err := h.service.Dashboard(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, envelope{Message: "Dashboard loaded.", Data: toDashboardResponse(d)})
}
