package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lifelink/coordination-api/internal/core/domain"
	"github.com/lifelink/coordination-api/internal/core/ports"
)

// InterestHandler handles HTTP requests for donation interests.
type InterestHandler struct {
	service ports.WorkflowService
}

func NewInterestHandler(service ports.WorkflowService) *InterestHandler {
	return &InterestHandler{service: service}
}

// Express handles POST /v1/requests/:id/interests.
//
// @Summary      Offer to donate for a blood request
// @Tags         interests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request id"
// @Success      201  {object}  envelope{data=domain.DonationInterest}
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse  "request closed or interest already recorded"
// @Router       /v1/requests/{id}/interests [post]
func (h *InterestHandler) Express(c echo.Context) error {
	id, err := principalID(c)
	if err != nil {
		return err
	}

	in, err := h.service.ExpressInterest(c.Request().Context(), id, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, envelope{
		Message: "Thank you. The recipient has been told you can donate.",
		Data:    in,
	})
}

// ListForRequest handles GET /v1/requests/:id/interests.
//
// @Summary      List interests received by a request with donor contact details, oldest first
// @Tags         interests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request id"
// @Success      200  {object}  envelope{data=[]ports.InterestWithDonor}
// @Failure      403  {object}  errorResponse  "caller does not own the request"
// @Failure      404  {object}  errorResponse
// @Router       /v1/requests/{id}/interests [get]
func (h *InterestHandler) ListForRequest(c echo.Context) error {
	id, err := principalID(c)
	if err != nil {
		return err
	}

	interests, err := h.service.ListInterestsForRequest(c.Request().Context(), c.Param("id"), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, envelope{Message: fmt.Sprintf("%d interest(s).", len(interests)), Data: interests})
}

// Mine handles GET /v1/interests/mine.
//
// @Summary      List the caller's donation interests, newest first
// @Tags         interests
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  envelope{data=[]domain.DonationInterest}
// @Router       /v1/interests/mine [get]
func (h *InterestHandler) Mine(c echo.Context) error {
	id, err := principalID(c)
	if err != nil {
		return err
	}

	interests, err := h.service.ListInterestsForDonor(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, envelope{Message: fmt.Sprintf("%d interest(s).", len(interests)), Data: interests})
}

// SetStatus handles PATCH /v1/interests/:id/status.
//
// @Summary      Confirm, complete or cancel a donation interest
// @Tags         interests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string         true  "Interest id"
// @Param        body  body      statusRequest  true  "Target status"
// @Success      200   {object}  envelope{data=domain.DonationInterest}
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/interests/{id}/status [patch]
func (h *InterestHandler) SetStatus(c echo.Context) error {
	id, err := principalID(c)
	if err != nil {
		return err
	}

	var body statusRequest
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&body); err != nil {
		return err
	}

	updated, err := h.service.SetInterestStatus(c.Request().Context(), c.Param("id"), domain.InterestStatus(body.Status), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, envelope{Message: fmt.Sprintf("Donation marked %s.", updated.Status), Data: updated})
}
