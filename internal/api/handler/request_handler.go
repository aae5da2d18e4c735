package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/lifelink/coordination-api/internal/core/domain"
	"github.com/lifelink/coordination-api/internal/core/ports"
)

// RequestHandler handles HTTP requests for blood requests.
type RequestHandler struct {
	service ports.WorkflowService
}

func NewRequestHandler(service ports.WorkflowService) *RequestHandler {
	return &RequestHandler{service: service}
}

// Create handles POST /v1/requests.
//
// @Summary      Open a blood request
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createRequestRequest  true  "Request details"
// @Success      201   {object}  envelope{data=domain.BloodRequest}
// @Failure      403   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /v1/requests [post]
func (h *RequestHandler) Create(c echo.Context) error {
	id, err := principalID(c)
	if err != nil {
		return err
	}

	var req createRequestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	created, err := h.service.CreateRequest(c.Request().Context(), id, toCreateRequestInput(req))
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderLocation, "/v1/requests/"+created.ID)
	return c.JSON(http.StatusCreated, envelope{
		Message: fmt.Sprintf("Blood request for %d unit(s) of %s created.", created.UnitsNeeded, created.BloodGroup),
		Data:    created,
	})
}

// Mine handles GET /v1/requests/mine.
//
// @Summary      List the caller's blood requests, newest first
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  envelope{data=[]domain.BloodRequest}
// @Router       /v1/requests/mine [get]
func (h *RequestHandler) Mine(c echo.Context) error {
	id, err := principalID(c)
	if err != nil {
		return err
	}

	reqs, err := h.service.ListRequestsForRecipient(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, envelope{Message: fmt.Sprintf("%d request(s).", len(reqs)), Data: reqs})
}

// Open handles GET /v1/requests/open?blood_group=.
//
// @Summary      List open requests for a blood group, most urgent first
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        blood_group  query     string  true  "Blood group, e.g. O- or O%2B. A bare + decodes as a space and is read back as +."
// @Success      200          {object}  envelope{data=[]domain.BloodRequest}
// @Failure      422          {object}  errorResponse
// @Router       /v1/requests/open [get]
func (h *RequestHandler) Open(c echo.Context) error {
	group := domain.BloodGroup(bloodGroupParam(c.QueryParam("blood_group")))

	reqs, err := h.service.ListOpenRequestsByBloodGroup(c.Request().Context(), group)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, envelope{Message: fmt.Sprintf("%d open request(s) for %s.", len(reqs), group), Data: reqs})
}

// Get handles GET /v1/requests/:id.
//
// @Summary      Get a blood request
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request id"
// @Success      200  {object}  envelope{data=domain.BloodRequest}
// @Failure      404  {object}  errorResponse
// @Router       /v1/requests/{id} [get]
func (h *RequestHandler) Get(c echo.Context) error {
	req, err := h.service.GetRequest(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, envelope{Message: "Blood request loaded.", Data: req})
}

// SetStatus handles PATCH /v1/requests/:id/status.
//
// @Summary      Fulfil or cancel a blood request
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string         true  "Request id"
// @Param        body  body      statusRequest  true  "Target status"
// @Success      200   {object}  envelope{data=domain.BloodRequest}
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/requests/{id}/status [patch]
func (h *RequestHandler) SetStatus(c echo.Context) error {
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

	updated, err := h.service.SetRequestStatus(c.Request().Context(), c.Param("id"), domain.RequestStatus(body.Status), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, envelope{Message: fmt.Sprintf("Blood request marked %s.", updated.Status), Data: updated})
}

// bloodGroupParam undoes form decoding of an unescaped "O+" into "O ".
func bloodGroupParam(raw string) string {
	return strings.ReplaceAll(raw, " ", "+")
}
