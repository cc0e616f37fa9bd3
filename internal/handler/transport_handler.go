package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/shikshahub/shiksha-api/internal/models"
	"github.com/shikshahub/shiksha-api/internal/service"
	appErrors "github.com/shikshahub/shiksha-api/pkg/errors"
	"github.com/shikshahub/shiksha-api/pkg/response"
)

// TransportRouteHandler exposes transport route endpoints.
type TransportRouteHandler struct {
	service *service.TransportRouteService
}

// NewTransportRouteHandler constructs a transport route handler.
func NewTransportRouteHandler(svc *service.TransportRouteService) *TransportRouteHandler {
	return &TransportRouteHandler{service: svc}
}

// List godoc
// @Summary List transport routes
// @Tags Transport
// @Produce json
// @Param schoolId query string false "Filter by school"
// @Param active query bool false "Filter by active flag"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /transport-routes [get]
func (h *TransportRouteHandler) List(c *gin.Context) {
	var filter models.TransportRouteFilter
	filter.SchoolID = c.Query("schoolId")
	if active := c.Query("active"); active != "" {
		if val, err := strconv.ParseBool(active); err == nil {
			filter.Active = &val
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	routes, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, routes, pagination)
}

// Get godoc
// @Summary Get a transport route by ID
// @Tags Transport
// @Produce json
// @Param id path string true "Route ID"
// @Success 200 {object} response.Envelope
// @Router /transport-routes/{id} [get]
func (h *TransportRouteHandler) Get(c *gin.Context) {
	route, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, route, nil)
}

// Create godoc
// @Summary Create a transport route
// @Tags Transport
// @Accept json
// @Produce json
// @Param payload body service.CreateTransportRouteRequest true "Route payload"
// @Success 201 {object} response.Envelope
// @Router /transport-routes [post]
func (h *TransportRouteHandler) Create(c *gin.Context) {
	var req service.CreateTransportRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	route, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, route)
}

// Update godoc
// @Summary Update a transport route
// @Tags Transport
// @Accept json
// @Produce json
// @Param id path string true "Route ID"
// @Param payload body service.UpdateTransportRouteRequest true "Route payload"
// @Success 200 {object} response.Envelope
// @Router /transport-routes/{id} [put]
func (h *TransportRouteHandler) Update(c *gin.Context) {
	var req service.UpdateTransportRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	route, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, route, nil)
}

// Delete godoc
// @Summary Delete a transport route
// @Tags Transport
// @Produce json
// @Param id path string true "Route ID"
// @Success 204
// @Router /transport-routes/{id} [delete]
func (h *TransportRouteHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
