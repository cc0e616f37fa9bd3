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

// FeeStructureHandler exposes fee structure endpoints.
type FeeStructureHandler struct {
	service *service.FeeStructureService
}

// NewFeeStructureHandler constructs a fee structure handler.
func NewFeeStructureHandler(svc *service.FeeStructureService) *FeeStructureHandler {
	return &FeeStructureHandler{service: svc}
}

// List godoc
// @Summary List fee structures
// @Tags Fees
// @Produce json
// @Param schoolId query string false "Filter by school"
// @Param sessionId query string false "Filter by academic session"
// @Param gradeId query string false "Filter by grade"
// @Param active query bool false "Filter by active flag"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /fee-structures [get]
func (h *FeeStructureHandler) List(c *gin.Context) {
	var filter models.FeeStructureFilter
	filter.SchoolID = c.Query("schoolId")
	filter.AcademicSessionID = c.Query("sessionId")
	filter.GradeID = c.Query("gradeId")
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

	fees, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fees, pagination)
}

// Get godoc
// @Summary Get a fee structure by ID
// @Tags Fees
// @Produce json
// @Param id path string true "Fee structure ID"
// @Success 200 {object} response.Envelope
// @Router /fee-structures/{id} [get]
func (h *FeeStructureHandler) Get(c *gin.Context) {
	fee, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fee, nil)
}

// Create godoc
// @Summary Create a fee structure
// @Tags Fees
// @Accept json
// @Produce json
// @Param payload body service.CreateFeeStructureRequest true "Fee payload"
// @Success 201 {object} response.Envelope
// @Router /fee-structures [post]
func (h *FeeStructureHandler) Create(c *gin.Context) {
	var req service.CreateFeeStructureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	fee, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, fee)
}

// Update godoc
// @Summary Update a fee structure
// @Tags Fees
// @Accept json
// @Produce json
// @Param id path string true "Fee structure ID"
// @Param payload body service.UpdateFeeStructureRequest true "Fee payload"
// @Success 200 {object} response.Envelope
// @Router /fee-structures/{id} [put]
func (h *FeeStructureHandler) Update(c *gin.Context) {
	var req service.UpdateFeeStructureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	fee, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fee, nil)
}

// Delete godoc
// @Summary Delete a fee structure
// @Tags Fees
// @Produce json
// @Param id path string true "Fee structure ID"
// @Success 204
// @Router /fee-structures/{id} [delete]
func (h *FeeStructureHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
