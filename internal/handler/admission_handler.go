package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/shikshahub/shiksha-api/internal/models"
	"github.com/shikshahub/shiksha-api/internal/service"
	appErrors "github.com/shikshahub/shiksha-api/pkg/errors"
	"github.com/shikshahub/shiksha-api/pkg/response"
)

// AdmissionHandler exposes student admission endpoints.
type AdmissionHandler struct {
	service *service.AdmissionService
	letters *service.LetterService
}

// NewAdmissionHandler constructs an admission handler.
func NewAdmissionHandler(svc *service.AdmissionService, letters *service.LetterService) *AdmissionHandler {
	return &AdmissionHandler{service: svc, letters: letters}
}

// List godoc
// @Summary List admission applications
// @Tags Admissions
// @Produce json
// @Param schoolId query string false "Filter by school"
// @Param gradeId query string false "Filter by grade"
// @Param studentId query string false "Filter by student"
// @Param status query string false "Filter by status" Enums(PENDING, APPROVED, REJECTED)
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admissions [get]
func (h *AdmissionHandler) List(c *gin.Context) {
	var filter models.AdmissionFilter
	filter.SchoolID = c.Query("schoolId")
	filter.GradeID = c.Query("gradeId")
	filter.StudentID = c.Query("studentId")
	filter.Status = models.AdmissionStatus(c.Query("status"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	admissions, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, admissions, pagination)
}

// Get godoc
// @Summary Get an admission by ID
// @Tags Admissions
// @Produce json
// @Param id path string true "Admission ID"
// @Success 200 {object} response.Envelope
// @Router /admissions/{id} [get]
func (h *AdmissionHandler) Get(c *gin.Context) {
	admission, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, admission, nil)
}

// Create godoc
// @Summary Submit an admission application
// @Tags Admissions
// @Accept json
// @Produce json
// @Param payload body service.CreateAdmissionRequest true "Admission payload"
// @Success 201 {object} response.Envelope
// @Router /admissions [post]
func (h *AdmissionHandler) Create(c *gin.Context) {
	var req service.CreateAdmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	admission, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, admission)
}

// Approve godoc
// @Summary Approve a pending admission
// @Description Approving assigns the student to the admission's school. Decisions are final.
// @Tags Admissions
// @Accept json
// @Produce json
// @Param id path string true "Admission ID"
// @Param payload body service.DecideAdmissionRequest false "Decision remarks"
// @Success 200 {object} response.Envelope
// @Router /admissions/{id}/approve [post]
func (h *AdmissionHandler) Approve(c *gin.Context) {
	var req service.DecideAdmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	admission, err := h.service.Approve(c.Request.Context(), c.Param("id"), actorID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, admission, nil)
}

// Letter godoc
// @Summary Download the admission letter for an approved admission
// @Tags Admissions
// @Produce application/pdf
// @Param id path string true "Admission ID"
// @Success 200 {file} file
// @Router /admissions/{id}/letter [get]
func (h *AdmissionHandler) Letter(c *gin.Context) {
	letter, err := h.letters.AdmissionLetter(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", letter.FileName))
	c.Data(http.StatusOK, letter.ContentType, letter.Content)
}

// Reject godoc
// @Summary Reject a pending admission
// @Tags Admissions
// @Accept json
// @Produce json
// @Param id path string true "Admission ID"
// @Param payload body service.DecideAdmissionRequest false "Decision remarks"
// @Success 200 {object} response.Envelope
// @Router /admissions/{id}/reject [post]
func (h *AdmissionHandler) Reject(c *gin.Context) {
	var req service.DecideAdmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	admission, err := h.service.Reject(c.Request.Context(), c.Param("id"), actorID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, admission, nil)
}
