package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/DepParmar/vyom/internal/dto"
	"github.com/DepParmar/vyom/internal/middleware"
	"github.com/DepParmar/vyom/internal/models"
	"github.com/DepParmar/vyom/internal/service"
	appErrors "github.com/DepParmar/vyom/pkg/errors"
	"github.com/DepParmar/vyom/pkg/response"
)

// CatalogHandler handles school, template and subject catalog endpoints.
type CatalogHandler struct {
	service *service.CatalogService
}

// NewCatalogHandler constructs a catalog handler.
func NewCatalogHandler(svc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

// ListSchools godoc
// @Summary List schools
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schools [get]
func (h *CatalogHandler) ListSchools(c *gin.Context) {
	schools, cacheHit, err := h.service.ListSchools(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, schools, nil, middleware.ExtractMeta(c))
}

// CreateSchool godoc
// @Summary Register a school
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body service.CreateSchoolRequest true "School payload"
// @Success 201 {object} response.Envelope
// @Router /schools [post]
func (h *CatalogHandler) CreateSchool(c *gin.Context) {
	var req service.CreateSchoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	school, err := h.service.CreateSchool(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, school)
}

// ListMarksOptions godoc
// @Summary List distinct max-marks values published for a school
// @Tags Catalog
// @Produce json
// @Param id path string true "School ID"
// @Success 200 {object} response.Envelope
// @Router /schools/{id}/marks-options [get]
func (h *CatalogHandler) ListMarksOptions(c *gin.Context) {
	schoolID := c.Param("id")
	options, err := h.service.ListMarksOptions(c.Request.Context(), schoolID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.MarksOptionsResponse{SchoolID: schoolID, Options: options}, nil)
}

// ListSubjects godoc
// @Summary List subjects applicable to a standard
// @Tags Catalog
// @Produce json
// @Param id path string true "School ID"
// @Param standard query int true "Standard (1-12)"
// @Success 200 {object} response.Envelope
// @Router /schools/{id}/subjects [get]
func (h *CatalogHandler) ListSubjects(c *gin.Context) {
	schoolID := c.Param("id")
	standard, err := strconv.Atoi(c.Query("standard"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid standard"))
		return
	}
	subjects, err := h.service.ListSubjectsFor(c.Request.Context(), schoolID, standard)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.SubjectsResponse{SchoolID: schoolID, Standard: standard, Subjects: subjects}, nil)
}

// ListTemplates godoc
// @Summary List marksheet templates
// @Tags Catalog
// @Produce json
// @Param schoolId query string false "Filter by school"
// @Param maxMarks query int false "Filter by max marks"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /templates [get]
func (h *CatalogHandler) ListTemplates(c *gin.Context) {
	var filter models.TemplateFilter
	filter.SchoolID = c.Query("schoolId")
	if raw := c.Query("maxMarks"); raw != "" {
		marks, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid maxMarks"))
			return
		}
		filter.MaxMarks = &marks
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = limit
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	templates, total, err := h.service.ListTemplates(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	response.JSON(c, http.StatusOK, templates, pagination)
}

// GetTemplate godoc
// @Summary Get template by id
// @Tags Catalog
// @Produce json
// @Param id path string true "Template ID"
// @Success 200 {object} response.Envelope
// @Router /templates/{id} [get]
func (h *CatalogHandler) GetTemplate(c *gin.Context) {
	template, err := h.service.FindTemplate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, template, nil)
}

// CreateTemplate godoc
// @Summary Publish a marksheet template
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body service.CreateTemplateRequest true "Template payload"
// @Success 201 {object} response.Envelope
// @Router /templates [post]
func (h *CatalogHandler) CreateTemplate(c *gin.Context) {
	var req service.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	template, err := h.service.CreateTemplate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, template)
}

// UpdateTemplate godoc
// @Summary Update a marksheet template
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Template ID"
// @Param payload body service.UpdateTemplateRequest true "Template payload"
// @Success 200 {object} response.Envelope
// @Router /templates/{id} [put]
func (h *CatalogHandler) UpdateTemplate(c *gin.Context) {
	var req service.UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	template, err := h.service.UpdateTemplate(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, template, nil)
}

// CreateSubjectMapping godoc
// @Summary Map a subject to a standard range
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body service.CreateSubjectMappingRequest true "Subject mapping payload"
// @Success 201 {object} response.Envelope
// @Router /subjects [post]
func (h *CatalogHandler) CreateSubjectMapping(c *gin.Context) {
	var req service.CreateSubjectMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	subject, err := h.service.CreateSubjectMapping(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, subject)
}
