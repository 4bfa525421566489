package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DepParmar/vyom/internal/dto"
	"github.com/DepParmar/vyom/internal/service"
	appErrors "github.com/DepParmar/vyom/pkg/errors"
	"github.com/DepParmar/vyom/pkg/response"
)

// BrowseHandler handles template browse session endpoints.
type BrowseHandler struct {
	service *service.BrowseService
}

// NewBrowseHandler constructs a browse handler.
func NewBrowseHandler(svc *service.BrowseService) *BrowseHandler {
	return &BrowseHandler{service: svc}
}

// Create godoc
// @Summary Open a browse session
// @Tags Browse
// @Accept json
// @Produce json
// @Param payload body service.CreateBrowseSessionRequest true "Browse session payload"
// @Success 201 {object} response.Envelope
// @Router /browse [post]
func (h *BrowseHandler) Create(c *gin.Context) {
	var req service.CreateBrowseSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	id, state, err := h.service.CreateSession(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewBrowseSessionResponse(id, state))
}

// Get godoc
// @Summary Get browse session state
// @Tags Browse
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /browse/{id} [get]
func (h *BrowseHandler) Get(c *gin.Context) {
	id := c.Param("id")
	state, err := h.service.GetSession(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewBrowseSessionResponse(id, state), nil)
}

// UpdateFilters godoc
// @Summary Change browse filters
// @Tags Browse
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body service.UpdateBrowseFiltersRequest true "Filter payload"
// @Success 200 {object} response.Envelope
// @Router /browse/{id}/filters [put]
func (h *BrowseHandler) UpdateFilters(c *gin.Context) {
	var req service.UpdateBrowseFiltersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	id := c.Param("id")
	state, err := h.service.UpdateFilters(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewBrowseSessionResponse(id, state), nil)
}

// NextPage godoc
// @Summary Load the next template page
// @Tags Browse
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /browse/{id}/next [post]
func (h *BrowseHandler) NextPage(c *gin.Context) {
	id := c.Param("id")
	state, err := h.service.NextPage(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewBrowseSessionResponse(id, state), nil)
}

// Delete godoc
// @Summary Close a browse session
// @Tags Browse
// @Produce json
// @Param id path string true "Session ID"
// @Success 204
// @Router /browse/{id} [delete]
func (h *BrowseHandler) Delete(c *gin.Context) {
	h.service.DeleteSession(c.Request.Context(), c.Param("id"))
	response.NoContent(c)
}
