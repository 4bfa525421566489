package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DepParmar/vyom/internal/composer"
	"github.com/DepParmar/vyom/internal/dto"
	"github.com/DepParmar/vyom/internal/service"
	appErrors "github.com/DepParmar/vyom/pkg/errors"
	"github.com/DepParmar/vyom/pkg/response"
)

type draftService interface {
	CreateDraft(ctx context.Context, req service.CreateDraftRequest) (composer.State, error)
	GetDraft(ctx context.Context, id string) (composer.State, error)
	ApplyPrompt(ctx context.Context, id string, req service.ApplyPromptRequest) (composer.State, error)
	SetMark(ctx context.Context, id, subject string, req service.SetMarkRequest) (composer.MarkResult, error)
	AttachPhoto(ctx context.Context, id, filename string, size int64, r io.Reader) (composer.State, error)
	TransformPhoto(ctx context.Context, id string, req service.TransformPhotoRequest) (composer.State, error)
	RequestPhotoDelete(ctx context.Context, id string) (composer.State, error)
	CancelPhotoDelete(ctx context.Context, id string) (composer.State, error)
	ConfirmPhotoDelete(ctx context.Context, id string) (composer.State, error)
	SetOverlay(ctx context.Context, id string, req service.SetOverlayRequest) (composer.State, error)
	DestroyDraft(ctx context.Context, id string) error
}

type previewService interface {
	Preview(ctx context.Context, draftID string) ([]byte, error)
}

type exportGuard interface {
	HasActiveExport(ctx context.Context, draftID string) (bool, error)
}

type setMarkPayload struct {
	Subject string `json:"subject"`
	Value   string `json:"value"`
}

type photoDeletePayload struct {
	Action string `json:"action"`
}

// DraftHandler handles poster draft endpoints.
type DraftHandler struct {
	drafts  draftService
	preview previewService
	exports exportGuard
}

// NewDraftHandler constructs a draft handler.
func NewDraftHandler(drafts draftService, preview previewService, exports exportGuard) *DraftHandler {
	return &DraftHandler{drafts: drafts, preview: preview, exports: exports}
}

// Create godoc
// @Summary Open a poster draft for a template
// @Tags Drafts
// @Accept json
// @Produce json
// @Param payload body service.CreateDraftRequest true "Draft payload"
// @Success 201 {object} response.Envelope
// @Router /drafts [post]
func (h *DraftHandler) Create(c *gin.Context) {
	var req service.CreateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	state, err := h.drafts.CreateDraft(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewDraftResponse(state))
}

// Get godoc
// @Summary Get draft state
// @Tags Drafts
// @Produce json
// @Param id path string true "Draft ID"
// @Success 200 {object} response.Envelope
// @Router /drafts/{id} [get]
func (h *DraftHandler) Get(c *gin.Context) {
	state, err := h.drafts.GetDraft(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewDraftResponse(state), nil)
}

// ApplyPrompt godoc
// @Summary Apply a text prompt result to the draft
// @Tags Drafts
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param payload body service.ApplyPromptRequest true "Prompt payload"
// @Success 200 {object} response.Envelope
// @Router /drafts/{id}/fields [put]
func (h *DraftHandler) ApplyPrompt(c *gin.Context) {
	var req service.ApplyPromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	state, err := h.drafts.ApplyPrompt(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewDraftResponse(state), nil)
}

// SetMark godoc
// @Summary Set the mark for a subject
// @Tags Drafts
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param payload body setMarkPayload true "Mark payload"
// @Success 200 {object} response.Envelope
// @Router /drafts/{id}/marks [put]
func (h *DraftHandler) SetMark(c *gin.Context) {
	var payload setMarkPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.drafts.SetMark(c.Request.Context(), c.Param("id"), payload.Subject, service.SetMarkRequest{Value: payload.Value})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewMarkResultResponse(result), nil)
}

// AttachPhoto godoc
// @Summary Attach a student photo to the draft
// @Tags Drafts
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Draft ID"
// @Param photo formData file true "Photo file"
// @Success 200 {object} response.Envelope
// @Router /drafts/{id}/photo [post]
func (h *DraftHandler) AttachPhoto(c *gin.Context) {
	fileHeader, err := c.FormFile("photo")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "photo file is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unable to read photo file"))
		return
	}
	defer file.Close() //nolint:errcheck

	state, err := h.drafts.AttachPhoto(c.Request.Context(), c.Param("id"), fileHeader.Filename, fileHeader.Size, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewDraftResponse(state), nil)
}

// TransformPhoto godoc
// @Summary Apply a pinch or drag step to the photo
// @Tags Drafts
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param payload body service.TransformPhotoRequest true "Transform payload"
// @Success 200 {object} response.Envelope
// @Router /drafts/{id}/photo/transform [put]
func (h *DraftHandler) TransformPhoto(c *gin.Context) {
	var req service.TransformPhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	state, err := h.drafts.TransformPhoto(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewDraftResponse(state), nil)
}

// PhotoDelete godoc
// @Summary Step the photo delete confirmation flow
// @Tags Drafts
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param payload body photoDeletePayload true "Delete action: request, cancel or confirm"
// @Success 200 {object} response.Envelope
// @Router /drafts/{id}/photo/delete [post]
func (h *DraftHandler) PhotoDelete(c *gin.Context) {
	var payload photoDeletePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	var (
		state composer.State
		err   error
	)
	switch payload.Action {
	case "request":
		state, err = h.drafts.RequestPhotoDelete(c.Request.Context(), c.Param("id"))
	case "cancel":
		state, err = h.drafts.CancelPhotoDelete(c.Request.Context(), c.Param("id"))
	case "confirm":
		state, err = h.drafts.ConfirmPhotoDelete(c.Request.Context(), c.Param("id"))
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "action must be request, cancel or confirm"))
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewDraftResponse(state), nil)
}

// SetOverlay godoc
// @Summary Toggle the photo delete-control overlay
// @Tags Drafts
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param payload body service.SetOverlayRequest true "Overlay payload"
// @Success 200 {object} response.Envelope
// @Router /drafts/{id}/overlay [put]
func (h *DraftHandler) SetOverlay(c *gin.Context) {
	var req service.SetOverlayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	state, err := h.drafts.SetOverlay(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewDraftResponse(state), nil)
}

// Preview godoc
// @Summary Render the draft preview as PNG
// @Tags Drafts
// @Produce png
// @Param id path string true "Draft ID"
// @Success 200 {file} binary
// @Router /drafts/{id}/preview [get]
func (h *DraftHandler) Preview(c *gin.Context) {
	png, err := h.preview.Preview(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

// Delete godoc
// @Summary Discard a draft
// @Tags Drafts
// @Produce json
// @Param id path string true "Draft ID"
// @Success 204
// @Router /drafts/{id} [delete]
func (h *DraftHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	busy, err := h.exports.HasActiveExport(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if busy {
		response.Error(c, appErrors.Clone(appErrors.ErrExportBusy, "draft has an export in progress"))
		return
	}
	if err := h.drafts.DestroyDraft(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
