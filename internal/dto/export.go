package dto

import "github.com/DepParmar/vyom/internal/models"

// ExportRequest captures POST /exports payload.
type ExportRequest struct {
	DraftID string              `json:"draftId"`
	Format  models.ExportFormat `json:"format"`
	EmbedQR bool                `json:"embedQr"`
	Scale   *float64            `json:"scale,omitempty"`
	Album   string              `json:"album,omitempty"`
}

// ExportJobResponse is returned after enqueueing an export.
type ExportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ExportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ExportStatusResponse exposes job progress metadata.
type ExportStatusResponse struct {
	ID        string              `json:"id"`
	Status    models.ExportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"resultUrl,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
