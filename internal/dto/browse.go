package dto

import (
	"github.com/DepParmar/vyom/internal/catalog"
	"github.com/DepParmar/vyom/internal/models"
)

// BrowseSessionResponse exposes a browse session snapshot.
type BrowseSessionResponse struct {
	SessionID string            `json:"sessionId"`
	Mode      string            `json:"mode"`
	SchoolID  string            `json:"schoolId,omitempty"`
	Marks     *int              `json:"marks,omitempty"`
	Options   []int             `json:"options"`
	Templates []models.Template `json:"templates"`
	Page      int               `json:"page"`
	Exhausted bool              `json:"exhausted"`
	InFlight  bool              `json:"inFlight"`
	LastError string            `json:"lastError,omitempty"`
}

// NewBrowseSessionResponse maps a browser snapshot onto the wire shape.
func NewBrowseSessionResponse(sessionID string, state catalog.State) BrowseSessionResponse {
	options := state.Options
	if options == nil {
		options = []int{}
	}
	templates := state.Templates
	if templates == nil {
		templates = []models.Template{}
	}
	return BrowseSessionResponse{
		SessionID: sessionID,
		Mode:      string(state.Mode),
		SchoolID:  state.SchoolID,
		Marks:     state.Marks,
		Options:   options,
		Templates: templates,
		Page:      state.Page,
		Exhausted: state.Exhausted,
		InFlight:  state.InFlight,
		LastError: state.LastError,
	}
}
