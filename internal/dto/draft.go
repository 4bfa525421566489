package dto

import (
	"github.com/DepParmar/vyom/internal/composer"
	"github.com/DepParmar/vyom/internal/models"
)

// DraftResponse exposes a poster draft snapshot.
type DraftResponse struct {
	ID             string            `json:"id"`
	Template       models.Template   `json:"template"`
	Subjects       []string          `json:"subjects"`
	Marks          map[string]string `json:"marks"`
	StudentName    string            `json:"studentName"`
	UnitLabel      string            `json:"unitLabel"`
	Percentage     string            `json:"percentage"`
	PhotoState     string            `json:"photoState"`
	PhotoAttached  bool              `json:"photoAttached"`
	Scale          float64           `json:"scale"`
	OffsetX        float64           `json:"offsetX"`
	OffsetY        float64           `json:"offsetY"`
	OverlayVisible bool              `json:"overlayVisible"`
}

// NewDraftResponse maps a draft snapshot onto the wire shape. The stored
// photo reference stays server-side; clients only learn whether one exists.
func NewDraftResponse(state composer.State) DraftResponse {
	subjects := state.Subjects
	if subjects == nil {
		subjects = []string{}
	}
	marks := state.Marks
	if marks == nil {
		marks = map[string]string{}
	}
	return DraftResponse{
		ID:             state.ID,
		Template:       state.Template,
		Subjects:       subjects,
		Marks:          marks,
		StudentName:    state.StudentName,
		UnitLabel:      state.UnitLabel,
		Percentage:     state.Percentage,
		PhotoState:     string(state.PhotoState),
		PhotoAttached:  state.PhotoRef != "",
		Scale:          state.Scale,
		OffsetX:        state.OffsetX,
		OffsetY:        state.OffsetY,
		OverlayVisible: state.OverlayVisible,
	}
}

// MarkResultResponse reports the outcome of a single mark edit.
type MarkResultResponse struct {
	Subject     string `json:"subject"`
	Stored      string `json:"stored"`
	Percentage  string `json:"percentage"`
	Focus       string `json:"focus"`
	NextSubject string `json:"nextSubject,omitempty"`
}

// NewMarkResultResponse maps a mark edit outcome onto the wire shape.
func NewMarkResultResponse(result composer.MarkResult) MarkResultResponse {
	return MarkResultResponse{
		Subject:     result.Subject,
		Stored:      result.Stored,
		Percentage:  result.Percentage,
		Focus:       string(result.Focus),
		NextSubject: result.NextSubject,
	}
}
