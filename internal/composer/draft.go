package composer

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"unicode/utf8"

	"github.com/DepParmar/vyom/internal/models"
)

// PhotoState enumerates the photo overlay state machine.
type PhotoState string

const (
	PhotoNone          PhotoState = "none"
	PhotoSelected      PhotoState = "selected"
	PhotoTransforming  PhotoState = "transforming"
	PhotoDeletePending PhotoState = "delete_pending"
)

// Field names the prompt-editable text fields of a draft.
type Field string

const (
	FieldStudentName Field = "student_name"
	FieldUnitLabel   Field = "unit_label"
)

// FocusHint tells the client where mark-entry focus should move after an edit.
type FocusHint string

const (
	FocusKeep    FocusHint = "keep"
	FocusNext    FocusHint = "next"
	FocusRelease FocusHint = "release"
)

const (
	minPhotoScale = 0.5
	maxPhotoScale = 3.0
)

var (
	ErrNoPhoto         = errors.New("no photo attached")
	ErrDeletePending   = errors.New("photo delete confirmation pending")
	ErrNoDeletePending = errors.New("no photo delete confirmation pending")
	ErrUnknownField    = errors.New("unknown text field")
	ErrUnknownSubject  = errors.New("subject not on this template")
)

// MarkResult reports the outcome of a single mark edit.
type MarkResult struct {
	Subject     string
	Stored      string
	Percentage  string
	Focus       FocusHint
	NextSubject string
}

// State is a point-in-time copy of a draft safe to hand out.
type State struct {
	ID             string
	Template       models.Template
	Subjects       []string
	Marks          map[string]string
	StudentName    string
	UnitLabel      string
	Percentage     string
	PhotoRef       string
	PhotoState     PhotoState
	Scale          float64
	OffsetX        float64
	OffsetY        float64
	OverlayVisible bool
}

// Draft owns the editable overlay state for one template instance. Every
// transition is applied atomically under the draft's lock, so interleaved
// edits from concurrent requests never observe half-applied state.
type Draft struct {
	mu             sync.Mutex
	id             string
	template       models.Template
	subjects       []string
	marks          map[string]string
	studentName    string
	unitLabel      string
	photoRef       string
	photoState     PhotoState
	restoreState   PhotoState
	scale          float64
	offsetX        float64
	offsetY        float64
	overlayVisible bool
}

// NewDraft creates a draft for the template with its applicable subjects in
// declaration order. The draft starts with no photo, empty fields, scale 1.0
// and a zero offset.
func NewDraft(id string, template models.Template, subjects []string) *Draft {
	return &Draft{
		id:         id,
		template:   template,
		subjects:   append([]string(nil), subjects...),
		marks:      make(map[string]string, len(subjects)),
		photoState: PhotoNone,
		scale:      1.0,
	}
}

// ID returns the draft identifier.
func (d *Draft) ID() string { return d.id }

// Template returns the template the draft composes over.
func (d *Draft) Template() models.Template { return d.template }

// AttachPhoto records a picked photo reference and resets the transform to
// scale 1.0 and a zero offset. A cancelled pick simply never reaches here.
func (d *Draft) AttachPhoto(ref string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.photoRef = ref
	d.photoState = PhotoSelected
	d.scale = 1.0
	d.offsetX = 0
	d.offsetY = 0
}

// ApplyTransform multiplies the photo scale by scaleFactor, clamped to
// [0.5, 3.0], and adds the focal-point delta to the offset. The whole update
// is applied atomically per call.
func (d *Draft) ApplyTransform(scaleFactor, dx, dy float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch d.photoState {
	case PhotoNone:
		return ErrNoPhoto
	case PhotoDeletePending:
		return ErrDeletePending
	}
	d.scale = clamp(d.scale*scaleFactor, minPhotoScale, maxPhotoScale)
	d.offsetX += dx
	d.offsetY += dy
	d.photoState = PhotoTransforming
	return nil
}

// RequestDelete enters the delete confirmation state.
func (d *Draft) RequestDelete() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch d.photoState {
	case PhotoNone:
		return ErrNoPhoto
	case PhotoDeletePending:
		return nil
	}
	d.restoreState = d.photoState
	d.photoState = PhotoDeletePending
	return nil
}

// CancelDelete leaves the confirmation state, restoring the prior photo state.
func (d *Draft) CancelDelete() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.photoState != PhotoDeletePending {
		return ErrNoDeletePending
	}
	d.photoState = d.restoreState
	return nil
}

// ConfirmDelete removes the photo and resets the transform.
func (d *Draft) ConfirmDelete() (removedRef string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.photoState != PhotoDeletePending {
		return "", ErrNoDeletePending
	}
	removedRef = d.photoRef
	d.photoRef = ""
	d.photoState = PhotoNone
	d.scale = 1.0
	d.offsetX = 0
	d.offsetY = 0
	return removedRef, nil
}

// ApplyPrompt applies a modal text edit. A nil value means the prompt was
// cancelled and leaves the field unchanged.
func (d *Draft) ApplyPrompt(field Field, value *string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if value == nil {
		return nil
	}
	switch field {
	case FieldStudentName:
		d.studentName = *value
	case FieldUnitLabel:
		d.unitLabel = *value
	default:
		return ErrUnknownField
	}
	return nil
}

// SetMark records the raw mark text for a subject and recomputes the
// percentage. Text that fails to parse is stored as entered and counts 0;
// a parsed value above the template's max marks stores the clamped value
// instead. A stored text of exactly two characters advances focus to the
// next subject in declaration order, or releases it after the last.
func (d *Draft) SetMark(subject, raw string) (MarkResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	idx := -1
	for i, s := range d.subjects {
		if s == subject {
			idx = i
			break
		}
	}
	if idx < 0 {
		return MarkResult{}, ErrUnknownSubject
	}

	stored := raw
	if n, err := strconv.Atoi(raw); err == nil && n > d.template.MaxMarks {
		stored = strconv.Itoa(d.template.MaxMarks)
	}
	d.marks[subject] = stored

	res := MarkResult{
		Subject:    subject,
		Stored:     stored,
		Percentage: d.percentageLocked(),
		Focus:      FocusKeep,
	}
	if utf8.RuneCountInString(stored) == 2 {
		if idx == len(d.subjects)-1 {
			res.Focus = FocusRelease
		} else {
			res.Focus = FocusNext
			res.NextSubject = d.subjects[idx+1]
		}
	}
	return res, nil
}

// Percentage returns the derived percentage with two decimals, "0.00" when
// the draft has no subjects or the template's max marks is not positive.
func (d *Draft) Percentage() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.percentageLocked()
}

// SetOverlayVisible toggles the transient delete-control overlay.
func (d *Draft) SetOverlayVisible(visible bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.overlayVisible = visible
}

// Snapshot returns a copy of the draft state safe to hand out.
func (d *Draft) Snapshot() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	marks := make(map[string]string, len(d.marks))
	for k, v := range d.marks {
		marks[k] = v
	}
	return State{
		ID:             d.id,
		Template:       d.template,
		Subjects:       append([]string(nil), d.subjects...),
		Marks:          marks,
		StudentName:    d.studentName,
		UnitLabel:      d.unitLabel,
		Percentage:     d.percentageLocked(),
		PhotoRef:       d.photoRef,
		PhotoState:     d.photoState,
		Scale:          d.scale,
		OffsetX:        d.offsetX,
		OffsetY:        d.offsetY,
		OverlayVisible: d.overlayVisible,
	}
}

func (d *Draft) percentageLocked() string {
	if len(d.subjects) == 0 || d.template.MaxMarks <= 0 {
		return "0.00"
	}
	sum := 0
	for _, s := range d.subjects {
		if n, err := strconv.Atoi(d.marks[s]); err == nil {
			sum += n
		}
	}
	total := len(d.subjects) * d.template.MaxMarks
	return fmt.Sprintf("%.2f", float64(sum)/float64(total)*100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
