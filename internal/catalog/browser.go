package catalog

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/DepParmar/vyom/internal/models"
)

// Mode selects the browsing strategy, fixed at session creation.
type Mode string

const (
	// ModeFiltered presents a single list scoped to a school and marks
	// value, refetched whenever either filter changes.
	ModeFiltered Mode = "filtered"
	// ModePaginated accumulates fixed-size pages as the client scrolls.
	ModePaginated Mode = "paginated"
)

var (
	// ErrModeMismatch is returned when an operation is invoked on a browser
	// running in the other mode.
	ErrModeMismatch = errors.New("operation not available in this browse mode")
	// ErrNoSchool is returned when marks are selected before a school.
	ErrNoSchool = errors.New("no school selected")
	// ErrSuperseded marks a fetch whose result was discarded because a newer
	// query was issued while it was in flight.
	ErrSuperseded = errors.New("fetch superseded by a newer query")
)

// TemplateSource supplies catalog rows to a Browser.
type TemplateSource interface {
	ListTemplates(ctx context.Context, filter models.TemplateFilter) ([]models.Template, int, error)
	ListMarksOptions(ctx context.Context, schoolID string) ([]int, error)
}

// State is a point-in-time copy of a browser's visible state. LastError
// carries the most recent fetch failure as a display string; it never blocks
// the list and clears on the next successful fetch.
type State struct {
	Mode      Mode
	SchoolID  string
	Marks     *int
	Options   []int
	Templates []models.Template
	Page      int
	Exhausted bool
	InFlight  bool
	LastError string
}

// Browser owns the catalog list for one browse session. All fetch results
// pass through a generation check so a response belonging to an abandoned
// school/marks combination can never reach the visible list.
type Browser struct {
	source   TemplateSource
	log      *zap.Logger
	mode     Mode
	pageSize int

	mu        sync.Mutex
	schoolID  string
	marks     *int
	options   []int
	templates []models.Template
	seen      map[string]struct{}
	page      int
	inFlight  bool
	exhausted bool
	lastError string
	gen       uint64
}

// NewBrowser creates a browser in the given mode. pageSize applies to the
// paginated mode only.
func NewBrowser(mode Mode, source TemplateSource, pageSize int, log *zap.Logger) *Browser {
	return &Browser{
		source:   source,
		log:      log,
		mode:     mode,
		pageSize: pageSize,
		seen:     make(map[string]struct{}),
	}
}

// Mode reports the strategy the browser was created with.
func (b *Browser) Mode() Mode { return b.mode }

// SetSchool records the school filter, reloads the marks options and
// replaces the template list. A failed or empty options fetch keeps the
// previous options; a failed template fetch keeps the previous list.
func (b *Browser) SetSchool(ctx context.Context, schoolID string) error {
	b.mu.Lock()
	if b.mode != ModeFiltered {
		b.mu.Unlock()
		return ErrModeMismatch
	}
	b.schoolID = schoolID
	b.marks = nil
	b.gen++
	gen := b.gen
	b.mu.Unlock()

	options, optErr := b.source.ListMarksOptions(ctx, schoolID)
	templates, _, tplErr := b.source.ListTemplates(ctx, models.TemplateFilter{SchoolID: schoolID})

	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.gen {
		return ErrSuperseded
	}
	if optErr != nil {
		b.log.Warn("marks options fetch failed, keeping previous options",
			zap.String("school_id", schoolID), zap.Error(optErr))
	} else if len(options) > 0 {
		b.options = options
	}
	if tplErr != nil {
		b.lastError = tplErr.Error()
		return tplErr
	}
	b.replaceLocked(templates)
	if optErr != nil {
		b.lastError = optErr.Error()
	} else {
		b.lastError = ""
	}
	return nil
}

// SetMarks records the marks filter and replaces the template list with an
// exact school+marks match. A failed fetch keeps the previous list.
func (b *Browser) SetMarks(ctx context.Context, marks int) error {
	b.mu.Lock()
	if b.mode != ModeFiltered {
		b.mu.Unlock()
		return ErrModeMismatch
	}
	if b.schoolID == "" {
		b.mu.Unlock()
		return ErrNoSchool
	}
	m := marks
	b.marks = &m
	b.gen++
	gen := b.gen
	schoolID := b.schoolID
	b.mu.Unlock()

	templates, _, err := b.source.ListTemplates(ctx, models.TemplateFilter{SchoolID: schoolID, MaxMarks: &m})

	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.gen {
		return ErrSuperseded
	}
	if err != nil {
		b.lastError = err.Error()
		return err
	}
	b.replaceLocked(templates)
	b.lastError = ""
	return nil
}

// NextPage appends the next fixed-size page to the accumulated list,
// deduplicated by template ID. Calls while a fetch is in flight or after
// the catalog is exhausted are no-ops. The cursor advances only when the
// fetch succeeds; a short page marks the catalog exhausted.
func (b *Browser) NextPage(ctx context.Context) error {
	b.mu.Lock()
	if b.mode != ModePaginated {
		b.mu.Unlock()
		return ErrModeMismatch
	}
	if b.inFlight || b.exhausted {
		b.mu.Unlock()
		return nil
	}
	b.inFlight = true
	page := b.page
	b.mu.Unlock()

	batch, _, err := b.source.ListTemplates(ctx, models.TemplateFilter{Page: page + 1, PageSize: b.pageSize})

	b.mu.Lock()
	defer b.mu.Unlock()
	b.inFlight = false
	if err != nil {
		b.lastError = err.Error()
		return err
	}
	b.lastError = ""
	for _, t := range batch {
		if _, ok := b.seen[t.ID]; ok {
			continue
		}
		b.seen[t.ID] = struct{}{}
		b.templates = append(b.templates, t)
	}
	b.page++
	if len(batch) < b.pageSize {
		b.exhausted = true
	}
	return nil
}

// Snapshot returns a copy of the browser state safe to hand out.
func (b *Browser) Snapshot() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := State{
		Mode:      b.mode,
		SchoolID:  b.schoolID,
		Templates: append([]models.Template(nil), b.templates...),
		Options:   append([]int(nil), b.options...),
		Page:      b.page,
		Exhausted: b.exhausted,
		InFlight:  b.inFlight,
		LastError: b.lastError,
	}
	if b.marks != nil {
		m := *b.marks
		s.Marks = &m
	}
	return s
}

func (b *Browser) replaceLocked(templates []models.Template) {
	b.templates = templates
	b.seen = make(map[string]struct{}, len(templates))
	for _, t := range templates {
		b.seen[t.ID] = struct{}{}
	}
}
