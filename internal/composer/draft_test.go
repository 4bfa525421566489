package composer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DepParmar/vyom/internal/models"
)

func newTestDraft(subjects ...string) *Draft {
	return NewDraft("d1", models.Template{ID: "t1", SchoolID: "s1", MaxMarks: 40}, subjects)
}

func TestDraftPercentage(t *testing.T) {
	d := newTestDraft("Math", "Science")

	_, err := d.SetMark("Math", "30")
	require.NoError(t, err)
	res, err := d.SetMark("Science", "20")
	require.NoError(t, err)

	assert.Equal(t, "62.50", res.Percentage)
	assert.Equal(t, "62.50", d.Percentage())
	assert.Equal(t, "62.50", d.Percentage(), "recompute is idempotent")
}

func TestDraftPercentageDefaults(t *testing.T) {
	assert.Equal(t, "0.00", newTestDraft().Percentage(), "no subjects")

	d := NewDraft("d2", models.Template{ID: "t2", MaxMarks: 0}, []string{"Math"})
	assert.Equal(t, "0.00", d.Percentage(), "zero max marks")
}

func TestDraftSetMarkClampsAboveMax(t *testing.T) {
	d := newTestDraft("Math", "Science")

	res, err := d.SetMark("Math", "55")
	require.NoError(t, err)
	assert.Equal(t, "40", res.Stored)
	assert.Equal(t, "50.00", res.Percentage)
}

func TestDraftSetMarkKeepsUnparsableText(t *testing.T) {
	d := newTestDraft("Math", "Science")

	res, err := d.SetMark("Math", "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", res.Stored, "unparsable text stored as entered")
	assert.Equal(t, "0.00", res.Percentage, "unparsable text counts zero")

	res, err = d.SetMark("Math", "")
	require.NoError(t, err)
	assert.Equal(t, "", res.Stored)
}

func TestDraftSetMarkFocusAdvance(t *testing.T) {
	d := newTestDraft("Math", "Science", "English")

	res, err := d.SetMark("Math", "30")
	require.NoError(t, err)
	assert.Equal(t, FocusNext, res.Focus)
	assert.Equal(t, "Science", res.NextSubject)

	res, err = d.SetMark("Science", "5")
	require.NoError(t, err)
	assert.Equal(t, FocusKeep, res.Focus)

	res, err = d.SetMark("English", "25")
	require.NoError(t, err)
	assert.Equal(t, FocusRelease, res.Focus, "last subject releases focus")

	res, err = d.SetMark("Math", "999")
	require.NoError(t, err)
	assert.Equal(t, "40", res.Stored)
	assert.Equal(t, FocusNext, res.Focus, "clamped two-character text still advances")
}

func TestDraftSetMarkUnknownSubject(t *testing.T) {
	d := newTestDraft("Math")

	_, err := d.SetMark("History", "10")
	assert.ErrorIs(t, err, ErrUnknownSubject)
}

func TestDraftPhotoLifecycle(t *testing.T) {
	d := newTestDraft("Math")

	assert.ErrorIs(t, d.ApplyTransform(2, 0, 0), ErrNoPhoto)
	assert.ErrorIs(t, d.RequestDelete(), ErrNoPhoto)

	d.AttachPhoto("photos/p1.jpg")
	snap := d.Snapshot()
	assert.Equal(t, PhotoSelected, snap.PhotoState)
	assert.Equal(t, 1.0, snap.Scale)

	require.NoError(t, d.ApplyTransform(2.0, 5, -3))
	snap = d.Snapshot()
	assert.Equal(t, PhotoTransforming, snap.PhotoState)
	assert.Equal(t, 2.0, snap.Scale)
	assert.Equal(t, 5.0, snap.OffsetX)
	assert.Equal(t, -3.0, snap.OffsetY)

	require.NoError(t, d.RequestDelete())
	assert.ErrorIs(t, d.ApplyTransform(1.1, 0, 0), ErrDeletePending)
	require.NoError(t, d.CancelDelete())
	assert.Equal(t, PhotoTransforming, d.Snapshot().PhotoState, "cancel restores prior state")

	require.NoError(t, d.RequestDelete())
	removed, err := d.ConfirmDelete()
	require.NoError(t, err)
	assert.Equal(t, "photos/p1.jpg", removed)
	snap = d.Snapshot()
	assert.Equal(t, PhotoNone, snap.PhotoState)
	assert.Empty(t, snap.PhotoRef)
	assert.Equal(t, 1.0, snap.Scale)
}

func TestDraftTransformClamps(t *testing.T) {
	d := newTestDraft("Math")
	d.AttachPhoto("photos/p1.jpg")

	require.NoError(t, d.ApplyTransform(2.0, 1, 1))
	require.NoError(t, d.ApplyTransform(2.0, 1, 1))
	snap := d.Snapshot()
	assert.Equal(t, 3.0, snap.Scale, "scale clamped to upper bound")
	assert.Equal(t, 2.0, snap.OffsetX)

	require.NoError(t, d.ApplyTransform(0.01, 0, 0))
	assert.Equal(t, 0.5, d.Snapshot().Scale, "scale clamped to lower bound")
}

func TestDraftDeleteConfirmationGuards(t *testing.T) {
	d := newTestDraft("Math")

	assert.ErrorIs(t, d.CancelDelete(), ErrNoDeletePending)
	_, err := d.ConfirmDelete()
	assert.ErrorIs(t, err, ErrNoDeletePending)
}

func TestDraftApplyPrompt(t *testing.T) {
	d := newTestDraft("Math")

	name := "Asha Patel"
	require.NoError(t, d.ApplyPrompt(FieldStudentName, &name))
	assert.Equal(t, "Asha Patel", d.Snapshot().StudentName)

	require.NoError(t, d.ApplyPrompt(FieldStudentName, nil))
	assert.Equal(t, "Asha Patel", d.Snapshot().StudentName, "cancelled prompt keeps the value")

	label := "Unit Test 2"
	require.NoError(t, d.ApplyPrompt(FieldUnitLabel, &label))
	assert.Equal(t, "Unit Test 2", d.Snapshot().UnitLabel)

	assert.ErrorIs(t, d.ApplyPrompt(Field("nickname"), &name), ErrUnknownField)
}

func TestDraftOverlayToggle(t *testing.T) {
	d := newTestDraft("Math")

	d.SetOverlayVisible(true)
	assert.True(t, d.Snapshot().OverlayVisible)
	d.SetOverlayVisible(false)
	assert.False(t, d.Snapshot().OverlayVisible)
}
