package service

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DepParmar/vyom/internal/composer"
	"github.com/DepParmar/vyom/internal/models"
	appErrors "github.com/DepParmar/vyom/pkg/errors"
)

type draftCatalogStub struct {
	template *models.Template
	subjects []string
	findErr  error
}

func (d *draftCatalogStub) FindTemplate(ctx context.Context, id string) (*models.Template, error) {
	if d.findErr != nil {
		return nil, d.findErr
	}
	if d.template == nil || d.template.ID != id {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "template not found")
	}
	return d.template, nil
}

func (d *draftCatalogStub) ListSubjectsFor(ctx context.Context, schoolID string, standard int) ([]string, error) {
	return d.subjects, nil
}

type photoStoreStub struct {
	saved   map[string][]byte
	deleted []string
}

func newPhotoStoreStub() *photoStoreStub {
	return &photoStoreStub{saved: map[string][]byte{}}
}

func (p *photoStoreStub) SaveStream(filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	p.saved[filename] = data
	return filename, nil
}

func (p *photoStoreStub) Delete(filename string) error {
	p.deleted = append(p.deleted, filename)
	delete(p.saved, filename)
	return nil
}

func newDraftServiceForTest(t *testing.T) (*DraftService, *photoStoreStub) {
	t.Helper()
	catalogStub := &draftCatalogStub{
		template: &models.Template{ID: "template-1", SchoolID: "school-1", Name: "Unit Test", Standard: 8, MaxMarks: 100},
		subjects: []string{"Maths", "Science", "English"},
	}
	photos := newPhotoStoreStub()
	svc := NewDraftService(catalogStub, photos, nil, nil, zap.NewNop(), DraftServiceConfig{})
	return svc, photos
}

func createDraftForTest(t *testing.T, svc *DraftService) composer.State {
	t.Helper()
	state, err := svc.CreateDraft(context.Background(), CreateDraftRequest{TemplateID: "template-1"})
	require.NoError(t, err)
	return state
}

func TestDraftServiceCreateDraft(t *testing.T) {
	svc, _ := newDraftServiceForTest(t)
	state := createDraftForTest(t, svc)

	assert.NotEmpty(t, state.ID)
	assert.Equal(t, "template-1", state.Template.ID)
	assert.Equal(t, []string{"Maths", "Science", "English"}, state.Subjects)
	assert.Equal(t, composer.PhotoNone, state.PhotoState)
	assert.Equal(t, 1.0, state.Scale)
}

func TestDraftServiceCreateDraftUnknownTemplate(t *testing.T) {
	svc, _ := newDraftServiceForTest(t)
	_, err := svc.CreateDraft(context.Background(), CreateDraftRequest{TemplateID: "missing"})
	require.Error(t, err)
}

func TestDraftServiceGetDraftExpired(t *testing.T) {
	svc, _ := newDraftServiceForTest(t)
	_, err := svc.GetDraft(context.Background(), "missing")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrDraftExpired.Code, appErr.Code)
}

func TestDraftServiceSetMarkAdvancesFocus(t *testing.T) {
	svc, _ := newDraftServiceForTest(t)
	state := createDraftForTest(t, svc)

	result, err := svc.SetMark(context.Background(), state.ID, "Maths", SetMarkRequest{Value: "80"})
	require.NoError(t, err)
	assert.Equal(t, "80", result.Stored)
	assert.Equal(t, "Science", result.NextSubject)

	result, err = svc.SetMark(context.Background(), state.ID, "English", SetMarkRequest{Value: "90"})
	require.NoError(t, err)
	assert.Empty(t, result.NextSubject)
}

func TestDraftServiceSetMarkUnknownSubject(t *testing.T) {
	svc, _ := newDraftServiceForTest(t)
	state := createDraftForTest(t, svc)

	_, err := svc.SetMark(context.Background(), state.ID, "History", SetMarkRequest{Value: "50"})
	require.Error(t, err)
}

func TestDraftServiceAttachPhoto(t *testing.T) {
	svc, photos := newDraftServiceForTest(t)
	state := createDraftForTest(t, svc)

	photo := bytes.NewReader([]byte("jpeg-bytes"))
	updated, err := svc.AttachPhoto(context.Background(), state.ID, "selfie.jpg", int64(photo.Len()), photo)
	require.NoError(t, err)
	assert.Equal(t, composer.PhotoSelected, updated.PhotoState)
	assert.NotEmpty(t, updated.PhotoRef)
	assert.Len(t, photos.saved, 1)
}

func TestDraftServiceAttachPhotoReplacesPrevious(t *testing.T) {
	svc, photos := newDraftServiceForTest(t)
	state := createDraftForTest(t, svc)

	first, err := svc.AttachPhoto(context.Background(), state.ID, "one.png", 3, bytes.NewReader([]byte("one")))
	require.NoError(t, err)
	second, err := svc.AttachPhoto(context.Background(), state.ID, "two.png", 3, bytes.NewReader([]byte("two")))
	require.NoError(t, err)

	assert.NotEqual(t, first.PhotoRef, second.PhotoRef)
	assert.Contains(t, photos.deleted, first.PhotoRef)
	assert.Len(t, photos.saved, 1)
}

func TestDraftServiceAttachPhotoRejectsUnknownType(t *testing.T) {
	svc, _ := newDraftServiceForTest(t)
	state := createDraftForTest(t, svc)

	_, err := svc.AttachPhoto(context.Background(), state.ID, "document.gif", 3, bytes.NewReader([]byte("gif")))
	require.Error(t, err)
}

func TestDraftServiceAttachPhotoRejectsOversize(t *testing.T) {
	catalogStub := &draftCatalogStub{
		template: &models.Template{ID: "template-1", SchoolID: "school-1", Name: "Unit Test", Standard: 8, MaxMarks: 100},
		subjects: []string{"Maths"},
	}
	photos := newPhotoStoreStub()
	svc := NewDraftService(catalogStub, photos, nil, nil, zap.NewNop(), DraftServiceConfig{MaxPhotoBytes: 4})
	state := createDraftForTest(t, svc)

	_, err := svc.AttachPhoto(context.Background(), state.ID, "selfie.jpg", 5, bytes.NewReader([]byte("12345")))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Empty(t, photos.saved)
}

func TestDraftServiceTransformWithoutPhoto(t *testing.T) {
	svc, _ := newDraftServiceForTest(t)
	state := createDraftForTest(t, svc)

	_, err := svc.TransformPhoto(context.Background(), state.ID, TransformPhotoRequest{ScaleFactor: 1.2})
	require.Error(t, err)
}

func TestDraftServiceTransformClampsScale(t *testing.T) {
	svc, _ := newDraftServiceForTest(t)
	state := createDraftForTest(t, svc)

	_, err := svc.AttachPhoto(context.Background(), state.ID, "selfie.jpg", 4, bytes.NewReader([]byte("jpeg")))
	require.NoError(t, err)

	updated, err := svc.TransformPhoto(context.Background(), state.ID, TransformPhotoRequest{ScaleFactor: 100, DX: 4, DY: -2})
	require.NoError(t, err)
	assert.Equal(t, 3.0, updated.Scale)
	assert.Equal(t, 4.0, updated.OffsetX)
	assert.Equal(t, -2.0, updated.OffsetY)
}

func TestDraftServicePhotoDeleteFlow(t *testing.T) {
	svc, photos := newDraftServiceForTest(t)
	state := createDraftForTest(t, svc)

	attached, err := svc.AttachPhoto(context.Background(), state.ID, "selfie.jpg", 4, bytes.NewReader([]byte("jpeg")))
	require.NoError(t, err)

	pending, err := svc.RequestPhotoDelete(context.Background(), state.ID)
	require.NoError(t, err)
	assert.Equal(t, composer.PhotoDeletePending, pending.PhotoState)

	kept, err := svc.CancelPhotoDelete(context.Background(), state.ID)
	require.NoError(t, err)
	assert.Equal(t, composer.PhotoSelected, kept.PhotoState)
	assert.Empty(t, photos.deleted)

	_, err = svc.RequestPhotoDelete(context.Background(), state.ID)
	require.NoError(t, err)
	removed, err := svc.ConfirmPhotoDelete(context.Background(), state.ID)
	require.NoError(t, err)
	assert.Equal(t, composer.PhotoNone, removed.PhotoState)
	assert.Empty(t, removed.PhotoRef)
	assert.Contains(t, photos.deleted, attached.PhotoRef)
}

func TestDraftServiceConfirmWithoutRequest(t *testing.T) {
	svc, _ := newDraftServiceForTest(t)
	state := createDraftForTest(t, svc)

	_, err := svc.AttachPhoto(context.Background(), state.ID, "selfie.jpg", 4, bytes.NewReader([]byte("jpeg")))
	require.NoError(t, err)

	_, err = svc.ConfirmPhotoDelete(context.Background(), state.ID)
	require.Error(t, err)
}

func TestDraftServiceApplyPrompt(t *testing.T) {
	svc, _ := newDraftServiceForTest(t)
	state := createDraftForTest(t, svc)

	name := "Asha Patel"
	updated, err := svc.ApplyPrompt(context.Background(), state.ID, ApplyPromptRequest{Field: "student_name", Value: &name})
	require.NoError(t, err)
	assert.Equal(t, "Asha Patel", updated.StudentName)

	// a dismissed prompt leaves the previous value untouched
	updated, err = svc.ApplyPrompt(context.Background(), state.ID, ApplyPromptRequest{Field: "student_name", Value: nil})
	require.NoError(t, err)
	assert.Equal(t, "Asha Patel", updated.StudentName)
}

func TestDraftServiceApplyPromptUnknownField(t *testing.T) {
	svc, _ := newDraftServiceForTest(t)
	state := createDraftForTest(t, svc)

	value := "anything"
	_, err := svc.ApplyPrompt(context.Background(), state.ID, ApplyPromptRequest{Field: "nickname", Value: &value})
	require.Error(t, err)
}

func TestDraftServiceDestroyDraftRemovesPhoto(t *testing.T) {
	svc, photos := newDraftServiceForTest(t)
	state := createDraftForTest(t, svc)

	attached, err := svc.AttachPhoto(context.Background(), state.ID, "selfie.jpg", 4, bytes.NewReader([]byte("jpeg")))
	require.NoError(t, err)

	require.NoError(t, svc.DestroyDraft(context.Background(), state.ID))
	assert.Contains(t, photos.deleted, attached.PhotoRef)

	_, err = svc.GetDraft(context.Background(), state.ID)
	require.Error(t, err)
}

func TestDraftStoreExpiry(t *testing.T) {
	store := newDraftStore(10 * time.Millisecond)
	template := models.Template{ID: "template-1", SchoolID: "school-1", Standard: 8, MaxMarks: 100}
	store.Save("draft-1", composer.NewDraft("draft-1", template, nil))

	_, ok := store.Get("draft-1")
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	removed := store.Sweep()
	require.Len(t, removed, 1)
	require.Equal(t, 0, store.Len())
}
