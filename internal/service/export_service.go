package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/DepParmar/vyom/internal/composer"
	"github.com/DepParmar/vyom/internal/dto"
	"github.com/DepParmar/vyom/internal/models"
	"github.com/DepParmar/vyom/internal/repository"
	appErrors "github.com/DepParmar/vyom/pkg/errors"
	"github.com/DepParmar/vyom/pkg/export"
	"github.com/DepParmar/vyom/pkg/jobs"
	"github.com/DepParmar/vyom/pkg/storage"
)

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id string) (*models.ExportJob, error)
	FindActiveByDraft(ctx context.Context, draftID string) (*models.ExportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error
	ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
	Depth() int
}

type posterRenderer interface {
	RenderPoster(ctx context.Context, snap composer.State, opts PosterOptions) (image.Image, error)
	ExportScale() float64
}

type exportFileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvSheetRenderer interface {
	Render(sheet export.MarksSheet) ([]byte, error)
}

type pdfPosterRenderer interface {
	Render(posterPNG []byte, sheet export.MarksSheet) ([]byte, error)
}

// errDraftGone marks an export whose draft expired or was destroyed before
// the worker picked it up. Retrying cannot succeed.
var errDraftGone = errors.New("draft no longer exists")

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix       string
	ShareBaseURL    string
	DefaultAlbum    string
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// PosterDownload aggregates resolved download data.
type PosterDownload struct {
	File      *os.File
	Filename  string
	SizeBytes int64
	Format    models.ExportFormat
	ExpiresAt time.Time
}

// ExportService owns the poster export lifecycle: it accepts jobs, keeps one
// active job per draft, rasterises posters at export density and persists the
// rendered files behind signed download tokens.
type ExportService struct {
	repo    exportJobStore
	drafts  draftProvider
	queue   jobDispatcher
	render  posterRenderer
	storage exportFileStorage
	signer  *storage.DownloadTokenSigner
	csv     csvSheetRenderer
	pdf     pdfPosterRenderer
	metrics *MetricsService
	logger  *zap.Logger
	cfg     ExportConfig
}

// ExportServiceParams groups constructor dependencies.
type ExportServiceParams struct {
	Repo    exportJobStore
	Drafts  draftProvider
	Queue   jobDispatcher
	Render  posterRenderer
	Storage exportFileStorage
	Signer  *storage.DownloadTokenSigner
	CSV     csvSheetRenderer
	PDF     pdfPosterRenderer
	Metrics *MetricsService
	Logger  *zap.Logger
	Config  ExportConfig
}

// NewExportService constructs an ExportService with sane defaults.
func NewExportService(params ExportServiceParams) *ExportService {
	cfg := params.Config
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	if cfg.DefaultAlbum == "" {
		cfg.DefaultAlbum = "marksheets"
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	csv := params.CSV
	if csv == nil {
		csv = export.NewMarksCSVExporter()
	}
	pdf := params.PDF
	if pdf == nil {
		pdf = export.NewPosterPDFExporter()
	}
	return &ExportService{
		repo:    params.Repo,
		drafts:  params.Drafts,
		queue:   params.Queue,
		render:  params.Render,
		storage: params.Storage,
		signer:  params.Signer,
		csv:     csv,
		pdf:     pdf,
		metrics: params.Metrics,
		logger:  logger,
		cfg:     cfg,
	}
}

// CreateJob validates the request, persists the job and enqueues processing.
// A draft with an export already queued or processing gets that job back
// unchanged, so repeated save taps never stack up duplicate work.
func (s *ExportService) CreateJob(ctx context.Context, req dto.ExportRequest) (*dto.ExportJobResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	if _, ok := s.drafts.Draft(req.DraftID); !ok {
		return nil, appErrors.ErrDraftExpired
	}
	active, err := s.repo.FindActiveByDraft(ctx, req.DraftID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check active export")
	}
	if active != nil {
		return &dto.ExportJobResponse{ID: active.ID, Status: active.Status, Progress: active.Progress}, nil
	}

	draft, _ := s.drafts.Draft(req.DraftID)
	job := &models.ExportJob{
		DraftID:    req.DraftID,
		TemplateID: draft.Template().ID,
		Format:     req.Format,
		Params:     models.ExportJobParams{EmbedQR: req.EmbedQR, Scale: req.Scale, Album: req.Album},
		Status:     models.ExportStatusQueued,
		Progress:   0,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Format)}); err != nil {
		status := models.ExportStatusFailed
		msg := "failed to enqueue job"
		now := time.Now().UTC()
		progress := 100
		_ = s.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
			Status:       &status,
			Progress:     &progress,
			ErrorMessage: &msg,
			FinishedAt:   &now,
		})
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}
	s.reportQueueDepth()
	return &dto.ExportJobResponse{ID: job.ID, Status: job.Status, Progress: job.Progress}, nil
}

// GetStatus exposes job metadata to clients.
func (s *ExportService) GetStatus(ctx context.Context, id string) (*dto.ExportStatusResponse, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	resp := &dto.ExportStatusResponse{
		ID:       job.ID,
		Status:   job.Status,
		Progress: job.Progress,
	}
	if job.ResultURL != nil {
		resp.ResultURL = job.ResultURL
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.Error = job.ErrorMessage
	}
	return resp, nil
}

// ResolveDownload validates the token and opens the stored poster file.
func (s *ExportService) ResolveDownload(ctx context.Context, token string) (*PosterDownload, error) {
	jobID, relPath, expiresAt, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.FilePath == nil || *job.FilePath != relPath {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	if job.Status != models.ExportStatusFinished {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export not ready")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	info, err := file.Stat()
	if err != nil {
		file.Close() //nolint:errcheck
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat export file")
	}
	return &PosterDownload{
		File:      file,
		Filename:  filepath.Base(relPath),
		SizeBytes: info.Size(),
		Format:    job.Format,
		ExpiresAt: expiresAt,
	}, nil
}

// HasActiveExport reports whether the draft still has a queued or processing
// export job. Drafts with active jobs cannot be destroyed.
func (s *ExportService) HasActiveExport(ctx context.Context, draftID string) (bool, error) {
	job, err := s.repo.FindActiveByDraft(ctx, draftID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check active exports")
	}
	return job != nil, nil
}

// Generate produces the export payload for the job and stores it. PNG and
// PDF rasterise the poster at export density; CSV reads the marks straight
// from the draft snapshot without touching the compositor.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	draft, ok := s.drafts.Draft(job.DraftID)
	if !ok {
		return nil, errDraftGone
	}
	snap := draft.Snapshot()
	sheet := buildMarksSheet(snap)

	var payload []byte
	var err error
	switch job.Format {
	case models.ExportFormatPNG:
		payload, err = s.renderPosterPNG(ctx, job.ID, snap, job.Params)
	case models.ExportFormatPDF:
		var posterPNG []byte
		posterPNG, err = s.renderPosterPNG(ctx, job.ID, snap, job.Params)
		if err == nil {
			payload, err = s.pdf.Render(posterPNG, sheet)
		}
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(sheet)
	default:
		err = fmt.Errorf("unsupported format %s", job.Format)
	}
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(s.buildFilename(job), payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	resultURL := fmt.Sprintf("%s/gallery/%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          resultURL,
		Format:       job.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *ExportService) renderPosterPNG(ctx context.Context, jobID string, snap composer.State, params models.ExportJobParams) ([]byte, error) {
	scale := s.render.ExportScale()
	if params.Scale != nil && *params.Scale > 0 {
		scale = *params.Scale
	}
	opts := PosterOptions{Scale: scale, EmbedQR: params.EmbedQR}
	if opts.EmbedQR {
		opts.ShareURL = s.shareURL(jobID)
	}
	start := time.Now()
	img, err := s.render.RenderPoster(ctx, snap, opts)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ObserveRender("export", time.Since(start))
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode poster: %w", err)
	}
	return buf.Bytes(), nil
}

// RecoverPendingJobs replays queued jobs after a restart. Jobs whose draft
// did not survive the restart fail immediately instead of spinning through
// the queue.
func (s *ExportService) RecoverPendingJobs(ctx context.Context) {
	pending, err := s.repo.ListQueued(ctx, 50)
	if err != nil {
		s.logger.Warn("failed to recover queued export jobs", zap.Error(err))
		return
	}
	for _, job := range pending {
		if _, ok := s.drafts.Draft(job.DraftID); !ok {
			s.failJob(ctx, job.ID, string(job.Format), errDraftGone.Error())
			continue
		}
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Format)}); err != nil {
			s.logger.Warn("failed to requeue pending export", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
	s.reportQueueDepth()
}

// StartCleanup boots a goroutine that purges expired exports periodically.
func (s *ExportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupExpired(ctx)
			}
		}
	}()
}

func (s *ExportService) cleanupExpired(ctx context.Context) {
	cutoff := time.Now().Add(-s.cfg.ResultTTL)
	for {
		expired, err := s.repo.ListFinishedBefore(ctx, cutoff, 100)
		if err != nil {
			s.logger.Warn("export cleanup list failed", zap.Error(err))
			return
		}
		if len(expired) == 0 {
			break
		}
		for _, job := range expired {
			if job.FilePath == nil {
				continue
			}
			if err := s.storage.Delete(*job.FilePath); err != nil {
				s.logger.Warn("export cleanup delete failed", zap.String("job_id", job.ID), zap.Error(err))
			}
		}
		if len(expired) < 100 {
			break
		}
	}
	if _, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL); err != nil {
		s.logger.Warn("export filesystem cleanup failed", zap.Error(err))
	}
}

func (s *ExportService) validateRequest(req dto.ExportRequest) error {
	if req.DraftID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "draftId is required")
	}
	if !isValidExportFormat(req.Format) {
		return appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
	if req.Scale != nil && (*req.Scale <= 0 || *req.Scale > 6) {
		return appErrors.Clone(appErrors.ErrValidation, "scale must be within (0, 6]")
	}
	return nil
}

func (s *ExportService) failJob(ctx context.Context, id, format, msg string) {
	status := models.ExportStatusFailed
	progress := 100
	now := time.Now().UTC()
	if err := s.repo.Update(ctx, id, repository.UpdateExportJobParams{
		Status:       &status,
		Progress:     &progress,
		ErrorMessage: &msg,
		FinishedAt:   &now,
	}); err != nil {
		s.logger.Warn("failed to mark export failed", zap.String("job_id", id), zap.Error(err))
		return
	}
	if s.metrics != nil {
		s.metrics.RecordExportJob(format, string(models.ExportStatusFailed))
	}
}

func (s *ExportService) shareURL(jobID string) string {
	base := strings.TrimRight(s.cfg.ShareBaseURL, "/")
	if base == "" {
		base = strings.TrimRight(s.cfg.APIPrefix, "/") + "/exports"
	}
	return base + "/" + jobID
}

func (s *ExportService) buildFilename(job *models.ExportJob) string {
	album := sanitizeAlbum(job.Params.Album)
	if album == "" {
		album = sanitizeAlbum(s.cfg.DefaultAlbum)
	}
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("albums/%s/marksheet_%s.%s", album, timestamp, job.Format)
}

func (s *ExportService) reportQueueDepth() {
	if s.metrics == nil || s.queue == nil {
		return
	}
	s.metrics.SetExportQueueDepth(s.queue.Depth())
}

func isValidExportFormat(f models.ExportFormat) bool {
	return f == models.ExportFormatPNG || f == models.ExportFormatPDF || f == models.ExportFormatCSV
}

func sanitizeAlbum(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	result := replacer.Replace(raw)
	if len(result) > 64 {
		return result[:64]
	}
	return result
}

func buildMarksSheet(snap composer.State) export.MarksSheet {
	entries := make([]export.MarkEntry, 0, len(snap.Subjects))
	for _, subject := range snap.Subjects {
		entries = append(entries, export.MarkEntry{Subject: subject, Text: snap.Marks[subject]})
	}
	return export.MarksSheet{
		Title:       snap.Template.Name,
		StudentName: snap.StudentName,
		UnitLabel:   snap.UnitLabel,
		Percentage:  snap.Percentage,
		Entries:     entries,
	}
}

type posterExportGenerator interface {
	Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error)
}

// ExportWorker bridges queue jobs to ExportService.
type ExportWorker struct {
	repo       exportJobStore
	exporter   posterExportGenerator
	metrics    *MetricsService
	logger     *zap.Logger
	maxRetries int
}

// NewExportWorker constructs a worker.
func NewExportWorker(repo exportJobStore, exporter posterExportGenerator, metrics *MetricsService, maxRetries int, logger *zap.Logger) *ExportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &ExportWorker{
		repo:       repo,
		exporter:   exporter,
		metrics:    metrics,
		logger:     logger,
		maxRetries: maxRetries,
	}
}

// Handle processes a queue job.
func (w *ExportWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}
	processing := models.ExportStatusProcessing
	progress := 10
	if err := w.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
		Status:   &processing,
		Progress: &progress,
	}); err != nil {
		return err
	}
	result, err := w.exporter.Generate(ctx, record)
	if err != nil {
		msg := err.Error()
		permanent := errors.Is(err, errDraftGone)
		if permanent || job.Attempt >= w.maxRetries {
			failed := models.ExportStatusFailed
			progress = 100
			now := time.Now().UTC()
			if updateErr := w.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
				Status:       &failed,
				Progress:     &progress,
				ErrorMessage: &msg,
				FinishedAt:   &now,
			}); updateErr != nil {
				w.logger.Warn("failed to mark export failed", zap.String("job_id", job.ID), zap.Error(updateErr))
			}
			w.recordJob(record, models.ExportStatusFailed)
			if permanent {
				return nil
			}
		} else {
			queued := models.ExportStatusQueued
			reset := 0
			if updateErr := w.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
				Status:       &queued,
				Progress:     &reset,
				ErrorMessage: &msg,
			}); updateErr != nil {
				w.logger.Warn("failed to mark export queued", zap.String("job_id", job.ID), zap.Error(updateErr))
			}
		}
		return err
	}
	finished := models.ExportStatusFinished
	progress = 100
	now := time.Now().UTC()
	clear := ""
	if err := w.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
		Status:       &finished,
		Progress:     &progress,
		FilePath:     &result.RelativePath,
		ResultURL:    &result.URL,
		ErrorMessage: &clear,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Warn("failed to mark export finished", zap.String("job_id", job.ID), zap.Error(err))
		return err
	}
	w.recordJob(record, models.ExportStatusFinished)
	return nil
}

func (w *ExportWorker) recordJob(record *models.ExportJob, status models.ExportStatus) {
	if w.metrics == nil || record == nil {
		return
	}
	w.metrics.RecordExportJob(string(record.Format), string(status))
}
