// Package export выполняет экспорт проекта: проверку квоты, отрисовку, загрузку файла
// и атомарную фиксацию списания квоты вместе со статусом проекта.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/magabrotheeeer/content-generator/internal/lib/sl"
	"github.com/magabrotheeeer/content-generator/internal/metrics"
	"github.com/magabrotheeeer/content-generator/internal/models"
)

const (
	fileTimeLayout = "20060102150405"
	filePrefix     = "export_"

	minLinkMinutes = 1
	maxLinkMinutes = 1440

	cleanupTimeout = 10 * time.Second
)

// Repository определяет методы хранилища, нужные для экспорта.
type Repository interface {
	GetUserProject(ctx context.Context, id, userID string) (*models.Project, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	CommitExport(ctx context.Context, userID, projectID string, exportedAt time.Time) (*models.Project, error)
}

// Renderer отрисовывает холст в файл заданного формата.
type Renderer interface {
	Render(ctx context.Context, canvas models.Document, width, height int, format models.ExportFormat, quality int) ([]byte, error)
}

// BlobStore хранит готовые файлы.
type BlobStore interface {
	Upload(ctx context.Context, data []byte, name, contentType string) (string, error)
	Delete(ctx context.Context, publicURL string) (bool, error)
	SignedURL(ctx context.Context, path string, expiry time.Duration) (string, error)
}

// Publisher отправляет событие о завершённом экспорте.
type Publisher interface {
	PublishExport(ctx context.Context, event models.ExportEvent) error
}

// Auditor записывает действия в журнал.
type Auditor interface {
	Append(ctx context.Context, userID string, action models.ActionType, projectID *string, data models.Document) error
}

// Metrics учитывает результаты экспорта.
type Metrics interface {
	RecordExport(result string)
	RecordExportDuration(d time.Duration)
	RecordPublishFailure()
	RecordOrphanedArtifact()
}

// Service — оркестратор экспорта.
type Service struct {
	repo      Repository
	renderer  Renderer
	blobs     BlobStore
	publisher Publisher
	audit     Auditor
	metrics   Metrics
	log       *slog.Logger
	now       func() time.Time
}

// New создаёт оркестратор экспорта.
func New(repo Repository, renderer Renderer, blobs BlobStore, publisher Publisher,
	audit Auditor, m Metrics, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		renderer:  renderer,
		blobs:     blobs,
		publisher: publisher,
		audit:     audit,
		metrics:   m,
		log:       log,
		now:       time.Now,
	}
}

// FileName возвращает имя файла экспорта: export_<projectID>_<UTC yyyyMMddHHmmss>.<формат>.
func FileName(projectID string, at time.Time, format models.ExportFormat) string {
	return fmt.Sprintf("%s%s_%s.%s", filePrefix, projectID, at.UTC().Format(fileTimeLayout), format)
}

// ProjectIDFromFileName извлекает идентификатор проекта из имени файла экспорта.
func ProjectIDFromFileName(name string) (string, bool) {
	base := path.Base(name)
	base = strings.TrimSuffix(base, path.Ext(base))
	if !strings.HasPrefix(base, filePrefix) {
		return "", false
	}
	base = strings.TrimPrefix(base, filePrefix)
	i := strings.LastIndex(base, "_")
	if i <= 0 || len(base)-i-1 != len(fileTimeLayout) {
		return "", false
	}
	return base[:i], true
}

// Export отрисовывает проект и сохраняет файл. Квота списывается только после успешной
// загрузки и одновременно с переводом проекта в Completed. При любой ошибке до фиксации
// состояние пользователя и проекта не меняется.
func (s *Service) Export(ctx context.Context, userID string, req models.ExportRequest) (*models.ExportResult, error) {
	const op = "export.Export"

	start := s.now()
	defer func() { s.metrics.RecordExportDuration(s.now().Sub(start)) }()

	if f, ok := models.ParseExportFormat(req.Format); ok {
		req.Format = string(f)
	}
	if err := models.Validate(req); err != nil {
		return nil, err
	}
	format := models.ExportFormat(req.Format)

	log := s.log.With(
		slog.String("op", op),
		slog.String("user_id", userID),
		slog.String("project_id", req.ProjectID),
	)

	project, err := s.repo.GetUserProject(ctx, req.ProjectID, userID)
	if err != nil {
		s.recordFailure(err)
		return nil, models.Wrap(err, "failed to load project")
	}
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		s.recordFailure(err)
		return nil, models.Wrap(err, "failed to load user")
	}

	if !user.CanExport() {
		s.metrics.RecordExport(metrics.ExportQuotaExceeded)
		return nil, models.QuotaExceeded("monthly export limit reached")
	}

	data, err := s.renderer.Render(ctx, project.CanvasData, project.Width, project.Height, format, req.Quality)
	if err == nil && len(data) == 0 {
		err = fmt.Errorf("%s: renderer returned empty output", op)
	}
	if err != nil {
		log.Error("failed to render project", sl.Err(err))
		s.metrics.RecordExport(metrics.ExportRenderFailed)
		return nil, models.RenderFailed(err)
	}

	exportedAt := s.now().UTC()
	fileName := FileName(project.ID, exportedAt, format)
	url, err := s.blobs.Upload(ctx, data, fileName, format.ContentType())
	if err != nil {
		log.Error("failed to upload export", slog.String("file", fileName), sl.Err(err))
		s.metrics.RecordExport(metrics.ExportUploadFailed)
		return nil, models.UploadFailed(err)
	}

	committed, err := s.repo.CommitExport(ctx, userID, project.ID, exportedAt)
	if err != nil {
		log.Warn("export commit failed, removing uploaded file", slog.String("file", fileName), sl.Err(err))
		s.removeOrphan(ctx, log, url)
		switch models.KindOf(err) {
		case models.KindQuotaExceeded:
			s.metrics.RecordExport(metrics.ExportQuotaExceeded)
		case models.KindNotFound:
			s.metrics.RecordExport(metrics.ExportNotFound)
		default:
			s.metrics.RecordExport(metrics.ExportCommitFailed)
		}
		return nil, models.Wrap(err, "failed to commit export")
	}
	s.metrics.RecordExport(metrics.ExportSucceeded)
	log.Info("project exported", slog.String("file", fileName), slog.String("format", string(format)))

	if err := s.audit.Append(ctx, userID, models.ActionProjectExported, &committed.ID, models.Document{
		"projectName": committed.Name,
		"format":      string(format),
		"quality":     req.Quality,
	}); err != nil {
		log.Warn("failed to append history", slog.String("action", string(models.ActionProjectExported)), sl.Err(err))
	}

	if err := s.publisher.PublishExport(ctx, models.ExportEvent{
		UserID:      user.ID,
		Email:       user.Email,
		Username:    user.Username,
		ProjectID:   committed.ID,
		ProjectName: committed.Name,
		Format:      string(format),
		URL:         url,
		ExportedAt:  exportedAt,
	}); err != nil {
		log.Warn("failed to publish export event", sl.Err(err))
		s.metrics.RecordPublishFailure()
	}

	return &models.ExportResult{
		URL:        url,
		FileName:   fileName,
		ExportedAt: exportedAt,
	}, nil
}

// SignedDownload выдаёт временную ссылку на файл экспорта проекта, принадлежащего пользователю.
func (s *Service) SignedDownload(ctx context.Context, userID, filePath string, minutes int) (string, error) {
	const op = "export.SignedDownload"

	if minutes < minLinkMinutes || minutes > maxLinkMinutes {
		return "", models.InvalidInput("expiry must be between %d and %d minutes", minLinkMinutes, maxLinkMinutes)
	}
	filePath = strings.TrimLeft(strings.TrimSpace(filePath), "/")
	projectID, ok := ProjectIDFromFileName(filePath)
	if !ok {
		return "", models.NotFound("export not found")
	}
	if _, err := s.repo.GetUserProject(ctx, projectID, userID); err != nil {
		if models.KindOf(err) == models.KindNotFound {
			return "", models.NotFound("export not found")
		}
		return "", models.Wrap(err, "failed to load project")
	}

	link, err := s.blobs.SignedURL(ctx, filePath, time.Duration(minutes)*time.Minute)
	if err != nil {
		s.log.Error("failed to sign download url", slog.String("op", op), slog.String("file", filePath), sl.Err(err))
		return "", models.DependencyFailure("failed to create download link", err)
	}
	return link, nil
}

func (s *Service) removeOrphan(ctx context.Context, log *slog.Logger, url string) {
	s.metrics.RecordOrphanedArtifact()
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	if _, err := s.blobs.Delete(ctx, url); err != nil {
		log.Warn("failed to delete orphaned export", slog.String("url", url), sl.Err(err))
	}
}

func (s *Service) recordFailure(err error) {
	if models.KindOf(err) == models.KindNotFound {
		s.metrics.RecordExport(metrics.ExportNotFound)
	}
}
