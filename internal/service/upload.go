// Пакет service — бизнес-логика Earl Box.
// upload.go — пайплайн загрузки файлов: валидация, запись на диск,
// регистрация метаданных, откат при ошибке.
package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	apierrors "github.com/bigkaa/earlbox/internal/api/errors"
	"github.com/bigkaa/earlbox/internal/api/middleware"
	"github.com/bigkaa/earlbox/internal/config"
	"github.com/bigkaa/earlbox/internal/domain/model"
	"github.com/bigkaa/earlbox/internal/repository"
	"github.com/bigkaa/earlbox/internal/storage/filestore"
)

// UploadParams — параметры загрузки файла.
type UploadParams struct {
	// Reader — поток данных файла
	Reader io.Reader
	// OriginalFilename — оригинальное имя файла
	OriginalFilename string
	// ContentType — заявленный клиентом MIME-тип (может быть пустым)
	ContentType string
}

// UploadError — ошибка загрузки с HTTP-кодом.
type UploadError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// UploadService — сервис загрузки файлов.
type UploadService struct {
	cfg    *config.Config
	store  *filestore.FileStore
	repo   repository.UploadedFileRepository
	logger *slog.Logger
}

// NewUploadService создаёт сервис загрузки файлов.
func NewUploadService(
	cfg *config.Config,
	store *filestore.FileStore,
	repo repository.UploadedFileRepository,
	logger *slog.Logger,
) *UploadService {
	return &UploadService{
		cfg:    cfg,
		store:  store,
		repo:   repo,
		logger: logger.With(slog.String("component", "upload_service")),
	}
}

// Upload загружает файл в хранилище.
//
// Поток:
//  1. Валидация имени файла
//  2. Генерация имени хранения (uuid + расширение)
//  3. Запись на диск через LimitReader; лимит проверяется по фактически
//     записанным байтам, заявленный клиентом размер не учитывается
//  4. Определение Content-Type (заявленный → по расширению → octet-stream)
//  5. Регистрация метаданных в БД
//
// При ошибке регистрации — best-effort удаление записанного файла,
// чтобы не оставить blob без записи. Запись в БД существует только
// если blob существует; обратное (осиротевший blob) допустимо как
// редкое переходное состояние.
func (s *UploadService) Upload(ctx context.Context, params UploadParams) (*model.UploadedFile, *UploadError) {
	// 1. Имя файла обязательно
	if params.OriginalFilename == "" {
		return nil, &UploadError{
			StatusCode: http.StatusBadRequest,
			Code:       apierrors.CodeValidationError,
			Message:    "Имя файла обязательно",
		}
	}

	// 2. Генерируем имя хранения
	storedName := filestore.GenerateStoredName(params.OriginalFilename)

	// 3. Пишем на диск, не читая больше лимита + 1 байт
	limited := io.LimitReader(params.Reader, s.cfg.MaxFileSize+1)
	saved, err := s.store.SaveFile(limited, storedName)
	if err != nil {
		middleware.OperationsTotal.WithLabelValues("upload", "error").Inc()
		s.logger.Error("Ошибка сохранения файла",
			slog.String("filename", params.OriginalFilename),
			slog.String("stage", "blob_write"),
			slog.String("error", err.Error()),
		)
		return nil, &UploadError{
			StatusCode: http.StatusInternalServerError,
			Code:       apierrors.CodeInternalError,
			Message:    "Ошибка сохранения файла на диск",
		}
	}

	// Лимит превышен — файл убираем, метаданные не создаём
	if saved.Size > s.cfg.MaxFileSize {
		_ = s.store.DeleteFile(storedName)
		middleware.OperationsTotal.WithLabelValues("upload", "rejected").Inc()
		return nil, &UploadError{
			StatusCode: http.StatusRequestEntityTooLarge,
			Code:       apierrors.CodeFileTooLarge,
			Message:    fmt.Sprintf("Размер файла превышает максимум %d байт", s.cfg.MaxFileSize),
		}
	}

	// 4. Определяем Content-Type
	contentType := resolveContentType(params.ContentType, params.OriginalFilename)

	// 5. Регистрируем метаданные
	record := &model.UploadedFile{
		OriginalFilename: params.OriginalFilename,
		StoredFilename:   storedName,
		FileSize:         saved.Size,
		ContentType:      contentType,
		UploadTimestamp:  time.Now().UTC(),
		PublicURL:        "/files/" + storedName,
	}

	if err := s.repo.Insert(ctx, record); err != nil {
		// Откат: убираем blob, чтобы не осталось файла без записи.
		// Ошибка удаления только логируется — мы уже в error path.
		if delErr := s.store.DeleteFile(storedName); delErr != nil {
			s.logger.Error("Ошибка отката blob после сбоя регистрации",
				slog.String("stored_filename", storedName),
				slog.String("error", delErr.Error()),
			)
		}
		middleware.OperationsTotal.WithLabelValues("upload", "error").Inc()
		s.logger.Error("Ошибка регистрации файла",
			slog.String("filename", params.OriginalFilename),
			slog.String("stage", "metadata_insert"),
			slog.String("error", err.Error()),
		)
		return nil, &UploadError{
			StatusCode: http.StatusInternalServerError,
			Code:       apierrors.CodeInternalError,
			Message:    "Ошибка регистрации файла",
		}
	}

	// Метрики
	middleware.OperationsTotal.WithLabelValues("upload", "success").Inc()
	middleware.FilesTotal.Inc()
	middleware.StorageBytes.Add(float64(saved.Size))

	s.logger.Info("Файл загружен",
		slog.Int64("id", record.ID),
		slog.String("filename", record.OriginalFilename),
		slog.String("stored_filename", record.StoredFilename),
		slog.Int64("size", record.FileSize),
		slog.String("content_type", record.ContentType),
	)

	return record, nil
}

// resolveContentType определяет MIME-тип файла: заявленный клиентом,
// иначе по расширению имени, иначе application/octet-stream.
func resolveContentType(declared, filename string) string {
	if declared != "" {
		// Убираем параметры (charset и т.д.)
		if idx := strings.Index(declared, ";"); idx != -1 {
			declared = strings.TrimSpace(declared[:idx])
		}
		return declared
	}
	if byExt := mime.TypeByExtension(filepath.Ext(filename)); byExt != "" {
		return byExt
	}
	return "application/octet-stream"
}
