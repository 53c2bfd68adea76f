// download.go — сервис отдачи файлов по имени хранения.
package service

import (
	"fmt"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/earlbox/internal/api/errors"
	"github.com/bigkaa/earlbox/internal/api/middleware"
	"github.com/bigkaa/earlbox/internal/storage/filestore"
)

// DownloadService — сервис отдачи файлов.
type DownloadService struct {
	store  *filestore.FileStore
	logger *slog.Logger
}

// NewDownloadService создаёт сервис отдачи файлов.
func NewDownloadService(store *filestore.FileStore, logger *slog.Logger) *DownloadService {
	return &DownloadService{
		store:  store,
		logger: logger.With(slog.String("component", "download_service")),
	}
}

// DownloadError — ошибка отдачи с HTTP-кодом.
type DownloadError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Serve отдаёт файл клиенту через http.ServeContent.
// Чистое чтение с диска без обращения к метаданным: blob, найденный
// на диске, отдаётся всегда. Content-Type определяется по расширению
// имени хранения. Поддерживает Range requests (206 Partial Content).
func (s *DownloadService) Serve(w http.ResponseWriter, r *http.Request, storedName string) *DownloadError {
	file, err := s.store.ReadFile(storedName)
	if err != nil {
		return &DownloadError{
			StatusCode: http.StatusNotFound,
			Code:       apierrors.CodeNotFound,
			Message:    fmt.Sprintf("Файл %s не найден", storedName),
		}
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		s.logger.Error("Ошибка получения stat файла",
			slog.String("stored_filename", storedName),
			slog.String("error", err.Error()),
		)
		return &DownloadError{
			StatusCode: http.StatusInternalServerError,
			Code:       apierrors.CodeInternalError,
			Message:    "Ошибка чтения файла",
		}
	}

	// http.ServeContent обрабатывает Range, If-Modified-Since,
	// Content-Length и выводит Content-Type из расширения имени.
	http.ServeContent(w, r, storedName, stat.ModTime(), file)

	middleware.OperationsTotal.WithLabelValues("download", "success").Inc()

	s.logger.Debug("Файл отдан",
		slog.String("stored_filename", storedName),
		slog.Int64("size", stat.Size()),
	)

	return nil
}
