// files.go — HTTP handlers файловых операций Earl Box:
// загрузка, отдача по публичному URL, листинг, статистика.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/earlbox/internal/api/errors"
	"github.com/bigkaa/earlbox/internal/config"
	"github.com/bigkaa/earlbox/internal/domain/model"
	"github.com/bigkaa/earlbox/internal/repository"
	"github.com/bigkaa/earlbox/internal/service"
)

// multipartMemoryLimit — буфер парсинга multipart form в памяти,
// остальное уходит во временные файлы.
const multipartMemoryLimit = 32 << 20 // 32 MB

// FilesHandler — обработчик файловых endpoints.
type FilesHandler struct {
	uploadSvc   *service.UploadService
	downloadSvc *service.DownloadService
	repo        repository.UploadedFileRepository
	cfg         *config.Config
}

// NewFilesHandler создаёт обработчик файловых endpoints.
func NewFilesHandler(
	uploadSvc *service.UploadService,
	downloadSvc *service.DownloadService,
	repo repository.UploadedFileRepository,
	cfg *config.Config,
) *FilesHandler {
	return &FilesHandler{
		uploadSvc:   uploadSvc,
		downloadSvc: downloadSvc,
		repo:        repo,
		cfg:         cfg,
	}
}

// fileResponse — API-представление записи о файле.
type fileResponse struct {
	ID               int64  `json:"id"`
	OriginalFilename string `json:"original_filename"`
	StoredFilename   string `json:"stored_filename"`
	FileSize         int64  `json:"file_size"`
	FileSizeHuman    string `json:"file_size_human"`
	ContentType      string `json:"content_type"`
	UploadTimestamp  string `json:"upload_timestamp"`
	PublicURL        string `json:"public_url"`
}

// fileListResponse — ответ листинга.
type fileListResponse struct {
	Items []fileResponse `json:"items"`
	Total int            `json:"total"`
}

// statsResponse — ответ статистики.
type statsResponse struct {
	TotalFiles     int64  `json:"total_files"`
	TotalSizeBytes int64  `json:"total_size_bytes"`
	TotalSizeHuman string `json:"total_size_human"`
}

// UploadFile обрабатывает POST /api/v1/files/upload.
// Multipart form: file (обязательно).
func (h *FilesHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		errors.ValidationError(w, fmt.Sprintf("Ошибка парсинга multipart: %s", err.Error()))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		errors.ValidationError(w, "Поле 'file' обязательно")
		return
	}
	defer file.Close()

	record, uploadErr := h.uploadSvc.Upload(r.Context(), service.UploadParams{
		Reader:           file,
		OriginalFilename: header.Filename,
		ContentType:      header.Header.Get("Content-Type"),
	})
	if uploadErr != nil {
		errors.WriteError(w, uploadErr.StatusCode, uploadErr.Code, uploadErr.Message)
		return
	}

	writeJSON(w, http.StatusCreated, domainToAPIFile(record))
}

// ServeFile обрабатывает GET /files/{stored_name}.
// Отдаёт сырые байты blob; сегмент пути — ровно stored_name без декораций.
func (h *FilesHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	storedName := chi.URLParam(r, "stored_name")

	if dErr := h.downloadSvc.Serve(w, r, storedName); dErr != nil {
		errors.WriteError(w, dErr.StatusCode, dErr.Code, dErr.Message)
	}
}

// ListFiles обрабатывает GET /api/v1/files.
// Возвращает все записи, новые первыми.
func (h *FilesHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.repo.ListAll(r.Context())
	if err != nil {
		errors.InternalError(w, "Ошибка получения списка файлов")
		return
	}

	items := make([]fileResponse, 0, len(files))
	for _, f := range files {
		items = append(items, domainToAPIFile(f))
	}

	writeJSON(w, http.StatusOK, fileListResponse{
		Items: items,
		Total: len(items),
	})
}

// GetStats обрабатывает GET /api/v1/stats.
func (h *FilesHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.Stats(r.Context())
	if err != nil {
		errors.InternalError(w, "Ошибка подсчёта статистики")
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		TotalFiles:     stats.TotalFiles,
		TotalSizeBytes: stats.TotalSizeBytes,
		TotalSizeHuman: model.FormatFileSize(stats.TotalSizeBytes),
	})
}

// domainToAPIFile преобразует доменную модель в API-формат.
func domainToAPIFile(f *model.UploadedFile) fileResponse {
	return fileResponse{
		ID:               f.ID,
		OriginalFilename: f.OriginalFilename,
		StoredFilename:   f.StoredFilename,
		FileSize:         f.FileSize,
		FileSizeHuman:    model.FormatFileSize(f.FileSize),
		ContentType:      f.ContentType,
		UploadTimestamp:  formatTime(f.UploadTimestamp),
		PublicURL:        f.PublicURL,
	}
}

// writeJSON вспомогательная функция для записи JSON-ответа.
func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// formatTime форматирует время для API-ответов.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
