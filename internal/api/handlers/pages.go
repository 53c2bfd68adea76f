// pages.go — обработчик главной страницы Earl Box.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/bigkaa/earlbox/internal/config"
	"github.com/bigkaa/earlbox/internal/domain/model"
	"github.com/bigkaa/earlbox/internal/repository"
	"github.com/bigkaa/earlbox/internal/ui"
)

// PagesHandler — обработчик серверных HTML-страниц.
type PagesHandler struct {
	repo   repository.UploadedFileRepository
	cfg    *config.Config
	logger *slog.Logger
}

// NewPagesHandler создаёт обработчик страниц.
func NewPagesHandler(repo repository.UploadedFileRepository, cfg *config.Config, logger *slog.Logger) *PagesHandler {
	return &PagesHandler{
		repo:   repo,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "ui.pages")),
	}
}

// Index обрабатывает GET / — главная страница со статистикой,
// формой загрузки и списком файлов.
func (h *PagesHandler) Index(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.Stats(r.Context())
	if err != nil {
		h.logger.Error("Ошибка получения статистики", slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	files, err := h.repo.ListAll(r.Context())
	if err != nil {
		h.logger.Error("Ошибка получения списка файлов", slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	data := ui.IndexData{
		MaxFileSizeHuman: model.FormatFileSize(h.cfg.MaxFileSize),
		TotalFiles:       stats.TotalFiles,
		TotalSizeHuman:   model.FormatFileSize(stats.TotalSizeBytes),
		Files:            make([]ui.IndexFile, 0, len(files)),
	}
	for _, f := range files {
		data.Files = append(data.Files, ui.IndexFile{
			OriginalFilename: f.OriginalFilename,
			SizeHuman:        model.FormatFileSize(f.FileSize),
			UploadedAt:       f.UploadTimestamp.UTC().Format("2006-01-02 15:04"),
			PublicURL:        f.PublicURL,
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := ui.IndexTemplate.Execute(w, data); err != nil {
		h.logger.Error("Ошибка рендеринга главной страницы", slog.String("error", err.Error()))
	}
}
