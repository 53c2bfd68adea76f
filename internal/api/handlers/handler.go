// handler.go — агрегатор HTTP-обработчиков Earl Box.
package handlers

// Handler объединяет все обработчики для монтирования в роутер.
type Handler struct {
	Files  *FilesHandler
	Health *HealthHandler
	Pages  *PagesHandler
}

// NewHandler создаёт агрегатор обработчиков.
func NewHandler(files *FilesHandler, health *HealthHandler, pages *PagesHandler) *Handler {
	return &Handler{
		Files:  files,
		Health: health,
		Pages:  pages,
	}
}
