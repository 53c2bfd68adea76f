// Пакет ui — встроенный шаблон главной страницы Earl Box.
// Шаблон встраивается в бинарник через //go:embed и рендерится
// обработчиком страницы через html/template.
package ui

import (
	"embed"
	"html/template"
)

//go:embed templates/index.html
var content embed.FS

// IndexTemplate — разобранный шаблон главной страницы.
var IndexTemplate = template.Must(template.ParseFS(content, "templates/index.html"))

// IndexData — данные главной страницы.
type IndexData struct {
	// MaxFileSizeHuman — лимит размера файла для подсказки у формы
	MaxFileSizeHuman string
	// TotalFiles — количество загруженных файлов
	TotalFiles int64
	// TotalSizeHuman — суммарный размер в человекочитаемом виде
	TotalSizeHuman string
	// Files — список файлов, новые первыми
	Files []IndexFile
}

// IndexFile — строка списка файлов на главной странице.
type IndexFile struct {
	OriginalFilename string
	SizeHuman        string
	UploadedAt       string
	PublicURL        string
}
