// Пакет model — доменные модели Earl Box.
package model

import (
	"fmt"
	"time"
)

// UploadedFile — запись об одном успешно загруженном файле.
// Создаётся пайплайном загрузки, после создания не изменяется.
type UploadedFile struct {
	// ID — монотонный идентификатор, назначается БД
	ID int64 `json:"id"`
	// OriginalFilename — имя файла, присланное клиентом (до 255 символов)
	OriginalFilename string `json:"original_filename"`
	// StoredFilename — сгенерированное уникальное имя: uuid + расширение.
	// Используется как имя файла на диске и как сегмент публичного URL.
	StoredFilename string `json:"stored_filename"`
	// FileSize — фактически записанный размер в байтах
	FileSize int64 `json:"file_size"`
	// ContentType — MIME-тип файла
	ContentType string `json:"content_type"`
	// UploadTimestamp — момент успешной записи файла на диск (UTC)
	UploadTimestamp time.Time `json:"upload_timestamp"`
	// PublicURL — публичный URL файла: /files/{stored_filename}
	PublicURL string `json:"public_url"`
}

// UploadStats — агрегированная статистика по всем загрузкам.
type UploadStats struct {
	TotalFiles     int64 `json:"total_files"`
	TotalSizeBytes int64 `json:"total_size_bytes"`
}

// fileSizeUnits — единицы измерения для FormatFileSize.
var fileSizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatFileSize форматирует размер в человекочитаемый вид.
// Контракт фиксирован: 0 → "0 B", 512 → "512.0 B", 1536 → "1.5 KB".
func FormatFileSize(sizeBytes int64) string {
	if sizeBytes == 0 {
		return "0 B"
	}

	size := float64(sizeBytes)
	i := 0
	for size >= 1024 && i < len(fileSizeUnits)-1 {
		size /= 1024
		i++
	}

	return fmt.Sprintf("%.1f %s", size, fileSizeUnits[i])
}
