package repository

import (
	"context"
	"fmt"

	"github.com/bigkaa/earlbox/internal/domain/model"
)

// UploadedFileRepository — операции над таблицей uploaded_files.
type UploadedFileRepository interface {
	// Insert создаёт запись о загруженном файле, назначает ID.
	Insert(ctx context.Context, f *model.UploadedFile) error
	// ListAll возвращает все записи, новые первыми.
	ListAll(ctx context.Context) ([]*model.UploadedFile, error)
	// Stats возвращает количество записей и суммарный размер в байтах.
	Stats(ctx context.Context) (*model.UploadStats, error)
}

// uploadedFileRepo — реализация UploadedFileRepository.
type uploadedFileRepo struct {
	db DBTX
}

// NewUploadedFileRepository создаёт репозиторий загруженных файлов.
func NewUploadedFileRepository(db DBTX) UploadedFileRepository {
	return &uploadedFileRepo{db: db}
}

func (r *uploadedFileRepo) Insert(ctx context.Context, f *model.UploadedFile) error {
	query := `
		INSERT INTO uploaded_files (original_filename, stored_filename, file_size,
			content_type, upload_timestamp, public_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := r.db.QueryRow(ctx, query,
		f.OriginalFilename, f.StoredFilename, f.FileSize,
		f.ContentType, f.UploadTimestamp, f.PublicURL,
	).Scan(&f.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: файл с именем хранения %s уже зарегистрирован", ErrConflict, f.StoredFilename)
		}
		return fmt.Errorf("ошибка регистрации файла: %w", err)
	}
	return nil
}

// ListAll возвращает полностью материализованный список.
// Сортировка: upload_timestamp DESC, при равных метках — id DESC,
// чтобы более поздняя вставка шла первой.
func (r *uploadedFileRepo) ListAll(ctx context.Context) ([]*model.UploadedFile, error) {
	query := `
		SELECT id, original_filename, stored_filename, file_size,
			content_type, upload_timestamp, public_url
		FROM uploaded_files
		ORDER BY upload_timestamp DESC, id DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка файлов: %w", err)
	}
	defer rows.Close()

	var result []*model.UploadedFile
	for rows.Next() {
		f := &model.UploadedFile{}
		if err := rows.Scan(
			&f.ID, &f.OriginalFilename, &f.StoredFilename, &f.FileSize,
			&f.ContentType, &f.UploadTimestamp, &f.PublicURL,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования файла: %w", err)
		}
		result = append(result, f)
	}
	return result, rows.Err()
}

func (r *uploadedFileRepo) Stats(ctx context.Context) (*model.UploadStats, error) {
	query := `SELECT COUNT(*), COALESCE(SUM(file_size), 0) FROM uploaded_files`

	stats := &model.UploadStats{}
	err := r.db.QueryRow(ctx, query).Scan(&stats.TotalFiles, &stats.TotalSizeBytes)
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчёта статистики: %w", err)
	}
	return stats, nil
}
