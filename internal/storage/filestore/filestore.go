// Пакет filestore — операции с физическими файлами на диске.
// Запись через временный файл с fsync и атомарным rename,
// чтение по сгенерированному имени, удаление для отката.
package filestore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FileStore — управление физическими файлами в директории данных.
type FileStore struct {
	// dataDir — корневая директория хранения файлов (EB_DATA_DIR)
	dataDir string
}

// SaveResult — результат сохранения файла на диск.
type SaveResult struct {
	// StoredName — имя файла в dataDir
	StoredName string
	// FullPath — абсолютный путь файла на диске
	FullPath string
	// Size — размер записанных данных в байтах
	Size int64
}

// New создаёт новый FileStore. Создаёт директорию данных,
// если она не существует (идемпотентно).
func New(dataDir string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию данных %s: %w", dataDir, err)
	}

	return &FileStore{dataDir: dataDir}, nil
}

// GenerateStoredName генерирует уникальное имя хранения:
// случайный UUID + расширение оригинального имени (включая точку).
// Тотальная функция — ошибок нет, для любого входа возвращает
// новое значение при каждом вызове.
// Пример: a1b2c3d4-e5f6-7890-abcd-ef1234567890.jpg
func GenerateStoredName(originalFilename string) string {
	return uuid.New().String() + filepath.Ext(originalFilename)
}

// SaveFile записывает данные из reader на диск под именем storedName.
//
// Паттерн: temp файл → запись → fsync → atomic rename.
// При ошибке temp файл удаляется — читатель видит либо полный файл,
// либо ничего.
func (fs *FileStore) SaveFile(reader io.Reader, storedName string) (*SaveResult, error) {
	if err := validateStoredName(storedName); err != nil {
		return nil, err
	}

	fullPath := filepath.Join(fs.dataDir, storedName)
	tmpPath := fullPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания временного файла: %w", err)
	}

	size, err := io.Copy(f, reader)
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка записи данных: %w", err)
	}

	// fsync для гарантии записи на диск
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	return &SaveResult{
		StoredName: storedName,
		FullPath:   fullPath,
		Size:       size,
	}, nil
}

// ResolvePath возвращает абсолютный путь к файлу, если под именем
// storedName в dataDir существует обычный файл. Второе значение —
// признак существования.
func (fs *FileStore) ResolvePath(storedName string) (string, bool) {
	if err := validateStoredName(storedName); err != nil {
		return "", false
	}

	fullPath := filepath.Join(fs.dataDir, storedName)
	info, err := os.Stat(fullPath)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return fullPath, true
}

// ReadFile открывает файл для чтения и возвращает *os.File.
// Вызывающий код обязан закрыть файл.
func (fs *FileStore) ReadFile(storedName string) (*os.File, error) {
	if err := validateStoredName(storedName); err != nil {
		return nil, err
	}

	fullPath := filepath.Join(fs.dataDir, storedName)
	f, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("файл не найден: %s", storedName)
		}
		return nil, fmt.Errorf("ошибка открытия файла %s: %w", storedName, err)
	}

	return f, nil
}

// DeleteFile удаляет файл с диска. Используется только для отката
// при ошибке записи метаданных. Возвращает nil, если файла уже нет.
func (fs *FileStore) DeleteFile(storedName string) error {
	if err := validateStoredName(storedName); err != nil {
		return err
	}

	err := os.Remove(filepath.Join(fs.dataDir, storedName))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка удаления файла %s: %w", storedName, err)
	}
	return nil
}

// FileExists проверяет существование файла на диске.
func (fs *FileStore) FileExists(storedName string) bool {
	_, ok := fs.ResolvePath(storedName)
	return ok
}

// DataDir возвращает путь к директории данных.
func (fs *FileStore) DataDir() string {
	return fs.dataDir
}

// validateStoredName отклоняет имена, способные выйти за пределы dataDir.
// Имена генерируются системой, но контракт держим и для скомпрометированного
// вызывающего кода: это последняя линия защиты от path traversal.
func validateStoredName(name string) error {
	if name == "" || name == "." ||
		strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("недопустимое имя файла: %q", name)
	}
	return nil
}
