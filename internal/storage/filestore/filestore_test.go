package filestore

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestNew_CreatesDirectory проверяет создание директории данных.
func TestNew_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")

	fs, err := New(dir)
	if err != nil {
		t.Fatalf("ошибка создания FileStore: %v", err)
	}

	if fs.DataDir() != dir {
		t.Errorf("ожидался путь %s, получен %s", dir, fs.DataDir())
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("директория не создана: %v", err)
	}
	if !info.IsDir() {
		t.Fatal("путь не является директорией")
	}
}

// TestGenerateStoredName проверяет уникальность и сохранение расширения.
func TestGenerateStoredName(t *testing.T) {
	a := GenerateStoredName("photo.jpg")
	b := GenerateStoredName("photo.jpg")

	if a == b {
		t.Errorf("имена для одинакового входа должны отличаться: %s", a)
	}
	if !strings.HasSuffix(a, ".jpg") || !strings.HasSuffix(b, ".jpg") {
		t.Errorf("расширение должно сохраняться: %s, %s", a, b)
	}

	// Без расширения — имя без точки на конце
	c := GenerateStoredName("README")
	if strings.HasSuffix(c, ".") {
		t.Errorf("имя без расширения не должно оканчиваться точкой: %s", c)
	}

	// Составное расширение — берётся последний суффикс
	d := GenerateStoredName("archive.tar.gz")
	if !strings.HasSuffix(d, ".gz") {
		t.Errorf("ожидался суффикс .gz: %s", d)
	}
}

// TestSaveFile проверяет запись файла и round-trip содержимого.
func TestSaveFile(t *testing.T) {
	fs, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("ошибка создания FileStore: %v", err)
	}

	content := []byte("Hello, World! Тестовые данные для проверки.")
	storedName := GenerateStoredName("test-photo.jpg")

	result, err := fs.SaveFile(bytes.NewReader(content), storedName)
	if err != nil {
		t.Fatalf("ошибка сохранения: %v", err)
	}

	if result.Size != int64(len(content)) {
		t.Errorf("размер: ожидалось %d, получено %d", len(content), result.Size)
	}
	if result.StoredName != storedName {
		t.Errorf("имя: ожидалось %s, получено %s", storedName, result.StoredName)
	}

	data, err := os.ReadFile(result.FullPath)
	if err != nil {
		t.Fatalf("ошибка чтения файла: %v", err)
	}
	if !bytes.Equal(data, content) {
		t.Error("содержимое файла не совпадает")
	}
}

// TestSaveFile_NoTmpFile проверяет, что temp файл удалён после сохранения.
func TestSaveFile_NoTmpFile(t *testing.T) {
	fs, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("ошибка создания FileStore: %v", err)
	}

	result, err := fs.SaveFile(bytes.NewReader([]byte("data")), GenerateStoredName("file.txt"))
	if err != nil {
		t.Fatalf("ошибка сохранения: %v", err)
	}

	if _, err := os.Stat(result.FullPath + ".tmp"); !os.IsNotExist(err) {
		t.Error("временный файл не должен существовать")
	}
}

// TestSaveFile_EmptyFile проверяет сохранение пустого файла.
func TestSaveFile_EmptyFile(t *testing.T) {
	fs, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("ошибка создания FileStore: %v", err)
	}

	result, err := fs.SaveFile(bytes.NewReader(nil), GenerateStoredName("empty.txt"))
	if err != nil {
		t.Fatalf("ошибка сохранения: %v", err)
	}
	if result.Size != 0 {
		t.Errorf("ожидался размер 0, получено %d", result.Size)
	}
	if !fs.FileExists(result.StoredName) {
		t.Error("пустой файл должен существовать на диске")
	}
}

// TestResolvePath проверяет разрешение пути и отсутствие файла.
func TestResolvePath(t *testing.T) {
	fs, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("ошибка создания FileStore: %v", err)
	}

	storedName := GenerateStoredName("doc.pdf")
	if _, err := fs.SaveFile(bytes.NewReader([]byte("pdf")), storedName); err != nil {
		t.Fatalf("ошибка сохранения: %v", err)
	}

	path, ok := fs.ResolvePath(storedName)
	if !ok {
		t.Fatal("файл должен существовать")
	}
	if filepath.Base(path) != storedName {
		t.Errorf("ожидалось имя %s, получено %s", storedName, filepath.Base(path))
	}

	// Имя, которое генератор никогда не выдавал
	if _, ok := fs.ResolvePath("never-issued.bin"); ok {
		t.Error("несуществующий файл не должен разрешаться")
	}

	// Директория не является обычным файлом
	if _, ok := fs.ResolvePath(""); ok {
		t.Error("пустое имя не должно разрешаться")
	}
}

// TestStoredName_Traversal проверяет защиту от выхода за пределы dataDir.
func TestStoredName_Traversal(t *testing.T) {
	dir := t.TempDir()
	fs, err := New(filepath.Join(dir, "data"))
	if err != nil {
		t.Fatalf("ошибка создания FileStore: %v", err)
	}

	// Файл-приманка за пределами dataDir
	outside := filepath.Join(dir, "secret.txt")
	if err := os.WriteFile(outside, []byte("secret"), 0o600); err != nil {
		t.Fatalf("ошибка создания файла: %v", err)
	}

	bad := []string{
		"../secret.txt",
		"..",
		"sub/secret.txt",
		`sub\secret.txt`,
		"/etc/passwd",
	}
	for _, name := range bad {
		if _, ok := fs.ResolvePath(name); ok {
			t.Errorf("имя %q не должно разрешаться", name)
		}
		if _, err := fs.SaveFile(bytes.NewReader([]byte("x")), name); err == nil {
			t.Errorf("запись под именем %q должна отклоняться", name)
		}
		if err := fs.DeleteFile(name); err == nil {
			t.Errorf("удаление по имени %q должно отклоняться", name)
		}
	}

	// Приманка не тронута
	data, err := os.ReadFile(outside)
	if err != nil || string(data) != "secret" {
		t.Error("файл за пределами dataDir повреждён")
	}
}

// TestDeleteFile проверяет удаление и идемпотентность.
func TestDeleteFile(t *testing.T) {
	fs, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("ошибка создания FileStore: %v", err)
	}

	storedName := GenerateStoredName("tmp.bin")
	if _, err := fs.SaveFile(bytes.NewReader([]byte("bin")), storedName); err != nil {
		t.Fatalf("ошибка сохранения: %v", err)
	}

	if err := fs.DeleteFile(storedName); err != nil {
		t.Fatalf("ошибка удаления: %v", err)
	}
	if fs.FileExists(storedName) {
		t.Error("файл должен быть удалён")
	}

	// Повторное удаление — nil
	if err := fs.DeleteFile(storedName); err != nil {
		t.Errorf("повторное удаление должно возвращать nil: %v", err)
	}
}

// TestReadFile проверяет чтение сохранённого файла.
func TestReadFile(t *testing.T) {
	fs, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("ошибка создания FileStore: %v", err)
	}

	content := []byte("readable")
	storedName := GenerateStoredName("r.txt")
	if _, err := fs.SaveFile(bytes.NewReader(content), storedName); err != nil {
		t.Fatalf("ошибка сохранения: %v", err)
	}

	f, err := fs.ReadFile(storedName)
	if err != nil {
		t.Fatalf("ошибка открытия: %v", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(f); err != nil {
		t.Fatalf("ошибка чтения: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), content) {
		t.Error("содержимое не совпадает")
	}

	if _, err := fs.ReadFile("missing.txt"); err == nil {
		t.Error("чтение несуществующего файла должно возвращать ошибку")
	}
}
