package repository

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bigkaa/earlbox/internal/config"
	"github.com/bigkaa/earlbox/internal/database"
	"github.com/bigkaa/earlbox/internal/domain/model"
	"github.com/bigkaa/earlbox/internal/storage/filestore"
)

// setupTestDB запускает PostgreSQL контейнер, применяет миграции.
// Возвращает pgxpool.Pool; очистка через t.Cleanup.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("earlbox_test"),
		postgres.WithUsername("earlbox"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Не удалось запустить PostgreSQL контейнер: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Не удалось получить host контейнера: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Не удалось получить port контейнера: %v", err)
	}

	// Настраиваем env для config.Load()
	os.Setenv("EB_DB_HOST", host)
	os.Setenv("EB_DB_PORT", port.Port())
	os.Setenv("EB_DB_NAME", "earlbox_test")
	os.Setenv("EB_DB_USER", "earlbox")
	os.Setenv("EB_DB_PASSWORD", "test-password")
	os.Setenv("EB_DB_SSL_MODE", "disable")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	if err := database.Migrate(cfg, logger); err != nil {
		t.Fatalf("Ошибка миграций: %v", err)
	}

	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("Ошибка подключения: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	return pool
}

// testRecord создаёт запись с заданным именем и временем загрузки.
func testRecord(name string, size int64, uploadedAt time.Time) *model.UploadedFile {
	storedName := filestore.GenerateStoredName(name)
	return &model.UploadedFile{
		OriginalFilename: name,
		StoredFilename:   storedName,
		FileSize:         size,
		ContentType:      "application/octet-stream",
		UploadTimestamp:  uploadedAt,
		PublicURL:        "/files/" + storedName,
	}
}

func TestUploadedFiles_InsertAssignsID(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewUploadedFileRepository(pool)

	f := testRecord("test.txt", 15, time.Now().UTC())
	if err := repo.Insert(ctx, f); err != nil {
		t.Fatalf("Insert() ошибка: %v", err)
	}
	if f.ID == 0 {
		t.Error("ID не назначен")
	}

	// Вторая загрузка того же имени — отдельная запись с другим stored_filename
	g := testRecord("test.txt", 15, time.Now().UTC())
	if err := repo.Insert(ctx, g); err != nil {
		t.Fatalf("Insert() ошибка: %v", err)
	}
	if g.ID <= f.ID {
		t.Errorf("ID должен расти монотонно: %d после %d", g.ID, f.ID)
	}
	if g.StoredFilename == f.StoredFilename {
		t.Error("stored_filename должны отличаться")
	}
}

func TestUploadedFiles_InsertConflict(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewUploadedFileRepository(pool)

	f := testRecord("dup.bin", 10, time.Now().UTC())
	if err := repo.Insert(ctx, f); err != nil {
		t.Fatalf("Insert() ошибка: %v", err)
	}

	// Повторная вставка с тем же stored_filename — нарушение уникальности
	dup := *f
	dup.ID = 0
	err := repo.Insert(ctx, &dup)
	if !errors.Is(err, ErrConflict) {
		t.Errorf("ожидался ErrConflict, получено: %v", err)
	}
}

func TestUploadedFiles_ListAllOrder(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewUploadedFileRepository(pool)

	base := time.Now().UTC().Truncate(time.Second)
	a := testRecord("a.txt", 1, base.Add(1*time.Second))
	b := testRecord("b.txt", 2, base.Add(2*time.Second))
	c := testRecord("c.txt", 3, base.Add(3*time.Second))

	for _, f := range []*model.UploadedFile{a, b, c} {
		if err := repo.Insert(ctx, f); err != nil {
			t.Fatalf("Insert() ошибка: %v", err)
		}
	}

	files, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() ошибка: %v", err)
	}
	if len(files) < 3 {
		t.Fatalf("ожидалось минимум 3 записи, получено %d", len(files))
	}

	// Новые первыми: c, b, a
	got := []string{files[0].OriginalFilename, files[1].OriginalFilename, files[2].OriginalFilename}
	want := []string{"c.txt", "b.txt", "a.txt"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("позиция %d: ожидалось %s, получено %s", i, want[i], got[i])
		}
	}
}

func TestUploadedFiles_ListAllTieBreak(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewUploadedFileRepository(pool)

	// Одинаковая метка времени — порядок определяется порядком вставки
	ts := time.Now().UTC().Truncate(time.Second)
	first := testRecord("first.txt", 1, ts)
	second := testRecord("second.txt", 2, ts)

	if err := repo.Insert(ctx, first); err != nil {
		t.Fatalf("Insert() ошибка: %v", err)
	}
	if err := repo.Insert(ctx, second); err != nil {
		t.Fatalf("Insert() ошибка: %v", err)
	}

	files, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() ошибка: %v", err)
	}

	var posFirst, posSecond = -1, -1
	for i, f := range files {
		switch f.StoredFilename {
		case first.StoredFilename:
			posFirst = i
		case second.StoredFilename:
			posSecond = i
		}
	}
	if posFirst == -1 || posSecond == -1 {
		t.Fatal("вставленные записи не найдены в списке")
	}
	if posSecond > posFirst {
		t.Errorf("при равных метках более поздняя вставка должна идти первой: second=%d, first=%d", posSecond, posFirst)
	}
}

func TestUploadedFiles_Stats(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewUploadedFileRepository(pool)

	// Пустое хранилище — (0, 0)
	before, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() ошибка: %v", err)
	}
	if before.TotalFiles != 0 || before.TotalSizeBytes != 0 {
		t.Errorf("пустое хранилище: ожидалось (0, 0), получено (%d, %d)",
			before.TotalFiles, before.TotalSizeBytes)
	}

	sizes := []int64{100, 200, 300}
	var sum int64
	now := time.Now().UTC()
	for i, size := range sizes {
		f := testRecord("s.bin", size, now.Add(time.Duration(i)*time.Second))
		if err := repo.Insert(ctx, f); err != nil {
			t.Fatalf("Insert() ошибка: %v", err)
		}
		sum += size
	}

	after, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() ошибка: %v", err)
	}

	if after.TotalFiles != before.TotalFiles+int64(len(sizes)) {
		t.Errorf("TotalFiles: ожидалось %d, получено %d", before.TotalFiles+int64(len(sizes)), after.TotalFiles)
	}
	if after.TotalSizeBytes != before.TotalSizeBytes+sum {
		t.Errorf("TotalSizeBytes: ожидалось %d, получено %d", before.TotalSizeBytes+sum, after.TotalSizeBytes)
	}
}
