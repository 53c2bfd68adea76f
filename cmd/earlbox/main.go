// Точка входа Earl Box — сервис обмена файлами.
// Загружает конфигурацию, применяет миграции, подключается к PostgreSQL,
// инициализирует файловое хранилище, сервисный слой и API handlers,
// запускает HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/bigkaa/earlbox/internal/api/handlers"
	"github.com/bigkaa/earlbox/internal/api/middleware"
	"github.com/bigkaa/earlbox/internal/config"
	"github.com/bigkaa/earlbox/internal/database"
	"github.com/bigkaa/earlbox/internal/repository"
	"github.com/bigkaa/earlbox/internal/server"
	"github.com/bigkaa/earlbox/internal/service"
	"github.com/bigkaa/earlbox/internal/storage/filestore"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Earl Box запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("data_dir", cfg.DataDir),
		slog.Int64("max_file_size", cfg.MaxFileSize),
	)

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 5. Файловое хранилище
	store, err := filestore.New(cfg.DataDir)
	if err != nil {
		logger.Error("Ошибка инициализации файлового хранилища",
			slog.String("data_dir", cfg.DataDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}
	logger.Info("Файловое хранилище инициализировано", slog.String("data_dir", store.DataDir()))

	// 6. Repository
	fileRepo := repository.NewUploadedFileRepository(pool)

	// 7. Services
	uploadSvc := service.NewUploadService(cfg, store, fileRepo, logger)
	downloadSvc := service.NewDownloadService(store, logger)

	// 8. Инициализация gauge-метрик текущим состоянием реестра
	if stats, statsErr := fileRepo.Stats(ctx); statsErr != nil {
		logger.Warn("Ошибка начального подсчёта статистики",
			slog.String("error", statsErr.Error()),
		)
	} else {
		middleware.FilesTotal.Set(float64(stats.TotalFiles))
		middleware.StorageBytes.Set(float64(stats.TotalSizeBytes))
		logger.Info("Статистика хранилища",
			slog.Int64("total_files", stats.TotalFiles),
			slog.Int64("total_size_bytes", stats.TotalSizeBytes),
		)
	}

	// 9. Handlers
	pgChecker := database.NewReadinessChecker(pool)
	h := handlers.NewHandler(
		handlers.NewFilesHandler(uploadSvc, downloadSvc, fileRepo, cfg),
		handlers.NewHealthHandler(cfg.DataDir, pgChecker),
		handlers.NewPagesHandler(fileRepo, cfg, logger),
	)

	// 10. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, h)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Earl Box остановлен")
}
