// Точка входа файлового хранилища.
// Загружает конфигурацию, подключается к PostgreSQL, применяет миграции,
// инициализирует файловое хранилище, сервисный слой и API handlers,
// запускает HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/bigkaa/govault/internal/api/handlers"
	"github.com/bigkaa/govault/internal/api/middleware"
	"github.com/bigkaa/govault/internal/config"
	"github.com/bigkaa/govault/internal/database"
	"github.com/bigkaa/govault/internal/repository"
	"github.com/bigkaa/govault/internal/server"
	"github.com/bigkaa/govault/internal/service"
	"github.com/bigkaa/govault/internal/storage/filestore"
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
	logger.Info("Хранилище запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
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
		logger.Error("Ошибка инициализации хранилища", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Файловое хранилище готово", slog.String("data_dir", store.DataDir()))

	// 6. Repositories
	userRepo := repository.NewUserRepository(pool)
	nsRepo := repository.NewNamespaceRepository(pool)
	fileRepo := repository.NewFileRepository(pool)
	attrRepo := repository.NewAttributeRepository(pool)
	registrar := repository.NewRegistrar(pool)

	// 7. Services
	resolver := service.NewResolver(fileRepo, nsRepo, cfg.NamespaceCacheSize, cfg.NamespaceCacheTTL, logger)
	ingestor := service.NewIngestor(store, cfg.MaxConcurrentUploads, cfg.MaxFileSize, logger)
	attrsSvc := service.NewAttributeService(attrRepo, logger)
	filesSvc := service.NewFileService(fileRepo, resolver, ingestor, attrsSvc, store, logger)
	searchSvc := service.NewSearchService(fileRepo, attrRepo, resolver, logger)
	nsSvc := service.NewNamespaceService(nsRepo, filesSvc, resolver, logger)
	usersSvc := service.NewUserService(userRepo, registrar, cfg.AllowRegistration, logger)

	// 8. API handlers и middleware
	health := handlers.NewHealthHandler(database.NewReadinessChecker(pool), store)
	apiHandler := handlers.NewAPIHandler(health, usersSvc, filesSvc, searchSvc, nsSvc, attrsSvc, resolver, logger)
	tokenAuth := middleware.NewTokenAuth(usersSvc, logger)

	// 9. HTTP-сервер
	srv := server.New(cfg, logger, apiHandler, tokenAuth)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка HTTP-сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
