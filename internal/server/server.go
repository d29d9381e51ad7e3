// Пакет server — HTTP-сервер хранилища с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на reverse proxy.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/govault/internal/api/handlers"
	"github.com/bigkaa/govault/internal/api/middleware"
	"github.com/bigkaa/govault/internal/config"
)

// Server — HTTP-сервер хранилища.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
// tokenAuth — middleware аутентификации (может быть nil для
// тестирования без auth, тогда защищённые маршруты открыты).
func New(cfg *config.Config, logger *slog.Logger, handler *handlers.APIHandler, tokenAuth *middleware.TokenAuth) *Server {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))

	// Публичные endpoints: health, метрики и вход.
	// Health и metrics проверяются Kubernetes напрямую, без auth.
	router.Get("/health/live", handler.HealthLive)
	router.Get("/health/ready", handler.HealthReady)
	router.Get("/metrics", handler.GetMetrics)

	router.Route("/api", func(r chi.Router) {
		r.Post("/user/register", handler.Register)
		r.Post("/user/login", handler.Login)
		r.Get("/ping", handler.Ping)
		r.Post("/ping", handler.Ping)

		// Все остальные маршруты требуют токен сессии
		r.Group(func(r chi.Router) {
			if tokenAuth != nil {
				r.Use(tokenAuth.Middleware())
			}

			r.Post("/user/stats", handler.Stats)
			r.Post("/upload/file", handler.Upload)
			r.Post("/files", handler.ListFiles)
			r.Post("/download/file", handler.Download)
			r.Post("/file/publish", handler.Publish)
			r.Post("/file/{action}", handler.FileAction)
			r.Post("/attribute/{type}/{action}", handler.AttributeAction)
			r.Post("/namespace/create", handler.CreateNamespace)
			r.Post("/namespace/update", handler.RenameNamespace)
			r.Post("/namespace/delete", handler.DeleteNamespace)
			r.Post("/namespaces", handler.ListNamespaces)
		})
	})

	// Таймауты на всё тело не ставим: загрузка и отдача больших
	// файлов могут занимать произвольно долго.
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
