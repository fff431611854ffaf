package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"taskboard/internal/auth"
	"taskboard/internal/config"
	"taskboard/internal/handlers"
	"taskboard/internal/logger"
	"taskboard/internal/middleware"
	"taskboard/internal/models/user"
	"taskboard/internal/repository"
	"taskboard/internal/repository/postgres"
	taskinmemory "taskboard/internal/repository/task/inmemory"
	taskpostgres "taskboard/internal/repository/task/postgres"
	userinmemory "taskboard/internal/repository/user/inmemory"
	userpostgres "taskboard/internal/repository/user/postgres"
	"taskboard/internal/service"
)

type App struct {
	config    *config.Config
	server    *http.Server
	router    *chi.Mux
	shutdowns []func() // функции для graceful shutdown
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) error {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return fmt.Errorf("инициализация логгера: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	var taskRepo service.TaskRepository
	var userRepo service.UserRepository

	switch a.config.Repository.Type {
	case "postgres":
		pool, err := postgres.NewPool(ctx,
			a.config.Database.URL,
			a.config.Database.MaxConnections,
			a.config.Database.MinConnections,
			a.config.Database.IdleTimeout,
		)
		if err != nil {
			return fmt.Errorf("подключение к базе: %w", err)
		}
		a.shutdowns = append(a.shutdowns, func() {
			logger.Info("Закрытие соединений PostgreSQL...")
			pool.Close()
		})

		if err := repository.Migrate(a.config.Database.URL); err != nil {
			return fmt.Errorf("миграции: %w", err)
		}

		taskRepo = taskpostgres.New(pool)
		userRepo = userpostgres.New(pool)
	default:
		taskRepo = taskinmemory.NewTaskStorage()
		userRepo = userinmemory.NewUserStorage()
	}

	issuer := auth.NewIssuer(a.config.Auth.JWTSecret, a.config.Auth.TokenTTL)

	taskService := service.NewTaskService(taskRepo)
	authService := service.NewAuthService(userRepo, issuer)

	taskHandler := handlers.NewTaskHandler(&taskService)
	authHandler := handlers.NewAuthHandler(&authService)

	a.router = NewRouter(issuer, authHandler, taskHandler, a.config.RateLimit.RPM)
	a.server = &http.Server{
		Addr:         a.config.GetServerAddr(),
		Handler:      a.router,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}

	return nil
}

// NewRouter собирает все маршруты. Регистрация, вход и health
// открыты, всё остальное за bearer-токеном.
func NewRouter(issuer *auth.Issuer, authHandler handlers.AuthHandler, taskHandler handlers.TaskHandler, rpm int) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
	if rpm > 0 {
		r.Use(middleware.RateLimit(rpm))
	}

	r.Post("/auth/register", authHandler.Register)
	r.Post("/auth/login", authHandler.Login)
	r.Get("/health", taskHandler.HealthCheck)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(issuer))

		r.Get("/auth/profile", authHandler.Profile)
		r.With(middleware.RequireRole(user.RoleAdmin)).Get("/auth/admin", authHandler.Admin)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.ListTasks)  // GET /tasks
			r.Post("/", taskHandler.CreateTask) // POST /tasks

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", taskHandler.GetTask)       // GET /tasks/{id}
				r.Patch("/", taskHandler.UpdateTask)  // PATCH /tasks/{id}
				r.Delete("/", taskHandler.DeleteTask) // DELETE /tasks/{id}

				r.Post("/labels", taskHandler.AddLabels)      // POST /tasks/{id}/labels
				r.Delete("/labels", taskHandler.DeleteLabels) // DELETE /tasks/{id}/labels
			})
		})
	})

	return r
}

// Run блокируется до SIGINT/SIGTERM, затем гасит сервер.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		logger.Info("Сервер запущен: " + a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("запуск сервера: %w", err)
	case <-stop:
		logger.Info("Получен сигнал завершения")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Ошибка остановки сервера", err)
	}

	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}

	return nil
}
