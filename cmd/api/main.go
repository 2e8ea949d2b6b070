package main

import (
	"context"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"taskhub/internal/config"
	"taskhub/internal/handler"
	"taskhub/internal/logger"
	"taskhub/internal/middleware"
	"taskhub/internal/policy"
	"taskhub/internal/service"
	"taskhub/internal/service/archive"
	"taskhub/internal/service/auth"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Log.Info("No .env file found, using environment variables")
	}

	cfg := config.Load()
	logger.SetLevel(cfg.LogLevel)
	if cfg.IsProduction() {
		logger.UseJSON()
	}

	if cfg.JWTSecret == "" {
		logger.Log.Fatal("JWT_SECRET must be set")
	}

	db, err := config.NewPostgresDB(cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to connect to database")
	}

	var rdb *redis.Client
	if client, err := config.NewRedisClient(cfg); err != nil {
		logger.Log.WithError(err).Warn("Redis unavailable, unread counts will not be cached")
	} else {
		rdb = client
	}

	var store archive.ObjectPutter
	if client, err := config.NewMinIOClient(cfg); err != nil {
		logger.Log.WithError(err).Warn("MinIO unavailable, deleted projects will not be archived")
	} else {
		store = client
	}

	services := service.NewServices(db, rdb, store, cfg)
	handlers := handler.NewHandlers(services)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ErrorHandler: middleware.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/health"
		},
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	setupRoutes(app, handlers, services.Auth, services.Policy)

	go func() {
		logger.Log.WithField("port", cfg.Port).Info("Server starting")
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Log.WithError(err).Fatal("Failed to start server")
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"http": func(ctx context.Context) error {
				return app.ShutdownWithContext(ctx)
			},
			"postgres": func(ctx context.Context) error {
				return db.Close()
			},
			"redis": func(ctx context.Context) error {
				if rdb == nil {
					return nil
				}
				return rdb.Close()
			},
		},
	)

	exitCode := <-wait
	logger.Log.WithField("code", exitCode).Info("Server stopped")
	os.Exit(exitCode)
}

func setupRoutes(app *fiber.App, h *handler.Handlers, authService auth.Service, evaluator *policy.Evaluator) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", h.Auth.Register)
	authRoutes.Post("/login", h.Auth.Login)

	protected := api.Group("", middleware.AuthRequired(authService))
	protected.Get("/auth/me", h.Auth.Me)

	users := protected.Group("/users")
	users.Get("/", middleware.RequireCapability(evaluator, policy.ActionRead, policy.UsersTarget()), h.User.List)
	users.Post("/", middleware.RequireCapability(evaluator, policy.ActionCreate, policy.UsersTarget()), h.User.Create)
	users.Get("/:id", middleware.RequireCapability(evaluator, policy.ActionRead, policy.UsersTarget()), h.User.GetByID)
	users.Put("/:id", middleware.RequireCapability(evaluator, policy.ActionUpdate, policy.UsersTarget()), h.User.Update)
	users.Delete("/:id", middleware.RequireCapability(evaluator, policy.ActionDelete, policy.UsersTarget()), h.User.Delete)

	projects := protected.Group("/projects")
	projects.Get("/", h.Project.List)
	projects.Post("/", middleware.RequireCapability(evaluator, policy.ActionCreate, policy.ProjectTarget(nil)), h.Project.Create)
	projects.Get("/:id", h.Project.GetByID)
	projects.Put("/:id", h.Project.Update)
	projects.Delete("/:id", h.Project.Delete)
	projects.Put("/:id/add-member", h.Project.AddMember)
	projects.Put("/:id/remove-member", h.Project.RemoveMember)
	projects.Get("/:projectId/tasks", h.Task.ListByProject)
	projects.Post("/:projectId/tasks", h.Task.Create)
	projects.Get("/:projectId/activity-logs", h.Activity.ListByProject)

	tasks := protected.Group("/tasks")
	tasks.Get("/:id", h.Task.GetByID)
	tasks.Put("/:id", h.Task.Update)
	tasks.Delete("/:id", h.Task.Delete)

	notifications := protected.Group("/notifications")
	notifications.Get("/", h.Notification.List)
	notifications.Get("/unread-count", h.Notification.GetUnreadCount)
	notifications.Put("/read-all", h.Notification.MarkAllAsRead)
	notifications.Put("/:id/read", h.Notification.MarkAsRead)
}
