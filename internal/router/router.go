package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lumen-edu/lumen-api/internal/config"
	"github.com/lumen-edu/lumen-api/internal/handler"
	"github.com/lumen-edu/lumen-api/internal/middleware"
	"github.com/lumen-edu/lumen-api/internal/models"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	CourseHandler     *handler.CourseHandler
	TaskHandler       *handler.TaskHandler
	GradingHandler    *handler.GradingHandler
	AttachmentHandler *handler.AttachmentHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Course catalog: reads are public, management and task content require auth.
	if deps.CourseHandler != nil {
		courses := api.Group("/courses")
		deps.CourseHandler.Register(courses)

		manage := api.Group("/courses", jwtMiddleware, middleware.RequireRole(models.RoleAuthor, models.RoleAdmin))
		deps.CourseHandler.RegisterProtected(manage)

		authed := api.Group("/courses", jwtMiddleware)
		if deps.TaskHandler != nil {
			deps.TaskHandler.RegisterCourseTasks(authed)
		}
		if deps.AttachmentHandler != nil {
			deps.AttachmentHandler.RegisterCourseAttachments(manage)
		}
	}

	// Task content and submission history
	if deps.TaskHandler != nil {
		tasks := api.Group("/tasks", jwtMiddleware)
		deps.TaskHandler.Register(tasks)
	}

	// Answer grading, rate limited per user to keep the sandbox honest.
	if deps.GradingHandler != nil {
		grade := api.Group("/grade", jwtMiddleware, middleware.RateLimit("grade", 20, time.Minute))
		deps.GradingHandler.Register(grade)
	}

	// Attachment management
	if deps.AttachmentHandler != nil {
		attachments := api.Group("/attachments", jwtMiddleware)
		deps.AttachmentHandler.Register(attachments)
	}
}
