package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"freelanceflow/internal/api/handlers"
	"freelanceflow/internal/api/middleware"
	"freelanceflow/internal/config"
	"freelanceflow/internal/services"
)

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(cfg *config.Config, db *mongo.Database) *gin.Engine {
	// Initialize services needed by API handlers HERE
	userService := services.NewUserService(db)
	projectService := services.NewProjectService(db)
	taskService := services.NewTaskService(db, projectService)
	timeLogService := services.NewTimeLogService(db, projectService)
	sequenceService := services.NewSequenceService(db)
	invoiceService := services.NewInvoiceService(db, cfg, projectService, sequenceService)

	r := gin.Default()

	// Initialize Middleware
	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)

	// Apply global middleware first (order matters)
	r.Use(middleware.CORSMiddleware())
	r.Use(rateLimiter.Limit())

	// Initialize handlers
	restAuthHandler := handlers.NewRestAuthHandler(cfg, userService)
	restProjectHandler := handlers.NewRestProjectHandler(projectService)
	restTaskHandler := handlers.NewRestTaskHandler(taskService)
	restTimeLogHandler := handlers.NewRestTimeLogHandler(timeLogService)
	restInvoiceHandler := handlers.NewRestInvoiceHandler(invoiceService, timeLogService)

	v1 := r.Group("/v1")
	{
		// Public Routes (Rate limiting already applied globally)
		v1.POST("/auth/register", restAuthHandler.Register)
		v1.POST("/auth/login", restAuthHandler.Login)

		v1.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		// Authenticated Routes
		authRequired := v1.Group("/")
		authRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret))
		{
			// Project routes
			authRequired.POST("/projects", restProjectHandler.CreateProject)
			authRequired.GET("/projects", restProjectHandler.ListProjects)
			authRequired.GET("/projects/:id", restProjectHandler.GetProjectByID)
			authRequired.PUT("/projects/:id", restProjectHandler.UpdateProject)
			authRequired.DELETE("/projects/:id", restProjectHandler.DeleteProject)

			// Task routes
			authRequired.POST("/projects/:id/tasks", restTaskHandler.CreateTask)
			authRequired.GET("/projects/:id/tasks", restTaskHandler.ListTasks)
			authRequired.PUT("/tasks/:id", restTaskHandler.UpdateTask)
			authRequired.DELETE("/tasks/:id", restTaskHandler.DeleteTask)

			// Time log routes
			authRequired.POST("/timelogs", restTimeLogHandler.CreateTimeLog)
			authRequired.GET("/timelogs/unbilled", restTimeLogHandler.ListUnbilled)
			authRequired.GET("/projects/:id/timelogs", restTimeLogHandler.ListProjectTimeLogs)
			authRequired.PUT("/timelogs/:id", restTimeLogHandler.UpdateTimeLog)
			authRequired.DELETE("/timelogs/:id", restTimeLogHandler.DeleteTimeLog)

			// Invoice routes
			authRequired.GET("/invoices", restInvoiceHandler.ListInvoices)
			authRequired.POST("/invoices", restInvoiceHandler.CreateInvoice)
			authRequired.GET("/invoices/project/:projectId/unbilled", restInvoiceHandler.ListProjectUnbilled)
			authRequired.GET("/invoices/:id", restInvoiceHandler.GetInvoiceByID)
			authRequired.PUT("/invoices/:id", restInvoiceHandler.TransitionInvoice)
			authRequired.DELETE("/invoices/:id", restInvoiceHandler.DeleteInvoice)
		}
	}

	return r
}
