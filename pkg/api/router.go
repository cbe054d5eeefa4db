package api

import (
	"log/slog"

	"contact-scrape-go/pkg/api/handlers"
	"contact-scrape-go/pkg/api/middleware"
	"contact-scrape-go/pkg/orchestrator"
	"contact-scrape-go/pkg/registry"

	"github.com/gin-gonic/gin"
)

// Deps are the collaborators the dashboard API serves.
type Deps struct {
	Orchestrator *orchestrator.Orchestrator
	Selection    *registry.Selection
	Health       handlers.HealthChecker
	Token        string
	Logger       *slog.Logger
}

func NewRouter(deps Deps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	o, sel := deps.Orchestrator, deps.Selection

	router := gin.New()

	// Middleware
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.ErrorHandler(logger))

	// Health check
	router.GET("/health", handlers.HealthCheck(deps.Health))

	// API routes
	v1 := router.Group("/api/v1")
	v1.Use(middleware.RequireToken(deps.Token))
	{
		// Contacts
		contacts := v1.Group("/contacts")
		{
			contacts.GET("", handlers.ListContacts(o, sel))
			contacts.POST("/refresh", handlers.RefreshContacts(o))
			contacts.GET("/:id", handlers.GetContact(o))
			contacts.POST("/:id/retry", handlers.RetryContact(o))
			contacts.POST("/:id/abort", handlers.AbortContact(o))
		}

		// Selection
		selection := v1.Group("/selection")
		{
			selection.GET("", handlers.GetSelection(sel))
			selection.POST("", handlers.UpdateSelection(sel))
			selection.DELETE("", handlers.ClearSelection(sel))
			selection.POST("/all", handlers.SelectAll(o, sel))
		}

		v1.POST("/scrape", handlers.StartScrape(o, sel))

		// Confirmations
		confirmations := v1.Group("/confirmations")
		{
			confirmations.GET("/head", handlers.ConfirmationHead(o))
			confirmations.POST("/:id/single", handlers.ResolveSingle(o))
			confirmations.POST("/:id/batch", handlers.ResolveBatch(o))
			confirmations.DELETE("/:id", handlers.DismissConfirmation(o))
		}

		// In-flight tasks
		tasks := v1.Group("/tasks")
		{
			tasks.GET("", handlers.ListTasks(o))
			tasks.POST("/abort", handlers.AbortTasks(o))
		}
	}

	return router
}
