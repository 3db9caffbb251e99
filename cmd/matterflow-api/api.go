// Package main provides the Matterflow API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/counselops/matterflow/pkg/eventbus"
	"github.com/counselops/matterflow/pkg/persistence"
	"github.com/counselops/matterflow/pkg/registry"
	"github.com/counselops/matterflow/pkg/services"
	"github.com/counselops/matterflow/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		registry:    registry,
		eventBus:    eventBus,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	requestService := services.NewRequest(a.persistence, a.registry, a.eventBus, a.logger)

	handlers := web.NewAPIHandlers(requestService, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Matterflow API")
	})

	r := app.Group("/requests")
	r.Get("/", handlers.GetRequests)
	r.Post("/", handlers.CreateRequest)
	r.Get("/:id", handlers.GetRequest)
	r.Patch("/:id", handlers.UpdateRequest)
	r.Delete("/:id", handlers.DeleteRequest)

	// Transition endpoints:
	r.Post("/:id/submit", handlers.SubmitRequest)
	r.Post("/:id/assign-attorney", handlers.AssignAttorney)
	r.Post("/:id/start-review", handlers.StartReview)
	r.Patch("/:id/review-track", handlers.UpdateReviewTrack)
	r.Post("/:id/complete-review", handlers.CompleteReview)
	r.Post("/:id/complete-closeout", handlers.CompleteCloseout)
	r.Post("/:id/complete-finra", handlers.CompleteFINRA)
	r.Post("/:id/cancel", handlers.CancelRequest)
	r.Post("/:id/hold", handlers.HoldRequest)
	r.Post("/:id/resume", handlers.ResumeRequest)

	// Read surfaces for the rendering host:
	r.Get("/:id/steps", handlers.GetRequestSteps)
	r.Get("/:id/sections", handlers.GetRequestSections)
	app.Get("/request-types/:type/steps", handlers.GetRequestTypeSteps)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
