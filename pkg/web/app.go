package web

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
)

// NewApp builds the fiber application with the catalog routes mounted.
func NewApp(handlers *APIHandlers) *fiber.App {
	app := fiber.New()
	app.Use(cors.New())

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	nodes := app.Group("/nodes")
	nodes.Get("/", handlers.GetNodes)
	nodes.Get("/:type/schema", handlers.GetNodeSchema)
	nodes.Post("/:type/validate", handlers.ValidateNodeConfig)
	nodes.Post("/:type/execute", handlers.ExecuteNode)

	return app
}
