package web

import (
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/flowhost/yandexcloud-nodes/pkg/runner"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("node_type_not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleExecutionError maps an Execute failure onto a problem response:
// validation problems are the caller's fault, everything else is upstream.
func handleExecutionError(c fiber.Ctx, err error) error {
	if runner.IsValidation(err) {
		return badRequest(c, err.Error())
	}

	problem := problems.NewStatusProblem(502).
		WithInstance(c.Path()).
		WithType("execution_failed").
		WithDetail(err.Error())

	return c.Status(fiber.StatusBadGateway).JSON(problem)
}
