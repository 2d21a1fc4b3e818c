// Package web provides the HTTP surface of the node catalog: listing node
// types, fetching schemas, validating configs, and dry-running executions.
package web

import (
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/flowhost/yandexcloud-nodes/pkg/models"
	"github.com/flowhost/yandexcloud-nodes/pkg/registry"
)

type APIHandlers struct {
	registry *registry.Registry
	validate *validator.Validate
	logger   *slog.Logger
}

func NewAPIHandlers(registry *registry.Registry, validate *validator.Validate, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		registry: registry,
		validate: validate,
		logger:   logger,
	}
}

func (h *APIHandlers) GetNodes(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"nodes": h.registry.GetAvailableNodes()})
}

func (h *APIHandlers) GetNodeSchema(c fiber.Ctx) error {
	nodeType := c.Params("type")

	schema, err := h.registry.GetNodeSchema(nodeType)
	if err != nil {
		return notFound(c, err.Error())
	}

	return c.JSON(schema)
}

func (h *APIHandlers) ValidateNodeConfig(c fiber.Ctx) error {
	nodeType := c.Params("type")

	if _, err := h.registry.GetNodeSchema(nodeType); err != nil {
		return notFound(c, err.Error())
	}

	var req ValidateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.registry.ValidateConfig(nodeType, req.Config); err != nil {
		invalid := &registry.InvalidConfigError{}
		if errors.As(err, &invalid) {
			return c.JSON(ValidateResponse{Valid: false, Error: err.Error()})
		}

		// The schema itself failed to encode or compile.
		return internalError(c, err)
	}

	return c.JSON(ValidateResponse{Valid: true})
}

func (h *APIHandlers) ExecuteNode(c fiber.Ctx) error {
	nodeType := c.Params("type")

	if _, err := h.registry.GetNodeSchema(nodeType); err != nil {
		return notFound(c, err.Error())
	}

	var req ExecuteRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	nodeID := req.NodeID
	if nodeID == "" {
		nodeID = nodeType
	}

	node, err := h.registry.CreateNode(c.Context(), nodeType, nodeID, req.Config)
	if err != nil {
		return badRequest(c, err.Error())
	}

	executionID := uuid.NewString()

	items, err := node.Execute(c.Context(), models.ExecutionContext{
		ID:             executionID,
		NodeID:         nodeID,
		Items:          req.Items,
		Credentials:    req.Credentials,
		ContinueOnFail: req.ContinueOnFail,
	}, h.logger)
	if err != nil {
		h.logger.WarnContext(c.Context(), "Node execution failed",
			"node_type", nodeType, "execution_id", executionID, "error", err)

		return handleExecutionError(c, err)
	}

	return c.JSON(ExecuteResponse{ExecutionID: executionID, Items: items})
}
