package api

import (
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/example/task-tracker/modules/task"
	"github.com/gofiber/fiber/v2"
)

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	tasks       task.TaskPort
	environment string
	startedAt   time.Time
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(tasks task.TaskPort, environment string) *Handlers {
	return &Handlers{
		tasks:       tasks,
		environment: environment,
		startedAt:   time.Now(),
	}
}

// ListTasks handles GET /api/tasks with an optional exact status filter.
func (h *Handlers) ListTasks(c *fiber.Ctx) error {
	status := c.Query("status")

	resp, err := h.tasks.ListTasks(c.UserContext(), status)
	if err != nil {
		return h.handleTaskError(c, err, "Failed to fetch tasks")
	}

	return c.Status(fiber.StatusOK).JSON(TaskListEnvelope{
		Success: true,
		Count:   resp.Count,
		Data:    resp.Tasks,
	})
}

// GetTask handles GET /api/tasks/:id.
func (h *Handlers) GetTask(c *fiber.Ctx) error {
	id, ok := h.parseID(c)
	if !ok {
		return nil
	}

	resp, err := h.tasks.GetTask(c.UserContext(), id)
	if err != nil {
		return h.handleTaskError(c, err, "Failed to fetch task")
	}

	return c.Status(fiber.StatusOK).JSON(TaskEnvelope{
		Success: true,
		Data:    resp,
	})
}

// CreateTask handles POST /api/tasks.
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	var req task.CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorEnvelope{
			Success: false,
			Message: "Invalid request body",
		})
	}

	resp, err := h.tasks.CreateTask(c.UserContext(), &req)
	if err != nil {
		return h.handleTaskError(c, err, "Failed to create task")
	}

	return c.Status(fiber.StatusCreated).JSON(TaskEnvelope{
		Success: true,
		Message: "Task created successfully",
		Data:    resp,
	})
}

// UpdateTask handles PUT /api/tasks/:id. Fields absent from the body are left
// unchanged on the stored task.
func (h *Handlers) UpdateTask(c *fiber.Ctx) error {
	id, ok := h.parseID(c)
	if !ok {
		return nil
	}

	var req task.UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorEnvelope{
			Success: false,
			Message: "Invalid request body",
		})
	}
	req.ID = id

	resp, err := h.tasks.UpdateTask(c.UserContext(), &req)
	if err != nil {
		return h.handleTaskError(c, err, "Failed to update task")
	}

	return c.Status(fiber.StatusOK).JSON(TaskEnvelope{
		Success: true,
		Message: "Task updated successfully",
		Data:    resp,
	})
}

// DeleteTask handles DELETE /api/tasks/:id.
func (h *Handlers) DeleteTask(c *fiber.Ctx) error {
	id, ok := h.parseID(c)
	if !ok {
		return nil
	}

	resp, err := h.tasks.DeleteTask(c.UserContext(), id)
	if err != nil {
		return h.handleTaskError(c, err, "Failed to delete task")
	}

	if !resp.Deleted {
		return c.Status(fiber.StatusNotFound).JSON(ErrorEnvelope{
			Success: false,
			Message: "Task not found",
		})
	}

	return c.Status(fiber.StatusOK).JSON(MessageEnvelope{
		Success: true,
		Message: "Task deleted successfully",
	})
}

// Health handles GET /health.
func (h *Handlers) Health(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(HealthResponse{
		Status:      "healthy",
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Uptime:      time.Since(h.startedAt).Seconds(),
		Environment: h.environment,
	})
}

// Index handles GET /api.
func (h *Handlers) Index(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(IndexResponse{
		Message: "Task Tracker API",
		Version: "1.0.0",
		Endpoints: map[string]string{
			"tasks":  "/api/tasks",
			"health": "/health",
		},
	})
}

// NotFound handles any request that matched no route, echoing the path back.
func (h *Handlers) NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(ErrorEnvelope{
		Success: false,
		Message: "Route " + c.OriginalURL() + " not found",
	})
}

// parseID extracts the :id path parameter. On a non-numeric id it writes a
// 400 response and returns ok=false.
func (h *Handlers) parseID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(ErrorEnvelope{
			Success: false,
			Message: "Invalid task ID",
		})
		return 0, false
	}
	return id, true
}

// handleTaskError converts task service errors into transport responses.
// Service errors cross the NATS boundary as messages, so classification
// matches known error text rather than sentinel values.
func (h *Handlers) handleTaskError(c *fiber.Ctx, err error, fallback string) error {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "task not found"):
		return c.Status(fiber.StatusNotFound).JSON(ErrorEnvelope{
			Success: false,
			Message: "Task not found",
		})
	case strings.Contains(errStr, "title is required"):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorEnvelope{
			Success: false,
			Message: "Title is required",
		})
	case strings.Contains(errStr, "invalid status"):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorEnvelope{
			Success: false,
			Message: "Status must be one of todo, in-progress, done",
		})
	case strings.Contains(errStr, "invalid priority"):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorEnvelope{
			Success: false,
			Message: "Priority must be one of low, medium, high",
		})
	default:
		log.Printf("[api] Internal error: %v", err)
		envelope := ErrorEnvelope{
			Success: false,
			Message: fallback,
		}
		// Diagnostic detail is only exposed in development.
		if h.environment == "development" {
			envelope.Error = errStr
		}
		return c.Status(fiber.StatusInternalServerError).JSON(envelope)
	}
}
