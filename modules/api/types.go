package api

import (
	"github.com/example/task-tracker/modules/task"
)

// TaskEnvelope wraps a single task in the uniform response envelope.
type TaskEnvelope struct {
	Success bool               `json:"success"`
	Message string             `json:"message,omitempty"`
	Data    *task.TaskResponse `json:"data,omitempty"`
}

// TaskListEnvelope wraps a task list plus its item count.
type TaskListEnvelope struct {
	Success bool                `json:"success"`
	Count   int                 `json:"count"`
	Data    []task.TaskResponse `json:"data"`
}

// MessageEnvelope is a success response with no data payload (delete).
type MessageEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorEnvelope is the uniform failure response. Error carries diagnostic
// detail and is only populated in development.
type ErrorEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse is the static health probe payload.
type HealthResponse struct {
	Status      string  `json:"status"`
	Timestamp   string  `json:"timestamp"`
	Uptime      float64 `json:"uptime"`
	Environment string  `json:"environment"`
}

// IndexResponse describes the service and its endpoints.
type IndexResponse struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}
