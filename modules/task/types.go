package task

import (
	"time"

	domain "github.com/example/task-tracker/domain/task"
)

// CreateTaskRequest is the request for creating a task.
// Title is required; status and priority fall back to their defaults when omitted.
type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status,omitempty"`
	Priority    string `json:"priority,omitempty"`
}

// GetTaskRequest is the request for fetching a single task.
type GetTaskRequest struct {
	ID int64 `json:"id"`
}

// ListTasksRequest is the request for listing tasks.
// Status, when non-empty, restricts the result to tasks with exactly that status.
type ListTasksRequest struct {
	Status string `json:"status,omitempty"`
}

// UpdateTaskRequest is the request for a partial update.
// Nil fields are left unchanged on the stored row.
type UpdateTaskRequest struct {
	ID          int64   `json:"id"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
	Priority    *string `json:"priority,omitempty"`
}

// DeleteTaskRequest is the request for deleting a task.
type DeleteTaskRequest struct {
	ID int64 `json:"id"`
}

// TaskResponse represents a task in API responses.
type TaskResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListTasksResponse is the response containing the task list.
type ListTasksResponse struct {
	Tasks []TaskResponse `json:"tasks"`
	Count int            `json:"count"`
}

// DeleteTaskResponse is the response after a delete attempt.
// Deleted is false when no row matched the id.
type DeleteTaskResponse struct {
	Deleted bool  `json:"deleted"`
	ID      int64 `json:"id"`
}

// toTaskResponse converts a domain Task to a TaskResponse.
func toTaskResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}
