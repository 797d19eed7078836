package task

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"

	domain "github.com/example/task-tracker/domain/task"
	"golang.org/x/sync/singleflight"
)

// Validation errors (exported for error checking via errors.Is).
var (
	ErrTitleRequired   = errors.New("title is required")
	ErrInvalidStatus   = errors.New("invalid status: must be one of todo, in-progress, done")
	ErrInvalidPriority = errors.New("invalid priority: must be one of low, medium, high")
)

// TaskCache is the subset of the cache layer the service uses.
// A nil cache disables caching entirely.
type TaskCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
	DeletePattern(ctx context.Context, pattern string) error
}

// TaskService defines the interface for task business operations.
type TaskService interface {
	// Create validates the input, applies defaults, and stores a new task.
	Create(ctx context.Context, req CreateTaskRequest) (TaskResponse, error)
	// Get retrieves a task by id.
	Get(ctx context.Context, req GetTaskRequest) (TaskResponse, error)
	// List retrieves tasks, optionally filtered by status.
	List(ctx context.Context, req ListTasksRequest) (ListTasksResponse, error)
	// Update merges the supplied subset of fields into an existing task.
	Update(ctx context.Context, req UpdateTaskRequest) (TaskResponse, error)
	// Delete removes a task, reporting whether a row was removed.
	Delete(ctx context.Context, req DeleteTaskRequest) (DeleteTaskResponse, error)
}

// TaskServiceImpl implements TaskService using TaskRepository, with an
// optional cache-aside read path.
type TaskServiceImpl struct {
	repo    TaskRepository
	cache   TaskCache
	sfGroup singleflight.Group
}

// Compile-time interface check.
var _ TaskService = (*TaskServiceImpl)(nil)

// NewTaskService creates a new TaskService with the given repository.
func NewTaskService(repo TaskRepository) *TaskServiceImpl {
	return &TaskServiceImpl{repo: repo}
}

// SetCache wires a cache into the read path. Safe to leave unset.
func (s *TaskServiceImpl) SetCache(c TaskCache) {
	s.cache = c
}

func cacheKeyByID(id int64) string {
	return "id:" + strconv.FormatInt(id, 10)
}

func cacheKeyList(status string) string {
	if status == "" {
		return "list:all"
	}
	return "list:" + status
}

// Create handles the task creation request. Title must be non-blank; status
// and priority default to "todo" and "medium" and are validated against the
// enumerated sets when supplied.
func (s *TaskServiceImpl) Create(ctx context.Context, req CreateTaskRequest) (TaskResponse, error) {
	if strings.TrimSpace(req.Title) == "" {
		return TaskResponse{}, ErrTitleRequired
	}

	status := domain.StatusTodo
	if req.Status != "" {
		status = domain.Status(req.Status)
		if !status.Valid() {
			return TaskResponse{}, ErrInvalidStatus
		}
	}

	priority := domain.PriorityMedium
	if req.Priority != "" {
		priority = domain.Priority(req.Priority)
		if !priority.Valid() {
			return TaskResponse{}, ErrInvalidPriority
		}
	}

	t, err := s.repo.Create(ctx, req.Title, req.Description, status, priority)
	if err != nil {
		return TaskResponse{}, err
	}

	s.invalidateLists(ctx)
	return toTaskResponse(t), nil
}

// Get handles the task retrieval request, reading through the cache when one
// is wired. Concurrent misses for the same id collapse into a single query.
func (s *TaskServiceImpl) Get(ctx context.Context, req GetTaskRequest) (TaskResponse, error) {
	if s.cache == nil {
		t, err := s.repo.FindByID(ctx, req.ID)
		if err != nil {
			return TaskResponse{}, err
		}
		return toTaskResponse(t), nil
	}

	key := cacheKeyByID(req.ID)
	var cached TaskResponse
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		// Cache failures degrade to a database read.
		log.Printf("[task] Cache error for id=%d: %v", req.ID, err)
	}
	if found {
		return cached, nil
	}

	val, err, _ := s.sfGroup.Do(key, func() (any, error) {
		return s.repo.FindByID(ctx, req.ID)
	})
	if err != nil {
		return TaskResponse{}, err
	}

	resp := toTaskResponse(val.(*domain.Task))
	if err := s.cache.Set(ctx, key, resp); err != nil {
		log.Printf("[task] Warning: failed to cache task id=%d: %v", req.ID, err)
	}
	return resp, nil
}

// List handles the task list request with an optional exact status filter.
func (s *TaskServiceImpl) List(ctx context.Context, req ListTasksRequest) (ListTasksResponse, error) {
	key := cacheKeyList(req.Status)
	if s.cache != nil {
		var cached ListTasksResponse
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			log.Printf("[task] Cache error for list %q: %v", req.Status, err)
		}
		if found {
			return cached, nil
		}
	}

	tasks, err := s.repo.FindAll(ctx, req.Status)
	if err != nil {
		return ListTasksResponse{}, err
	}

	resp := ListTasksResponse{
		Tasks: make([]TaskResponse, len(tasks)),
		Count: len(tasks),
	}
	for i := range tasks {
		resp.Tasks[i] = toTaskResponse(&tasks[i])
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, resp); err != nil {
			log.Printf("[task] Warning: failed to cache list %q: %v", req.Status, err)
		}
	}
	return resp, nil
}

// Update handles the partial update request. Only enum fields are
// re-validated; a supplied empty title overwrites the stored one, matching
// the store's COALESCE semantics for present-but-empty values.
func (s *TaskServiceImpl) Update(ctx context.Context, req UpdateTaskRequest) (TaskResponse, error) {
	if req.Status != nil && !domain.Status(*req.Status).Valid() {
		return TaskResponse{}, ErrInvalidStatus
	}
	if req.Priority != nil && !domain.Priority(*req.Priority).Valid() {
		return TaskResponse{}, ErrInvalidPriority
	}

	t, err := s.repo.Update(ctx, req.ID, req.Title, req.Description, req.Status, req.Priority)
	if err != nil {
		return TaskResponse{}, err
	}

	s.invalidateTask(ctx, req.ID)
	return toTaskResponse(t), nil
}

// Delete handles the delete request. Deleting an absent id is not an error;
// the response carries Deleted=false instead.
func (s *TaskServiceImpl) Delete(ctx context.Context, req DeleteTaskRequest) (DeleteTaskResponse, error) {
	deleted, err := s.repo.Delete(ctx, req.ID)
	if err != nil {
		return DeleteTaskResponse{ID: req.ID}, err
	}

	if deleted {
		s.invalidateTask(ctx, req.ID)
	}
	return DeleteTaskResponse{Deleted: deleted, ID: req.ID}, nil
}

// invalidateTask drops the cached entry for one task plus every cached list.
func (s *TaskServiceImpl) invalidateTask(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cacheKeyByID(id)); err != nil {
		log.Printf("[task] Warning: failed to invalidate task id=%d: %v", id, err)
	}
	s.invalidateLists(ctx)
}

// invalidateLists drops every cached list variant.
func (s *TaskServiceImpl) invalidateLists(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePattern(ctx, "list:*"); err != nil {
		log.Printf("[task] Warning: failed to invalidate task lists: %v", err)
	}
}
