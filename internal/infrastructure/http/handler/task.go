package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/rezkam/todoline/internal/domain"
	"github.com/rezkam/todoline/internal/infrastructure/http/response"
)

// PreviewTask parses task text without storing it.
// POST /v1/tasks/preview
func (h *TaskHandler) PreviewTask(w http.ResponseWriter, r *http.Request) {
	var req TaskInput
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.todoService.Preview(r.Context(), req.toParserInput())
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.OK(w, TaskResponse{Task: MapTaskToDTO(res.Task(), h.location)})
}

// CreateTask parses task text and stores the task.
// POST /v1/tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req TaskInput
	if !decodeBody(w, r, &req) {
		return
	}

	task, err := h.todoService.AddTask(r.Context(), req.toParserInput())
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "task created via HTTP",
		"task_id", task.ID,
		"projects", task.Projects)

	response.Created(w, TaskResponse{Task: MapTaskToDTO(task, h.location)})
}

// ListTasks returns one view of the task list.
// GET /v1/tasks?view=&category=&q=&date=
//
// q or date switch to search, category selects a category page, otherwise
// view picks a tab (default "all").
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var (
		tasks []*domain.Task
		err   error
	)
	switch {
	case query.Get("q") != "" || query.Get("date") != "":
		params := domain.SearchParams{Query: query.Get("q")}
		if raw := query.Get("date"); raw != "" {
			date, perr := time.ParseInLocation(time.DateOnly, raw, h.location)
			if perr != nil {
				response.ValidationError(w, "date", "must be YYYY-MM-DD")
				return
			}
			params.Date = &date
		}
		tasks, err = h.todoService.Search(r.Context(), params)

	case query.Get("category") != "":
		tasks, err = h.todoService.CategoryTasks(r.Context(), query.Get("category"))

	default:
		view, verr := domain.NewView(query.Get("view"))
		if verr != nil {
			response.FromDomainError(w, r, verr)
			return
		}
		tasks, err = h.todoService.ListView(r.Context(), view)
	}
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.OK(w, TaskListResponse{Tasks: MapTasksToDTO(tasks, h.location)})
}

// GetTask returns a single task.
// GET /v1/tasks/{task_id}
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.todoService.GetTask(r.Context(), taskID(r))
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.OK(w, TaskResponse{Task: MapTaskToDTO(task, h.location)})
}

// EditTask re-parses the submitted text and replaces the parsed fields.
// PUT /v1/tasks/{task_id}
func (h *TaskHandler) EditTask(w http.ResponseWriter, r *http.Request) {
	var req TaskInput
	if !decodeBody(w, r, &req) {
		return
	}

	task, err := h.todoService.EditTask(r.Context(), taskID(r), req.toParserInput())
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.OK(w, TaskResponse{Task: MapTaskToDTO(task, h.location)})
}

// PatchTask applies field updates that bypass the parser, in a fixed order.
// The first failure stops the sequence; earlier fields stay applied.
// PATCH /v1/tasks/{task_id}
func (h *TaskHandler) PatchTask(w http.ResponseWriter, r *http.Request) {
	var req PatchTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.empty() {
		response.FromDomainError(w, r, domain.ErrEmptyUpdateMask)
		return
	}

	ctx := r.Context()
	id := taskID(r)

	var reminder *domain.Reminder
	if req.Reminder != nil {
		parsed, err := domain.ParseReminder(*req.Reminder)
		if err != nil {
			response.FromDomainError(w, r, err)
			return
		}
		reminder = &parsed
	}

	var (
		task *domain.Task
		err  error
	)
	steps := []func() (*domain.Task, error){}
	if req.Date != nil {
		steps = append(steps, func() (*domain.Task, error) { return h.todoService.SetDate(ctx, id, *req.Date) })
	}
	if req.Priority != nil {
		steps = append(steps, func() (*domain.Task, error) { return h.todoService.SetPriority(ctx, id, *req.Priority) })
	}
	if req.Projects != nil {
		steps = append(steps, func() (*domain.Task, error) { return h.todoService.SetProjects(ctx, id, *req.Projects) })
	}
	if reminder != nil {
		steps = append(steps, func() (*domain.Task, error) { return h.todoService.SetReminder(ctx, id, *reminder) })
	}
	if req.Description != nil {
		steps = append(steps, func() (*domain.Task, error) { return h.todoService.SetDescription(ctx, id, *req.Description) })
	}

	for _, step := range steps {
		if task, err = step(); err != nil {
			response.FromDomainError(w, r, err)
			return
		}
	}

	response.OK(w, TaskResponse{Task: MapTaskToDTO(task, h.location)})
}

// DeleteTask removes a task.
// DELETE /v1/tasks/{task_id}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id := taskID(r)
	if err := h.todoService.DeleteTask(r.Context(), id); err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "task deleted via HTTP", "task_id", id)
	response.NoContent(w)
}

// AddComment appends a comment.
// POST /v1/tasks/{task_id}/comments
func (h *TaskHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	var req CommentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	task, err := h.todoService.AddComment(r.Context(), taskID(r), req.Text)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.Created(w, TaskResponse{Task: MapTaskToDTO(task, h.location)})
}

// ToggleTask flips the completed flag.
// POST /v1/tasks/{task_id}/toggle
func (h *TaskHandler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.todoService.ToggleComplete(r.Context(), taskID(r))
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.OK(w, TaskResponse{Task: MapTaskToDTO(task, h.location)})
}

// Undo reopens the most recent completion while the undo window is open.
// POST /v1/undo
func (h *TaskHandler) Undo(w http.ResponseWriter, r *http.Request) {
	task, err := h.todoService.Undo(r.Context())
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.OK(w, TaskResponse{Task: MapTaskToDTO(task, h.location)})
}

// Counts returns the sidebar badge numbers.
// GET /v1/counts
func (h *TaskHandler) Counts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.todoService.Counts(r.Context())
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.OK(w, CountsResponse{
		Today:     counts.Today,
		Upcoming:  counts.Upcoming,
		Completed: counts.Completed,
	})
}

// ListCategories returns the custom categories.
// GET /v1/categories
func (h *TaskHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.todoService.Categories(r.Context())
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.OK(w, CategoriesResponse{Categories: nonNil(categories)})
}

// AddCategory registers a custom category.
// POST /v1/categories
func (h *TaskHandler) AddCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	name, err := h.todoService.AddCategory(r.Context(), req.Name)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.Created(w, CategoryResponse{Name: name})
}
