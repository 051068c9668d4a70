package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rezkam/todoline/internal/application/todo"
	"github.com/rezkam/todoline/internal/domain"
	"github.com/rezkam/todoline/internal/infrastructure/http/response"
)

// DefaultHeartbeat is how often an idle event stream gets a keep-alive comment.
const DefaultHeartbeat = 15 * time.Second

// TaskHandler adapts HTTP requests to todo.Service calls.
type TaskHandler struct {
	todoService *todo.Service
	location    *time.Location
	heartbeat   time.Duration
}

// Option configures a TaskHandler.
type Option func(*TaskHandler)

// WithHeartbeat sets the event stream keep-alive interval.
func WithHeartbeat(d time.Duration) Option {
	return func(h *TaskHandler) {
		if d > 0 {
			h.heartbeat = d
		}
	}
}

// NewTaskHandler creates a new HTTP API handler. loc is the zone time range
// labels and ?date= filters are interpreted in.
func NewTaskHandler(todoService *todo.Service, loc *time.Location, opts ...Option) *TaskHandler {
	if loc == nil {
		loc = time.Local
	}
	h := &TaskHandler{
		todoService: todoService,
		location:    loc,
		heartbeat:   DefaultHeartbeat,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewRouter builds the versioned API routes. The result is meant to be
// mounted under /api.
func NewRouter(todoService *todo.Service, loc *time.Location, opts ...Option) http.Handler {
	h := NewTaskHandler(todoService, loc, opts...)

	r := chi.NewRouter()
	r.Route("/v1", func(r chi.Router) {
		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", h.ListTasks)
			r.Post("/", h.CreateTask)
			r.Post("/preview", h.PreviewTask)
			r.Get("/stream", h.StreamTasks)

			r.Route("/{task_id}", func(r chi.Router) {
				r.Get("/", h.GetTask)
				r.Put("/", h.EditTask)
				r.Patch("/", h.PatchTask)
				r.Delete("/", h.DeleteTask)
				r.Post("/comments", h.AddComment)
				r.Post("/toggle", h.ToggleTask)
			})
		})

		r.Post("/undo", h.Undo)
		r.Get("/counts", h.Counts)
		r.Get("/categories", h.ListCategories)
		r.Post("/categories", h.AddCategory)
	})
	return r
}

// decodeBody reads a JSON body into v. Domain errors raised by custom
// unmarshalers, such as a bad reminder, keep their mapping.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}
	if errors.Is(err, domain.ErrInvalidReminder) || errors.Is(err, domain.ErrInvalidPriority) {
		response.FromDomainError(w, r, err)
		return false
	}
	response.BadRequest(w, "invalid JSON")
	return false
}

func taskID(r *http.Request) string {
	return chi.URLParam(r, "task_id")
}
