package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rezkam/todoline/internal/domain"
	"github.com/rezkam/todoline/internal/infrastructure/http/response"
)

// StreamTasks sends every task snapshot as a Server-Sent Event until the
// client goes away.
// GET /v1/tasks/stream
//
// Each event is "snapshot" with a TaskListResponse body holding the full,
// unfiltered list. Snapshots that arrive faster than the client reads are
// coalesced so only the latest is written.
func (h *TaskHandler) StreamTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rc := http.NewResponseController(w)

	// The server write timeout would cut long-lived streams.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		response.InternalError(w, r, err)
		return
	}

	latest := make(chan []*domain.Task, 1)
	unsubscribe, err := h.todoService.Subscribe(ctx, func(tasks []*domain.Task) {
		select {
		case <-latest:
		default:
		}
		latest <- tasks
	})
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		slog.WarnContext(ctx, "event stream not flushable", "error", err)
		return
	}

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	slog.DebugContext(ctx, "event stream opened")
	for {
		select {
		case <-ctx.Done():
			slog.DebugContext(ctx, "event stream closed")
			return

		case tasks := <-latest:
			data, err := json.Marshal(TaskListResponse{Tasks: MapTasksToDTO(tasks, h.location)})
			if err != nil {
				slog.ErrorContext(ctx, "failed to encode snapshot", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}

		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
