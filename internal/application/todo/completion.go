package todo

import (
	"context"

	"github.com/rezkam/todoline/internal/domain"
)

// ToggleComplete flips the completed flag. Completing a task makes it the
// target of Undo for the next UndoWindow.
func (s *Service) ToggleComplete(ctx context.Context, id string) (*domain.Task, error) {
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	completed := !task.Completed
	updated, err := s.setCompleted(ctx, id, completed)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case completed:
		s.undo = &undoSlot{taskID: id, completedAt: s.config.Now()}
	case s.undo != nil && s.undo.taskID == id:
		s.undo = nil
	}

	return updated, nil
}

// Undo reopens the most recently completed task if that happened within the
// undo window. Otherwise it returns domain.ErrNothingToUndo.
func (s *Service) Undo(ctx context.Context) (*domain.Task, error) {
	s.mu.Lock()
	slot := s.undo
	s.undo = nil
	s.mu.Unlock()

	if slot == nil || s.config.Now().Sub(slot.completedAt) > s.config.UndoWindow {
		return nil, domain.ErrNothingToUndo
	}

	return s.setCompleted(ctx, slot.taskID, false)
}

func (s *Service) setCompleted(ctx context.Context, id string, completed bool) (*domain.Task, error) {
	return s.update(ctx, domain.UpdateTaskParams{
		TaskID:     id,
		UpdateMask: []string{domain.FieldCompleted},
		Completed:  &completed,
	})
}
