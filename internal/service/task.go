package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/taskboard/internal/domain"
	"github.com/Skotchmaster/taskboard/internal/events"
	"github.com/Skotchmaster/taskboard/internal/logging"
	"github.com/Skotchmaster/taskboard/internal/models"
	"github.com/Skotchmaster/taskboard/internal/repo"
)

type TaskStore interface {
	OwnershipStore
	ListTasksByProject(ctx context.Context, projectID uint) ([]models.Task, error)
	CreateTask(ctx context.Context, t *models.Task) error
	SaveTask(ctx context.Context, t *models.Task) error
	DeleteTask(ctx context.Context, id uint) error
}

// TaskPatch holds the fields of a partial task update. A nil field is left
// untouched. ClearDueDate removes the due date.
type TaskPatch struct {
	Title        *string
	Description  *string
	DueDate      *time.Time
	ClearDueDate bool
	Section      *string
	Completed    *bool
	Status       *string
}

type TaskService struct {
	Repo        TaskStore
	Guard       *Guard
	Events      events.Publisher
	Attachments AttachmentCleaner
}

func (s *TaskService) publish(ctx context.Context, typ, username string, t *models.Task) {
	publishEvent(ctx, s.Events, events.TopicTask, fmt.Sprint(t.ProjectID), events.Event{
		Type:      typ,
		Username:  username,
		ProjectID: t.ProjectID,
		TaskID:    t.ID,
	})
}

func (s *TaskService) List(ctx context.Context, projectID uint, username string) ([]models.Task, error) {
	p, err := s.Guard.ResolveOwnedProject(ctx, projectID, username)
	if err != nil {
		return nil, err
	}
	tasks, err := s.Repo.ListTasksByProject(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) Get(ctx context.Context, projectID, taskID uint, username string) (*models.Task, error) {
	return s.Guard.ResolveOwnedTask(ctx, projectID, taskID, username)
}

func (s *TaskService) Create(ctx context.Context, projectID uint, username string, in TaskPatch) (*models.Task, error) {
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		return nil, fmt.Errorf("task title is required: %w", ErrValidation)
	}

	p, err := s.Guard.ResolveOwnedProject(ctx, projectID, username)
	if err != nil {
		return nil, err
	}

	t := models.Task{
		ProjectID: p.ID,
		Status:    domain.StatusNotStarted,
	}
	if err := applyTaskPatch(&t, in); err != nil {
		return nil, err
	}
	if err := s.Repo.CreateTask(ctx, &t); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	s.publish(ctx, "task_created", username, &t)
	return &t, nil
}

func (s *TaskService) Update(ctx context.Context, projectID, taskID uint, username string, in TaskPatch) (*models.Task, error) {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, fmt.Errorf("task title must not be blank: %w", ErrValidation)
	}

	t, err := s.Guard.ResolveOwnedTask(ctx, projectID, taskID, username)
	if err != nil {
		return nil, err
	}
	if err := applyTaskPatch(t, in); err != nil {
		return nil, err
	}
	return s.save(ctx, "task_updated", username, t)
}

// UpdateDueDate changes only the due date; nil clears it.
func (s *TaskService) UpdateDueDate(ctx context.Context, projectID, taskID uint, username string, due *time.Time) (*models.Task, error) {
	t, err := s.Guard.ResolveOwnedTask(ctx, projectID, taskID, username)
	if err != nil {
		return nil, err
	}
	t.DueDate = due
	return s.save(ctx, "task_due_date_changed", username, t)
}

func (s *TaskService) Toggle(ctx context.Context, projectID, taskID uint, username string) (*models.Task, error) {
	t, err := s.Guard.ResolveOwnedTask(ctx, projectID, taskID, username)
	if err != nil {
		return nil, err
	}
	t.SetCompleted(!t.Completed())
	return s.save(ctx, "task_toggled", username, t)
}

func (s *TaskService) CycleStatus(ctx context.Context, projectID, taskID uint, username string) (*models.Task, error) {
	t, err := s.Guard.ResolveOwnedTask(ctx, projectID, taskID, username)
	if err != nil {
		return nil, err
	}
	t.CycleStatus()
	return s.save(ctx, "task_status_changed", username, t)
}

func (s *TaskService) Delete(ctx context.Context, projectID, taskID uint, username string) error {
	t, err := s.Guard.ResolveOwnedTask(ctx, projectID, taskID, username)
	if err != nil {
		return err
	}
	if err := s.Repo.DeleteTask(ctx, t.ID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFoundOrUnauthorized
		}
		return fmt.Errorf("delete task: %w", err)
	}

	if s.Attachments != nil {
		if err := s.Attachments.RemoveTask(t.ProjectID, t.ID); err != nil {
			logging.FromContext(ctx).Warn("attachments_cleanup_failed", "project_id", t.ProjectID, "task_id", t.ID, "error", err)
		}
	}

	s.publish(ctx, "task_deleted", username, t)
	return nil
}

func (s *TaskService) save(ctx context.Context, typ, username string, t *models.Task) (*models.Task, error) {
	if err := s.Repo.SaveTask(ctx, t); err != nil {
		return nil, fmt.Errorf("save task: %w", err)
	}
	s.publish(ctx, typ, username, t)
	return t, nil
}

// applyTaskPatch applies status before completed so an explicit completed
// flag has the last word.
func applyTaskPatch(t *models.Task, in TaskPatch) error {
	if in.Status != nil {
		st, err := domain.ParseTaskStatus(*in.Status)
		if err != nil {
			return fmt.Errorf("%v: %w", err, ErrValidation)
		}
		t.Status = st
	}
	if in.Completed != nil {
		t.SetCompleted(*in.Completed)
	}
	if in.Title != nil {
		t.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.ClearDueDate {
		t.DueDate = nil
	} else if in.DueDate != nil {
		d := *in.DueDate
		t.DueDate = &d
	}
	if in.Section != nil {
		t.Section = in.Section
	}
	return nil
}
