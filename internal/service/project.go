package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/taskboard/internal/events"
	"github.com/Skotchmaster/taskboard/internal/logging"
	"github.com/Skotchmaster/taskboard/internal/models"
	"github.com/Skotchmaster/taskboard/internal/repo"
)

type ProjectStore interface {
	OwnershipStore
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListProjectsByOwner(ctx context.Context, username string, offset, limit int) (int64, []models.Project, error)
	CreateProject(ctx context.Context, p *models.Project) error
	SaveProject(ctx context.Context, p *models.Project) error
	DeleteProject(ctx context.Context, id uint) error
}

// AttachmentCleaner removes stored files once their owner is gone.
type AttachmentCleaner interface {
	RemoveTask(projectID, taskID uint) error
	RemoveProject(projectID uint) error
}

type ProjectPatch struct {
	Title       *string
	Description *string
	Color       *string
}

type ProjectService struct {
	Repo        ProjectStore
	Guard       *Guard
	Events      events.Publisher
	Attachments AttachmentCleaner
}

func publishEvent(ctx context.Context, pub events.Publisher, topic, key string, ev events.Event) {
	if pub == nil {
		return
	}
	ev.At = time.Now().UTC()
	if err := pub.PublishEvent(ctx, topic, key, ev); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "type", ev.Type, "topic", topic, "error", err)
	}
}

func (s *ProjectService) publish(ctx context.Context, typ, username string, projectID uint) {
	publishEvent(ctx, s.Events, events.TopicProject, fmt.Sprint(projectID), events.Event{
		Type:      typ,
		Username:  username,
		ProjectID: projectID,
	})
}

func (s *ProjectService) List(ctx context.Context, username string, offset, limit int) (int64, []models.Project, error) {
	total, projects, err := s.Repo.ListProjectsByOwner(ctx, username, offset, limit)
	if err != nil {
		return 0, nil, fmt.Errorf("list projects: %w", err)
	}
	return total, projects, nil
}

func (s *ProjectService) Get(ctx context.Context, projectID uint, username string) (*models.Project, error) {
	return s.Guard.ResolveOwnedProject(ctx, projectID, username)
}

func (s *ProjectService) Create(ctx context.Context, username string, in ProjectPatch) (*models.Project, error) {
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		return nil, fmt.Errorf("project title is required: %w", ErrValidation)
	}

	owner, err := s.Repo.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find owner: %w", err)
	}

	p := models.Project{
		Title:  strings.TrimSpace(*in.Title),
		UserID: owner.ID,
	}
	applyProjectPatch(&p, in)
	if err := s.Repo.CreateProject(ctx, &p); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	p.Tasks = []models.Task{}

	s.publish(ctx, "project_created", username, p.ID)
	return &p, nil
}

func (s *ProjectService) Update(ctx context.Context, projectID uint, username string, in ProjectPatch) (*models.Project, error) {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, fmt.Errorf("project title must not be blank: %w", ErrValidation)
	}

	p, err := s.Guard.ResolveOwnedProject(ctx, projectID, username)
	if err != nil {
		return nil, err
	}
	applyProjectPatch(p, in)
	if err := s.Repo.SaveProject(ctx, p); err != nil {
		return nil, fmt.Errorf("save project: %w", err)
	}

	s.publish(ctx, "project_updated", username, p.ID)
	return p, nil
}

func (s *ProjectService) Delete(ctx context.Context, projectID uint, username string) error {
	p, err := s.Guard.ResolveOwnedProject(ctx, projectID, username)
	if err != nil {
		return err
	}
	if err := s.Repo.DeleteProject(ctx, p.ID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFoundOrUnauthorized
		}
		return fmt.Errorf("delete project: %w", err)
	}

	if s.Attachments != nil {
		if err := s.Attachments.RemoveProject(p.ID); err != nil {
			logging.FromContext(ctx).Warn("attachments_cleanup_failed", "project_id", p.ID, "error", err)
		}
	}

	s.publish(ctx, "project_deleted", username, p.ID)
	return nil
}

func (s *ProjectService) Progress(ctx context.Context, projectID uint, username string) (*models.Project, models.Progress, error) {
	p, err := s.Guard.ResolveOwnedProject(ctx, projectID, username)
	if err != nil {
		return nil, models.Progress{}, err
	}
	return p, models.ProgressOf(p.Tasks), nil
}

func applyProjectPatch(p *models.Project, in ProjectPatch) {
	if in.Title != nil {
		p.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Color != nil {
		p.Color = *in.Color
	}
}
