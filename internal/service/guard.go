package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/taskboard/internal/models"
	"github.com/Skotchmaster/taskboard/internal/repo"
)

type OwnershipStore interface {
	FindProjectByIDAndOwner(ctx context.Context, id uint, username string) (*models.Project, error)
	FindTaskByIDAndProjectAndOwner(ctx context.Context, taskID, projectID uint, username string) (*models.Task, error)
}

// Guard resolves entities only through the ownership chain.
type Guard struct {
	Repo OwnershipStore
}

func (g *Guard) ResolveOwnedProject(ctx context.Context, projectID uint, username string) (*models.Project, error) {
	if username == "" {
		return nil, ErrNotFoundOrUnauthorized
	}
	p, err := g.Repo.FindProjectByIDAndOwner(ctx, projectID, username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFoundOrUnauthorized
		}
		return nil, fmt.Errorf("resolve project: %w", err)
	}
	return p, nil
}

func (g *Guard) ResolveOwnedTask(ctx context.Context, projectID, taskID uint, username string) (*models.Task, error) {
	if _, err := g.ResolveOwnedProject(ctx, projectID, username); err != nil {
		return nil, err
	}
	t, err := g.Repo.FindTaskByIDAndProjectAndOwner(ctx, taskID, projectID, username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFoundOrUnauthorized
		}
		return nil, fmt.Errorf("resolve task: %w", err)
	}
	return t, nil
}
