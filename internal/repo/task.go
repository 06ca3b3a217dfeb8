package repo

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/taskboard/internal/models"
)

func (r *GormRepo) ListTasksByProject(ctx context.Context, projectID uint) ([]models.Task, error) {
	var tasks []models.Task
	if err := r.DB.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("id ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// FindTaskByIDAndProjectAndOwner re-derives ownership through the project row on every call.
func (r *GormRepo) FindTaskByIDAndProjectAndOwner(ctx context.Context, taskID, projectID uint, username string) (*models.Task, error) {
	var task models.Task
	if err := r.DB.WithContext(ctx).Model(&models.Task{}).
		Joins("JOIN projects ON projects.id = tasks.project_id").
		Joins("JOIN users ON users.id = projects.user_id").
		Where("tasks.id = ? AND tasks.project_id = ? AND users.username = ?", taskID, projectID, username).
		First(&task).Error; err != nil {
		return nil, notFound(err)
	}
	return &task, nil
}

func (r *GormRepo) CreateTask(ctx context.Context, t *models.Task) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(t).Error
}

func (r *GormRepo) SaveTask(ctx context.Context, t *models.Task) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Save(t).Error
}

func (r *GormRepo) DeleteTask(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Task{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
