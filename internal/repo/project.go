package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/taskboard/internal/models"
)

func orderedTasks(db *gorm.DB) *gorm.DB {
	return db.Order("tasks.id ASC")
}

func (r *GormRepo) ownedProjects(ctx context.Context, username string) *gorm.DB {
	return r.DB.WithContext(ctx).Model(&models.Project{}).
		Joins("JOIN users ON users.id = projects.user_id").
		Where("users.username = ?", username)
}

func (r *GormRepo) ListProjectsByOwner(ctx context.Context, username string, offset, limit int) (int64, []models.Project, error) {
	var total int64
	if err := r.ownedProjects(ctx, username).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Project, 0, limit)
	if err := r.ownedProjects(ctx, username).
		Preload("Tasks", orderedTasks).
		Order("projects.id ASC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// FindProjectByIDAndOwner matches on both id and owner, so a project owned by
// someone else is reported exactly like a missing one.
func (r *GormRepo) FindProjectByIDAndOwner(ctx context.Context, id uint, username string) (*models.Project, error) {
	var project models.Project
	if err := r.ownedProjects(ctx, username).
		Preload("Tasks", orderedTasks).
		Where("projects.id = ?", id).
		First(&project).Error; err != nil {
		return nil, notFound(err)
	}
	return &project, nil
}

func (r *GormRepo) CreateProject(ctx context.Context, p *models.Project) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

func (r *GormRepo) SaveProject(ctx context.Context, p *models.Project) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Save(p).Error
}

func (r *GormRepo) DeleteProject(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Project{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
