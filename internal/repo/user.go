package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/taskboard/internal/models"
)

func (r *GormRepo) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Preload("Roles").Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// CreateUserIfNotExists inserts u with the given roles, creating missing roles.
func (r *GormRepo) CreateUserIfNotExists(ctx context.Context, u *models.User, roles ...string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.User{}).Where("username = ?", u.Username).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrUserAlreadyExist
		}

		u.Roles = nil
		for _, name := range roles {
			role := models.Role{Name: name}
			if err := tx.Where("name = ?", name).FirstOrCreate(&role).Error; err != nil {
				return err
			}
			u.Roles = append(u.Roles, role)
		}

		return tx.Create(u).Error
	})
}

// SetRefreshDigest overwrites the stored digest; nil clears the session.
func (r *GormRepo) SetRefreshDigest(ctx context.Context, userID uint, digest *string) error {
	var value any = gorm.Expr("NULL")
	if digest != nil {
		value = *digest
	}
	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("refresh_token_hash", value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RotateRefreshDigest replaces the digest only while it still equals expected.
// It is a single conditional UPDATE, so of several rotations racing on the
// same digest exactly one matches.
func (r *GormRepo) RotateRefreshDigest(ctx context.Context, userID uint, expected, next string) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND refresh_token_hash = ?", userID, expected).
		Update("refresh_token_hash", next)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDigestMismatch
	}
	return nil
}
