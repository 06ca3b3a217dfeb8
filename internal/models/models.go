package models

import (
	"time"

	"github.com/Skotchmaster/taskboard/internal/domain"
)

const DefaultRole = "ROLE_USER"

type Role struct {
	ID   uint   `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name string `gorm:"size:20;uniqueIndex"       json:"name"`
}

type User struct {
	ID               uint    `gorm:"primaryKey;autoIncrement"  json:"id"`
	Username         string  `gorm:"uniqueIndex;not null"      json:"username"`
	PasswordHash     string  `gorm:"not null"                  json:"-"`
	RefreshTokenHash *string `gorm:"column:refresh_token_hash" json:"-"`
	Enabled          bool    `gorm:"not null"                  json:"enabled"`
	Roles            []Role  `gorm:"many2many:user_roles"      json:"roles"`
}

func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

type Project struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	Title       string    `gorm:"not null"                  json:"title"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	UserID      uint      `gorm:"index;not null"            json:"user_id"`
	User        User      `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	Tasks       []Task    `gorm:"constraint:OnDelete:CASCADE" json:"tasks"`
}

// Task has no stored completed flag; Completed derives it from Status.
type Task struct {
	ID          uint              `gorm:"primaryKey;autoIncrement"          json:"id"`
	Title       string            `gorm:"not null"                          json:"title"`
	Description string            `json:"description"`
	DueDate     *time.Time        `json:"due_date"`
	Status      domain.TaskStatus `gorm:"type:varchar(20);not null"          json:"status"`
	Section     *string           `json:"section"`
	ProjectID   uint              `gorm:"index;not null"                    json:"project_id"`
	Project     *Project          `json:"-"`
}

func (t *Task) Completed() bool {
	return t.Status.Completed()
}

func (t *Task) SetCompleted(completed bool) {
	t.Status = t.Status.WithCompleted(completed)
}

func (t *Task) CycleStatus() {
	t.Status = t.Status.Next()
}
