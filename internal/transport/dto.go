package transport

import (
	"time"

	"github.com/Skotchmaster/taskboard/internal/models"
	"github.com/Skotchmaster/taskboard/internal/util"
)

const DateLayout = "2006-01-02"

type Credentials struct {
	Username string `json:"username" validate:"required,max=255"`
	Password string `json:"password" validate:"required,max=72"`
}

type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// ProjectRequest accepts name as an alias of title; name wins when both are set.
type ProjectRequest struct {
	Name        *string `json:"name"        validate:"omitempty,max=255"`
	Title       *string `json:"title"       validate:"omitempty,max=255"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Color       *string `json:"color"       validate:"omitempty,max=32"`
}

func (r ProjectRequest) ResolvedTitle() *string {
	if r.Name != nil {
		return r.Name
	}
	return r.Title
}

type TaskRequest struct {
	Title       *string `json:"title"       validate:"omitempty,max=255"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	DueDate     *string `json:"dueDate"     validate:"omitempty,datetime=2006-01-02"`
	Section     *string `json:"section"     validate:"omitempty,max=100"`
	Completed   *bool   `json:"completed"`
	Status      *string `json:"status"      validate:"omitempty,max=20"`
}

// OnlyDueDate reports whether the request changes nothing but the due date.
func (r TaskRequest) OnlyDueDate() bool {
	return r.DueDate != nil &&
		r.Title == nil &&
		r.Description == nil &&
		r.Section == nil &&
		r.Completed == nil &&
		r.Status == nil
}

type TaskDTO struct {
	ID          uint    `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	DueDate     *string `json:"dueDate"`
	Completed   bool    `json:"completed"`
	Status      string  `json:"status"`
	Section     *string `json:"section"`
	ProjectID   uint    `json:"projectId"`
}

type ProjectDTO struct {
	ID             uint      `json:"id"`
	Name           string    `json:"name"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Color          string    `json:"color"`
	CreatedAt      string    `json:"createdAt,omitempty"`
	TotalTasks     int       `json:"totalTasks"`
	CompletedTasks int       `json:"completedTasks"`
	Progress       float64   `json:"progress"`
	Tasks          []TaskDTO `json:"tasks"`
}

type ProjectPage struct {
	Data []ProjectDTO `json:"data"`
	Meta util.Meta    `json:"meta"`
}

func TaskFromModel(t *models.Task) TaskDTO {
	dto := TaskDTO{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed(),
		Status:      string(t.Status),
		Section:     t.Section,
		ProjectID:   t.ProjectID,
	}
	if t.DueDate != nil {
		d := t.DueDate.Format(DateLayout)
		dto.DueDate = &d
	}
	return dto
}

func TasksFromModels(tasks []models.Task) []TaskDTO {
	out := make([]TaskDTO, 0, len(tasks))
	for i := range tasks {
		out = append(out, TaskFromModel(&tasks[i]))
	}
	return out
}

func ProjectFromModel(p *models.Project) ProjectDTO {
	dto := ProjectDTO{
		ID:          p.ID,
		Name:        p.Title,
		Title:       p.Title,
		Description: p.Description,
		Color:       p.Color,
		Tasks:       TasksFromModels(p.Tasks),
	}
	if !p.CreatedAt.IsZero() {
		dto.CreatedAt = p.CreatedAt.UTC().Format(time.RFC3339)
	}
	pr := models.ProgressOf(p.Tasks)
	dto.TotalTasks = pr.Total
	dto.CompletedTasks = pr.Completed
	dto.Progress = pr.Percent
	return dto
}

func ProjectsFromModels(projects []models.Project) []ProjectDTO {
	out := make([]ProjectDTO, 0, len(projects))
	for i := range projects {
		out = append(out, ProjectFromModel(&projects[i]))
	}
	return out
}
