package model

import "time"

// Project targets.
const (
	ProjectTemplate int16 = 0
	ProjectTarget   int16 = 1
)

// Project is owned by exactly one user; UserID never changes.
type Project struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	Name        string    `db:"name"`
	Target      int16     `db:"target"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type CreateProjectRequest struct {
	Name        string `json:"name" validate:"min=1"`
	Target      int16  `json:"target" validate:"oneof=0 1"`
	Description string `json:"description"`
}

type UpdateProjectRequest struct {
	Name        string `json:"name" validate:"min=1"`
	Description string `json:"description"`
}

// CreatedResponse carries the id of a newly created row.
type CreatedResponse struct {
	ID int64 `json:"id"`
}

type ProjectResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Target      int16     `json:"target"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewProjectResponse strips the owner from p.
func NewProjectResponse(p Project) ProjectResponse {
	return ProjectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Target:      p.Target,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
