package model

import "time"

// Module belongs to one project and optionally nests under another module
// of the same project.
type Module struct {
	ID         int64     `db:"id"`
	ProjectID  int64     `db:"project_id"`
	ParentID   *int64    `db:"module_id"`
	Name       string    `db:"name"`
	Visibility int16     `db:"visibility"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// ParentKey is the parent id, or 0 for modules at the top of the project.
// Together with ProjectID it identifies the sibling scope.
func (m Module) ParentKey() int64 {
	if m.ParentID == nil {
		return 0
	}
	return *m.ParentID
}

// CreateModuleRequest leaves Name empty to get a generated default name.
type CreateModuleRequest struct {
	Name       string `json:"name"`
	ParentID   *int64 `json:"module_id" validate:"omitnil,gt=0"`
	Visibility int16  `json:"visibility" validate:"oneof=0 1"`
}

type UpdateModuleRequest struct {
	Name       string `json:"name" validate:"min=1"`
	Visibility int16  `json:"visibility" validate:"oneof=0 1"`
}

type CreateModuleResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type ModuleResponse struct {
	ID         int64     `json:"id"`
	ProjectID  int64     `json:"project_id"`
	ParentID   *int64    `json:"module_id"`
	Name       string    `json:"name"`
	Visibility int16     `json:"visibility"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func NewModuleResponse(m Module) ModuleResponse {
	return ModuleResponse(m)
}
