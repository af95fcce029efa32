package service

import (
	"context"
	"errors"

	"github.com/normrepo/nrs-go/internal/model"
	"github.com/normrepo/nrs-go/internal/repository"
)

// ProjectService manages the projects of the calling user.
type ProjectService struct {
	repo *repository.ProjectRepository
}

func NewProjectService(repo *repository.ProjectRepository) *ProjectService {
	return &ProjectService{repo: repo}
}

// Create stores a new project owned by userID.
func (s *ProjectService) Create(ctx context.Context, userID int64, req model.CreateProjectRequest) (model.CreatedResponse, error) {
	p := &model.Project{
		UserID:      userID,
		Name:        req.Name,
		Target:      req.Target,
		Description: req.Description,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return model.CreatedResponse{}, err
	}
	return model.CreatedResponse{ID: p.ID}, nil
}

func (s *ProjectService) List(ctx context.Context, userID int64) ([]model.ProjectResponse, error) {
	projects, err := s.repo.ListOwned(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]model.ProjectResponse, 0, len(projects))
	for _, p := range projects {
		resp = append(resp, model.NewProjectResponse(p))
	}
	return resp, nil
}

func (s *ProjectService) Get(ctx context.Context, userID, projectID int64) (model.ProjectResponse, error) {
	p, err := s.repo.GetOwned(ctx, userID, projectID)
	if err != nil {
		return model.ProjectResponse{}, notFound(err)
	}
	return model.NewProjectResponse(*p), nil
}

// Update renames the project and replaces its description. The target is
// fixed at creation.
func (s *ProjectService) Update(ctx context.Context, userID, projectID int64, req model.UpdateProjectRequest) (model.ProjectResponse, error) {
	p := &model.Project{
		ID:          projectID,
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
	}
	if err := s.repo.UpdateOwned(ctx, p); err != nil {
		return model.ProjectResponse{}, notFound(err)
	}
	return s.Get(ctx, userID, projectID)
}

func (s *ProjectService) Delete(ctx context.Context, userID, projectID int64) error {
	return notFound(s.repo.DeleteOwned(ctx, userID, projectID))
}

// notFound translates the repository sentinel and passes other errors on.
func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
