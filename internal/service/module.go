package service

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/normrepo/nrs-go/internal/metrics"
	"github.com/normrepo/nrs-go/internal/model"
	"github.com/normrepo/nrs-go/internal/repository"
	"github.com/normrepo/nrs-go/internal/sequence"
)

const (
	sequenceRetryDelay = 10 * time.Millisecond
	sequenceMaxRetries = 5
)

// ModuleService manages the modules of projects owned by the calling user.
type ModuleService struct {
	store   *repository.Store
	seq     *sequence.Sequencer
	metrics *metrics.Metrics
}

// NewModuleService creates a ModuleService. m may be nil.
func NewModuleService(store *repository.Store, seq *sequence.Sequencer, m *metrics.Metrics) *ModuleService {
	return &ModuleService{
		store:   store,
		seq:     seq,
		metrics: m,
	}
}

// Create adds a module to the project. Without a name the next free
// sequence name of the sibling scope is allocated. Reading the siblings and
// inserting happen in one transaction; when a concurrent request takes the
// same name first the unique constraint rejects the insert and the
// allocation is retried. An explicit name that is taken is ErrConflict.
func (s *ModuleService) Create(ctx context.Context, userID, projectID int64, req model.CreateModuleRequest) (model.CreateModuleResponse, error) {
	generated := req.Name == ""
	var created model.Module

	backoff := retry.WithMaxRetries(sequenceMaxRetries, retry.NewConstant(sequenceRetryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := s.store.WithTx(ctx, func(ctx context.Context, r repository.Repos) error {
			m := model.Module{
				ProjectID:  projectID,
				ParentID:   req.ParentID,
				Name:       req.Name,
				Visibility: req.Visibility,
			}

			if _, err := r.Projects.GetOwned(ctx, userID, projectID); err != nil {
				return notFound(err)
			}
			if m.ParentID != nil {
				if _, err := r.Modules.GetOwned(ctx, userID, projectID, *m.ParentID); err != nil {
					if errors.Is(err, repository.ErrNotFound) {
						return ErrParentNotFound
					}
					return err
				}
			}

			if generated {
				siblings, err := r.Modules.SiblingNames(ctx, projectID, m.ParentKey())
				if err != nil {
					return err
				}
				m.Name = s.seq.NextName(siblings)
			}

			if err := r.Modules.Create(ctx, &m); err != nil {
				return err
			}
			created = m
			return nil
		})

		if generated && errors.Is(err, repository.ErrDuplicate) {
			s.metrics.SequenceConflict()
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.CreateModuleResponse{}, ErrConflict
		}
		return model.CreateModuleResponse{}, err
	}

	return model.CreateModuleResponse{ID: created.ID, Name: created.Name}, nil
}

// List returns the modules of the project. A project the user does not own
// is ErrNotFound rather than an empty list.
func (s *ModuleService) List(ctx context.Context, userID, projectID int64) ([]model.ModuleResponse, error) {
	repos := s.store.Repos()
	if _, err := repos.Projects.GetOwned(ctx, userID, projectID); err != nil {
		return nil, notFound(err)
	}

	modules, err := repos.Modules.ListOwned(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	resp := make([]model.ModuleResponse, 0, len(modules))
	for _, m := range modules {
		resp = append(resp, model.NewModuleResponse(m))
	}
	return resp, nil
}

func (s *ModuleService) Get(ctx context.Context, userID, projectID, moduleID int64) (model.ModuleResponse, error) {
	m, err := s.store.Repos().Modules.GetOwned(ctx, userID, projectID, moduleID)
	if err != nil {
		return model.ModuleResponse{}, notFound(err)
	}
	return model.NewModuleResponse(*m), nil
}

// Update renames the module and sets its visibility. The parent is fixed
// at creation.
func (s *ModuleService) Update(ctx context.Context, userID, projectID, moduleID int64, req model.UpdateModuleRequest) (model.ModuleResponse, error) {
	m := &model.Module{
		ID:         moduleID,
		ProjectID:  projectID,
		Name:       req.Name,
		Visibility: req.Visibility,
	}
	if err := s.store.Repos().Modules.UpdateOwned(ctx, userID, m); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.ModuleResponse{}, ErrConflict
		}
		return model.ModuleResponse{}, notFound(err)
	}
	return s.Get(ctx, userID, projectID, moduleID)
}

// Delete removes the module and its descendants.
func (s *ModuleService) Delete(ctx context.Context, userID, projectID, moduleID int64) error {
	return notFound(s.store.Repos().Modules.DeleteOwned(ctx, userID, projectID, moduleID))
}
