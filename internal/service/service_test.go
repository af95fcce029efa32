package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/normrepo/nrs-go/internal/crypto"
	"github.com/normrepo/nrs-go/internal/model"
	"github.com/normrepo/nrs-go/internal/repository"
	"github.com/normrepo/nrs-go/internal/repository/repotest"
	"github.com/normrepo/nrs-go/internal/sequence"
)

type services struct {
	store    *repository.Store
	tokens   *crypto.TokenCodec
	auth     *AuthService
	projects *ProjectService
	modules  *ModuleService
}

func newServices(t *testing.T) services {
	t.Helper()

	store := repotest.NewStore(t)
	repos := store.Repos()
	tokens := crypto.NewTokenCodec("test-secret", time.Hour)
	hasher := &crypto.PasswordHasher{Params: crypto.HashParams{
		Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32,
	}}

	return services{
		store:    store,
		tokens:   tokens,
		auth:     NewAuthService(repos.Users, hasher, tokens),
		projects: NewProjectService(repos.Projects),
		modules:  NewModuleService(store, sequence.New("Module"), nil),
	}
}

// register creates an account and returns its user id.
func (s services) register(t *testing.T, login string) int64 {
	t.Helper()

	resp, err := s.auth.Register(context.Background(), model.CreateUserRequest{
		Login:    login,
		FullName: login,
		Email:    login + "@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	id, err := s.tokens.Verify(resp.Token)
	require.NoError(t, err)
	return id
}

func (s services) project(t *testing.T, userID int64) int64 {
	t.Helper()

	resp, err := s.projects.Create(context.Background(), userID, model.CreateProjectRequest{Name: "alpha"})
	require.NoError(t, err)
	return resp.ID
}
