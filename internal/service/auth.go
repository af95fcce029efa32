package service

import (
	"context"
	"errors"

	"github.com/normrepo/nrs-go/internal/crypto"
	"github.com/normrepo/nrs-go/internal/model"
	"github.com/normrepo/nrs-go/internal/repository"
)

// AuthService handles accounts: registration, login and profile changes.
type AuthService struct {
	repo   *repository.UserRepository
	hasher *crypto.PasswordHasher
	tokens *crypto.TokenCodec
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo *repository.UserRepository, hasher *crypto.PasswordHasher, tokens *crypto.TokenCodec) *AuthService {
	return &AuthService{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
	}
}

// Register creates a new user account and returns an auth token.
func (s *AuthService) Register(ctx context.Context, req model.CreateUserRequest) (model.TokenResponse, error) {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return model.TokenResponse{}, err
	}

	user := &model.User{
		Login:    req.Login,
		FullName: req.FullName,
		Email:    req.Email,
		Password: hash,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.TokenResponse{}, ErrConflict
		}
		return model.TokenResponse{}, err
	}

	return s.issue(user)
}

// Login authenticates a user and returns an auth token.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.TokenResponse, error) {
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.TokenResponse{}, ErrEmailNotFound
		}
		return model.TokenResponse{}, err
	}

	match, err := s.hasher.Verify(req.Password, user.Password)
	if err != nil {
		return model.TokenResponse{}, err
	}
	if !match {
		return model.TokenResponse{}, ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *AuthService) issue(user *model.User) (model.TokenResponse, error) {
	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return model.TokenResponse{}, err
	}
	return model.TokenResponse{Token: token}, nil
}

// GetUser retrieves a user by ID and returns safe user data. A token can
// outlive its account, so a missing user is ErrNotFound.
func (s *AuthService) GetUser(ctx context.Context, userID int64) (model.AccountResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.AccountResponse{}, ErrNotFound
		}
		return model.AccountResponse{}, err
	}

	return model.AccountResponse{
		Login:    user.Login,
		FullName: user.FullName,
		Email:    user.Email,
	}, nil
}

// UpdateProfile changes the full name and returns the updated account.
func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, req model.UpdateUserRequest) (model.AccountResponse, error) {
	if err := s.repo.UpdateProfile(ctx, userID, req.FullName); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.AccountResponse{}, ErrNotFound
		}
		return model.AccountResponse{}, err
	}
	return s.GetUser(ctx, userID)
}

// ChangePassword replaces the password after checking the current one.
// Tokens issued before the change stay valid.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, req model.ChangePasswordRequest) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	match, err := s.hasher.Verify(req.OldPassword, user.Password)
	if err != nil {
		return err
	}
	if !match {
		return ErrWrongPassword
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// DeleteAccount removes the user with all of their projects and modules.
func (s *AuthService) DeleteAccount(ctx context.Context, userID int64) error {
	if err := s.repo.Delete(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
