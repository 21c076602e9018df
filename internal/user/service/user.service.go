package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"bulletin/internal/user/model"
	"bulletin/internal/user/repository"
	"bulletin/pkg/apperr"
	"bulletin/pkg/clock"
	"bulletin/pkg/token"
)

type UserService struct {
	Repo     *repository.UserRepository
	Secret   []byte
	TokenTTL time.Duration
	Clock    clock.Clock
}

func NewUserService(repo *repository.UserRepository, secret []byte, tokenTTL time.Duration, clk clock.Clock) *UserService {
	return &UserService{Repo: repo, Secret: secret, TokenTTL: tokenTTL, Clock: clk}
}

func (s *UserService) CreateUser(ctx context.Context, req model.SignupRequest) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	return s.Repo.Create(ctx, req.Username, string(hash), req.Email)
}

// Login verifies credentials and issues a session token.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.Repo.FindByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", fmt.Errorf("bad credentials: %w", apperr.ErrForbidden)
	}
	return token.Generate(s.Secret, user.Username, s.Clock.Now(), s.TokenTTL)
}

func (s *UserService) GetAllUsers(ctx context.Context) ([]model.User, error) {
	return s.Repo.FindAll(ctx)
}

func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	return s.Repo.Delete(ctx, id)
}
