package services

import (
	"context"
	"errors"
	"strings"

	"twobeats/internal/auth"
	"twobeats/internal/logger"
	"twobeats/internal/models"
	"twobeats/internal/repositories"
	"twobeats/internal/services/dto"
	"twobeats/pkg/apperrors"

	"gorm.io/gorm"
)

type AuthService interface {
	Register(ctx context.Context, db *gorm.DB, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, db *gorm.DB, req *dto.LoginRequest) (*dto.AuthResponse, error)
	Me(ctx context.Context, db *gorm.DB, userID uint) (*dto.UserResponse, error)
}

type AuthServiceImpl struct {
	userRepo repositories.UserRepository
	tokens   *auth.TokenManager
}

func NewAuthService(userRepo repositories.UserRepository, tokens *auth.TokenManager) AuthService {
	return &AuthServiceImpl{userRepo: userRepo, tokens: tokens}
}

// Register - creates the account and signs it in
func (s *AuthServiceImpl) Register(ctx context.Context, db *gorm.DB, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, apperrors.ValidationError(map[string]string{"password": err.Error()})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)

	if exists, err := s.userRepo.ExistsByEmail(db, email); err != nil {
		return nil, apperrors.DatabaseError(err)
	} else if exists {
		return nil, apperrors.ErrEmailAlreadyExists
	}
	if exists, err := s.userRepo.ExistsByUsername(db, username); err != nil {
		return nil, apperrors.DatabaseError(err)
	} else if exists {
		return nil, apperrors.ErrUsernameAlreadyExists
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	user := &models.User{Username: username, Email: email, PasswordHash: hash}
	if err := s.userRepo.Create(db, user); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	logger.CtxInfo(ctx, "user registered", "user_id", user.ID, "username", user.Username)
	return s.issue(user)
}

// Login - checks the credentials and issues an access token
func (s *AuthServiceImpl) Login(ctx context.Context, db *gorm.DB, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(db, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.DatabaseError(err)
	}
	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		logger.CtxWarn(ctx, "login failed", "user_id", user.ID)
		return nil, apperrors.ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *AuthServiceImpl) Me(ctx context.Context, db *gorm.DB, userID uint) (*dto.UserResponse, error) {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.NewNotFoundError("user", "User not found")
		}
		return nil, apperrors.DatabaseError(err)
	}
	resp := userResponse(user)
	return &resp, nil
}

func (s *AuthServiceImpl) issue(user *models.User) (*dto.AuthResponse, error) {
	token, exp, err := s.tokens.Generate(user.ID, user.Username)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return &dto.AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   exp,
		User:        userResponse(user),
	}, nil
}

func userResponse(u *models.User) dto.UserResponse {
	return dto.UserResponse{ID: u.ID, Username: u.Username, Email: u.Email, CreatedAt: u.CreatedAt}
}
