package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stayfinder/service-booking/internal/domain"
	userDomain "github.com/stayfinder/service-booking/internal/domain/user"
	"github.com/stayfinder/service-booking/internal/platform/auth"
)

// RegisterRequest is the request DTO for creating an account.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginRequest is the request DTO for authenticating.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest is the request DTO for partial profile updates.
// Empty values leave the corresponding field unchanged.
type UpdateProfileRequest struct {
	Name    string `json:"name"`
	Profile struct {
		PhoneNumber    string     `json:"phone_number"`
		Gender         string     `json:"gender"`
		AlternateEmail string     `json:"alternate_email"`
		DateOfBirth    *time.Time `json:"date_of_birth"`
		Address        struct {
			Street  string `json:"street"`
			City    string `json:"city"`
			State   string `json:"state"`
			ZipCode string `json:"zip_code"`
			Country string `json:"country"`
		} `json:"address"`
	} `json:"profile"`
}

// UserDTO is the API response representation of an account.
type UserDTO struct {
	ID        uuid.UUID          `json:"id"`
	Name      string             `json:"name"`
	Email     string             `json:"email"`
	Role      string             `json:"role"`
	Profile   userDomain.Profile `json:"profile"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// AuthResponse bundles the tokens issued after register or login.
type AuthResponse struct {
	User         UserDTO `json:"user"`
	AccessToken  string  `json:"access_token"`
	RefreshToken string  `json:"refresh_token"`
}

// AuthService implements account registration, authentication and
// profile management use cases.
type AuthService struct {
	repo   userDomain.UserRepository
	jwt    *auth.JWTManager
	logger *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo userDomain.UserRepository, jwt *auth.JWTManager, logger *zap.Logger) *AuthService {
	return &AuthService{repo: repo, jwt: jwt, logger: logger}
}

// Register creates a new guest account and issues tokens.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if existing, err := s.repo.FindByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, domain.NewValidationError("an account with this email already exists")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u, err := userDomain.NewUser(req.Name, req.Email, hash)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, u); err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			return nil, vErr
		}
		s.logger.Error("failed to register user", zap.Error(err))
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.logger.Info("user registered",
		zap.String("user_id", u.ID().String()),
		zap.String("email", u.Email()),
	)
	return s.issueTokens(u)
}

// Login authenticates an account by email and password and issues tokens.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	u, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, domain.NewUnauthorizedError("invalid email or password")
	}
	if err := auth.CheckPassword(u.PasswordHash(), req.Password); err != nil {
		return nil, domain.NewUnauthorizedError("invalid email or password")
	}

	s.logger.Info("user logged in", zap.String("user_id", u.ID().String()))
	return s.issueTokens(u)
}

// GetMe returns the account for the authenticated user.
func (s *AuthService) GetMe(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	result := toUserDTO(u)
	return &result, nil
}

// UpdateProfile applies partial updates to the authenticated user's profile.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*UserDTO, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := userDomain.Profile{
		PhoneNumber:    req.Profile.PhoneNumber,
		Gender:         req.Profile.Gender,
		AlternateEmail: req.Profile.AlternateEmail,
		DateOfBirth:    req.Profile.DateOfBirth,
		Address: userDomain.Address{
			Street:  req.Profile.Address.Street,
			City:    req.Profile.Address.City,
			State:   req.Profile.Address.State,
			ZipCode: req.Profile.Address.ZipCode,
			Country: req.Profile.Address.Country,
		},
	}
	if err := u.UpdateProfile(req.Name, profile); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, u); err != nil {
		s.logger.Error("failed to update profile", zap.Error(err))
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.logger.Info("profile updated", zap.String("user_id", userID.String()))
	result := toUserDTO(u)
	return &result, nil
}

// BecomeHost upgrades the authenticated guest account to a host account
// and issues fresh tokens carrying the new role.
func (s *AuthService) BecomeHost(ctx context.Context, userID uuid.UUID) (*AuthResponse, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	u.BecomeHost()
	if err := s.repo.Update(ctx, u); err != nil {
		s.logger.Error("failed to upgrade to host", zap.Error(err))
		return nil, fmt.Errorf("failed to upgrade to host: %w", err)
	}

	s.logger.Info("user became host", zap.String("user_id", userID.String()))
	return s.issueTokens(u)
}

// ListUsers returns all accounts, paginated. Admin only.
func (s *AuthService) ListUsers(ctx context.Context, page, limit int) (*domain.PaginatedResult[UserDTO], error) {
	users, total, err := s.repo.ListAll(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	dtos := make([]UserDTO, len(users))
	for i, u := range users {
		dtos[i] = toUserDTO(u)
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

func (s *AuthService) issueTokens(u *userDomain.User) (*AuthResponse, error) {
	access, err := s.jwt.GenerateAccessToken(u.ID(), string(u.Role()))
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refresh, err := s.jwt.GenerateRefreshToken(u.ID(), string(u.Role()))
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return &AuthResponse{
		User:         toUserDTO(u),
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

func toUserDTO(u *userDomain.User) UserDTO {
	return UserDTO{
		ID:        u.ID(),
		Name:      u.Name(),
		Email:     u.Email(),
		Role:      string(u.Role()),
		Profile:   u.Profile(),
		CreatedAt: u.CreatedAt(),
		UpdatedAt: u.UpdatedAt(),
	}
}
