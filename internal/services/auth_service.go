package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/tickethaus/raffle-backend/internal/models"
	"github.com/tickethaus/raffle-backend/internal/repositories"
)

// ErrInvalidCredentials is returned for any login failure. The cause (unknown
// email vs wrong password) is deliberately not distinguished.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService defines the interface for operator authentication
type AuthService interface {
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	EnsureSeedAdmin(ctx context.Context, email, password string) error
}

type authService struct {
	adminRepo repositories.AdminUserRepository
	jwtSecret []byte
	expiresIn time.Duration
	log       *slog.Logger
}

// NewAuthService creates a new AuthService implementation.
func NewAuthService(adminRepo repositories.AdminUserRepository, jwtSecret string, expiresIn time.Duration, log *slog.Logger) AuthService {
	if log == nil {
		log = slog.Default()
	}
	return &authService{
		adminRepo: adminRepo,
		jwtSecret: []byte(jwtSecret),
		expiresIn: expiresIn,
		log:       log,
	}
}

// Login verifies the operator's credentials and issues a signed token.
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.adminRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	expiresAt := time.Now().Add(s.expiresIn)
	claims := jwt.MapClaims{
		"sub":   user.ID.Hex(),
		"email": user.Email,
		"role":  user.Role,
		"exp":   expiresAt.Unix(),
		"iat":   time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	s.log.Info("operator logged in", "email", user.Email, "role", user.Role)
	return &models.LoginResponse{Token: signed, ExpiresAt: expiresAt}, nil
}

// EnsureSeedAdmin creates the initial operator account if no account exists
// for the configured email. Called once at startup.
func (s *authService) EnsureSeedAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	_, err := s.adminRepo.FindByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash seed admin password: %w", err)
	}
	admin := &models.AdminUser{
		Email:    email,
		Password: string(hashed),
		Role:     "admin",
	}
	if err := s.adminRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create seed admin: %w", err)
	}
	s.log.Info("seed admin created", "email", email)
	return nil
}
