package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"chattr.app/backend/internal/entity"
	search "chattr.app/backend/internal/modules/search/service"
	"chattr.app/backend/internal/modules/user/dto"
	"chattr.app/backend/internal/modules/user/repository"
	"chattr.app/backend/pkg/apperror"
	"chattr.app/backend/pkg/sanitize"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var errInvalidCredentials = apperror.Unauthorized("Invalid email or password.")

type AuthService interface {
	Register(ctx context.Context, input dto.RegisterInput) (*dto.AuthResponse, error)
	Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error)
	Logout(ctx context.Context, userID uint) error
	Me(ctx context.Context, userID uint) (*entity.User, error)
	// Authenticate resolves a bearer token to its user, or fails with ErrUnauthorized.
	Authenticate(ctx context.Context, token string) (*entity.User, error)
}

type authService struct {
	repo     repository.UserRepository
	sessions SessionStore
	meili    search.UserSearchService
	secret   string
	tokenTTL time.Duration
}

func NewAuthService(repo repository.UserRepository, sessions SessionStore, meili search.UserSearchService, secret string, tokenTTL time.Duration) AuthService {
	return &authService{
		repo:     repo,
		sessions: sessions,
		meili:    meili,
		secret:   secret,
		tokenTTL: tokenTTL,
	}
}

func (s *authService) Register(ctx context.Context, input dto.RegisterInput) (*dto.AuthResponse, error) {
	exists, err := s.repo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperror.Conflict("Email already in use.")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		FirstName:    sanitize.Text(input.FirstName),
		LastName:     sanitize.Text(input.LastName),
		Email:        input.Email,
		PasswordHash: string(hashed),
	}
	if input.Bio != nil {
		bio := sanitize.Text(*input.Bio)
		user.Bio = &bio
	}

	if err := s.repo.Create(ctx, user); err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("Email already in use.")
		}
		return nil, err
	}

	if s.meili != nil {
		indexed := *user
		go func() {
			if err := s.meili.IndexUsers([]entity.User{indexed}); err != nil {
				log.Printf("Failed to index user %d: %v", indexed.ID, err)
			}
		}()
	}

	return s.buildAuthResponse(ctx, user)
}

func (s *authService) Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error) {
	user, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, errInvalidCredentials
	}

	return s.buildAuthResponse(ctx, user)
}

func (s *authService) Logout(ctx context.Context, userID uint) error {
	return s.sessions.End(ctx, userID)
}

func (s *authService) Me(ctx context.Context, userID uint) (*entity.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("User not found.")
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) Authenticate(ctx context.Context, tokenString string) (*entity.User, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil || !token.Valid {
		return nil, apperror.Unauthorized("Invalid or expired token.")
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return nil, apperror.Unauthorized("Invalid token claims.")
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return nil, apperror.Unauthorized("Invalid token subject.")
	}
	userID := uint(id)

	active, err := s.sessions.IsActive(ctx, userID, claims.ID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, apperror.Unauthorized("Session has been revoked.")
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Unauthorized("User no longer exists.")
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) buildAuthResponse(ctx context.Context, user *entity.User) (*dto.AuthResponse, error) {
	token, tokenID, expiresAt, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	// replaces any earlier session of this user
	if err := s.sessions.Start(ctx, user.ID, tokenID, s.tokenTTL); err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		User:      user,
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: expiresAt,
	}, nil
}

func (s *authService) generateToken(user *entity.User) (string, string, int64, error) {
	now := time.Now()
	expiresAt := now.Add(s.tokenTTL)
	tokenID := uuid.NewString()

	claims := jwt.RegisteredClaims{
		ID:        tokenID,
		Subject:   strconv.FormatUint(uint64(user.ID), 10),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", "", 0, err
	}

	return signed, tokenID, expiresAt.Unix(), nil
}
