package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/Dan9191/finance-service/internal/apperrors"
	"github.com/Dan9191/finance-service/internal/models"
)

// Claims is the identity token payload.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// AuthService handles registration, login and identity tokens
type AuthService struct {
	users  UserStore
	log    *logrus.Logger
	secret []byte
	ttl    time.Duration
}

// NewAuthService initializes a new auth service
func NewAuthService(users UserStore, log *logrus.Logger, secret string, ttl time.Duration) *AuthService {
	return &AuthService{users: users, log: log, secret: []byte(secret), ttl: ttl}
}

// Register creates a new user with hashed password
func (s *AuthService) Register(ctx context.Context, in models.RegisterInput) (*models.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	email := models.NormalizeEmail(in.Email)

	existing, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.New(apperrors.ErrConflict, "email already in use")
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: string(hashedPassword),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.log.WithField("user_id", user.ID).Infof("User registered: %s", user.Email)
	return user, nil
}

// Login authenticates a user and returns a JWT token
func (s *AuthService) Login(ctx context.Context, in models.LoginInput) (*models.LoginResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	invalid := apperrors.New(apperrors.ErrUnauthenticated, "invalid credentials")

	user, err := s.users.FindUserByEmail(ctx, models.NormalizeEmail(in.Email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, invalid
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, invalid
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}

	s.log.WithField("user_id", user.ID).Infof("User logged in: %s", user.Email)
	return &models.LoginResult{
		AccessToken: token,
		User:        models.UserRef{ID: user.ID, Name: user.Name, Email: user.Email},
	}, nil
}

func (s *AuthService) issueToken(user *models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ParseToken validates an identity token and returns the user id it carries.
func (s *AuthService) ParseToken(tokenString string) (string, error) {
	if tokenString == "" {
		return "", apperrors.New(apperrors.ErrUnauthenticated, "token not provided")
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", apperrors.New(apperrors.ErrUnauthenticated, "token expired, please log in again")
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return "", apperrors.New(apperrors.ErrUnauthenticated, "token not valid yet")
	case err != nil:
		return "", apperrors.New(apperrors.ErrUnauthenticated, "invalid token")
	}
	if claims.Subject == "" {
		return "", apperrors.New(apperrors.ErrUnauthenticated, "invalid token")
	}
	return claims.Subject, nil
}

// Me returns the authenticated user's profile.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.New(apperrors.ErrNotFound, "user not found")
	}
	return user, nil
}

// DeleteAccount removes the user and, through the store, all their
// categories and transactions.
func (s *AuthService) DeleteAccount(ctx context.Context, userID string) error {
	if _, err := s.Me(ctx, userID); err != nil {
		return err
	}
	if err := s.users.DeleteUser(ctx, userID); err != nil {
		return err
	}
	s.log.WithField("user_id", userID).Info("User account deleted")
	return nil
}
