package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"device_controller/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const tokenIssuer = "device_controller"

// AuthConfig carries the JWT settings from config.
type AuthConfig struct {
	SigningKey string
	TokenTTL   time.Duration
}

// Domain errors for operator auth flows.
var (
	ErrInvalidPassword  = errors.New("invalid password")
	ErrOperatorNotFound = errors.New("operator not found")
	ErrInvalidToken     = errors.New("invalid token")
	ErrOperatorExists   = errors.New("username already taken")
	ErrEmptyUsername    = errors.New("username is empty")
	ErrEmptyPassword    = errors.New("password is empty")
	ErrPasswordTooLong  = errors.New("password exceeds 72 bytes")
)

// AuthService registers operators and issues the bearer tokens that guard
// the monitoring API.
type AuthService struct {
	operators repository.Operators
	key       []byte
	ttl       time.Duration
	now       func() time.Time
}

func NewAuthService(repo repository.Operators, cfg AuthConfig) *AuthService {
	return &AuthService{
		operators: repo,
		key:       []byte(cfg.SigningKey),
		ttl:       cfg.TokenTTL,
		now:       time.Now,
	}
}

// SignUp hashes the password and stores a new operator.
func (s *AuthService) SignUp(ctx context.Context, username, password string) (int, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return 0, ErrEmptyUsername
	}
	existing, err := s.operators.GetByUsername(ctx, username)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return 0, ErrOperatorExists
	}
	hash, err := hashPassword(password)
	if err != nil {
		return 0, fmt.Errorf("invalid password: %w", err)
	}
	id, err := s.operators.Create(ctx, username, hash)
	if errors.Is(err, repository.ErrDuplicateOperator) {
		// lost a race with a concurrent sign-up
		return 0, ErrOperatorExists
	}
	return id, err
}

// Claims defines JWT claims.
type Claims struct {
	jwt.RegisteredClaims
	OperatorID int `json:"operator_id"`
}

// GenerateToken checks the operator's credentials and returns a signed JWT.
func (s *AuthService) GenerateToken(ctx context.Context, username, password string) (string, error) {
	op, err := s.operators.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return "", err
	}
	if op == nil {
		return "", ErrOperatorNotFound
	}
	if err := verifyPassword(op.PasswordHash, password); err != nil {
		return "", ErrInvalidPassword
	}
	return s.issueToken(op.ID)
}

// ParseToken validates a JWT and returns the operator ID it was issued to.
func (s *AuthService) ParseToken(accessToken string) (int, error) {
	token, err := jwt.ParseWithClaims(accessToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.key, nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return 0, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.OperatorID <= 0 {
		return 0, ErrInvalidToken
	}
	return claims.OperatorID, nil
}

func hashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func verifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func (s *AuthService) issueToken(operatorID int) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   fmt.Sprintf("operator:%d", operatorID),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		OperatorID: operatorID,
	})
	return token.SignedString(s.key)
}
