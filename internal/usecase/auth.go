// Package usecase implements the authentication workflow: registration,
// login, current-user lookup and the password reset lifecycle. Operations
// return typed errors which the HTTP boundary translates to status codes.
package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/wardenapi/warden/internal/model"
	"github.com/wardenapi/warden/internal/repository"
)

var (
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrMissingCredentials = errors.New("please provide an email and password")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("no user with that email")
)

// TokenSigner issues session tokens and derives one-time reset tokens.
type TokenSigner interface {
	SignSession(userID string) (string, error)
	IssueResetToken() (plaintext, hash string, expiresAt time.Time, err error)
	HashResetToken(plaintext string) string
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

// AuthUsecase defines the interface for authentication-related use cases.
type AuthUsecase interface {
	Register(ctx context.Context, params RegisterParams) (string, error)
	Login(ctx context.Context, params LoginParams) (string, error)
	CurrentUser(ctx context.Context, userID string) (*model.User, error)
}

// RegisterParams defines the parameters for user registration.
type RegisterParams struct {
	Name     string
	Email    string
	Password string
}

// LoginParams defines the parameters for user login.
type LoginParams struct {
	Email    string
	Password string
}

type authUsecase struct {
	userRepo repository.UserRepository
	signer   TokenSigner
	hasher   PasswordHasher
}

// NewAuthUsecase creates a new instance of AuthUsecase.
func NewAuthUsecase(
	userRepo repository.UserRepository,
	signer TokenSigner,
	hasher PasswordHasher,
) AuthUsecase {
	return &authUsecase{
		userRepo: userRepo,
		signer:   signer,
		hasher:   hasher,
	}
}

func (u *authUsecase) Register(ctx context.Context, params RegisterParams) (string, error) {
	passwordHash, err := u.hasher.Hash(params.Password)
	if err != nil {
		return "", err
	}

	user, err := u.userRepo.CreateUser(ctx, &model.User{
		Name:         params.Name,
		Email:        normalizeEmail(params.Email),
		PasswordHash: passwordHash,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", ErrUserAlreadyExists
		}

		return "", err
	}

	return u.signer.SignSession(user.ID.Hex())
}

func (u *authUsecase) Login(ctx context.Context, params LoginParams) (string, error) {
	if params.Email == "" || params.Password == "" {
		return "", ErrMissingCredentials
	}

	user, err := u.userRepo.GetUserByEmailWithPassword(ctx, normalizeEmail(params.Email))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Uniform failure whether the email is unknown or the password
			// is wrong, to prevent account enumeration.
			return "", ErrInvalidCredentials
		}

		return "", err
	}

	if ok, err := u.hasher.Verify(params.Password, user.PasswordHash); err != nil {
		return "", err
	} else if !ok {
		return "", ErrInvalidCredentials
	}

	return u.signer.SignSession(user.ID.Hex())
}

func (u *authUsecase) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := u.userRepo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidCredentials
		}

		return nil, err
	}

	return user, nil
}

// normalizeEmail lowercases an email address so comparison is
// case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
