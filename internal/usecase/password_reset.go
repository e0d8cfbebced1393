package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/wardenapi/warden/internal/repository"
)

var (
	ErrEmailDelivery     = errors.New("email could not be sent")
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
)

// EmailSender dispatches a message to an address. The concrete transport is
// an external collaborator.
type EmailSender interface {
	SendPlainText(to, subject, body string) error
}

// PasswordResetUsecase defines the business logic for the password reset
// lifecycle.
type PasswordResetUsecase interface {
	// ForgotPassword issues a one-time reset token for the given email,
	// stores its hash and mails the plaintext to the user. resetURLBase is
	// the scheme and host of the inbound request.
	ForgotPassword(ctx context.Context, email, resetURLBase string) error

	// ResetPassword consumes a reset token, replaces the user's password and
	// returns a fresh session token.
	ResetPassword(ctx context.Context, plaintext, newPassword string) (string, error)
}

type passwordResetUsecase struct {
	userRepo repository.UserRepository
	signer   TokenSigner
	hasher   PasswordHasher
	mailer   EmailSender
	logger   *zerolog.Logger
}

// NewPasswordResetUsecase creates a new instance of PasswordResetUsecase.
func NewPasswordResetUsecase(
	userRepo repository.UserRepository,
	signer TokenSigner,
	hasher PasswordHasher,
	mailer EmailSender,
	logger *zerolog.Logger,
) PasswordResetUsecase {
	return &passwordResetUsecase{
		userRepo: userRepo,
		signer:   signer,
		hasher:   hasher,
		mailer:   mailer,
		logger:   logger,
	}
}

func (u *passwordResetUsecase) ForgotPassword(ctx context.Context, email, resetURLBase string) error {
	user, err := u.userRepo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrUserNotFound
		}

		return err
	}

	plaintext, tokenHash, expiresAt, err := u.signer.IssueResetToken()
	if err != nil {
		return err
	}

	// A new request overwrites any previously issued token; at most one
	// reset token is active per user.
	if err := u.userRepo.SetResetToken(ctx, user.ID.Hex(), tokenHash, expiresAt); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/api/auth/resetpassword/%s", resetURLBase, plaintext)
	body := fmt.Sprintf(
		"You are receiving this email because you (or someone else) has requested "+
			"the reset of a password. Please make a PUT request to:\n\n%s",
		resetURL,
	)

	if err := u.mailer.SendPlainText(user.Email, "Password reset token", body); err != nil {
		u.logger.Error().Err(err).Msg("failed to send password reset email")

		// The user never received the token, so don't leave it dangling.
		if clearErr := u.userRepo.ClearResetToken(ctx, user.ID.Hex()); clearErr != nil {
			u.logger.Error().Err(clearErr).Msg("failed to clear reset token after send failure")
		}

		return ErrEmailDelivery
	}

	return nil
}

func (u *passwordResetUsecase) ResetPassword(ctx context.Context, plaintext, newPassword string) (string, error) {
	tokenHash := u.signer.HashResetToken(plaintext)

	user, err := u.userRepo.GetUserByResetToken(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", ErrInvalidResetToken
		}

		return "", err
	}

	passwordHash, err := u.hasher.Hash(newPassword)
	if err != nil {
		return "", err
	}

	if err := u.userRepo.ResetPassword(ctx, user.ID.Hex(), passwordHash); err != nil {
		return "", err
	}

	return u.signer.SignSession(user.ID.Hex())
}
