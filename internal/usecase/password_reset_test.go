package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenapi/warden/internal/security"
)

const testResetURLBase = "http://localhost:5000"

func newResetUsecaseForTests(repo *fakeUserRepo, mailer *fakeMailer) (PasswordResetUsecase, AuthUsecase) {
	tokens := newTestTokenService()
	hasher := security.NewHasher()
	logger := zerolog.New(io.Discard)

	return NewPasswordResetUsecase(repo, tokens, hasher, mailer, &logger),
		NewAuthUsecase(repo, tokens, hasher)
}

// resetTokenFromEmail extracts the plaintext reset token from the reset URL
// embedded in the email body.
func resetTokenFromEmail(t *testing.T, email sentEmail) string {
	t.Helper()

	const marker = "/api/auth/resetpassword/"
	idx := strings.LastIndex(email.Body, marker)
	require.NotEqual(t, -1, idx, "email body does not contain a reset URL: %q", email.Body)

	return strings.TrimSpace(email.Body[idx+len(marker):])
}

func registerAlice(t *testing.T, auth AuthUsecase) {
	t.Helper()
	_, err := auth.Register(context.Background(), RegisterParams{
		Name: "Alice", Email: "a@x.com", Password: "Secret123",
	})
	require.NoError(t, err)
}

func TestPasswordResetUsecase_ForgotPassword_SendsResetURL(t *testing.T) {
	repo := newFakeUserRepo()
	mailer := &fakeMailer{}
	reset, auth := newResetUsecaseForTests(repo, mailer)
	registerAlice(t, auth)

	err := reset.ForgotPassword(context.Background(), "a@x.com", testResetURLBase)
	require.NoError(t, err)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "a@x.com", mailer.sent[0].To)
	assert.Contains(t, mailer.sent[0].Body, testResetURLBase+"/api/auth/resetpassword/")

	// The plaintext token is mailed, never stored; only its hash is.
	plaintext := resetTokenFromEmail(t, mailer.sent[0])
	user, err := repo.GetUserByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, user.ResetPasswordToken)
	assert.NotEqual(t, plaintext, *user.ResetPasswordToken)
	require.NotNil(t, user.ResetPasswordExpiresAt)
	assert.True(t, user.ResetPasswordExpiresAt.After(time.Now()))
}

func TestPasswordResetUsecase_ForgotPassword_UnknownEmail(t *testing.T) {
	repo := newFakeUserRepo()
	mailer := &fakeMailer{}
	reset, _ := newResetUsecaseForTests(repo, mailer)

	err := reset.ForgotPassword(context.Background(), "nobody@x.com", testResetURLBase)
	require.ErrorIs(t, err, ErrUserNotFound)
	assert.Empty(t, mailer.sent)
}

func TestPasswordResetUsecase_ForgotPassword_SendFailureClearsToken(t *testing.T) {
	repo := newFakeUserRepo()
	mailer := &fakeMailer{err: errors.New("smtp unavailable")}
	reset, auth := newResetUsecaseForTests(repo, mailer)
	registerAlice(t, auth)

	err := reset.ForgotPassword(context.Background(), "a@x.com", testResetURLBase)
	require.ErrorIs(t, err, ErrEmailDelivery)

	user, err := repo.GetUserByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Nil(t, user.ResetPasswordToken)
	assert.Nil(t, user.ResetPasswordExpiresAt)
}

func TestPasswordResetUsecase_ResetPassword_ChangesPassword(t *testing.T) {
	repo := newFakeUserRepo()
	mailer := &fakeMailer{}
	reset, auth := newResetUsecaseForTests(repo, mailer)
	registerAlice(t, auth)

	require.NoError(t, reset.ForgotPassword(context.Background(), "a@x.com", testResetURLBase))
	plaintext := resetTokenFromEmail(t, mailer.sent[0])

	sessionToken, err := reset.ResetPassword(context.Background(), plaintext, "NewPass456")
	require.NoError(t, err)
	assert.NotEmpty(t, sessionToken)

	// Old password no longer authenticates, new one does.
	_, err = auth.Login(context.Background(), LoginParams{Email: "a@x.com", Password: "Secret123"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = auth.Login(context.Background(), LoginParams{Email: "a@x.com", Password: "NewPass456"})
	require.NoError(t, err)
}

func TestPasswordResetUsecase_ResetPassword_TokenIsSingleUse(t *testing.T) {
	repo := newFakeUserRepo()
	mailer := &fakeMailer{}
	reset, auth := newResetUsecaseForTests(repo, mailer)
	registerAlice(t, auth)

	require.NoError(t, reset.ForgotPassword(context.Background(), "a@x.com", testResetURLBase))
	plaintext := resetTokenFromEmail(t, mailer.sent[0])

	_, err := reset.ResetPassword(context.Background(), plaintext, "NewPass456")
	require.NoError(t, err)

	_, err = reset.ResetPassword(context.Background(), plaintext, "AnotherPass789")
	require.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestPasswordResetUsecase_ResetPassword_ExpiredToken(t *testing.T) {
	repo := newFakeUserRepo()
	mailer := &fakeMailer{}
	reset, auth := newResetUsecaseForTests(repo, mailer)
	registerAlice(t, auth)

	require.NoError(t, reset.ForgotPassword(context.Background(), "a@x.com", testResetURLBase))
	plaintext := resetTokenFromEmail(t, mailer.sent[0])

	// Advance the clock past the 10 minute expiry window.
	repo.now = func() time.Time { return time.Now().Add(11 * time.Minute) }

	_, err := reset.ResetPassword(context.Background(), plaintext, "NewPass456")
	require.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestPasswordResetUsecase_ResetPassword_NonMatchingToken(t *testing.T) {
	repo := newFakeUserRepo()
	mailer := &fakeMailer{}
	reset, auth := newResetUsecaseForTests(repo, mailer)
	registerAlice(t, auth)

	require.NoError(t, reset.ForgotPassword(context.Background(), "a@x.com", testResetURLBase))

	// Correct format, wrong value.
	_, err := reset.ResetPassword(context.Background(), strings.Repeat("ab", 20), "NewPass456")
	require.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestPasswordResetUsecase_ForgotPassword_NewRequestOverwritesToken(t *testing.T) {
	repo := newFakeUserRepo()
	mailer := &fakeMailer{}
	reset, auth := newResetUsecaseForTests(repo, mailer)
	registerAlice(t, auth)

	require.NoError(t, reset.ForgotPassword(context.Background(), "a@x.com", testResetURLBase))
	require.NoError(t, reset.ForgotPassword(context.Background(), "a@x.com", testResetURLBase))
	require.Len(t, mailer.sent, 2)

	first := resetTokenFromEmail(t, mailer.sent[0])
	second := resetTokenFromEmail(t, mailer.sent[1])
	require.NotEqual(t, first, second)

	// The earlier token became invalid when the later request overwrote it.
	_, err := reset.ResetPassword(context.Background(), first, "NewPass456")
	require.ErrorIs(t, err, ErrInvalidResetToken)

	_, err = reset.ResetPassword(context.Background(), second, "NewPass456")
	require.NoError(t, err)
}
