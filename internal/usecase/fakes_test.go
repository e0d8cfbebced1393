package usecase

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/wardenapi/warden/internal/model"
)

// fakeUserRepo is an in-memory UserRepository. It returns the same driver
// errors the mongo implementation surfaces so the usecases are exercised
// against realistic failures.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User

	// now is overridable so tests can advance the clock past a reset token
	// expiry.
	now func() time.Time
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users: make(map[string]*model.User),
		now:   time.Now,
	}
}

func duplicateKeyError() error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
}

func cloneUser(user *model.User, includePassword bool) *model.User {
	clone := *user
	if !includePassword {
		clone.PasswordHash = ""
	}
	return &clone
}

func (r *fakeUserRepo) CreateUser(_ context.Context, user *model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == user.Email {
			return nil, duplicateKeyError()
		}
	}

	user.ID = bson.NewObjectID()
	now := r.now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID.Hex()] = cloneUser(user, true)

	return cloneUser(user, true), nil
}

func (r *fakeUserRepo) GetUser(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}

	return cloneUser(user, false), nil
}

func (r *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	return r.findByEmail(email, false)
}

func (r *fakeUserRepo) GetUserByEmailWithPassword(_ context.Context, email string) (*model.User, error) {
	return r.findByEmail(email, true)
}

func (r *fakeUserRepo) findByEmail(email string, includePassword bool) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Email == email {
			return cloneUser(user, includePassword), nil
		}
	}

	return nil, mongo.ErrNoDocuments
}

func (r *fakeUserRepo) GetUserByResetToken(_ context.Context, tokenHash string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.ResetPasswordToken != nil && *user.ResetPasswordToken == tokenHash &&
			user.ResetPasswordExpiresAt != nil && user.ResetPasswordExpiresAt.After(r.now()) {
			return cloneUser(user, false), nil
		}
	}

	return nil, mongo.ErrNoDocuments
}

func (r *fakeUserRepo) SetResetToken(_ context.Context, id, tokenHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return mongo.ErrNoDocuments
	}

	user.ResetPasswordToken = &tokenHash
	user.ResetPasswordExpiresAt = &expiresAt
	user.UpdatedAt = r.now()

	return nil
}

func (r *fakeUserRepo) ClearResetToken(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return mongo.ErrNoDocuments
	}

	user.ResetPasswordToken = nil
	user.ResetPasswordExpiresAt = nil
	user.UpdatedAt = r.now()

	return nil
}

func (r *fakeUserRepo) ResetPassword(_ context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return mongo.ErrNoDocuments
	}

	user.PasswordHash = passwordHash
	user.ResetPasswordToken = nil
	user.ResetPasswordExpiresAt = nil
	user.UpdatedAt = r.now()

	return nil
}

type sentEmail struct {
	To      string
	Subject string
	Body    string
}

// fakeMailer records outbound email and can be told to fail.
type fakeMailer struct {
	sent []sentEmail
	err  error
}

func (m *fakeMailer) SendPlainText(to, subject, body string) error {
	if m.err != nil {
		return m.err
	}

	m.sent = append(m.sent, sentEmail{To: to, Subject: subject, Body: body})
	return nil
}
