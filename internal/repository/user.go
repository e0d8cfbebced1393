package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/wardenapi/warden/internal/model"
)

// UserRepository defines the interface for user-related database operations.
// Read operations exclude the password hash unless explicitly requested.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByEmailWithPassword(ctx context.Context, email string) (*model.User, error)

	// GetUserByResetToken looks a user up by the stored reset token hash.
	// Tokens past their expiry are treated as not found.
	GetUserByResetToken(ctx context.Context, tokenHash string) (*model.User, error)

	SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error
	ClearResetToken(ctx context.Context, id string) error

	// ResetPassword replaces the password hash and clears the reset token
	// fields in a single update.
	ResetPassword(ctx context.Context, id, passwordHash string) error
}

const userCollection = "users"

// withoutPassword excludes the password hash from query results.
var withoutPassword = options.FindOne().SetProjection(bson.D{{Key: "password_hash", Value: 0}})

type userMongoRepository struct {
	db *mongo.Database
}

// NewUserMongoRepository creates a new MongoDB repository for users and
// ensures the indexes it relies on exist.
func NewUserMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) UserRepository {
	collection := db.Collection(userCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "reset_password_token", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create user indexes")
	}

	return &userMongoRepository{db: db}
}

func (r *userMongoRepository) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	result, err := r.db.Collection(userCollection).InsertOne(ctx, user)
	if err != nil {
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		user.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return user, nil
}

func (r *userMongoRepository) GetUser(ctx context.Context, id string) (*model.User, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	result := r.db.Collection(userCollection).FindOne(ctx, bson.M{"_id": objectID}, withoutPassword)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var user model.User
	if err := result.Decode(&user); err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userMongoRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getUserByEmail(ctx, email, withoutPassword)
}

func (r *userMongoRepository) GetUserByEmailWithPassword(ctx context.Context, email string) (*model.User, error) {
	return r.getUserByEmail(ctx, email)
}

func (r *userMongoRepository) getUserByEmail(
	ctx context.Context,
	email string,
	opts ...options.Lister[options.FindOneOptions],
) (*model.User, error) {
	result := r.db.Collection(userCollection).FindOne(ctx, bson.M{"email": email}, opts...)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var user model.User
	if err := result.Decode(&user); err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userMongoRepository) GetUserByResetToken(ctx context.Context, tokenHash string) (*model.User, error) {
	filter := bson.M{
		"reset_password_token":      tokenHash,
		"reset_password_expires_at": bson.M{"$gt": time.Now()},
	}

	result := r.db.Collection(userCollection).FindOne(ctx, filter, withoutPassword)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var user model.User
	if err := result.Decode(&user); err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userMongoRepository) SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	update := bson.M{
		"$set": bson.M{
			"reset_password_token":      tokenHash,
			"reset_password_expires_at": expiresAt,
			"updated_at":                time.Now(),
		},
	}

	_, err = r.db.Collection(userCollection).UpdateOne(ctx, bson.M{"_id": objectID}, update)
	return err
}

func (r *userMongoRepository) ClearResetToken(ctx context.Context, id string) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	update := bson.M{
		"$unset": bson.M{
			"reset_password_token":      "",
			"reset_password_expires_at": "",
		},
		"$set": bson.M{
			"updated_at": time.Now(),
		},
	}

	_, err = r.db.Collection(userCollection).UpdateOne(ctx, bson.M{"_id": objectID}, update)
	return err
}

func (r *userMongoRepository) ResetPassword(ctx context.Context, id, passwordHash string) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	update := bson.M{
		"$set": bson.M{
			"password_hash": passwordHash,
			"updated_at":    time.Now(),
		},
		"$unset": bson.M{
			"reset_password_token":      "",
			"reset_password_expires_at": "",
		},
	}

	_, err = r.db.Collection(userCollection).UpdateOne(ctx, bson.M{"_id": objectID}, update)
	return err
}
