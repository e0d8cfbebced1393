package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User represents a user in the authentication system. The password hash is
// never serialized into API responses; it is only loaded from the database
// when explicitly requested.
type User struct {
	ID                     bson.ObjectID `bson:"_id,omitempty"                       json:"id"`
	Name                   string        `bson:"name"                                json:"name"`
	Email                  string        `bson:"email"                               json:"email"`
	PasswordHash           string        `bson:"password_hash,omitempty"             json:"-"`
	ResetPasswordToken     *string       `bson:"reset_password_token,omitempty"      json:"-"`
	ResetPasswordExpiresAt *time.Time    `bson:"reset_password_expires_at,omitempty" json:"-"`
	CreatedAt              time.Time     `bson:"created_at"                          json:"created_at"`
	UpdatedAt              time.Time     `bson:"updated_at"                          json:"updated_at"`
}
