package auth

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Credential is one document in the "admins" collection. Usernames should be
// unique but nothing enforces it; lookups return every match.
type Credential struct {
	Username string `bson:"username"`
	Password string `bson:"password"` // bcrypt hash, or plaintext on legacy docs
}

// RefreshToken is one issued refresh token, persisted for rotation checks.
type RefreshToken struct {
	Subject   string    `bson:"subject"`
	Token     string    `bson:"token"`
	ExpiresAt time.Time `bson:"expiresAt"`
	Revoked   bool      `bson:"revoked"`
}

// Repository reads admin credentials and tracks refresh tokens.
type Repository struct {
	admins *mongo.Collection
	tokens *mongo.Collection
}

// NewRepository creates a repo on the given database.
func NewRepository(db *mongo.Database) *Repository {
	return &Repository{
		admins: db.Collection("admins"),
		tokens: db.Collection("refresh_tokens"),
	}
}

// FindAdmins returns every credential document with an exact username match.
func (r *Repository) FindAdmins(ctx context.Context, username string) ([]Credential, error) {
	cur, err := r.admins.Find(ctx, bson.M{"username": username})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Credential
	for cur.Next(ctx) {
		var c Credential
		if err := cur.Decode(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, cur.Err()
}

// SaveRefreshToken stores a refresh token for rotation checks.
func (r *Repository) SaveRefreshToken(ctx context.Context, subject, token string, expiresAt time.Time) error {
	_, err := r.tokens.InsertOne(ctx, RefreshToken{
		Subject:   subject,
		Token:     token,
		ExpiresAt: expiresAt,
	})
	return err
}

// FindRefreshToken returns a stored token, or nil when unknown.
func (r *Repository) FindRefreshToken(ctx context.Context, token string) (*RefreshToken, error) {
	var rt RefreshToken
	err := r.tokens.FindOne(ctx, bson.M{"token": token}).Decode(&rt)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

// RevokeRefreshToken marks a token revoked.
func (r *Repository) RevokeRefreshToken(ctx context.Context, token string) error {
	_, err := r.tokens.UpdateOne(ctx,
		bson.M{"token": token},
		bson.M{"$set": bson.M{"revoked": true}})
	return err
}
