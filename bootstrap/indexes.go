package bootstrap

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// EnsureJobIndexes creates the uniqueness guard for applications: one
// application per (user, posting). Partial so postings, which have no
// originalJobPostingId, are not caught by it. The service still
// pre-checks for duplicates to return a friendly message; this index is
// what makes the check race-proof.
func EnsureJobIndexes(db *mongo.Database) error {
	_, err := db.Collection("jobitems").Indexes().CreateOne(
		context.Background(),
		mongo.IndexModel{
			Keys: bson.D{
				{Key: "user", Value: 1},
				{Key: "originalJobPostingId", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetName("uniq_user_posting").
				SetPartialFilterExpression(bson.D{{Key: "isJobPosting", Value: false}}),
		},
	)
	return err
}

// EnsureUserIndexes keeps emails unique across accounts.
func EnsureUserIndexes(db *mongo.Database) error {
	_, err := db.Collection("users").Indexes().CreateOne(
		context.Background(),
		mongo.IndexModel{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_email"),
		},
	)
	return err
}
