package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/Jitenmohanty/SelfEx-Job-tracker/internal/models"
)

// ErrDuplicateKey surfaces a Mongo unique-index violation (code 11000) so
// the service layer can map it to a domain error.
var ErrDuplicateKey = errors.New("duplicate key")

type JobRepository struct {
	col *mongo.Collection
}

func NewJobRepository(db *mongo.Database) *JobRepository {
	return &JobRepository{col: db.Collection("jobitems")}
}

func toBSON(f models.JobFilter) bson.M {
	filter := bson.M{}
	if f.IsJobPosting != nil {
		filter["isJobPosting"] = *f.IsJobPosting
	}
	if f.User != nil {
		filter["user"] = *f.User
	}
	if f.OriginalJobPostingID != nil {
		filter["originalJobPostingId"] = *f.OriginalJobPostingID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Company != "" {
		filter["company"] = bson.M{"$regex": regexp.QuoteMeta(f.Company), "$options": "i"}
	}
	if f.Role != "" {
		filter["role"] = bson.M{"$regex": regexp.QuoteMeta(f.Role), "$options": "i"}
	}
	return filter
}

func (r *JobRepository) Find(ctx context.Context, f models.JobFilter, newestFirst bool) ([]models.JobItem, error) {
	order := 1
	if newestFirst {
		order = -1
	}
	opts := options.Find().SetSort(bson.D{{Key: "appliedDate", Value: order}})

	cur, err := r.col.Find(ctx, toBSON(f), opts)
	if err != nil {
		return nil, fmt.Errorf("find job items: %w", err)
	}
	defer cur.Close(ctx)

	items := []models.JobItem{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode job items: %w", err)
	}
	return items, nil
}

// FindByID returns (nil, nil) when no document matches.
func (r *JobRepository) FindByID(ctx context.Context, id bson.ObjectID) (*models.JobItem, error) {
	var item models.JobItem
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find job item %s: %w", id.Hex(), err)
	}
	return &item, nil
}

func (r *JobRepository) Insert(ctx context.Context, item *models.JobItem) error {
	res, err := r.col.InsertOne(ctx, item)
	if err != nil {
		if isDupKey(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("insert job item: %w", err)
	}
	if oid, ok := res.InsertedID.(bson.ObjectID); ok {
		item.ID = oid
	}
	return nil
}

// Save replaces the stored document with item; the _id never changes.
func (r *JobRepository) Save(ctx context.Context, item *models.JobItem) error {
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": item.ID}, item)
	if err != nil {
		return fmt.Errorf("save job item %s: %w", item.ID.Hex(), err)
	}
	return nil
}

func (r *JobRepository) Delete(ctx context.Context, id bson.ObjectID) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete job item %s: %w", id.Hex(), err)
	}
	return nil
}

// HasApplication reports whether owner already applied to posting.
func (r *JobRepository) HasApplication(ctx context.Context, owner, posting bson.ObjectID) (bool, error) {
	count, err := r.col.CountDocuments(ctx, bson.M{
		"isJobPosting":         false,
		"user":                 owner,
		"originalJobPostingId": posting,
	})
	if err != nil {
		return false, fmt.Errorf("count applications: %w", err)
	}
	return count > 0, nil
}

// FindApplicationsFor lists every application linked to posting, used for
// cascade deletes.
func (r *JobRepository) FindApplicationsFor(ctx context.Context, posting bson.ObjectID) ([]models.JobItem, error) {
	isPosting := false
	return r.Find(ctx, models.JobFilter{
		IsJobPosting:         &isPosting,
		OriginalJobPostingID: &posting,
	}, true)
}

func isDupKey(err error) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	return false
}
