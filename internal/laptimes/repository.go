package laptimes

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository persists lap records. A driver re-uploading or editing a video
// must update the existing record, so writes are keyed by proof URL.
type Repository interface {
	UpsertByProof(ctx context.Context, tt *TrackTime) error
}

// MongoRepository implements Repository on the TrackTime collection.
type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	// proof is the natural key; enforce it
	idx := mongo.IndexModel{Keys: bson.D{{Key: "proof", Value: 1}}, Options: options.Index().SetUnique(true)}
	col.Indexes().CreateOne(context.Background(), idx)
	return &MongoRepository{col: col}
}

func (r *MongoRepository) UpsertByProof(ctx context.Context, tt *TrackTime) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"proof": tt.Proof},
		bson.M{"$set": tt},
		options.Update().SetUpsert(true),
	)
	return err
}
