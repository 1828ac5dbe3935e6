package content

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ovalline/pitwall/internal/source"
)

// Collection names match the site database the Next.js frontend reads.
const (
	videoCollection = "SyncedVideo"
	blogCollection  = "SyncedPost"
)

// MongoRepository stores records in one collection per source type.
type MongoRepository struct {
	cols map[source.Type]*mongo.Collection
}

// NewMongoRepository wires the per-source collections and ensures the unique
// key index on each.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	cols := map[source.Type]*mongo.Collection{
		source.TypeVideo: db.Collection(videoCollection),
		source.TypeBlog:  db.Collection(blogCollection),
	}
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "source", Value: 1}, {Key: "externalId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	for _, col := range cols {
		col.Indexes().CreateOne(context.Background(), idx)
	}
	return &MongoRepository{cols: cols}
}

func (r *MongoRepository) collection(src source.Type) (*mongo.Collection, error) {
	col, ok := r.cols[src]
	if !ok {
		return nil, fmt.Errorf("no collection for source type %q", src)
	}
	return col, nil
}

// Upsert uses a single FindOneAndUpdate returning the pre-image, so insert
// detection and change detection need no second round trip.
func (r *MongoRepository) Upsert(ctx context.Context, rec *Record) (Outcome, error) {
	col, err := r.collection(rec.Source)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	rec.LastSyncedAt = now

	filter := bson.M{"source": rec.Source, "externalId": rec.ExternalID}
	update := bson.M{
		"$set": bson.M{
			"title":        rec.Title,
			"url":          rec.URL,
			"author":       rec.Author,
			"publishedAt":  rec.PublishedAt,
			"lastSyncedAt": rec.LastSyncedAt,
		},
		"$setOnInsert": bson.M{
			"source":        rec.Source,
			"externalId":    rec.ExternalID,
			"firstSyncedAt": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.Before)

	var prev Record
	err = col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&prev)
	if err == mongo.ErrNoDocuments {
		rec.FirstSyncedAt = now
		return OutcomeInserted, nil
	}
	if err != nil {
		return 0, err
	}

	rec.FirstSyncedAt = prev.FirstSyncedAt
	if sameContent(&prev, rec) {
		return OutcomeUnchanged, nil
	}
	return OutcomeUpdated, nil
}
