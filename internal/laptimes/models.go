package laptimes

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TrackTime is one lap record on the leaderboard, keyed by its proof URL (the
// YouTube watch link). Field names match the documents the web app reads.
type TrackTime struct {
	Track         string             `bson:"track" json:"track"`
	Configuration string             `bson:"configuration" json:"configuration"`
	Date          time.Time          `bson:"date" json:"date"`
	Car           string             `bson:"car" json:"car"`
	Tag           string             `bson:"tag" json:"tag"`
	Seconds       float64            `bson:"time" json:"time"`
	Proof         string             `bson:"proof" json:"proof"`
	UserID        primitive.ObjectID `bson:"userId" json:"userId"`
}
