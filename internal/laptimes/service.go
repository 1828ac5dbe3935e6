package laptimes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ovalline/pitwall/internal/source"
	"github.com/ovalline/pitwall/internal/users"
	"github.com/ovalline/pitwall/pkg/logger"
	"github.com/ovalline/pitwall/pkg/metrics"
)

// metadata dates are written US-style, e.g. 08/20/2026
const dateLayout = "01/02/2006"

// VideoDetails resolves full video snippets; search listings truncate
// descriptions and would cut metadata blocks off.
type VideoDetails interface {
	Details(ctx context.Context, ids []string) ([]source.Item, error)
}

// Service turns Time Attack uploads into leaderboard records.
type Service struct {
	videos VideoDetails
	users  users.Repository
	times  Repository
}

func NewService(videos VideoDetails, users users.Repository, times Repository) *Service {
	return &Service{videos: videos, users: users, times: times}
}

// Process scans a fetched batch for Time Attack videos and upserts one lap
// record per parseable description. Malformed metadata, unknown drivers and
// per-record write failures are skipped and counted, not fatal; a failed
// details call aborts the batch.
func (s *Service) Process(ctx context.Context, items []source.Item) (int, int, error) {
	var ids []string
	for _, it := range items {
		if it.ExternalID == "" {
			continue
		}
		if Category(it.Title) == CategoryTimeAttack {
			ids = append(ids, it.ExternalID)
		}
	}
	if len(ids) == 0 {
		return 0, 0, nil
	}

	details, err := s.videos.Details(ctx, ids)
	if err != nil {
		return 0, 0, err
	}

	upserted, skipped := 0, 0
	for _, v := range details {
		tt, err := s.extract(ctx, v)
		if err != nil {
			skipped++
			metrics.TrackTimes.WithLabelValues("skipped").Inc()
			logger.Warnf("track time: skipping video %s: %v", v.ExternalID, err)
			continue
		}
		if err := s.times.UpsertByProof(ctx, tt); err != nil {
			skipped++
			metrics.TrackTimes.WithLabelValues("skipped").Inc()
			logger.Errorf("track time: upsert %s: %v", tt.Proof, err)
			continue
		}
		upserted++
		metrics.TrackTimes.WithLabelValues("upserted").Inc()
		logger.Infof("track time: %s %.3fs (%s)", tt.Track, tt.Seconds, tt.Proof)
	}
	return upserted, skipped, nil
}

func (s *Service) extract(ctx context.Context, v source.Item) (*TrackTime, error) {
	meta := ParseMetadata(v.Description)
	if len(meta) == 0 {
		return nil, errors.New("description has no metadata block")
	}
	for _, key := range []string{"track", "date", "car", "time", "driver"} {
		if meta[key] == "" {
			return nil, fmt.Errorf("metadata missing %q", key)
		}
	}

	date, err := time.Parse(dateLayout, meta["date"])
	if err != nil {
		return nil, fmt.Errorf("invalid date %q", meta["date"])
	}
	seconds, err := ParseLapTime(meta["time"])
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(meta["driver"]))
	driver, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("look up driver %s: %w", email, err)
	}
	if driver == nil {
		return nil, fmt.Errorf("no user for driver %s", email)
	}

	return &TrackTime{
		Track:         slugify(meta["track"]),
		Configuration: meta["configuration"],
		Date:          date,
		Car:           meta["car"],
		Tag:           meta["tag"],
		Seconds:       seconds,
		Proof:         v.URL,
		UserID:        driver.ID,
	}, nil
}

// slugify matches the track naming the leaderboard pages use as route
// segments ("Laguna Seca" -> "laguna-seca").
func slugify(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "-")
}
