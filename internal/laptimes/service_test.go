package laptimes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ovalline/pitwall/internal/source"
	"github.com/ovalline/pitwall/internal/users"
)

type fakeDetails struct {
	items  []source.Item
	err    error
	gotIDs []string
	calls  int
}

func (f *fakeDetails) Details(ctx context.Context, ids []string) ([]source.Item, error) {
	f.calls++
	f.gotIDs = ids
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

type fakeUsers struct {
	byEmail map[string]*users.User
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return f.byEmail[email], nil
}

func (f *fakeUsers) GetByID(ctx context.Context, id primitive.ObjectID) (*users.User, error) {
	return nil, nil
}

type fakeTimes struct {
	byProof map[string]*TrackTime
	err     error
}

func (f *fakeTimes) UpsertByProof(ctx context.Context, tt *TrackTime) error {
	if f.err != nil {
		return f.err
	}
	if f.byProof == nil {
		f.byProof = map[string]*TrackTime{}
	}
	f.byProof[tt.Proof] = tt
	return nil
}

func detailsItem(id, title, description string) source.Item {
	return source.Item{
		ExternalID:  id,
		Source:      source.TypeVideo,
		Title:       title,
		Description: description,
		URL:         "https://www.youtube.com/watch?v=" + id,
	}
}

func TestProcess_ExtractsTimeAttack(t *testing.T) {
	jane := &users.User{ID: primitive.NewObjectID(), Email: "jane@example.com"}
	details := &fakeDetails{items: []source.Item{
		detailsItem("vid1", "Time Attack - Laguna Seca", timeAttackDescription),
	}}
	times := &fakeTimes{}
	svc := NewService(details, &fakeUsers{byEmail: map[string]*users.User{"jane@example.com": jane}}, times)

	batch := []source.Item{
		{ExternalID: "vid1", Source: source.TypeVideo, Title: "Time Attack - Laguna Seca"},
		{ExternalID: "vid2", Source: source.TypeVideo, Title: "Raw Footage - Test Day"},
		{Source: source.TypeVideo, Title: "Time Attack - degenerate, no id"},
	}
	upserted, skipped, err := svc.Process(context.Background(), batch)
	require.NoError(t, err)
	require.Equal(t, 1, upserted)
	require.Zero(t, skipped)
	require.Equal(t, []string{"vid1"}, details.gotIDs, "only Time Attack videos with IDs are resolved")

	tt := times.byProof["https://www.youtube.com/watch?v=vid1"]
	require.NotNil(t, tt)
	require.Equal(t, "laguna-seca", tt.Track)
	require.Equal(t, "Full Course", tt.Configuration)
	require.Equal(t, time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), tt.Date)
	require.Equal(t, "Mazda Miata", tt.Car)
	require.Equal(t, "street", tt.Tag)
	require.InDelta(t, 93.205, tt.Seconds, 1e-9)
	require.Equal(t, jane.ID, tt.UserID)
}

func TestProcess_NoTimeAttackVideos(t *testing.T) {
	details := &fakeDetails{}
	svc := NewService(details, &fakeUsers{}, &fakeTimes{})

	upserted, skipped, err := svc.Process(context.Background(), []source.Item{
		{ExternalID: "vid2", Title: "Raw Footage - Test Day"},
		{ExternalID: "vid3", Title: "Announcement"},
	})
	require.NoError(t, err)
	require.Zero(t, upserted)
	require.Zero(t, skipped)
	require.Zero(t, details.calls, "no Time Attack videos means no details call")
}

func TestProcess_SkipsVideoWithoutMetadata(t *testing.T) {
	details := &fakeDetails{items: []source.Item{
		detailsItem("vid1", "Time Attack - Laguna Seca", "no block here"),
	}}
	svc := NewService(details, &fakeUsers{}, &fakeTimes{})

	upserted, skipped, err := svc.Process(context.Background(), []source.Item{
		{ExternalID: "vid1", Title: "Time Attack - Laguna Seca"},
	})
	require.NoError(t, err)
	require.Zero(t, upserted)
	require.Equal(t, 1, skipped)
}

func TestProcess_SkipsUnknownDriver(t *testing.T) {
	details := &fakeDetails{items: []source.Item{
		detailsItem("vid1", "Time Attack - Laguna Seca", timeAttackDescription),
	}}
	svc := NewService(details, &fakeUsers{}, &fakeTimes{})

	upserted, skipped, err := svc.Process(context.Background(), []source.Item{
		{ExternalID: "vid1", Title: "Time Attack - Laguna Seca"},
	})
	require.NoError(t, err)
	require.Zero(t, upserted)
	require.Equal(t, 1, skipped)
}

func TestProcess_DriverEmailIsCaseInsensitive(t *testing.T) {
	jane := &users.User{ID: primitive.NewObjectID(), Email: "jane@example.com"}
	desc := "===\nTrack: Sonoma\nDate: 08/01/2026\nCar: BRZ\nTime: 2:01.5\nDriver: Jane@Example.COM\n==="
	details := &fakeDetails{items: []source.Item{
		detailsItem("vid1", "Time Attack - Sonoma", desc),
	}}
	times := &fakeTimes{}
	svc := NewService(details, &fakeUsers{byEmail: map[string]*users.User{"jane@example.com": jane}}, times)

	upserted, _, err := svc.Process(context.Background(), []source.Item{
		{ExternalID: "vid1", Title: "Time Attack - Sonoma"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, upserted)
}

func TestProcess_SkipsBadLapTime(t *testing.T) {
	desc := "===\nTrack: Sonoma\nDate: 08/01/2026\nCar: BRZ\nTime: quite fast\nDriver: jane@example.com\n==="
	details := &fakeDetails{items: []source.Item{
		detailsItem("vid1", "Time Attack - Sonoma", desc),
	}}
	jane := &users.User{ID: primitive.NewObjectID(), Email: "jane@example.com"}
	svc := NewService(details, &fakeUsers{byEmail: map[string]*users.User{"jane@example.com": jane}}, &fakeTimes{})

	upserted, skipped, err := svc.Process(context.Background(), []source.Item{
		{ExternalID: "vid1", Title: "Time Attack - Sonoma"},
	})
	require.NoError(t, err)
	require.Zero(t, upserted)
	require.Equal(t, 1, skipped)
}

func TestProcess_DetailsErrorAbortsBatch(t *testing.T) {
	details := &fakeDetails{err: &source.FetchError{Source: "youtube", Err: errors.New("quota exceeded")}}
	svc := NewService(details, &fakeUsers{}, &fakeTimes{})

	_, _, err := svc.Process(context.Background(), []source.Item{
		{ExternalID: "vid1", Title: "Time Attack - Sonoma"},
	})
	var fe *source.FetchError
	require.ErrorAs(t, err, &fe)
}

func TestProcess_UpsertFailureSkipsRecord(t *testing.T) {
	jane := &users.User{ID: primitive.NewObjectID(), Email: "jane@example.com"}
	details := &fakeDetails{items: []source.Item{
		detailsItem("vid1", "Time Attack - Laguna Seca", timeAttackDescription),
	}}
	svc := NewService(details, &fakeUsers{byEmail: map[string]*users.User{"jane@example.com": jane}}, &fakeTimes{err: errors.New("write failed")})

	upserted, skipped, err := svc.Process(context.Background(), []source.Item{
		{ExternalID: "vid1", Title: "Time Attack - Laguna Seca"},
	})
	require.NoError(t, err, "per-record write failures must not abort the run")
	require.Zero(t, upserted)
	require.Equal(t, 1, skipped)
}
