package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ovalline/pitwall/internal/content"
	"github.com/ovalline/pitwall/internal/source"
)

type fakeFetcher struct {
	name  string
	typ   source.Type
	items []source.Item
	err   error
	calls int
}

func (f *fakeFetcher) Name() string      { return f.name }
func (f *fakeFetcher) Type() source.Type { return f.typ }

func (f *fakeFetcher) Fetch(ctx context.Context) ([]source.Item, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

type failingRepo struct{}

func (failingRepo) Upsert(ctx context.Context, rec *content.Record) (content.Outcome, error) {
	return 0, errors.New("connection reset")
}

type fakeEnricher struct {
	upserted, skipped int
	err               error
	got               []source.Item
}

func (e *fakeEnricher) Process(ctx context.Context, items []source.Item) (int, int, error) {
	e.got = items
	return e.upserted, e.skipped, e.err
}

func videoItem(id, title string) source.Item {
	return source.Item{
		ExternalID: id,
		Source:     source.TypeVideo,
		SourceName: "youtube",
		Title:      title,
		URL:        "https://www.youtube.com/watch?v=" + id,
		Author:     "Oval Line Racing",
		Published:  time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
	}
}

func TestRunSource_InsertsNewItems(t *testing.T) {
	repo := content.NewMemoryRepository()
	runner := NewRunner(repo)
	runner.Register(&fakeFetcher{
		name: "youtube",
		typ:  source.TypeVideo,
		items: []source.Item{
			videoItem("vid1", "Time Attack - Laguna Seca"),
			videoItem("vid2", "Raw Footage - Test Day"),
			videoItem("vid3", "Time Attack - Thunderhill"),
		},
	}, nil)

	summary, err := runner.RunSource(context.Background(), "youtube")
	require.NoError(t, err)
	require.Equal(t, "youtube", summary.Source)
	require.Equal(t, 3, summary.Inserted)
	require.Zero(t, summary.Updated)
	require.Zero(t, summary.Skipped)
	require.Zero(t, summary.Unchanged)
	require.Nil(t, summary.TrackTimes)
	require.Equal(t, 3, repo.Len())
}

func TestRunSource_RerunIsIdempotent(t *testing.T) {
	repo := content.NewMemoryRepository()
	runner := NewRunner(repo)
	runner.Register(&fakeFetcher{
		name:  "youtube",
		typ:   source.TypeVideo,
		items: []source.Item{videoItem("vid1", "Time Attack - Laguna Seca"), videoItem("vid2", "Raw Footage - Test Day")},
	}, nil)

	_, err := runner.RunSource(context.Background(), "youtube")
	require.NoError(t, err)

	summary, err := runner.RunSource(context.Background(), "youtube")
	require.NoError(t, err)
	require.Zero(t, summary.Inserted)
	require.Zero(t, summary.Updated)
	require.Zero(t, summary.Skipped)
	require.Equal(t, 2, summary.Unchanged)
	require.Equal(t, 2, repo.Len(), "re-running the same window must not duplicate records")
}

func TestRunSource_MixedBatchCounts(t *testing.T) {
	repo := content.NewMemoryRepository()
	runner := NewRunner(repo)
	f := &fakeFetcher{
		name:  "youtube",
		typ:   source.TypeVideo,
		items: []source.Item{videoItem("vid1", "Time Attack - Laguna Seca"), videoItem("vid2", "Raw Footage - Test Day")},
	}
	runner.Register(f, nil)

	_, err := runner.RunSource(context.Background(), "youtube")
	require.NoError(t, err)

	// two already stored with identical content, one new
	f.items = append(f.items, videoItem("vid3", "Time Attack - Thunderhill"))

	summary, err := runner.RunSource(context.Background(), "youtube")
	require.NoError(t, err)
	require.Equal(t, 1, summary.Inserted)
	require.Zero(t, summary.Updated)
	require.Zero(t, summary.Skipped)
	require.Equal(t, 2, summary.Unchanged)
}

func TestRunSource_CountsChangedItemsAsUpdated(t *testing.T) {
	repo := content.NewMemoryRepository()
	runner := NewRunner(repo)
	f := &fakeFetcher{
		name:  "youtube",
		typ:   source.TypeVideo,
		items: []source.Item{videoItem("vid1", "Time Attack - Laguna Seca")},
	}
	runner.Register(f, nil)

	_, err := runner.RunSource(context.Background(), "youtube")
	require.NoError(t, err)

	f.items = []source.Item{videoItem("vid1", "Time Attack - Laguna Seca (fixed title)")}

	summary, err := runner.RunSource(context.Background(), "youtube")
	require.NoError(t, err)
	require.Equal(t, 1, summary.Updated)
	require.Zero(t, summary.Inserted)
	require.Equal(t, 1, repo.Len())
	require.Equal(t, "Time Attack - Laguna Seca (fixed title)", repo.Get(source.TypeVideo, "vid1").Title)
}

func TestRunSource_SkipsItemsWithoutID(t *testing.T) {
	repo := content.NewMemoryRepository()
	runner := NewRunner(repo)
	runner.Register(&fakeFetcher{
		name: "blog",
		typ:  source.TypeBlog,
		items: []source.Item{
			{Source: source.TypeBlog, Title: "degenerate entry"},
			{Source: source.TypeBlog, ExternalID: "post1", Title: "Season opener", URL: "https://blog.example.com/opener"},
		},
	}, nil)

	summary, err := runner.RunSource(context.Background(), "blog")
	require.NoError(t, err)
	require.Equal(t, 1, summary.Skipped)
	require.Equal(t, 1, summary.Inserted)
	require.Equal(t, 1, repo.Len())
}

func TestRunSource_StampsMissingTimestamps(t *testing.T) {
	repo := content.NewMemoryRepository()
	runner := NewRunner(repo)
	runner.Register(&fakeFetcher{
		name:  "blog",
		typ:   source.TypeBlog,
		items: []source.Item{{Source: source.TypeBlog, ExternalID: "post1", Title: "Undated"}},
	}, nil)

	before := time.Now().UTC()
	_, err := runner.RunSource(context.Background(), "blog")
	require.NoError(t, err)

	stored := repo.Get(source.TypeBlog, "post1")
	require.NotNil(t, stored)
	require.False(t, stored.PublishedAt.IsZero())
	require.False(t, stored.PublishedAt.Before(before))
}

func TestRunSource_FetchErrorWritesNothing(t *testing.T) {
	repo := content.NewMemoryRepository()
	runner := NewRunner(repo)
	runner.Register(&fakeFetcher{
		name: "youtube",
		typ:  source.TypeVideo,
		err:  &source.FetchError{Source: "youtube", Err: errors.New("quota exceeded")},
	}, nil)

	summary, err := runner.RunSource(context.Background(), "youtube")
	require.Nil(t, summary)

	var re *RunError
	require.ErrorAs(t, err, &re)
	require.Equal(t, StageAuthenticated, re.LastStage)

	var fe *source.FetchError
	require.ErrorAs(t, err, &fe, "handlers need the fetch error to map to 502")
	require.Zero(t, repo.Len(), "a failed fetch must leave the store untouched")
}

func TestRunSource_StorageError(t *testing.T) {
	runner := NewRunner(failingRepo{})
	runner.Register(&fakeFetcher{
		name:  "youtube",
		typ:   source.TypeVideo,
		items: []source.Item{videoItem("vid1", "Time Attack - Laguna Seca")},
	}, nil)

	_, err := runner.RunSource(context.Background(), "youtube")

	var re *RunError
	require.ErrorAs(t, err, &re)
	require.Equal(t, StageNormalized, re.LastStage)

	var se *StorageError
	require.ErrorAs(t, err, &se)
}

func TestRunSource_UnknownSource(t *testing.T) {
	runner := NewRunner(content.NewMemoryRepository())

	_, err := runner.RunSource(context.Background(), "podcast")
	require.ErrorIs(t, err, ErrUnknownSource)
}

func TestRunSource_EnricherReceivesRawItems(t *testing.T) {
	repo := content.NewMemoryRepository()
	runner := NewRunner(repo)
	items := []source.Item{
		videoItem("vid1", "Time Attack - Laguna Seca"),
		{Source: source.TypeVideo, Title: "degenerate"},
	}
	enricher := &fakeEnricher{upserted: 2, skipped: 1}
	runner.Register(&fakeFetcher{name: "youtube", typ: source.TypeVideo, items: items}, enricher)

	summary, err := runner.RunSource(context.Background(), "youtube")
	require.NoError(t, err)
	require.NotNil(t, summary.TrackTimes)
	require.Equal(t, 2, summary.TrackTimes.Upserted)
	require.Equal(t, 1, summary.TrackTimes.Skipped)
	require.Len(t, enricher.got, 2, "the enricher sees the full raw batch")
}

func TestRunSource_EnricherError(t *testing.T) {
	runner := NewRunner(content.NewMemoryRepository())
	enricher := &fakeEnricher{err: &source.FetchError{Source: "youtube", Err: errors.New("details call failed")}}
	runner.Register(&fakeFetcher{
		name:  "youtube",
		typ:   source.TypeVideo,
		items: []source.Item{videoItem("vid1", "Time Attack - Laguna Seca")},
	}, enricher)

	_, err := runner.RunSource(context.Background(), "youtube")

	var re *RunError
	require.ErrorAs(t, err, &re)
	require.Equal(t, StagePersisted, re.LastStage, "records persisted before the enricher failed stay persisted")
}

func TestRunAll_ContinuesPastFailures(t *testing.T) {
	repo := content.NewMemoryRepository()
	runner := NewRunner(repo)
	runner.Register(&fakeFetcher{
		name: "youtube",
		typ:  source.TypeVideo,
		err:  &source.FetchError{Source: "youtube", Err: errors.New("boom")},
	}, nil)
	blog := &fakeFetcher{
		name:  "blog",
		typ:   source.TypeBlog,
		items: []source.Item{{Source: source.TypeBlog, ExternalID: "post1", Title: "Season opener"}},
	}
	runner.Register(blog, nil)

	summaries, failures := runner.RunAll(context.Background())
	require.Len(t, summaries, 1)
	require.Equal(t, "blog", summaries[0].Source)
	require.Len(t, failures, 1)
	require.Equal(t, "youtube", failures[0].Source)
	require.Equal(t, 1, blog.calls, "a failing source must not stop the others")
	require.Equal(t, 1, repo.Len())
}

func TestRunnerSources(t *testing.T) {
	runner := NewRunner(content.NewMemoryRepository())
	runner.Register(&fakeFetcher{name: "youtube", typ: source.TypeVideo}, nil)
	runner.Register(&fakeFetcher{name: "blog", typ: source.TypeBlog}, nil)

	require.Equal(t, []string{"youtube", "blog"}, runner.Sources())
}
