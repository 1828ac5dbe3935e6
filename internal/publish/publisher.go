package publish

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ovalline/pitwall/internal/blog"
	"github.com/ovalline/pitwall/internal/users"
	"github.com/ovalline/pitwall/pkg/logger"
	"github.com/ovalline/pitwall/pkg/metrics"
)

// ErrPostNotFound is returned when a requested post slug does not exist.
var ErrPostNotFound = errors.New("blog post not found")

// ObjectStore is the slice of object storage the publisher needs.
type ObjectStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType, checksum string) error
	ContentHash(ctx context.Context, key string) (string, bool, error)
}

// AuthorDirectory resolves post authors.
type AuthorDirectory interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*users.User, error)
}

// Publisher renders posts and uploads the files whose content changed.
type Publisher struct {
	posts  blog.Repository
	users  AuthorDirectory
	store  ObjectStore
	client *http.Client
}

func NewPublisher(posts blog.Repository, users AuthorDirectory, store ObjectStore) *Publisher {
	return &Publisher{
		posts:  posts,
		users:  users,
		store:  store,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// PublishPost renders and uploads a single post by slug.
func (p *Publisher) PublishPost(ctx context.Context, id string) error {
	post, err := p.posts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if post == nil {
		return ErrPostNotFound
	}
	_, err = p.publishOne(ctx, post)
	return err
}

// SyncAll republishes every post and returns the number of objects written.
// Unchanged files are not re-uploaded.
func (p *Publisher) SyncAll(ctx context.Context) (int, error) {
	posts, err := p.posts.List(ctx)
	if err != nil {
		return 0, err
	}
	written := 0
	for i := range posts {
		n, err := p.publishOne(ctx, &posts[i])
		written += n
		if err != nil {
			return written, err
		}
	}
	logger.Infof("publish: synced %d posts, wrote %d objects", len(posts), written)
	return written, nil
}

func (p *Publisher) publishOne(ctx context.Context, post *blog.Post) (int, error) {
	author, err := p.users.GetByID(ctx, post.AuthorID)
	if err != nil {
		return 0, fmt.Errorf("resolve author of %s: %w", post.ID, err)
	}
	if author == nil {
		return 0, fmt.Errorf("post %s has unknown author %s", post.ID, post.AuthorID.Hex())
	}

	dir := "content/posts/" + post.ID
	markdown := []byte(RenderPost(post, author.Email))

	written, err := p.writeIfChanged(ctx, dir+"/index.md", markdown, "text/markdown")
	if err != nil {
		return written, err
	}

	if post.ImageRef != "" {
		img, ext, err := p.downloadImage(ctx, post.ImageRef)
		if err != nil {
			return written, fmt.Errorf("featured image for %s: %w", post.ID, err)
		}
		contentType := "image/png"
		if ext == ".jpg" {
			contentType = "image/jpeg"
		}
		n, err := p.writeIfChanged(ctx, dir+"/featured"+ext, img, contentType)
		written += n
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// writeIfChanged uploads data unless storage already holds the same bytes.
func (p *Publisher) writeIfChanged(ctx context.Context, key string, data []byte, contentType string) (int, error) {
	sum := sha256.Sum256(data)
	checksum := hex.EncodeToString(sum[:])

	prev, ok, err := p.store.ContentHash(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", key, err)
	}
	if ok && prev == checksum {
		metrics.PublishObjects.WithLabelValues("unchanged").Inc()
		return 0, nil
	}
	if err := p.store.Upload(ctx, key, data, contentType, checksum); err != nil {
		return 0, fmt.Errorf("upload %s: %w", key, err)
	}
	metrics.PublishObjects.WithLabelValues("written").Inc()
	logger.Infof("publish: wrote %s (%d bytes)", key, len(data))
	return 1, nil
}

// downloadImage fetches the post's background image. The extension follows
// the response Content-Type, matching the file names the theme looks for.
func (p *Publisher) downloadImage(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("image fetch status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	ext := ".png"
	if strings.Contains(resp.Header.Get("Content-Type"), "jpeg") {
		ext = ".jpg"
	}
	return data, ext, nil
}
