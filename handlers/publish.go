package handlers

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ovalline/pitwall/internal/publish"
	"github.com/ovalline/pitwall/pkg/middleware"
)

// PublishHandler exposes the blog publishing route. A request naming a post
// updates that one post and authenticates with the web app's API key; a
// request without a body is the CRON full sync and authenticates with the
// cron secret.
type PublishHandler struct {
	pub        *publish.Publisher
	cronSecret string
	apiKey     string
}

func NewPublishHandler(pub *publish.Publisher, cronSecret, apiKey string) *PublishHandler {
	return &PublishHandler{pub: pub, cronSecret: cronSecret, apiKey: apiKey}
}

func (h *PublishHandler) Register(r *gin.Engine) {
	r.POST("/publish/blog", h.publishBlog)
}

func (h *PublishHandler) publishBlog(c *gin.Context) {
	token, ok := middleware.BearerToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
		return
	}

	var req struct {
		Blog string `json:"blog"`
	}
	// body is optional; absent or empty means full sync
	_ = c.ShouldBindJSON(&req)

	if req.Blog != "" {
		if !tokenMatches(token, h.apiKey) {
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid bearer token for blog update"})
			return
		}
		if err := h.pub.PublishPost(c.Request.Context(), req.Blog); err != nil {
			if errors.Is(err, publish.ErrPostNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "blog post " + req.Blog + " not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"msg": "published " + req.Blog})
		return
	}

	if !tokenMatches(token, h.cronSecret) {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid bearer token"})
		return
	}
	written, err := h.pub.SyncAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "sync complete", "written": written})
}

func tokenMatches(token, secret string) bool {
	return secret != "" && subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1
}
