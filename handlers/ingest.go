package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ovalline/pitwall/internal/ingest"
	"github.com/ovalline/pitwall/internal/source"
	"github.com/ovalline/pitwall/pkg/middleware"
)

// IngestHandler exposes the CRON-triggered ingestion routes.
type IngestHandler struct {
	runner *ingest.Runner
	secret string
}

func NewIngestHandler(runner *ingest.Runner, secret string) *IngestHandler {
	return &IngestHandler{runner: runner, secret: secret}
}

// Register mounts the ingestion group behind the cron bearer token.
func (h *IngestHandler) Register(r *gin.Engine) {
	grp := r.Group("/ingest", middleware.StaticBearer(h.secret))
	grp.POST("", h.runAll)
	grp.POST("/:source", h.runOne)
}

func (h *IngestHandler) runOne(c *gin.Context) {
	summary, err := h.runner.RunSource(c.Request.Context(), c.Param("source"))
	if err != nil {
		c.JSON(runErrorResponse(err))
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *IngestHandler) runAll(c *gin.Context) {
	summaries, failures := h.runner.RunAll(c.Request.Context())

	if len(failures) > 0 && len(summaries) == 0 {
		// nothing ran to completion; answer with the first failure
		c.JSON(runErrorResponse(failures[0]))
		return
	}

	body := gin.H{"results": summaries}
	if len(failures) > 0 {
		errs := map[string]string{}
		for _, f := range failures {
			errs[f.Source] = f.Err.Error()
		}
		body["errors"] = errs
	}
	c.JSON(http.StatusOK, body)
}

// runErrorResponse maps run failures onto status codes: unknown source 404,
// upstream fetch failures 502, storage and everything else 500.
func runErrorResponse(err error) (int, gin.H) {
	if errors.Is(err, ingest.ErrUnknownSource) {
		return http.StatusNotFound, gin.H{"error": err.Error()}
	}

	status := http.StatusInternalServerError
	var fe *source.FetchError
	if errors.As(err, &fe) {
		status = http.StatusBadGateway
	}

	body := gin.H{"error": err.Error()}
	var re *ingest.RunError
	if errors.As(err, &re) {
		body["source"] = re.Source
		body["stage"] = string(re.LastStage)
	}
	return status, body
}
