package apihandlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"linkedlens/internal/app"
	"linkedlens/internal/dom"
	"linkedlens/internal/models"
)

// APIHandler serves the diagnostics API of one running session.
type APIHandler struct {
	App     *app.App
	Session *app.Session
}

func NewAPIHandler(a *app.App, sess *app.Session) *APIHandler {
	return &APIHandler{App: a, Session: sess}
}

// NewRouter registers every route on a fresh gin engine.
func NewRouter(h *APIHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.NoRoute(func(c *gin.Context) { NotFound(c, "no route for "+c.Request.Method+" "+c.Request.URL.Path) })
	router.GET("/health", h.HealthHandler)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/posts", h.ListPostsHandler)
		v1.GET("/queue", h.QueueHandler)
		v1.GET("/stats", h.StatsHandler)
		v1.GET("/categories", h.ListCategoriesHandler)
		v1.POST("/classify", h.ClassifyHandler)
		v1.POST("/llm/test", h.TestLLMHandler)
	}
	return router
}

func (h *APIHandler) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"url":         h.Session.Page.URL(),
		"target_page": h.Session.Engine.IsTargetPage(),
	})
}

// ListPostsHandler lists annotated posts in discovery order. ?state= filters by
// processing state.
func (h *APIHandler) ListPostsHandler(c *gin.Context) {
	posts := h.Session.Annotator.Snapshot()
	if state := c.Query("state"); state != "" {
		filtered := make([]dom.Annotation, 0, len(posts))
		for _, p := range posts {
			if string(p.State) == state {
				filtered = append(filtered, p)
			}
		}
		posts = filtered
	}
	c.JSON(http.StatusOK, gin.H{"data": posts})
}

func (h *APIHandler) QueueHandler(c *gin.Context) {
	pending := h.Session.Queue.Pending()
	ids := make([]string, len(pending))
	for i, p := range pending {
		ids[i] = p.ID
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"length":    len(ids),
		"pending":   ids,
		"in_flight": h.Session.Scheduler.InFlight(),
		"dropped":   h.Session.Scheduler.Dropped(),
		"seen":      h.Session.Engine.SeenCount(),
	}})
}

func (h *APIHandler) StatsHandler(c *gin.Context) {
	stats, err := h.App.Usage.Stats(c.Request.Context())
	if err != nil {
		Internal(c, "read stats: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stats})
}

func (h *APIHandler) ListCategoriesHandler(c *gin.Context) {
	cats, err := h.App.Categories.List(c.Request.Context())
	if err != nil {
		Internal(c, "read categories: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": cats})
}

// TestLLMHandler runs the fixed connection test against the configured provider.
func (h *APIHandler) TestLLMHandler(c *gin.Context) {
	ctx := c.Request.Context()
	if !h.App.Gateway.IsConfigured(ctx) {
		PipelineError(c, &models.ConfigurationError{Reason: "LLM not configured"})
		return
	}
	ok := h.App.Gateway.TestConnection(ctx)
	log.WithField("ok", ok).Info("API LLM connection test")
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"ok": ok}})
}
