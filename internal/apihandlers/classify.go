package apihandlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"linkedlens/internal/models"
	"linkedlens/internal/util"
	"linkedlens/pkg/categorizer"
)

// ClassifyRequest defines the expected JSON body for the /classify endpoint.
type ClassifyRequest struct {
	Text string `json:"text" binding:"required"`
}

// ClassifyResponse defines the JSON response for a classified text. Category is nil when
// the model answer matched no configured category.
type ClassifyResponse struct {
	Response string                 `json:"response"`
	Category *models.Category       `json:"category"`
	State    models.ProcessingState `json:"state"`
}

// ClassifyHandler runs free text through the same prompt, gateway and matcher the
// pipeline uses, without touching the page.
func (h *APIHandler) ClassifyHandler(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	text := util.Truncate(util.CollapseWhitespace(req.Text), h.App.Config.Extraction.MaxLength)
	if text == "" {
		BadRequest(c, "text must not be blank")
		return
	}

	ctx := c.Request.Context()
	cats, err := h.App.Categories.List(ctx)
	if err != nil {
		Internal(c, "read categories: "+err.Error())
		return
	}

	res, err := h.App.Categorizer.Categorize(ctx, categorizer.CategorizationRequest{Text: text, Categories: cats})
	if err != nil {
		log.Warnf("API classify failed: %v", err)
		PipelineError(c, err)
		return
	}

	state := models.StateUncategorized
	if res.Category != nil {
		state = models.CategoryState(res.Category.ID)
	}
	c.JSON(http.StatusOK, gin.H{"data": ClassifyResponse{Response: res.Response, Category: res.Category, State: state}})
}
