package apihandlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"linkedlens/internal/models"
)

// APIError is the body of every failed request:
// { "error": { "code": "not_configured", "message": "LLM not configured" } }
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error APIError `json:"error"`
}

func JSONError(ctx *gin.Context, status int, code, msg string) {
	ctx.JSON(status, errorResponse{Error: APIError{Code: code, Message: msg}})
}

func BadRequest(ctx *gin.Context, msg string) {
	JSONError(ctx, http.StatusBadRequest, "bad_request", msg)
}

func NotFound(ctx *gin.Context, msg string) {
	JSONError(ctx, http.StatusNotFound, "not_found", msg)
}

func Internal(ctx *gin.Context, msg string) {
	JSONError(ctx, http.StatusInternalServerError, "internal_error", msg)
}

// PipelineError maps the classification error taxonomy onto HTTP statuses.
func PipelineError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrConfiguration):
		JSONError(ctx, http.StatusConflict, "not_configured", err.Error())
	case errors.Is(err, models.ErrExtraction):
		JSONError(ctx, http.StatusUnprocessableEntity, "extraction_failed", err.Error())
	case errors.Is(err, models.ErrTimeout):
		JSONError(ctx, http.StatusGatewayTimeout, "timeout", err.Error())
	case errors.Is(err, models.ErrProvider):
		JSONError(ctx, http.StatusBadGateway, "provider_error", err.Error())
	default:
		Internal(ctx, err.Error())
	}
}
