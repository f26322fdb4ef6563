package responses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"presentation-server/internal/domain/pipeline"
	"presentation-server/internal/domain/slideimage"
)

// ErrorResponse is the uniform error body returned by every endpoint.
type ErrorResponse struct {
	Code      string `json:"code,omitempty"`
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// HandleError maps domain errors onto HTTP responses. Pipeline errors carry
// their own code and user-facing message; everything else falls back to the
// provided message.
func HandleError(reqCtx *gin.Context, err error, message string) {
	requestID := reqCtx.GetString("request_id")

	var perr *slideimage.PipelineError
	if errors.As(err, &perr) {
		reqCtx.AbortWithStatusJSON(statusForCode(perr.Code), ErrorResponse{
			Code:      perr.Code,
			Error:     perr.Message,
			RequestID: requestID,
		})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, pipeline.ErrUnknownSlide), errors.Is(err, pipeline.ErrNoSuchVersion):
		status = http.StatusNotFound
	case errors.Is(err, pipeline.ErrAlreadyRunning):
		status = http.StatusConflict
	case errors.Is(err, pipeline.ErrNoPrompt):
		status = http.StatusBadRequest
	}

	if message == "" && err != nil {
		message = err.Error()
	}
	reqCtx.AbortWithStatusJSON(status, ErrorResponse{
		Error:     message,
		RequestID: requestID,
	})
}

// HandleBadRequest rejects malformed input at the binding layer.
func HandleBadRequest(reqCtx *gin.Context, err error) {
	reqCtx.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		Code:      slideimage.ErrCodeMalformedInput,
		Error:     err.Error(),
		RequestID: reqCtx.GetString("request_id"),
	})
}

func statusForCode(code string) int {
	switch code {
	case slideimage.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case slideimage.ErrCodeMalformedInput:
		return http.StatusBadRequest
	case slideimage.ErrCodeProviderError:
		return http.StatusBadGateway
	case slideimage.ErrCodePersistenceRead, slideimage.ErrCodePersistenceWrite:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
