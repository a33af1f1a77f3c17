package server

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/go-chi/render"

	"sid-reconciliation-service/pkg/errors"
)

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Status     int            `json:"status"`
	Category   string         `json:"category"`
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Suggestion string         `json:"suggestion,omitempty"`
	Context    errors.Context `json:"context,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
}

// Render implements the render.Renderer interface
func (e *ErrorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.Status)
	return nil
}

// StatusFor maps an error to its HTTP status. Input problems the caller can
// fix are 4xx; everything else is a server fault.
func StatusFor(err error) int {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	re, ok := errors.AsReconcilerError(err)
	if !ok {
		return http.StatusInternalServerError
	}

	switch re.Category {
	case errors.CategoryParse, errors.CategoryValidation:
		return http.StatusUnprocessableEntity
	case errors.CategoryFile, errors.CategoryConfiguration:
		return http.StatusBadRequest
	case errors.CategoryReconciliation:
		if re.Code == errors.CodeNoData {
			return http.StatusUnprocessableEntity
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// NewErrorResponse converts any error into a response body
func NewErrorResponse(err error, requestID string) *ErrorResponse {
	resp := &ErrorResponse{
		Status:    StatusFor(err),
		Category:  string(errors.CategoryInternal),
		Code:      string(errors.CodeUnexpectedError),
		Message:   err.Error(),
		RequestID: requestID,
	}
	if re, ok := errors.AsReconcilerError(err); ok {
		resp.Category = string(re.Category)
		resp.Code = string(re.Code)
		resp.Message = re.Message
		resp.Suggestion = re.Suggestion
		resp.Context = re.Context
	}
	return resp
}
