package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// ErrorModel is the body of every error response: {"status": 400, "error": "..."}.
// Field-level validation failures are listed under details.
type ErrorModel struct {
	Status  int      `json:"status" doc:"HTTP status code"`
	Message string   `json:"error" doc:"Human readable error message"`
	Details []string `json:"details,omitempty" doc:"Individual validation failures"`
}

func (e *ErrorModel) Error() string {
	return e.Message
}

func (e *ErrorModel) GetStatus() int {
	return e.Status
}

// NewError builds an ErrorModel. Request validation failures, which huma
// reports as 422, are answered with 400 like any other malformed request.
func NewError(status int, msg string, errs ...error) huma.StatusError {
	if status == http.StatusUnprocessableEntity {
		status = http.StatusBadRequest
	}

	model := &ErrorModel{Status: status, Message: msg}

	for _, err := range errs {
		if err != nil {
			model.Details = append(model.Details, err.Error())
		}
	}

	return model
}

// huma resolves its error constructor when operations are registered, so the
// override has to be in place before any router is built.
func init() {
	huma.NewError = NewError
}
