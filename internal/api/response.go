package api

import (
	"errors"
	"net/http"

	"github.com/vk/formulagrid/internal/formula"
)

const (
	StatusSuccess  = "success"
	MessageSuccess = "The formulas were executed successfully."
)

// ExecuteResponse is the body of a successful execution.
type ExecuteResponse struct {
	Results *formula.ResultSet `json:"results"`
	Status  string             `json:"status"`
	Message string             `json:"message"`
}

// Success wraps a result set.
func Success(rs *formula.ResultSet) *ExecuteResponse {
	if rs == nil {
		rs = formula.NewResultSet()
	}
	return &ExecuteResponse{Results: rs, Status: StatusSuccess, Message: MessageSuccess}
}

// ErrorResponse is the body of a rejected request.
type ErrorResponse struct {
	Detail     string            `json:"detail"`
	Kind       formula.ErrorKind `json:"kind,omitempty"`
	Record     int               `json:"record,omitempty"`
	Variable   string            `json:"variable,omitempty"`
	Expression string            `json:"expression,omitempty"`
}

// Failure maps err to an HTTP status and response body. Batch errors are
// client errors (400); anything else is reported as an internal error
// without leaking its text.
func Failure(err error) (int, *ErrorResponse) {
	var fe *formula.Error
	if !errors.As(err, &fe) {
		return http.StatusInternalServerError, &ErrorResponse{Detail: "internal error"}
	}
	return http.StatusBadRequest, &ErrorResponse{
		Detail:     fe.Error(),
		Kind:       fe.Kind,
		Record:     fe.Record,
		Variable:   fe.Variable,
		Expression: fe.Expression,
	}
}

// Err converts an error response back into an error, for clients.
func (r *ErrorResponse) Err() error {
	if r.Kind == "" {
		return errors.New(r.Detail)
	}
	return &formula.Error{
		Kind:       r.Kind,
		Message:    r.Detail,
		Record:     r.Record,
		Variable:   r.Variable,
		Expression: r.Expression,
	}
}
