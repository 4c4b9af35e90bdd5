package assetapi

import (
	"errors"
	"fmt"
	"net/http"

	"asset-tracker/pkg/apperr"
)

// APIError is the typed failure of every resource operation. Status is 0
// when the server was never reached.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details any
	Err     error
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("asset api: %s (%d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("asset api: %s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// AppError presents the error in the formatter's shape so that
// apperr.ToUserMessage can render it.
func (e *APIError) AppError() *apperr.Error {
	kind := apperr.KindRequest
	switch {
	case e.Status > 0:
		kind = apperr.KindResponse
	case e.Code == apperr.CodeNetwork || e.Code == apperr.CodeTimeout:
		kind = apperr.KindNoResponse
	}
	return &apperr.Error{
		Kind:    kind,
		Message: e.Message,
		Code:    e.Code,
		Status:  e.Status,
		Details: e.Details,
		Cause:   e.Err,
	}
}

// IsNotFound reports whether err is a 404 from the asset API.
func IsNotFound(err error) bool {
	var e *APIError
	return errors.As(err, &e) && e.Status == http.StatusNotFound
}

// IsConflict reports whether err is a 409 from the asset API.
func IsConflict(err error) bool {
	var e *APIError
	return errors.As(err, &e) && e.Status == http.StatusConflict
}

// IsValidation reports whether err is a 422 from the asset API.
func IsValidation(err error) bool {
	var e *APIError
	return errors.As(err, &e) && e.Status == http.StatusUnprocessableEntity
}

// toAPIError converts a transport failure into an *APIError.
func toAPIError(err error) error {
	if err == nil {
		return nil
	}
	var existing *APIError
	if errors.As(err, &existing) {
		return existing
	}

	var f *apperr.Error
	if !errors.As(err, &f) {
		return &APIError{Code: apperr.CodeRequest, Message: err.Error(), Err: err}
	}

	switch f.Kind {
	case apperr.KindResponse:
		e := &APIError{
			Status:  f.Status,
			Code:    f.Code,
			Message: f.Message,
			Details: f.Details,
			Err:     f,
		}
		if e.Code == "" {
			e.Code = apperr.HTTPCode(f.Status)
		}
		if e.Message == "" {
			e.Message = "An error occurred"
		}
		return e
	case apperr.KindNoResponse:
		code := apperr.CodeNetwork
		if f.Code == apperr.CodeTimeout {
			code = apperr.CodeTimeout
		}
		return &APIError{Code: code, Message: f.Message, Err: f}
	default:
		return &APIError{Code: apperr.CodeRequest, Message: f.Message, Err: f}
	}
}
