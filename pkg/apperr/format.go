package apperr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Messages produced when a failure carries no usable message of its own.
const (
	MsgNetwork = "Unable to connect to the server. Please check your network connection."
	MsgTimeout = "The request timed out. Please try again."
	MsgUnknown = "An unexpected error occurred"
)

const maxTextBody = 512

// Format reduces a tagged failure to an *Error. It never fails and never
// returns nil.
func Format(f Failure) *Error {
	switch v := f.(type) {
	case ResponseFailure:
		return formatResponse(v)
	case *ResponseFailure:
		if v != nil {
			return formatResponse(*v)
		}
	case NoResponseFailure:
		return formatNoResponse(v)
	case *NoResponseFailure:
		if v != nil {
			return formatNoResponse(*v)
		}
	case RequestFailure:
		return formatGeneric(KindRequest, v.Err)
	case AppFailure:
		return formatGeneric(KindApp, v.Err)
	case TextFailure:
		msg := string(v)
		if msg == "" {
			msg = MsgUnknown
		}
		return &Error{Kind: KindApp, Message: msg, Code: CodeApp}
	}
	return &Error{Kind: KindUnknown, Message: MsgUnknown, Code: CodeUnknown}
}

func formatResponse(f ResponseFailure) *Error {
	e := &Error{
		Kind:   KindResponse,
		Status: f.Status,
		Code:   HTTPCode(f.Status),
	}

	body := bytes.TrimSpace(f.Body)
	if len(body) == 0 {
		e.Message = statusMessage(f.Status)
		return e
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		e.Message = truncate(string(body))
		return e
	}

	switch v := decoded.(type) {
	case string:
		e.Message = v
	case map[string]any:
		applyEnvelope(e, v)
	}
	if e.Message == "" {
		e.Message = statusMessage(f.Status)
	}
	return e
}

// applyEnvelope extracts code, message and details from a decoded error body.
// It understands the asset API envelope, the same envelope nested under
// "detail", and flat {"error": "...", "code": "..."} bodies.
func applyEnvelope(e *Error, body map[string]any) {
	if detail, ok := body["detail"]; ok {
		switch d := detail.(type) {
		case map[string]any:
			if _, nested := d["error"]; nested {
				body = d
			}
		case string:
			e.Message = d
			return
		}
	}

	switch inner := body["error"].(type) {
	case map[string]any:
		if code, ok := inner["code"].(string); ok && code != "" {
			e.Code = code
		}
		if msg, ok := inner["message"].(string); ok {
			e.Message = msg
		}
		if details, ok := inner["details"]; ok && details != nil {
			e.Details = details
		}
	case string:
		e.Message = inner
		if code, ok := body["code"].(string); ok && code != "" {
			e.Code = code
		}
	default:
		if msg, ok := body["message"].(string); ok {
			e.Message = msg
		}
	}
}

func formatNoResponse(f NoResponseFailure) *Error {
	if f.Timeout {
		return &Error{Kind: KindNoResponse, Message: MsgTimeout, Code: CodeTimeout, Cause: f.Err}
	}
	return &Error{Kind: KindNoResponse, Message: MsgNetwork, Code: CodeNetwork, Cause: f.Err}
}

func formatGeneric(kind Kind, err error) *Error {
	if err == nil {
		return &Error{Kind: kind, Message: MsgUnknown, Code: CodeApp}
	}
	msg := err.Error()
	if msg == "" {
		msg = MsgUnknown
	}
	return &Error{Kind: kind, Message: msg, Code: CodeApp, Cause: err}
}

func statusMessage(status int) string {
	return fmt.Sprintf("Request failed with status code %d", status)
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxTextBody {
		return s[:maxTextBody] + "..."
	}
	return s
}

// Formatter is implemented by typed errors that can present themselves in
// the formatted shape.
type Formatter interface {
	AppError() *Error
}

// FromError formats an arbitrary error caught at a boundary.
func FromError(err error) *Error {
	if err == nil {
		return Format(nil)
	}
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e
	}
	var f Formatter
	if errors.As(err, &f) {
		if formatted := f.AppError(); formatted != nil {
			return formatted
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Format(NoResponseFailure{Err: err, Timeout: true})
	}
	return Format(AppFailure{Err: err})
}

// FromPanic formats a value recovered from a panic.
func FromPanic(v any) *Error {
	switch p := v.(type) {
	case nil:
		return Format(nil)
	case error:
		return FromError(p)
	case string:
		return Format(TextFailure(p))
	default:
		e := Format(nil)
		e.Details = p
		return e
	}
}
