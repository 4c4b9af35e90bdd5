package apperr

import "net/http"

var codeMessages = map[string]string{
	CodeNetwork:               "Unable to connect to the server. Please check your internet connection.",
	CodeTimeout:               "The request timed out. Please try again.",
	CodeDuplicateSerial:       "An asset with this serial number already exists.",
	CodeDuplicateSerialNumber: "An asset with this serial number already exists.",
}

var statusMessages = map[int]string{
	http.StatusBadRequest:          "Invalid request. Please check your input and try again.",
	http.StatusUnauthorized:        "You must be logged in to perform this action.",
	http.StatusForbidden:           "You do not have permission to perform this action.",
	http.StatusNotFound:            "The requested resource was not found.",
	http.StatusConflict:            "This action conflicts with existing data.",
	http.StatusUnprocessableEntity: "The submitted data is invalid. Please review it and try again.",
	http.StatusTooManyRequests:     "Too many requests. Please wait a moment and try again.",
	http.StatusInternalServerError: "A server error occurred. Please try again later.",
	http.StatusServiceUnavailable:  "The server is temporarily unavailable. Please try again later.",
}

// ToUserMessage returns display text for e. Code-specific text wins over
// status text; anything unmapped falls back to e.Message.
func ToUserMessage(e *Error) string {
	if e == nil {
		return MsgUnknown
	}
	if msg, ok := codeMessages[e.Code]; ok {
		return msg
	}
	if msg, ok := statusMessages[e.Status]; ok {
		return msg
	}
	if e.Message != "" {
		return e.Message
	}
	return MsgUnknown
}

// UserMessage formats err and returns its display text.
func UserMessage(err error) string {
	return ToUserMessage(FromError(err))
}
