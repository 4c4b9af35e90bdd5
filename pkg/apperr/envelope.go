package apperr

// Envelope is the wire shape of every error the asset API returns:
//
//	{"error": {"code": "...", "message": "...", "details": ...}}
type Envelope struct {
	Error Body `json:"error"`
}

// Body is the content of an Envelope.
type Body struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// NewEnvelope builds an Envelope.
func NewEnvelope(code, message string, details any) Envelope {
	return Envelope{Error: Body{Code: code, Message: message, Details: details}}
}
