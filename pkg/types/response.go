package types

import "encoding/json"

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// BackendEnvelope is the `{success, data, error}` shape every backend
// endpoint answers with.
type BackendEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *BackendError   `json:"error,omitempty"`
}

type BackendError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}
