package types

// Payload holds the fields merged next to "success" in a success response.
type Payload map[string]any

// ErrorEnvelope is the body of every failed API response.
type ErrorEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}
