package httpclient

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
)

// Pagination is the paging block some list endpoints attach to the envelope.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Envelope is the backend's standard response wrapper.
type Envelope struct {
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message,omitempty"`
	Pagination *Pagination     `json:"pagination,omitempty"`
}

// decodeEnvelope returns the result payload of a successful response.
// A JSON object with a "data" key yields that value; any other body is the result itself.
func decodeEnvelope(body []byte) (Envelope, json.RawMessage) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Envelope{}, json.RawMessage(trimmed)
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &keys); err != nil {
		return Envelope{}, json.RawMessage(trimmed)
	}
	data, ok := keys["data"]
	if !ok {
		return Envelope{}, json.RawMessage(trimmed)
	}

	var env Envelope
	_ = json.Unmarshal(trimmed, &env)
	env.Data = data
	return env, data
}

// decodeErrorBody turns an error response into (message, details).
func decodeErrorBody(status int, body []byte) (string, any) {
	trimmed := bytes.TrimSpace(body)
	message := http.StatusText(status)
	if len(trimmed) == 0 {
		return message, nil
	}

	var details any
	if err := json.Unmarshal(trimmed, &details); err != nil {
		return message, string(trimmed)
	}
	if obj, ok := details.(map[string]any); ok {
		for _, key := range []string{"message", "error"} {
			if s, ok := obj[key].(string); ok && strings.TrimSpace(s) != "" {
				message = s
				break
			}
		}
	}
	return message, details
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}
