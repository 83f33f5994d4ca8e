package httpclient

import (
	"bytes"
	"encoding/json"
	"fmt"

	apierr "github.com/p-blackswan/taskhub/internal/errors"
)

// Unwrap strips the {code, message, result} envelope when data is a JSON
// object carrying both code and result. Anything else is returned unchanged.
func Unwrap(data []byte) []byte {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return trimmed
	}
	_, hasCode := probe["code"]
	result, hasResult := probe["result"]
	if hasCode && hasResult {
		return bytes.TrimSpace(result)
	}
	return trimmed
}

func decodePayload(data []byte, out any) error {
	if out == nil {
		return nil
	}
	payload := Unwrap(data)
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%w: %v", apierr.ErrMalformedResponse, err)
	}
	return nil
}

type errorBody struct {
	Message string          `json:"message"`
	Errors  json.RawMessage `json:"errors"`
}

// parseError builds the normalized failure from a 4xx/5xx body. Bodies that
// are not JSON still yield an error with the default message.
func parseError(status int, data []byte) *apierr.APIError {
	apiErr := apierr.NewAPIError(status, DefaultErrorMessage)

	var body errorBody
	if err := json.Unmarshal(bytes.TrimSpace(data), &body); err == nil {
		if body.Message != "" {
			apiErr.Message = body.Message
		}
		apiErr.FieldErrors = fieldErrors(body.Errors)
	}
	return apiErr
}

// fieldErrors accepts both {"field": ["msg"]} and {"field": "msg"}.
func fieldErrors(raw json.RawMessage) map[string][]string {
	if len(raw) == 0 {
		return nil
	}
	var multi map[string][]string
	if err := json.Unmarshal(raw, &multi); err == nil && len(multi) > 0 {
		return multi
	}
	var single map[string]string
	if err := json.Unmarshal(raw, &single); err == nil && len(single) > 0 {
		out := make(map[string][]string, len(single))
		for k, v := range single {
			out[k] = []string{v}
		}
		return out
	}
	return nil
}
