package envelope

import (
	"encoding/json"
	"net/http"
)

// wire is the explicit envelope format the backend emits for newer
// endpoints: {status, message, data?, errors?, pagination?}.
type wire struct {
	Status     string                     `json:"status"`
	Message    string                     `json:"message"`
	Data       json.RawMessage            `json:"data"`
	Errors     map[string]json.RawMessage `json:"errors"`
	Pagination *Pagination                `json:"pagination"`
}

// Parse classifies a raw reply body and HTTP status into exactly one
// envelope variant. It is pure and never returns an error: unrecognized
// 2xx bodies are wrapped as success data, everything else becomes a
// typed failure.
func Parse(statusCode int, body []byte) Envelope {
	ok := statusCode >= 200 && statusCode < 300

	if len(body) == 0 {
		if ok {
			return Envelope{Success: &Success{Message: "OK"}}
		}
		return Envelope{Failure: &Failure{
			StatusCode: statusCode,
			Kind:       KindGeneric,
			Message:    http.StatusText(statusCode),
		}}
	}

	var env wire
	if err := json.Unmarshal(body, &env); err == nil && env.Status != "" {
		switch env.Status {
		case "success":
			return Envelope{Success: &Success{
				Data:       env.Data,
				Message:    env.Message,
				Pagination: env.Pagination,
			}}
		case "error":
			return Envelope{Failure: &Failure{
				StatusCode:  statusCode,
				Message:     env.Message,
				Kind:        KindGeneric,
				FieldErrors: normalizeFieldErrors(env.Errors),
			}}
		}
	}

	if !ok {
		return classifyBareFailure(statusCode, body)
	}

	// Endpoints that predate the envelope format reply with a bare body.
	return Envelope{Success: &Success{
		Data:    json.RawMessage(body),
		Message: "OK",
	}}
}

// classifyBareFailure handles non-OK replies that do not carry the
// explicit envelope format. Precedence: token-invalid, CSRF rejection,
// 400 validation shape, generic.
func classifyBareFailure(statusCode int, body []byte) Envelope {
	var obj map[string]json.RawMessage
	isObject := json.Unmarshal(body, &obj) == nil

	if isObject {
		if code := rawString(obj["code"]); code == "token_not_valid" {
			return Envelope{Failure: &Failure{
				StatusCode: statusCode,
				Kind:       KindAuth,
				Message:    firstMessage(obj, statusCode),
			}}
		}
		if detail := rawString(obj["detail"]); len(detail) >= 11 && detail[:11] == "CSRF Failed" {
			return Envelope{Failure: &Failure{
				StatusCode: statusCode,
				Kind:       KindCSRF,
				Message:    detail,
			}}
		}
		if statusCode == http.StatusBadRequest {
			fields := normalizeFieldErrors(obj)
			if len(fields) == 0 {
				fields = map[string][]string{"form": {"Form validation failed"}}
			}
			return Envelope{Failure: &Failure{
				StatusCode:  statusCode,
				Kind:        KindValidation,
				Message:     "Validation failed",
				FieldErrors: fields,
			}}
		}
	}

	msg := http.StatusText(statusCode)
	if isObject {
		msg = firstMessage(obj, statusCode)
	}
	return Envelope{Failure: &Failure{
		StatusCode: statusCode,
		Kind:       KindGeneric,
		Message:    msg,
	}}
}

// normalizeFieldErrors flattens a raw error map into field -> messages.
// Array values map element-wise, scalars wrap into a single entry, and
// nested objects collapse to one generic entry.
func normalizeFieldErrors(raw map[string]json.RawMessage) map[string][]string {
	if len(raw) == 0 {
		return map[string][]string{}
	}
	out := make(map[string][]string, len(raw))
	for field, val := range raw {
		var list []json.RawMessage
		if json.Unmarshal(val, &list) == nil {
			msgs := make([]string, 0, len(list))
			for _, el := range list {
				msgs = append(msgs, scalarString(el))
			}
			if len(msgs) > 0 {
				out[field] = msgs
			}
			continue
		}
		var nested map[string]json.RawMessage
		if json.Unmarshal(val, &nested) == nil {
			out[field] = []string{"Invalid data"}
			continue
		}
		out[field] = []string{scalarString(val)}
	}
	return out
}

// rawString decodes a raw value as a JSON string, or returns "".
func rawString(raw json.RawMessage) string {
	var s string
	if raw == nil || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// scalarString renders a raw scalar as display text.
func scalarString(raw json.RawMessage) string {
	if s := rawString(raw); s != "" {
		return s
	}
	return string(raw)
}

// firstMessage picks a human-readable message from common body fields,
// falling back to the HTTP status text.
func firstMessage(obj map[string]json.RawMessage, statusCode int) string {
	for _, key := range []string{"detail", "message", "error"} {
		if s := rawString(obj[key]); s != "" {
			return s
		}
	}
	return http.StatusText(statusCode)
}
