package service

import (
	"encoding/json"
	"fmt"

	"github.com/fogfactory/concurrent/value"
)

// Request is one call to the service.
type Request struct {
	Method    string
	Data      any
	Options   map[string]string
	RequestID string
}

type rawRequest struct {
	Method    string            `json:"method"`
	Data      json.RawMessage   `json:"data"`
	Options   map[string]string `json:"options"`
	RequestID string            `json:"request_id"`
}

// UnmarshalJSON decodes a request, keeping the key order of objects in data.
func (r *Request) UnmarshalJSON(b []byte) error {
	var raw rawRequest
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	var data any
	if len(raw.Data) > 0 {
		var err error
		if data, err = value.Parse(raw.Data); err != nil {
			return fmt.Errorf("decode request data: %w", err)
		}
	}
	*r = Request{Method: raw.Method, Data: data, Options: raw.Options, RequestID: raw.RequestID}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (r Request) MarshalJSON() ([]byte, error) {
	return value.Encode(value.Object{
		{Key: "method", Value: r.Method},
		{Key: "data", Value: r.Data},
		{Key: "options", Value: stringMap(r.Options)},
		{Key: "request_id", Value: r.RequestID},
	})
}

// Response is the outcome of a Request. Result is set on success, Error on
// failure.
type Response struct {
	RequestID string
	Success   bool
	Result    any
	Error     string
	Metadata  map[string]string
}

type rawResponse struct {
	RequestID string            `json:"request_id"`
	Success   bool              `json:"success"`
	Result    json.RawMessage   `json:"result"`
	Error     *string           `json:"error"`
	Metadata  map[string]string `json:"metadata"`
}

// MarshalJSON implements json.Marshaler. Non-finite numbers in Result are
// written as null.
func (r Response) MarshalJSON() ([]byte, error) {
	var errField any
	if r.Error != "" {
		errField = r.Error
	}
	return value.Encode(value.Object{
		{Key: "request_id", Value: r.RequestID},
		{Key: "success", Value: r.Success},
		{Key: "result", Value: r.Result},
		{Key: "error", Value: errField},
		{Key: "metadata", Value: stringMap(r.Metadata)},
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Response) UnmarshalJSON(b []byte) error {
	var raw rawResponse
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	var result any
	if len(raw.Result) > 0 {
		var err error
		if result, err = value.Parse(raw.Result); err != nil {
			return fmt.Errorf("decode response result: %w", err)
		}
	}
	*r = Response{RequestID: raw.RequestID, Success: raw.Success, Result: result, Metadata: raw.Metadata}
	if raw.Error != nil {
		r.Error = *raw.Error
	}
	return nil
}

// stringMap converts m to a Value, nil staying null.
func stringMap(m map[string]string) any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
