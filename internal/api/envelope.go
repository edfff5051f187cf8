package api

import (
	"github.com/danielgtaylor/huma/v2"
)

// envelopeVersion is bumped on breaking changes to the envelope shape.
const envelopeVersion = 1

// Envelope is the JSON shape of every API response.
type Envelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer wraps response bodies in an Envelope.
// Errors (*APIError) become success=false envelopes carrying code and details.
func EnvelopeTransformer(_ huma.Context, _ string, v any) (any, error) {
	if _, ok := v.(*Envelope); ok {
		return v, nil
	}

	if apiErr, ok := v.(*APIError); ok {
		return &Envelope{
			Version: envelopeVersion,
			Success: false,
			Error:   apiErr.Message,
			Code:    apiErr.Code,
			Details: apiErr.Details,
		}, nil
	}

	return &Envelope{
		Version: envelopeVersion,
		Success: true,
		Data:    v,
	}, nil
}
