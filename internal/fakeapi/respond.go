package fakeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

type dataEnvelope struct {
	Data    any               `json:"data"`
	Actions map[string]string `json:"actions,omitempty"`
}

type errorEnvelope struct {
	Error *Error `json:"error"`
}

// RespondData writes data inside the success envelope.
func RespondData(ctx context.Context, w http.ResponseWriter, data any) error {
	return RespondJSON(ctx, w, http.StatusOK, dataEnvelope{Data: data})
}

// RespondJSON to an HTTP request, setting the status code and body if any.
func RespondJSON(ctx context.Context, w http.ResponseWriter, statusCode int, data any) error {
	setStatusCode(ctx, statusCode)

	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if _, err = w.Write(jsonData); err != nil {
		return fmt.Errorf("writing response: %w", err)
	}

	return nil
}

// RespondBinary writes raw bytes with the given content type.
func RespondBinary(ctx context.Context, w http.ResponseWriter, contentType string, b []byte) error {
	setStatusCode(ctx, http.StatusOK)

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("writing response: %w", err)
	}

	return nil
}
