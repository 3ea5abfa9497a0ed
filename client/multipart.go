package client

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// documentField is the form name of the uploaded file part.
const documentField = "document"

// multipartBody serializes fields and the optional file into a
// multipart/form-data body and returns it with its Content-Type.
func multipartBody(command string, fields Args, filePath string) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.SetBoundary(uuid.NewString()); err != nil {
		return nil, "", fmt.Errorf("setting multipart boundary: %w", err)
	}

	for _, p := range fields {
		if err := w.WriteField(p.Key, p.Value); err != nil {
			return nil, "", fmt.Errorf("writing field %q: %w", p.Key, err)
		}
	}

	if filePath != "" {
		if err := writeDocument(w, command, filePath); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart writer: %w", err)
	}

	return buf.Bytes(), w.FormDataContentType(), nil
}

func writeDocument(w *multipart.Writer, command, filePath string) error {
	info, err := os.Stat(filePath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &PreconditionError{Op: command, Err: fmt.Errorf("attachment %q: %w", filePath, err)}
	case err != nil:
		return fmt.Errorf("stat attachment: %w", err)
	case !info.Mode().IsRegular():
		return &PreconditionError{Op: command, Err: fmt.Errorf("attachment %q is not a regular file", filePath)}
	}

	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("opening attachment: %w", err)
	}
	defer f.Close()

	part, err := w.CreateFormFile(documentField, filepath.Base(filePath))
	if err != nil {
		return fmt.Errorf("creating document part: %w", err)
	}

	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("copying attachment: %w", err)
	}

	return nil
}
