package domain

import (
	"errors"
	"fmt"
	"mime"
	"strings"
)

var (
	ErrMissingField        = errors.New("missing required field")
	ErrInvalidField        = errors.New("invalid field")
	ErrUnsupportedFileType = errors.New("please upload a PDF or MP4 file")
	ErrInvalidURL          = errors.New("please provide a valid HTTP/HTTPS URL")
)

// Accepted material MIME types. The backend is the authority; this check only
// saves a round trip.
const (
	MIMEPDF = "application/pdf"
	MIMEMP4 = "video/mp4"
)

// NormalizeMaterialType reduces contentType to its lower-cased media type
// without parameters and checks it is an accepted material type.
func NormalizeMaterialType(contentType string) (string, error) {
	ct, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("%w: got %q", ErrUnsupportedFileType, contentType)
	}
	if ct != MIMEPDF && ct != MIMEMP4 {
		return "", fmt.Errorf("%w: got %q", ErrUnsupportedFileType, contentType)
	}
	return ct, nil
}

// ValidateMaterialType reports whether contentType may be uploaded as a
// training material.
func ValidateMaterialType(contentType string) error {
	_, err := NormalizeMaterialType(contentType)
	return err
}

// RequireField returns ErrMissingField naming field when value is blank.
func RequireField(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s", ErrMissingField, field)
	}
	return nil
}
