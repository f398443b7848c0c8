// Package faces stores registered face photos keyed by student USN.
package faces

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
)

// ErrInvalidImage is returned when the submitted image cannot be decoded.
var ErrInvalidImage = errors.New("invalid image data")

// Store saves a face image for a student and returns where it lives.
type Store interface {
	Put(ctx context.Context, usn string, image []byte) (string, error)
}

// DecodeImage accepts raw base64 or a data URL such as
// "data:image/jpeg;base64,...".
func DecodeImage(s string) ([]byte, error) {
	if i := strings.Index(s, ","); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrInvalidImage
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		// Some browsers strip padding.
		data, err = base64.RawStdEncoding.DecodeString(s)
		if err != nil {
			return nil, ErrInvalidImage
		}
	}
	if len(data) == 0 {
		return nil, ErrInvalidImage
	}
	return data, nil
}
