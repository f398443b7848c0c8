package faces

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes images as <dir>/<usn>.jpg.
type LocalStore struct {
	dir string
}

// NewLocalStore creates the directory if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create face dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) Put(ctx context.Context, usn string, image []byte) (string, error) {
	if usn == "" || strings.ContainsAny(usn, `/\`) || strings.Contains(usn, "..") {
		return "", fmt.Errorf("invalid usn %q", usn)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := usn + ".jpg"
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, image, 0o644); err != nil {
		return "", fmt.Errorf("write face image: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("write face image: %w", err)
	}
	return path, nil
}
