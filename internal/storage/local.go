package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalService writes photos to a directory served statically under a URL prefix.
type LocalService struct {
	dir    string
	prefix string
}

// NewLocalService creates the directory if needed.
func NewLocalService(dir, publicPrefix string) (*LocalService, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalService{
		dir:    dir,
		prefix: "/" + strings.Trim(publicPrefix, "/"),
	}, nil
}

func (s *LocalService) Save(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	name := filepath.Base(key)
	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	return path.Join(s.prefix, name), nil
}

// Delete removes a photo previously returned by Save. Unknown references are ignored.
func (s *LocalService) Delete(ctx context.Context, ref string) error {
	if !strings.HasPrefix(ref, s.prefix+"/") {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, path.Base(ref)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", ref, err)
	}
	return nil
}

var _ Service = (*LocalService)(nil)
