package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrUnsupportedFile is returned for uploads whose extension is not allowed.
var ErrUnsupportedFile = errors.New("unsupported file type")

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true,
}

// StorageService keeps uploaded files on local disk and resolves their
// public URLs. Files are served by the HTTP layer under /uploads.
type StorageService struct {
	root    string
	baseURL string
}

// NewStorageService stores files below root and builds URLs from baseURL.
func NewStorageService(root, baseURL string) *StorageService {
	return &StorageService{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

// Upload writes r to folder under a random name with the extension of
// filename and returns the object key.
func (s *StorageService) Upload(ctx context.Context, folder, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !imageExtensions[ext] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFile, ext)
	}
	folder = Slugify(folder)
	if folder == "" {
		folder = "misc"
	}

	dir := filepath.Join(s.root, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	key := path.Join(folder, uuid.NewString()+ext)
	f, err := os.Create(filepath.Join(s.root, filepath.FromSlash(key)))
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, contextReader{ctx: ctx, r: r}); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write upload: %w", err)
	}
	return key, nil
}

// Delete removes the object stored under key. Missing objects are ignored.
func (s *StorageService) Delete(key string) error {
	if key == "" || strings.Contains(key, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete upload: %w", err)
	}
	return nil
}

// PublicURL returns the URL the object is served from.
func (s *StorageService) PublicURL(key string) string {
	return s.baseURL + "/uploads/" + key
}

// KeyFromURL is the inverse of PublicURL; it returns "" for foreign URLs.
func (s *StorageService) KeyFromURL(url string) string {
	prefix := s.baseURL + "/uploads/"
	if !strings.HasPrefix(url, prefix) {
		return ""
	}
	return strings.TrimPrefix(url, prefix)
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
