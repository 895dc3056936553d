package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	thumbWidth  = 480
	thumbHeight = 270
)

var thumbnailExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true}

// LocalStore writes assets below a root directory that the HTTP server
// exposes under urlPrefix.
type LocalStore struct {
	root      string
	urlPrefix string
	logger    *log.Logger
}

func NewLocalStore(root, urlPrefix string, logger *log.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &LocalStore{
		root:      root,
		urlPrefix: "/" + strings.Trim(urlPrefix, "/"),
		logger:    logger,
	}, nil
}

func (s *LocalStore) Save(ctx context.Context, dir, ext string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &AssetError{Op: "save", Err: err}
	}

	dir = cleanDir(dir)
	name := uuid.New().String() + normalizeExt(ext)
	ref := path.Join(s.urlPrefix, dir, name)

	target := filepath.Join(s.root, filepath.FromSlash(dir), name)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", &AssetError{Op: "save", Ref: ref, Err: err}
	}

	dst, err := os.Create(target)
	if err != nil {
		return "", &AssetError{Op: "save", Ref: ref, Err: err}
	}
	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		os.Remove(target)
		return "", &AssetError{Op: "save", Ref: ref, Err: err}
	}
	if err := dst.Close(); err != nil {
		os.Remove(target)
		return "", &AssetError{Op: "save", Ref: ref, Err: err}
	}

	if thumbnailExts[normalizeExt(ext)] {
		if err := s.createThumbnail(target); err != nil {
			s.logger.Printf("thumbnail for %s skipped: %v", ref, err)
		}
	}

	return ref, nil
}

func (s *LocalStore) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return &AssetError{Op: "delete", Ref: ref, Err: err}
	}

	target, err := s.pathFor(ref)
	if err != nil {
		return &AssetError{Op: "delete", Ref: ref, Err: err}
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return &AssetError{Op: "delete", Ref: ref, Err: err}
	}
	if err := os.Remove(thumbnailPath(target)); err != nil && !os.IsNotExist(err) {
		s.logger.Printf("thumbnail for %s not removed: %v", ref, err)
	}
	return nil
}

func (s *LocalStore) pathFor(ref string) (string, error) {
	rel, ok := strings.CutPrefix(ref, strings.TrimSuffix(s.urlPrefix, "/")+"/")
	if !ok || rel == "" {
		return "", fmt.Errorf("reference outside %s", s.urlPrefix)
	}
	return filepath.Join(s.root, filepath.FromSlash(cleanDir(rel))), nil
}

func (s *LocalStore) createThumbnail(filePath string) error {
	img, err := imaging.Open(filePath)
	if err != nil {
		return err
	}
	thumb := imaging.Fit(img, thumbWidth, thumbHeight, imaging.Lanczos)
	return imaging.Save(thumb, thumbnailPath(filePath), imaging.JPEGQuality(85))
}

func thumbnailPath(p string) string {
	return strings.TrimSuffix(p, filepath.Ext(p)) + "_thumb.jpg"
}

// ThumbnailRef returns the preview reference generated next to an image asset.
func ThumbnailRef(ref string) string {
	return strings.TrimSuffix(ref, path.Ext(ref)) + "_thumb.jpg"
}
