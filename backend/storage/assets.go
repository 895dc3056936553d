// Package storage keeps uploaded binary assets (course covers, lesson videos)
// outside the database. Records only hold the opaque reference a store returns.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
)

type AssetStore interface {
	// Save stores r under dir with a generated unique name ending in ext and
	// returns the reference path to persist.
	Save(ctx context.Context, dir, ext string, r io.Reader) (string, error)
	// Delete removes the asset behind ref. Unknown references are not an error.
	Delete(ctx context.Context, ref string) error
}

// AssetError is the single failure kind reported by every AssetStore.
type AssetError struct {
	Op  string // save, delete
	Ref string
	Err error
}

func (e *AssetError) Error() string {
	if e.Ref == "" {
		return fmt.Sprintf("asset %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("asset %s %s failed: %v", e.Op, e.Ref, e.Err)
}

func (e *AssetError) Unwrap() error { return e.Err }

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// cleanDir keeps dir relative and free of "..", so refs cannot escape the store.
func cleanDir(dir string) string {
	return strings.TrimPrefix(path.Clean("/"+dir), "/")
}
