package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Local reads objects from the local filesystem. A prefix may name a
// directory (walked recursively), a single file, or a path prefix such as
// data/log_data/2018-11 matching every file below data/log_data whose
// relative path starts with 2018-11.
type Local struct{}

var _ Store = (*Local)(nil)

// NewLocal returns a local filesystem store.
func NewLocal() *Local { return &Local{} }

func (l *Local) List(ctx context.Context, prefix string) ([]Object, error) {
	loc, err := ParseURI(prefix)
	if err != nil {
		return nil, err
	}
	if loc.Scheme != "file" {
		return nil, fmt.Errorf("%w: %q is not a local path", ErrInvalidURI, prefix)
	}
	p := filepath.Clean(loc.Key)

	var objects []Object
	info, statErr := os.Stat(p)
	switch {
	case statErr == nil && info.IsDir():
		objects, err = walk(ctx, p, "")
	case statErr == nil:
		if info.Size() > 0 {
			objects = []Object{{URI: p, Key: p, Size: info.Size()}}
		}
	case errors.Is(statErr, fs.ErrNotExist):
		objects, err = walk(ctx, filepath.Dir(p), filepath.Base(p))
	default:
		return nil, fmt.Errorf("stat %s: %w", p, statErr)
	}
	if err != nil {
		return nil, err
	}

	if len(objects) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoObjects, prefix)
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

func (l *Local) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	loc, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	if loc.Scheme != "file" {
		return nil, fmt.Errorf("%w: %q is not a local path", ErrInvalidURI, uri)
	}
	f, err := os.Open(loc.Key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, uri)
		}
		return nil, err
	}
	return f, nil
}

// walk lists non-empty regular files under root whose slash-separated path
// relative to root starts with relPrefix.
func walk(ctx context.Context, root, relPrefix string) ([]Object, error) {
	var out []Object
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == root {
				return fs.SkipAll
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if !strings.HasPrefix(filepath.ToSlash(rel), relPrefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Size() == 0 {
			return nil
		}
		out = append(out, Object{URI: path, Key: path, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return out, nil
}
