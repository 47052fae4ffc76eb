// Package objectstore provides read-only access to the JSON sources of a
// load: s3:// prefixes through the AWS SDK and local paths for laptop runs
// and tests. Listing follows Redshift COPY prefix semantics: every object
// whose key starts with the prefix is included.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
)

var (
	ErrNoObjects      = errors.New("no objects match prefix")
	ErrObjectNotFound = errors.New("object not found")
	ErrInvalidURI     = errors.New("invalid object URI")
)

// Object is one listed source object.
type Object struct {
	URI  string // full URI usable with Open
	Key  string // key (S3) or path (local)
	Size int64
}

// Store lists and opens objects.
type Store interface {
	// List returns the non-empty objects under prefix sorted by key. It
	// returns ErrNoObjects when nothing matches.
	List(ctx context.Context, prefix string) ([]Object, error)

	// Open streams one object. The caller closes the reader.
	Open(ctx context.Context, uri string) (io.ReadCloser, error)
}

// Location is a parsed source URI.
type Location struct {
	Scheme string // "s3" or "file"
	Bucket string // s3 only
	Key    string // s3 key or local path
}

// ParseURI parses s3://bucket/key, file:///path and plain local paths.
func ParseURI(raw string) (Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Location{}, fmt.Errorf("%w: empty", ErrInvalidURI)
	}
	switch {
	case strings.HasPrefix(raw, "s3://"):
		bucket, key, _ := strings.Cut(strings.TrimPrefix(raw, "s3://"), "/")
		if bucket == "" {
			return Location{}, fmt.Errorf("%w: %q has no bucket", ErrInvalidURI, raw)
		}
		return Location{Scheme: "s3", Bucket: bucket, Key: key}, nil
	case strings.HasPrefix(raw, "file://"):
		u, err := url.Parse(raw)
		if err != nil {
			return Location{}, fmt.Errorf("%w: %v", ErrInvalidURI, err)
		}
		if u.Path == "" {
			return Location{}, fmt.Errorf("%w: %q has no path", ErrInvalidURI, raw)
		}
		return Location{Scheme: "file", Key: u.Path}, nil
	case strings.Contains(raw, "://"):
		return Location{}, fmt.Errorf("%w: unsupported scheme in %q", ErrInvalidURI, raw)
	default:
		return Location{Scheme: "file", Key: raw}, nil
	}
}

// Mux routes s3:// URIs to an S3 store and everything else to the local
// filesystem. The S3 client is created on first use so local runs need no
// AWS configuration.
type Mux struct {
	s3cfg  S3Config
	local  *Local
	newS3  func(ctx context.Context, cfg S3Config) (*S3, error)
	s3Once sync.Once
	s3     *S3
	s3Err  error
}

var _ Store = (*Mux)(nil)

// NewMux returns a Mux that builds its S3 client from cfg when needed.
func NewMux(cfg S3Config) *Mux {
	return &Mux{s3cfg: cfg, local: NewLocal(), newS3: NewS3}
}

// NewMuxWithS3 returns a Mux that uses an already constructed S3 store.
func NewMuxWithS3(s *S3) *Mux {
	m := &Mux{local: NewLocal()}
	m.s3Once.Do(func() { m.s3 = s })
	return m
}

func (m *Mux) List(ctx context.Context, prefix string) ([]Object, error) {
	st, err := m.route(ctx, prefix)
	if err != nil {
		return nil, err
	}
	return st.List(ctx, prefix)
}

func (m *Mux) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	st, err := m.route(ctx, uri)
	if err != nil {
		return nil, err
	}
	return st.Open(ctx, uri)
}

func (m *Mux) route(ctx context.Context, uri string) (Store, error) {
	loc, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	if loc.Scheme != "s3" {
		return m.local, nil
	}
	m.s3Once.Do(func() {
		m.s3, m.s3Err = m.newS3(ctx, m.s3cfg)
	})
	if m.s3Err != nil {
		return nil, m.s3Err
	}
	return m.s3, nil
}

// ReadAll opens uri and returns its full content.
func ReadAll(ctx context.Context, st Store, uri string) ([]byte, error) {
	rc, err := st.Open(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", uri, err)
	}
	return b, nil
}
