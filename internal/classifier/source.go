package classifier

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const gcsScheme = "gs://"

// maxArtifactBytes caps a single artifact read.
const maxArtifactBytes = 256 << 20

// ArtifactReader fetches artifact bytes by path.
type ArtifactReader interface {
	ReadArtifact(ctx context.Context, path string) ([]byte, error)
}

// Source reads artifacts from the local filesystem or, for gs://bucket/object
// paths, from Google Cloud Storage. The storage client is created on first use.
type Source struct {
	opts []option.ClientOption

	mu  sync.Mutex
	gcs *storage.Client
}

func NewSource(opts ...option.ClientOption) *Source {
	return &Source{opts: opts}
}

func (s *Source) ReadArtifact(ctx context.Context, path string) ([]byte, error) {
	if !strings.HasPrefix(path, gcsScheme) {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read artifact: %w", err)
		}
		return raw, nil
	}

	bucket, object, err := splitGCSPath(path)
	if err != nil {
		return nil, err
	}
	client, err := s.client(ctx)
	if err != nil {
		return nil, err
	}
	r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer r.Close()

	raw, err := io.ReadAll(io.LimitReader(r, maxArtifactBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(raw) > maxArtifactBytes {
		return nil, fmt.Errorf("artifact %s exceeds %d bytes", path, maxArtifactBytes)
	}
	return raw, nil
}

func (s *Source) client(ctx context.Context) (*storage.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gcs != nil {
		return s.gcs, nil
	}
	opts := append([]option.ClientOption{option.WithScopes(storage.ScopeReadOnly)}, s.opts...)
	c, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	s.gcs = c
	return c, nil
}

// Close releases the storage client if one was created.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gcs == nil {
		return nil
	}
	err := s.gcs.Close()
	s.gcs = nil
	return err
}

func splitGCSPath(p string) (bucket, object string, err error) {
	rest := strings.TrimPrefix(p, gcsScheme)
	bucket, object, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("invalid gcs path %q, want gs://bucket/object", p)
	}
	return bucket, object, nil
}
