// Package gcs reads statement files from Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const uriScheme = "gs://"

// ErrInvalidURI is returned for URIs that are not gs://bucket/object.
var ErrInvalidURI = errors.New("invalid GCS URI")

// Fetcher opens objects by gs:// URI. Callers close the returned reader.
type Fetcher interface {
	Open(ctx context.Context, uri string) (io.ReadCloser, error)
}

// ParseURI splits "gs://bucket/path/to/file.pdf" into bucket and object.
func ParseURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, uriScheme) {
		return "", "", fmt.Errorf("ParseURI: %q: %w", uri, ErrInvalidURI)
	}

	parts := strings.SplitN(strings.TrimPrefix(uri, uriScheme), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" || strings.HasSuffix(parts[1], "/") {
		return "", "", fmt.Errorf("ParseURI: %q has no object path: %w", uri, ErrInvalidURI)
	}
	return parts[0], parts[1], nil
}

// FilenameFromURI extracts the filename from a GCS URI.
// e.g., "gs://bucket/folder/file.pdf" → "file.pdf"
func FilenameFromURI(uri string) string {
	trimmed := strings.TrimPrefix(uri, uriScheme)

	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 {
		return trimmed
	}
	return path.Base(parts[1])
}

// StorageFetcher reads objects with a Cloud Storage client.
type StorageFetcher struct {
	client *storage.Client
}

// NewStorageFetcher creates a storage client. With an empty credentialsFile
// Application Default Credentials are used.
func NewStorageFetcher(ctx context.Context, credentialsFile string) (*StorageFetcher, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewStorageFetcher: creating storage client: %w", err)
	}
	return &StorageFetcher{client: client}, nil
}

// Open starts reading the object at uri.
func (f *StorageFetcher) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	bucket, object, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}

	rc, err := f.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("Open: reading object %s/%s: %w", bucket, object, err)
	}
	return rc, nil
}

// Close releases the storage client.
func (f *StorageFetcher) Close() error {
	return f.client.Close()
}
