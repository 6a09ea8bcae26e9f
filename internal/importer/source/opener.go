// Package source opens statement files from the local disk or Google Cloud Storage.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const GCSScheme = "gs://"

var ErrInvalidObjectPath = errors.New("invalid object path")

// Opener opens local paths directly and gs://bucket/object paths through a
// storage client created on first use.
type Opener struct {
	opts []option.ClientOption

	mu     sync.Mutex
	client *storage.Client
}

func NewOpener(opts ...option.ClientOption) *Opener {
	return &Opener{opts: opts}
}

// EmulatorOptions points the storage client at an unauthenticated endpoint
// such as fake-gcs-server.
func EmulatorOptions(endpoint string) []option.ClientOption {
	return []option.ClientOption{
		option.WithEndpoint(endpoint),
		option.WithoutAuthentication(),
	}
}

func (o *Opener) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if !strings.HasPrefix(path, GCSScheme) {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open file: %w", err)
		}

		return f, nil
	}

	bucket, object, err := SplitObjectPath(path)
	if err != nil {
		return nil, err
	}

	client, err := o.storageClient(ctx)
	if err != nil {
		return nil, err
	}

	r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open GCS object reader: %w", err)
	}

	return r, nil
}

// Close releases the storage client, if one was created.
func (o *Opener) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.client == nil {
		return nil
	}

	err := o.client.Close()
	o.client = nil

	return err
}

func (o *Opener) storageClient(ctx context.Context) (*storage.Client, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.client != nil {
		return o.client, nil
	}

	// The client outlives the request context that triggered its creation.
	client, err := storage.NewClient(context.WithoutCancel(ctx), o.opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	o.client = client

	return client, nil
}

// SplitObjectPath splits gs://bucket/object into its bucket and object names.
func SplitObjectPath(path string) (bucket, object string, err error) {
	rest, ok := strings.CutPrefix(path, GCSScheme)
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidObjectPath, path)
	}

	bucket, object, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidObjectPath, path)
	}

	return bucket, object, nil
}
