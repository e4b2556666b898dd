package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// GCSUploader writes objects to a Google Cloud Storage bucket under a key prefix.
type GCSUploader struct {
	client *storage.Client
	bucket string
	prefix string
}

func NewGCSUploader(client *storage.Client, bucket, prefix string) *GCSUploader {
	return &GCSUploader{
		client: client,
		bucket: strings.TrimSpace(bucket),
		prefix: strings.Trim(prefix, "/"),
	}
}

func (g *GCSUploader) Upload(ctx context.Context, file File) (string, error) {
	if g.client == nil {
		return "", errors.New("gcs: nil storage client")
	}
	if g.bucket == "" {
		return "", errors.New("gcs: bucket is empty")
	}

	name := objectName(g.prefix, file.Name)
	w := g.client.Bucket(g.bucket).Object(name).NewWriter(ctx)
	if file.ContentType != "" {
		w.ContentType = file.ContentType
	}

	if _, err := io.Copy(w, file.Body); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("gcs: write %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gcs: close %s: %w", name, err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.bucket, name), nil
}

// objectName keeps the uploaded base name but prefixes a uuid so two uploads of
// "photo.jpg" never overwrite each other.
func objectName(prefix, filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" {
		base = "file"
	}
	name := uuid.NewString() + "-" + base
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}
