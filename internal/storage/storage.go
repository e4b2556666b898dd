// Package storage uploads product and profile images to object storage.
package storage

import (
	"context"
	"io"
)

// File is an uploaded file on its way to the object store.
type File struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// Uploader stores a file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, file File) (string, error)
}
