package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/fjod/go_cart/shop-service/internal/domain"
	"github.com/fjod/go_cart/shop-service/internal/storage"
)

// maxJSONBody caps JSON request bodies, which never carry files.
const maxJSONBody = 1 << 20

// multipartMemory is how much of a multipart body is kept in memory before
// spilling file parts to disk.
const multipartMemory = 8 << 20

var errNoFile = errors.New("no file")

// parseForm reads a multipart or urlencoded body of at most maxSize bytes.
func parseForm(w http.ResponseWriter, r *http.Request, maxSize int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return r.ParseMultipartForm(multipartMemory)
	}
	return r.ParseForm()
}

// formFile returns the named file part. The caller closes it.
func formFile(r *http.Request, field string) (*storage.File, multipart.File, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return nil, nil, errNoFile
	}
	header := r.MultipartForm.File[field][0]
	f, err := header.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", field, err)
	}
	return &storage.File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        f,
	}, f, nil
}

// formAddress decodes the JSON encoded address field, if present.
func formAddress(r *http.Request) (*domain.Address, error) {
	raw := strings.TrimSpace(r.PostFormValue("address"))
	if raw == "" {
		return nil, nil
	}
	var address domain.Address
	if err := json.Unmarshal([]byte(raw), &address); err != nil {
		return nil, fmt.Errorf("address must be a JSON object: %w", err)
	}
	return &address, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	return json.NewDecoder(r.Body).Decode(v)
}
