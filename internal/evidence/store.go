// Package evidence wraps the object store that holds inspection photos. Only
// the upload and public-URL contracts are consumed.
package evidence

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var ErrUploadFailed = errors.New("failed to upload evidence photo")

type Store interface {
	// Upload stores an object under key. With upsert set an existing object
	// at the same key is overwritten; otherwise the key must be new.
	Upload(ctx context.Context, key string, data []byte, upsert bool) error
	// PublicURL resolves the public URL for a stored object. It is a pure
	// path computation; it does not verify the object exists.
	PublicURL(key string) string
}

// HTTPStore talks to a supabase-style storage REST API.
type HTTPStore struct {
	baseURL    string
	bucket     string
	apiKey     string
	httpClient *http.Client
}

func NewHTTPStore(baseURL, bucket, apiKey string) *HTTPStore {
	return &HTTPStore{
		baseURL: baseURL,
		bucket:  bucket,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (s *HTTPStore) Upload(ctx context.Context, key string, data []byte, upsert bool) error {
	url := fmt.Sprintf("%s/object/%s/%s", s.baseURL, s.bucket, key)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "image/jpeg")
	if upsert {
		req.Header.Set("x-upsert", "true")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrUploadFailed, resp.StatusCode)
	}
	return nil
}

func (s *HTTPStore) PublicURL(key string) string {
	return fmt.Sprintf("%s/object/public/%s/%s", s.baseURL, s.bucket, key)
}
