package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// ErrUnsupportedLocator is returned for image locators that no source can open.
var ErrUnsupportedLocator = errors.New("unsupported image locator")

// maxImageBytes caps a single fetched image.
const maxImageBytes = 10 << 20

// ImageSource resolves an image locator from an element or side background.
type ImageSource interface {
	Open(ctx context.Context, locator string) (image.Image, error)
}

// HTTPImageSource opens http(s) URLs and base64 data URIs. Decoded images are
// memoised per locator for the lifetime of the source.
type HTTPImageSource struct {
	client *http.Client

	mu    sync.Mutex
	cache map[string]image.Image
}

// NewHTTPImageSource creates an image source. A nil client gets a default one
// with a 15s timeout.
func NewHTTPImageSource(client *http.Client) *HTTPImageSource {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPImageSource{client: client, cache: make(map[string]image.Image)}
}

var _ ImageSource = (*HTTPImageSource)(nil)

// Open implements ImageSource.
func (s *HTTPImageSource) Open(ctx context.Context, locator string) (image.Image, error) {
	s.mu.Lock()
	img, ok := s.cache[locator]
	s.mu.Unlock()
	if ok {
		return img, nil
	}

	var data []byte
	var err error
	switch {
	case strings.HasPrefix(locator, "data:"):
		data, err = decodeDataURI(locator)
	case strings.HasPrefix(locator, "http://"), strings.HasPrefix(locator, "https://"):
		data, err = s.fetch(ctx, locator)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLocator, truncate(locator, 40))
	}
	if err != nil {
		return nil, err
	}

	img, _, err = image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	s.mu.Lock()
	s.cache[locator] = img
	s.mu.Unlock()
	return img, nil
}

func (s *HTTPImageSource) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build image request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch image: status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
}

func decodeDataURI(uri string) ([]byte, error) {
	comma := strings.IndexByte(uri, ',')
	if comma < 0 || !strings.HasSuffix(uri[:comma], ";base64") {
		return nil, fmt.Errorf("%w: data URI must be base64 encoded", ErrUnsupportedLocator)
	}
	data, err := base64.StdEncoding.DecodeString(uri[comma+1:])
	if err != nil {
		return nil, fmt.Errorf("failed to decode data URI: %w", err)
	}
	return data, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
