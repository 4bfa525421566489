package imagecache

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	// webp decoding for image.Decode, alongside the formats imaging registers.
	_ "golang.org/x/image/webp"
)

// Fetcher resolves template and photo URIs into encoded image bytes.
// http(s) URIs are fetched remotely with a bounded linear-backoff retry;
// anything else is read as an asset path under the configured asset dir.
type Fetcher struct {
	client   *http.Client
	assetDir string
	retries  int
	backoff  time.Duration
	log      *zap.Logger
}

// NewFetcher builds a fetcher. retries is the number of additional attempts
// after the first failure.
func NewFetcher(assetDir string, timeout time.Duration, retries int, backoff time.Duration, log *zap.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	if retries < 0 {
		retries = 0
	}
	return &Fetcher{
		client:   &http.Client{Timeout: timeout},
		assetDir: assetDir,
		retries:  retries,
		backoff:  backoff,
		log:      log,
	}
}

// Fetch returns the encoded bytes for uri.
func (f *Fetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		return f.fetchRemote(ctx, uri)
	}
	return f.readAsset(uri)
}

func (f *Fetcher) fetchRemote(ctx context.Context, uri string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= f.retries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(f.backoff * time.Duration(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
			f.log.Debug("retrying image fetch", zap.String("uri", uri), zap.Int("attempt", attempt+1))
		}
		data, err := f.get(ctx, uri)
		if err == nil {
			return data, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("fetch %s: %w", uri, lastErr)
}

func (f *Fetcher) get(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// readAsset reads a local asset path. Paths escaping the asset dir are
// rejected.
func (f *Fetcher) readAsset(uri string) ([]byte, error) {
	clean := filepath.Clean(uri)
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return nil, fmt.Errorf("asset path %q outside asset dir", uri)
	}
	data, err := os.ReadFile(filepath.Join(f.assetDir, clean))
	if err != nil {
		return nil, fmt.Errorf("read asset %s: %w", uri, err)
	}
	return data, nil
}

// Decode decodes encoded image bytes into an image.
func Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}
