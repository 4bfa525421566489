package imagecache

import (
	"bytes"
	"context"
	"image/color"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := imaging.New(2, 2, color.NRGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xFF})
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

func TestFetcherRetriesRemoteFailure(t *testing.T) {
	payload := pngBytes(t)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	f := NewFetcher("", time.Second, 1, time.Millisecond, zap.NewNop())
	data, err := f.Fetch(context.Background(), srv.URL+"/bg.png")
	require.NoError(t, err)
	assert.Equal(t, payload, data)
	assert.Equal(t, int32(2), hits.Load())

	img, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())
}

func TestFetcherGivesUpAfterRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewFetcher("", time.Second, 1, time.Millisecond, zap.NewNop())
	_, err := f.Fetch(context.Background(), srv.URL+"/bg.png")
	require.Error(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestFetcherReadsLocalAsset(t *testing.T) {
	dir := t.TempDir()
	payload := pngBytes(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bg.png"), payload, 0o644))

	f := NewFetcher(dir, time.Second, 0, time.Millisecond, zap.NewNop())
	data, err := f.Fetch(context.Background(), "bg.png")
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestFetcherRejectsEscapingAssetPaths(t *testing.T) {
	f := NewFetcher(t.TempDir(), time.Second, 0, time.Millisecond, zap.NewNop())

	_, err := f.Fetch(context.Background(), "../secrets.png")
	assert.Error(t, err)
	_, err = f.Fetch(context.Background(), "/etc/passwd")
	assert.Error(t, err)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("not an image"))
	assert.Error(t, err)
}
