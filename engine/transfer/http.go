package transfer

import (
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/minio/sha256-simd"

	"github.com/packforge/loadstone/engine/core"
)

const copyChunkSize = 64 * 1024

/** @brief Configuration for the HTTP transfer service. */
type HTTPServiceConfig struct {
	/** @brief Per-request timeout. Zero means no timeout. */
	Timeout time.Duration
}

// HTTPService implements Service over plain HTTP GET. Retry and resume
// are the responsibility of whoever serves the bundles; a failed
// transfer simply reports StatusFailed.
type HTTPService struct {
	client  *http.Client
	pending []*Handle
}

func NewHTTPService(config *HTTPServiceConfig) *HTTPService {
	timeout := time.Duration(0)
	if config != nil {
		timeout = config.Timeout
	}
	return &HTTPService{
		client: &http.Client{Timeout: timeout},
	}
}

func (s *HTTPService) DownloadAsync(url, destinationPath string, expectedSize int64, expectedHash string, onComplete func(*Handle)) *Handle {
	h := &Handle{
		URL:             url,
		DestinationPath: destinationPath,
		onComplete:      onComplete,
		status:          StatusDownloading,
	}
	h.total.Store(expectedSize)
	s.pending = append(s.pending, h)

	go func() {
		h.transferErr = s.fetch(h, expectedSize, expectedHash)
		h.done.Store(true)
	}()

	return h
}

func (s *HTTPService) Tick() {
	remaining := s.pending[:0]
	for _, h := range s.pending {
		if h.done.Load() {
			h.promote()
			continue
		}
		remaining = append(remaining, h)
	}
	s.pending = remaining
}

// fetch runs on the transfer goroutine and does the whole byte move:
// GET, copy through a temp file, verify, rename into place.
func (s *HTTPService) fetch(h *Handle, expectedSize int64, expectedHash string) error {
	resp, err := s.client.Get(h.URL)
	if err != nil {
		return fmt.Errorf("GET %s: %w", h.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %s", h.URL, resp.Status)
	}
	if h.total.Load() <= 0 && resp.ContentLength > 0 {
		h.total.Store(resp.ContentLength)
	}

	if err := os.MkdirAll(filepath.Dir(h.DestinationPath), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(h.DestinationPath), ".transfer-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	hasher := sha256.New()
	buf := make([]byte, copyChunkSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := tmp.Write(buf[:n]); err != nil {
				tmp.Close()
				return err
			}
			hasher.Write(buf[:n])
			h.downloaded.Add(int64(n))
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			tmp.Close()
			return fmt.Errorf("transfer of %s interrupted: %w", h.URL, readErr)
		}
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if expectedSize > 0 && h.downloaded.Load() != expectedSize {
		return fmt.Errorf("size mismatch for %s: got %d bytes, want %d", h.URL, h.downloaded.Load(), expectedSize)
	}
	if expectedHash != "" {
		sum := hex.EncodeToString(hasher.Sum(nil))
		if sum != expectedHash {
			return fmt.Errorf("hash mismatch for %s: got %s, want %s", h.URL, sum, expectedHash)
		}
	}

	if err := os.Rename(tmp.Name(), h.DestinationPath); err != nil {
		return err
	}
	core.LogDebug("downloaded '%s' (%d bytes)", h.URL, h.downloaded.Load())
	return nil
}
