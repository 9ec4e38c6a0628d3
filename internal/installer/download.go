package installer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// ProgressFunc reports downloaded/total byte counts to the Console; total
// is -1 when the server didn't supply Content-Length.
type ProgressFunc func(downloaded, total int64)

// downloadConfig bounds the retry-with-backoff policy (spec.md §4.7 step
// 2: "HTTP GET with configurable timeout and retry-with-backoff").
type downloadConfig struct {
	client     *http.Client
	maxRetries int
	baseDelay  time.Duration
}

func defaultDownloadConfig() downloadConfig {
	return downloadConfig{
		client:     &http.Client{Timeout: 10 * time.Minute},
		maxRetries: 3,
		baseDelay:  500 * time.Millisecond,
	}
}

// download fetches url to destPath atomically (tempfile + rename),
// retrying transient failures with exponential backoff, and reports
// progress via onProgress if non-nil. Grounded on
// internal/installer/download/downloader.go's httpDownloader.Download.
// An `oci://` url is pulled through the registry client instead (no
// retry/backoff or progress reporting — go-containerregistry streams the
// whole layer in one call).
func download(ctx context.Context, cfg downloadConfig, url, destPath string, onProgress ProgressFunc) error {
	if isOCIReference(url) {
		return downloadOCI(ctx, url, destPath)
	}

	var lastErr error
	for attempt := 0; attempt <= cfg.maxRetries; attempt++ {
		if attempt > 0 {
			delay := cfg.baseDelay * time.Duration(1<<uint(attempt-1))
			slog.Debug("retrying download", "url", url, "attempt", attempt, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := attemptDownload(ctx, cfg, url, destPath, onProgress); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

func attemptDownload(ctx context.Context, cfg downloadConfig, url, destPath string, onProgress ProgressFunc) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := cfg.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download: HTTP %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmpPath := destPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(tmpPath)
	}()

	total := resp.ContentLength
	var written int64
	buf := make([]byte, 32*1024)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr != nil {
				return fmt.Errorf("failed to write file: %w", werr)
			}
			written += int64(n)
			if onProgress != nil {
				onProgress(written, total)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return fmt.Errorf("failed to read response body: %w", rerr)
		}
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}
