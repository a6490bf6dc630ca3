// Package fetch reads soundfont resources from http(s) URLs, file URLs or
// plain paths while reporting byte progress.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
)

// ErrNotFound is returned when the resource does not exist.
var ErrNotFound = errors.New("resource not found")

// ProgressFunc is called with the bytes read so far and the expected total;
// total is -1 when unknown.
type ProgressFunc func(read, total int64)

// Fetch reads the whole resource at location.
func Fetch(ctx context.Context, client *http.Client, location string, progress ProgressFunc) ([]byte, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", location, err)
	}
	switch u.Scheme {
	case "http", "https":
		return fetchHTTP(ctx, client, u.String(), progress)
	case "file":
		path := u.Path
		if u.Host != "" && u.Host != "localhost" {
			path = "//" + u.Host + u.Path
		}
		return fetchFile(ctx, path, progress)
	case "":
		return fetchFile(ctx, location, progress)
	}
	if len(u.Scheme) == 1 {
		// drive letter
		return fetchFile(ctx, location, progress)
	}
	return nil, fmt.Errorf("unsupported scheme %q in %q", u.Scheme, location)
}

func fetchHTTP(ctx context.Context, client *http.Client, location string, progress ProgressFunc) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", location, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, location)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("get %s: unexpected status %s", location, resp.Status)
	}
	return readAll(ctx, resp.Body, resp.ContentLength, progress)
}

func fetchFile(ctx context.Context, path string, progress ProgressFunc) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	total := int64(-1)
	if info, err := f.Stat(); err == nil {
		total = info.Size()
	}
	return readAll(ctx, f, total, progress)
}

const chunkSize = 64 << 10

func readAll(ctx context.Context, r io.Reader, total int64, progress ProgressFunc) ([]byte, error) {
	var buf bytes.Buffer
	if total > 0 {
		buf.Grow(int(total))
	}
	var read int64
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := io.CopyN(&buf, r, chunkSize)
		read += n
		if progress != nil && n > 0 {
			progress(read, total)
		}
		if errors.Is(err, io.EOF) {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}
	}
}
