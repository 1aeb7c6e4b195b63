package pdflib

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// maxDocumentSize caps remote downloads.
const maxDocumentSize = 200 << 20

func fetch(ctx context.Context, c *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, err
	}
	// cors-anywhere refuses requests without one of these.
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected server response (%d) while retrieving PDF %q", resp.StatusCode, url)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading PDF body: %w", err)
	}
	if len(data) > maxDocumentSize {
		return nil, fmt.Errorf("PDF at %q is larger than %d bytes", url, maxDocumentSize)
	}
	slog.Debug("Fetched PDF", "url", url, "size", len(data))
	return data, nil
}
