package gateway

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/atinyakov/WardrobeKeeper/internal/models"
)

const (
	defaultImageMime = "image/jpeg"
	maxImageBytes    = 10 << 20
)

// EncodeImage turns an image reference into inline base64 data. ref may be
// a data URI, an http(s) URL, which is fetched, or bare base64.
func (c *Client) EncodeImage(ctx context.Context, ref string) (models.InlineImage, error) {
	switch {
	case strings.HasPrefix(ref, "data:"):
		return parseDataURI(ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return c.fetchImage(ctx, ref)
	case ref == "":
		return models.InlineImage{}, errors.New("empty image reference")
	default:
		return models.InlineImage{Data: ref, MimeType: defaultImageMime}, nil
	}
}

// EncodeImages encodes refs concurrently. The result keeps the order of refs;
// the first failure cancels the rest.
func (c *Client) EncodeImages(ctx context.Context, refs []string) ([]models.InlineImage, error) {
	out := make([]models.InlineImage, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	for i, ref := range refs {
		g.Go(func() error {
			img, err := c.EncodeImage(gctx, ref)
			if err != nil {
				return fmt.Errorf("image %d: %w", i, err)
			}
			out[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseDataURI(uri string) (models.InlineImage, error) {
	header, data, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok || data == "" {
		return models.InlineImage{}, errors.New("malformed data URI")
	}
	mimeType, _, _ := strings.Cut(header, ";")
	if mimeType == "" {
		mimeType = defaultImageMime
	}
	return models.InlineImage{Data: data, MimeType: mimeType}, nil
}

func (c *Client) fetchImage(ctx context.Context, url string) (models.InlineImage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.InlineImage{}, fmt.Errorf("build image request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return models.InlineImage{}, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.InlineImage{}, fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return models.InlineImage{}, fmt.Errorf("read image: %w", err)
	}
	if len(data) > maxImageBytes {
		return models.InlineImage{}, fmt.Errorf("image larger than %d bytes", maxImageBytes)
	}

	mimeType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mimeType, "image/") {
		mimeType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = defaultImageMime
	}
	return models.InlineImage{Data: base64.StdEncoding.EncodeToString(data), MimeType: mimeType}, nil
}
