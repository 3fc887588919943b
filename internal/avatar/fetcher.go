package avatar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"log/slog"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	// DefaultUserAgent is sent with every avatar request. Some CDNs reject
	// requests without a browser-like agent.
	DefaultUserAgent = "Mozilla/5.0"

	// DefaultTimeout bounds a single fetch including the body read.
	DefaultTimeout = 5 * time.Second

	// DefaultMaxBytes caps the size of a downloaded avatar.
	DefaultMaxBytes = 8 << 20

	// DefaultMaxPixels caps the decoded dimensions of an avatar (4096×4096).
	// Compressed formats can declare far more pixels than their byte size.
	DefaultMaxPixels = 4096 * 4096
)

// Fetcher returns a width×height circularly masked bitmap for an image URL.
// Implementations may block on network I/O.
type Fetcher interface {
	Fetch(ctx context.Context, url string, width, height int) (image.Image, error)
}

// Options configures an HTTPFetcher.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	MaxBytes  int64
	MaxPixels int64
	Client    *http.Client
}

// HTTPFetcher implements Fetcher over HTTP(S).
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
	maxPixels int64
	masks     *maskCache
	logger    *slog.Logger
}

// NewHTTPFetcher creates a fetcher. Zero option values use the defaults.
func NewHTTPFetcher(opts Options, logger *slog.Logger) *HTTPFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = DefaultMaxPixels
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	return &HTTPFetcher{
		client:    client,
		userAgent: opts.UserAgent,
		maxBytes:  opts.MaxBytes,
		maxPixels: opts.MaxPixels,
		masks:     newMaskCache(),
		logger:    logger,
	}
}

// Fetch downloads url, scales it to width×height and masks it to a circle.
// All failures are returned as *FetchError.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string, width, height int) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, &FetchError{URL: url, Op: OpSize, Cause: fmt.Errorf("invalid size %dx%d", width, height)}
	}

	url = strings.TrimSpace(url)
	if url == "" {
		return nil, &FetchError{URL: url, Op: OpRequest, Cause: errEmptyURL}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Op: OpRequest, Cause: err}
	}
	req.Header.Set("User-Agent", f.userAgent)

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		// The transport error repeats the URL, which may embed credentials.
		var uerr *neturl.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, &FetchError{URL: url, Op: OpRequest, Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: url, Op: OpStatus, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, &FetchError{URL: url, Op: OpRead, Cause: err}
	}
	if int64(len(data)) > f.maxBytes {
		return nil, &FetchError{URL: url, Op: OpRead, Cause: fmt.Errorf("body exceeds %d bytes", f.maxBytes)}
	}

	hdr, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &FetchError{URL: url, Op: OpDecode, Cause: err}
	}
	if hdr.Width <= 0 || hdr.Height <= 0 || int64(hdr.Width)*int64(hdr.Height) > f.maxPixels {
		return nil, &FetchError{URL: url, Op: OpDecode,
			Cause: fmt.Errorf("image %dx%d exceeds %d pixels", hdr.Width, hdr.Height, f.maxPixels)}
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &FetchError{URL: url, Op: OpDecode, Cause: err}
	}

	img := f.masks.apply(scale(src, width, height))

	f.logger.Debug("fetched avatar",
		"avatar_url", Redact(url),
		"format", format,
		"bytes", len(data),
		"elapsed", time.Since(start),
	)

	return img, nil
}

// scale resizes src to exactly width×height.
func scale(src image.Image, width, height int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}
