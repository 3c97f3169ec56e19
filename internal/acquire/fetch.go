package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/nikhilbhutani/narrator/internal/apperr"
	"github.com/nikhilbhutani/narrator/internal/sanitize"
)

const (
	maxBodyBytes  = 2 << 20
	maxRedirects  = 5
	MaxParagraphs = 50
	userAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// Fetcher downloads web pages through a client whose dialer and redirect
// policy both enforce the URL guard.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
}

func NewFetcher(guard *sanitize.URLGuard, timeout time.Duration) *Fetcher {
	transport := &http.Transport{
		DialContext:           guard.Dialer(timeout).DialContext,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	}
	return &Fetcher{
		timeout: timeout,
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				_, err := guard.Check(req.Context(), req.URL.String())
				return err
			},
		},
	}
}

// Fetch returns the readable text of the page at u.
func (f *Fetcher) Fetch(ctx context.Context, u *url.URL) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", apperr.Wrap(apperr.FetchError, err, "build request")
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", classifyFetchError(err, f.timeout)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", apperr.Upstream(apperr.FetchError, resp.StatusCode, "", nil, "url returned %s", resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType != "text/html" && mediaType != "application/xhtml+xml" && mediaType != "text/plain" {
		return "", apperr.New(apperr.FetchError, "url does not return html content (got %q)", contentType)
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, maxBodyBytes), contentType)
	if err != nil {
		return "", apperr.Wrap(apperr.FetchError, err, "decode response body")
	}

	var text string
	if mediaType == "text/plain" {
		raw, err := io.ReadAll(body)
		if err != nil {
			return "", classifyFetchError(err, f.timeout)
		}
		text = strings.TrimSpace(string(raw))
	} else {
		text, err = ExtractText(body, MaxParagraphs)
		if err != nil {
			return "", classifyFetchError(err, f.timeout)
		}
	}

	if text == "" {
		return "", apperr.New(apperr.FetchError, "no readable text content found")
	}
	return text, nil
}

func classifyFetchError(err error, timeout time.Duration) error {
	if e, ok := apperr.As(err); ok {
		return e
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return apperr.Wrap(apperr.FetchError, err, "request timed out after %s", timeout)
	}
	return apperr.Wrap(apperr.FetchError, err, "could not fetch url")
}
