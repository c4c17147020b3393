// Package provider holds the image generators a redesign request can pick.
package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/time/rate"
)

const (
	userAgent    = "DecorLens/1.0"
	maxErrorBody = 512
)

// DiffusionParams are the image-to-image settings shared by every generator
type DiffusionParams struct {
	Model         string
	Width         int
	Height        int
	Steps         int
	GuidanceScale float64
	Strength      float64
}

// newLimiter allows perMinute requests per minute with a small burst.
// A non-positive perMinute disables limiting.
func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := perMinute / 10
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), burst)
}

// apiClient sends requests to a hosted inference API. Requests wait for the
// limiter and are never retried.
type apiClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	name       string
}

func newAPIClient(name string, timeout time.Duration, perMinute int) *apiClient {
	return &apiClient{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    newLimiter(perMinute),
		name:       name,
	}
}

// do waits for the limiter, sends req and returns the response if it has a
// 2xx status. The caller closes the body.
func (c *apiClient) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}
	return c.send(req)
}

// send is do without the limiter, for follow-up calls such as polling and downloads
func (c *apiClient) send(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", c.name, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%s API error: status %d, body: %s",
			c.name, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp, nil
}

// download fetches a result file
func (c *apiClient) download(ctx context.Context, url string, header http.Header) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := c.send(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read %s output: %w", c.name, err)
	}
	return data, detectContentType(data), nil
}

// dataURI encodes an image as a base64 data URI
func dataURI(image []byte) string {
	return "data:" + detectContentType(image) + ";base64," + base64.StdEncoding.EncodeToString(image)
}

func detectContentType(data []byte) string {
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "image/png"
	}
	return mt.String()
}
