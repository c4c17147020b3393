// Package sidecar talks to the local inference runtime that hosts the
// diffusion and object detection models.
package sidecar

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/decorlens/backend/internal/domain"
)

// Model tasks understood by the runtime
const (
	TaskImg2Img = "img2img"
	TaskDetect  = "detect"
)

// maxErrorBody bounds how much of a failed response ends up in an error
const maxErrorBody = 512

// ModelInfo describes a model the runtime has loaded
type ModelInfo struct {
	Model  string `json:"model"`
	Task   string `json:"task"`
	Device string `json:"device"`
}

// Img2ImgRequest holds the parameters of an image-to-image run
type Img2ImgRequest struct {
	Model          string  `json:"model"`
	Image          string  `json:"image"` // base64 PNG
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt"`
	Strength       float64 `json:"strength"`
	GuidanceScale  float64 `json:"guidance_scale"`
	Steps          int     `json:"num_inference_steps"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
}

// Client is an HTTP client for the inference runtime
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a runtime client. Model runs can take minutes on CPU,
// so timeout should be generous.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}
}

// LoadModel asks the runtime to load model for task. Loading an already
// loaded model is a no-op on the runtime side.
func (c *Client) LoadModel(ctx context.Context, model, task string) (*ModelInfo, error) {
	body, err := json.Marshal(map[string]string{"model": model, "task": task})
	if err != nil {
		return nil, err
	}

	resp, err := c.post(ctx, "/v1/models/load", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var info ModelInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode model info: %w", err)
	}
	if info.Model == "" {
		info.Model = model
	}
	return &info, nil
}

// Img2Img runs image-to-image diffusion and returns the raw output image
func (c *Client) Img2Img(ctx context.Context, image []byte, req Img2ImgRequest) ([]byte, error) {
	req.Image = base64.StdEncoding.EncodeToString(image)
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	resp, err := c.post(ctx, "/v1/img2img", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read img2img output: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("img2img returned an empty image")
	}
	return data, nil
}

// Detect runs object detection on image and returns every object at or
// above confidence.
func (c *Client) Detect(ctx context.Context, model string, image []byte, confidence float64) ([]domain.RawDetection, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "image")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("copy image data: %w", err)
	}
	if err := writer.WriteField("model", model); err != nil {
		return nil, err
	}
	if err := writer.WriteField("confidence", strconv.FormatFloat(confidence, 'f', -1, 64)); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	resp, err := c.post(ctx, "/v1/detect", writer.FormDataContentType(), body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result struct {
		Detections []domain.RawDetection `json:"detections"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if result.Detections == nil {
		result.Detections = []domain.RawDetection{}
	}
	return result.Detections, nil
}

// Health checks that the runtime is reachable
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inference runtime unhealthy: %d", resp.StatusCode)
	}
	return nil
}

// post sends a request and returns the response when it succeeded.
// The caller closes the body.
func (c *Client) post(ctx context.Context, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("inference runtime %s failed with status %d: %s",
			path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return resp, nil
}
